// Package memory provides an in-process display that keeps what it was sent
// in a frame buffer and records every dispatched region. It backs the bench
// command and stands in for hardware in tests.
package memory

import (
	"fmt"
	"image"

	"lifescreen/internal/transport"
)

// Op records one DisplayBuffer call.
type Op struct {
	Region image.Rectangle
}

// Display is an in-memory device.
type Display struct {
	rect   image.Rectangle
	screen *image.RGBA
	ops    []Op
	pixels int
	closed bool

	// FailAfter, when positive, makes the call after that many successful
	// DisplayBuffer calls fail with Err.
	FailAfter int
	// Err is the injected failure; defaults to a generic I/O error.
	Err error
}

// New returns a blank w x h display.
func New(w, h int) *Display {
	r := image.Rect(0, 0, w, h)
	return &Display{rect: r, screen: image.NewRGBA(r)}
}

// Bounds returns the device surface.
func (d *Display) Bounds() image.Rectangle { return d.rect }

// CreateBuffer allocates an RGBA staging buffer.
func (d *Display) CreateBuffer(w, h int) transport.Buffer {
	return transport.NewRGBABuffer(w, h)
}

// WriteRegion copies src into buf.
func (d *Display) WriteRegion(buf transport.Buffer, src image.Image) error {
	if d.closed {
		return transport.ErrClosed
	}
	b, ok := buf.(*transport.RGBABuffer)
	if !ok {
		return fmt.Errorf("memory: %w", transport.ErrForeignBuffer)
	}
	return b.Load(src)
}

// DisplayBuffer copies buf onto the screen at (x, y).
func (d *Display) DisplayBuffer(x, y int, buf transport.Buffer) error {
	if d.closed {
		return transport.ErrClosed
	}
	b, ok := buf.(*transport.RGBABuffer)
	if !ok {
		return fmt.Errorf("memory: %w", transport.ErrForeignBuffer)
	}
	if err := transport.CheckPlacement(d.rect, x, y, b.Size()); err != nil {
		return err
	}
	if d.FailAfter > 0 && len(d.ops) >= d.FailAfter {
		if d.Err != nil {
			return d.Err
		}
		return fmt.Errorf("memory: injected failure after %d regions", d.FailAfter)
	}

	s := b.Size()
	for row := 0; row < s.H; row++ {
		do := d.screen.PixOffset(x, y+row)
		copy(d.screen.Pix[do:do+4*s.W], b.Pix[row*b.Stride:row*b.Stride+4*s.W])
	}
	d.ops = append(d.ops, Op{Region: image.Rect(x, y, x+s.W, y+s.H)})
	d.pixels += s.W * s.H
	return nil
}

// Close marks the display closed.
func (d *Display) Close() error {
	d.closed = true
	return nil
}

// Screen returns what the device currently shows.
func (d *Display) Screen() *image.RGBA { return d.screen }

// Ops returns the regions dispatched so far.
func (d *Display) Ops() []Op { return d.ops }

// Pixels returns the total number of pixels sent.
func (d *Display) Pixels() int { return d.pixels }

// ResetStats forgets recorded operations.
func (d *Display) ResetStats() {
	d.ops = d.ops[:0]
	d.pixels = 0
}

func init() {
	transport.Register("memory", func(opts transport.Options) (transport.Display, error) {
		return New(opts.Width, opts.Height), nil
	})
}
