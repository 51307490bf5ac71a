//go:build ebiten

package window

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"lifescreen/internal/transport"
)

// Display is the window-backed device. Close is a no-op: the window lives
// until Run returns.
type Display struct {
	mu      sync.Mutex
	rect    image.Rectangle
	canvas  *image.RGBA
	dirty   bool
	closed  bool
	flashes *flashes

	scale   int
	img     *ebiten.Image
	pixel   *ebiten.Image
	outline bool
	done    chan struct{}
}

func newDisplay(w, h, scale int) *Display {
	r := image.Rect(0, 0, w, h)
	if scale <= 0 {
		scale = 1
	}
	return &Display{
		rect:    r,
		canvas:  image.NewRGBA(r),
		flashes: newFlashes(256),
		scale:   scale,
		done:    make(chan struct{}),
	}
}

// Bounds returns the emulated surface.
func (d *Display) Bounds() image.Rectangle { return d.rect }

// CreateBuffer allocates an RGBA staging buffer.
func (d *Display) CreateBuffer(w, h int) transport.Buffer {
	return transport.NewRGBABuffer(w, h)
}

// WriteRegion copies src into buf.
func (d *Display) WriteRegion(buf transport.Buffer, src image.Image) error {
	b, ok := buf.(*transport.RGBABuffer)
	if !ok {
		return fmt.Errorf("window: %w", transport.ErrForeignBuffer)
	}
	return b.Load(src)
}

// DisplayBuffer blits buf into the canvas at (x, y).
func (d *Display) DisplayBuffer(x, y int, buf transport.Buffer) error {
	b, ok := buf.(*transport.RGBABuffer)
	if !ok {
		return fmt.Errorf("window: %w", transport.ErrForeignBuffer)
	}
	s := b.Size()
	if err := transport.CheckPlacement(d.rect, x, y, s); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return transport.ErrClosed
	}
	for row := 0; row < s.H; row++ {
		do := d.canvas.PixOffset(x, y+row)
		copy(d.canvas.Pix[do:do+4*s.W], b.Pix[row*b.Stride:row*b.Stride+4*s.W])
	}
	d.dirty = true
	d.flashes.add(image.Rect(x, y, x+s.W, y+s.H))
	return nil
}

// Close is a no-op.
func (d *Display) Close() error { return nil }

// Update handles keys and ends the game once the session is over.
func (d *Display) Update() error {
	select {
	case <-d.done:
		return ebiten.Termination
	default:
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		d.outline = !d.outline
	}
	d.mu.Lock()
	d.flashes.tick()
	d.mu.Unlock()
	return nil
}

// Draw uploads the canvas when it changed and overlays region outlines.
func (d *Display) Draw(screen *ebiten.Image) {
	if d.img == nil {
		d.img = ebiten.NewImage(d.rect.Dx(), d.rect.Dy())
		d.pixel = ebiten.NewImage(1, 1)
		d.pixel.Fill(color.White)
	}
	d.mu.Lock()
	if d.dirty {
		d.img.WritePixels(d.canvas.Pix)
		d.dirty = false
	}
	var items []flash
	if d.outline {
		items = append(items, d.flashes.items...)
	}
	d.mu.Unlock()

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(d.scale), float64(d.scale))
	screen.DrawImage(d.img, op)

	for _, it := range items {
		d.drawOutline(screen, it)
	}
}

func (d *Display) drawOutline(screen *ebiten.Image, it flash) {
	s := float64(d.scale)
	r := it.rect
	x0, y0 := float64(r.Min.X)*s, float64(r.Min.Y)*s
	w, h := float64(r.Dx())*s, float64(r.Dy())*s
	a := it.alpha()
	for _, e := range [][4]float64{
		{x0, y0, w, 1}, {x0, y0 + h - 1, w, 1},
		{x0, y0, 1, h}, {x0 + w - 1, y0, 1, h},
	} {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(e[2], e[3])
		op.GeoM.Translate(e[0], e[1])
		op.ColorM.Scale(0, 1, 0.4, a)
		screen.DrawImage(d.pixel, op)
	}
}

// Layout returns the logical screen size.
func (d *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	return d.rect.Dx() * d.scale, d.rect.Dy() * d.scale
}

// Run opens a window for a display described by opts and runs session on a
// separate goroutine, since the window must own the main thread. Closing the
// window cancels the session context; Run returns the session's error.
func Run(ctx context.Context, opts transport.Options, scale int, session func(context.Context, transport.Display) error) error {
	d := newDisplay(opts.Width, opts.Height, scale)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		defer close(d.done)
		errc <- session(ctx, d)
	}()

	ebiten.SetWindowTitle("lifescreen")
	ebiten.SetWindowSize(opts.Width*d.scale, opts.Height*d.scale)
	runErr := ebiten.RunGame(d)

	cancel()
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	err := <-errc

	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		return runErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
