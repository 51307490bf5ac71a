// Package term emulates a pixel display in an ANSI terminal. Two pixel rows
// share one character cell (upper half block, foreground over background)
// and only the rows touched by a dispatched region are repainted, so the
// terminal sees the same partial-update traffic a real panel would.
package term

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"lifescreen/internal/transport"
)

const halfBlock = "▀"

// Display paints regions into a terminal.
type Display struct {
	rect   image.Rectangle
	canvas *image.RGBA
	out    io.Writer
	style  *lipgloss.Renderer
	closed bool
}

// New returns a w x h pixel display writing to out. It clears the terminal and
// hides the cursor.
func New(out io.Writer, w, h int) (*Display, error) {
	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(termenv.TrueColor)
	rect := image.Rect(0, 0, w, h)
	d := &Display{rect: rect, canvas: image.NewRGBA(rect), out: out, style: r}
	if _, err := io.WriteString(out, "\x1b[2J\x1b[?25l"); err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	return d, nil
}

// Bounds returns the emulated surface.
func (d *Display) Bounds() image.Rectangle { return d.rect }

// Canvas returns the pixels currently shown.
func (d *Display) Canvas() *image.RGBA { return d.canvas }

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
		return fmt.Errorf("term: %w", transport.ErrForeignBuffer)
	}
	return b.Load(src)
}

// DisplayBuffer blits buf at (x, y) and repaints the affected terminal rows.
func (d *Display) DisplayBuffer(x, y int, buf transport.Buffer) error {
	if d.closed {
		return transport.ErrClosed
	}
	b, ok := buf.(*transport.RGBABuffer)
	if !ok {
		return fmt.Errorf("term: %w", transport.ErrForeignBuffer)
	}
	size := b.Size()
	if err := transport.CheckPlacement(d.rect, x, y, size); err != nil {
		return err
	}
	r := image.Rect(x, y, x+size.W, y+size.H)
	for row := 0; row < size.H; row++ {
		do := d.canvas.PixOffset(x, y+row)
		copy(d.canvas.Pix[do:do+4*size.W], b.Pix[row*b.Stride:row*b.Stride+4*size.W])
	}
	return d.paint(r)
}

// paint redraws the character cells covering r.
func (d *Display) paint(r image.Rectangle) error {
	w := bufio.NewWriter(d.out)
	for ty := r.Min.Y / 2; ty <= (r.Max.Y-1)/2; ty++ {
		fmt.Fprintf(w, "\x1b[%d;%dH", ty+1, r.Min.X+1)
		top, bottom := 2*ty, 2*ty+1
		for x := r.Min.X; x < r.Max.X; {
			fg, bg := d.canvas.RGBAAt(x, top), d.cellBelow(x, bottom)
			run := 1
			for x+run < r.Max.X && d.canvas.RGBAAt(x+run, top) == fg && d.cellBelow(x+run, bottom) == bg {
				run++
			}
			s := d.style.NewStyle().Foreground(hex(fg))
			if bg.A != 0 {
				s = s.Background(hex(bg))
			}
			w.WriteString(s.Render(strings.Repeat(halfBlock, run)))
			x += run
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("term: %w", err)
	}
	return nil
}

// cellBelow returns the lower pixel of a character cell; past the last pixel
// row it is transparent so the terminal background shows.
func (d *Display) cellBelow(x, y int) color.RGBA {
	if y >= d.rect.Max.Y {
		return color.RGBA{}
	}
	return d.canvas.RGBAAt(x, y)
}

// Close restores the cursor below the emulated screen.
func (d *Display) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	rows := (d.rect.Dy() + 1) / 2
	if _, err := fmt.Fprintf(d.out, "\x1b[0m\x1b[%d;1H\x1b[?25h\n", rows+1); err != nil {
		return fmt.Errorf("term: %w", err)
	}
	return nil
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func init() {
	transport.Register("term", func(opts transport.Options) (transport.Display, error) {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		return New(out, opts.Width, opts.Height)
	})
}
