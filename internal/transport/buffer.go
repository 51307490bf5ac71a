package transport

import (
	"fmt"
	"image"
	"image/color"

	"lifescreen/internal/core"
)

// RGBABuffer holds a region as 8-bit RGBA.
type RGBABuffer struct {
	*image.RGBA
}

// NewRGBABuffer allocates a w x h buffer.
func NewRGBABuffer(w, h int) *RGBABuffer {
	return &RGBABuffer{RGBA: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Size returns the buffer dimensions.
func (b *RGBABuffer) Size() core.Size { return core.Size{W: b.Rect.Dx(), H: b.Rect.Dy()} }

// Load copies src into the buffer.
func (b *RGBABuffer) Load(src image.Image) error {
	if err := checkSource(b.Size(), src); err != nil {
		return err
	}
	sr := src.Bounds()
	if s, ok := src.(*image.RGBA); ok {
		n := sr.Dx() * 4
		for y := 0; y < sr.Dy(); y++ {
			so := s.PixOffset(sr.Min.X, sr.Min.Y+y)
			copy(b.Pix[y*b.Stride:y*b.Stride+n], s.Pix[so:so+n])
		}
		return nil
	}
	for y := 0; y < sr.Dy(); y++ {
		for x := 0; x < sr.Dx(); x++ {
			b.Set(x, y, src.At(sr.Min.X+x, sr.Min.Y+y))
		}
	}
	return nil
}

// RGB565Buffer holds a region packed as 16-bit RGB565, the native format of
// most small TFT panels.
type RGB565Buffer struct {
	W, H      int
	Pix       []byte
	BigEndian bool
}

// NewRGB565Buffer allocates a w x h buffer with the given byte order.
func NewRGB565Buffer(w, h int, bigEndian bool) *RGB565Buffer {
	return &RGB565Buffer{W: w, H: h, Pix: make([]byte, 2*w*h), BigEndian: bigEndian}
}

// Size returns the buffer dimensions.
func (b *RGB565Buffer) Size() core.Size { return core.Size{W: b.W, H: b.H} }

// Load converts src into the buffer.
func (b *RGB565Buffer) Load(src image.Image) error {
	if err := checkSource(b.Size(), src); err != nil {
		return err
	}
	sr := src.Bounds()
	i := 0
	for y := sr.Min.Y; y < sr.Max.Y; y++ {
		for x := sr.Min.X; x < sr.Max.X; x++ {
			v := RGB565(src.At(x, y))
			if b.BigEndian {
				b.Pix[i], b.Pix[i+1] = byte(v>>8), byte(v)
			} else {
				b.Pix[i], b.Pix[i+1] = byte(v), byte(v>>8)
			}
			i += 2
		}
	}
	return nil
}

// RGB565 packs c into 5-6-5 bits.
func RGB565(c color.Color) uint16 {
	r, g, b, _ := c.RGBA()
	return uint16(r>>11)<<11 | uint16(g>>10)<<5 | uint16(b>>11)
}

func checkSource(size core.Size, src image.Image) error {
	sr := src.Bounds()
	if sr.Dx() != size.W || sr.Dy() != size.H {
		return fmt.Errorf("%w: source %dx%d, buffer %dx%d", ErrForeignBuffer, sr.Dx(), sr.Dy(), size.W, size.H)
	}
	return nil
}
