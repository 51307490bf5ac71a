package render

import (
	"image"
	"image/color"
)

// NewFrame allocates a frame of the given pixel size. Frames are row-major
// RGBA, four bytes per pixel.
func NewFrame(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// fillRect paints r (clipped to the frame) with c.
func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Rect)
	if r.Empty() {
		return
	}
	row := dst.PixOffset(r.Min.X, r.Min.Y)
	n := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		buf := dst.Pix[row : row+n]
		for i := 0; i < n; i += 4 {
			buf[i+0] = c.R
			buf[i+1] = c.G
			buf[i+2] = c.B
			buf[i+3] = c.A
		}
		row += dst.Stride
	}
}

// fill paints the whole frame with c.
func fill(dst *image.RGBA, c color.RGBA) {
	fillRect(dst, dst.Rect, c)
}
