package screen

import (
	"bytes"
	"image"
)

// Diff compares pending against committed pixel by pixel, copies every
// differing pixel into committed and appends its coordinates to dst. Points are
// produced in row-major order (top to bottom, left to right). Only the overlap
// of the two frames is compared.
//
// After Diff returns, committed equals pending on the compared area, so a
// second call without a new render reports nothing.
func Diff(dst []image.Point, committed, pending *image.RGBA) []image.Point {
	r := committed.Rect.Intersect(pending.Rect)
	if r.Empty() {
		return dst
	}
	n := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		co := committed.PixOffset(r.Min.X, y)
		po := pending.PixOffset(r.Min.X, y)
		crow := committed.Pix[co : co+n]
		prow := pending.Pix[po : po+n]
		if bytes.Equal(crow, prow) {
			continue
		}
		for i := 0; i < n; i += 4 {
			if crow[i] == prow[i] && crow[i+1] == prow[i+1] && crow[i+2] == prow[i+2] && crow[i+3] == prow[i+3] {
				continue
			}
			copy(crow[i:i+4], prow[i:i+4])
			dst = append(dst, image.Pt(r.Min.X+i/4, y))
		}
	}
	return dst
}
