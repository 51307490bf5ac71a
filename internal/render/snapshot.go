package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"lifescreen/internal/core"
)

// Snapshot renders one pixel per cell, alive white and dead black, enlarged by
// scale with nearest-neighbour sampling.
func Snapshot(g *core.Grid, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	small := NewFrame(g.W, g.H)
	fill(small, color.RGBA{A: 0xff})
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if g.Get(x, y) {
				small.SetRGBA(x, y, white)
			}
		}
	}
	if scale == 1 {
		return small
	}
	big := NewFrame(g.W*scale, g.H*scale)
	draw.NearestNeighbor.Scale(big, big.Rect, small, small.Rect, draw.Src, nil)
	return big
}

// WriteGridPNG encodes a snapshot of g as PNG.
func WriteGridPNG(w io.Writer, g *core.Grid, scale int) error {
	if err := png.Encode(w, Snapshot(g, scale)); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

// SaveGridPNG writes a snapshot of g to path.
func SaveGridPNG(path string, g *core.Grid, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := WriteGridPNG(f, g, scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
