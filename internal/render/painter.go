package render

import (
	"image"

	"lifescreen/internal/core"
)

// CellPainter draws a grid into a display-sized frame.
type CellPainter struct {
	layout  Layout
	palette Palette
}

// NewCellPainter returns a painter for the given geometry and colours.
func NewCellPainter(layout Layout, palette Palette) *CellPainter {
	return &CellPainter{layout: layout, palette: palette}
}

// NewFrame allocates a frame matching the screen size.
func (p *CellPainter) NewFrame() *image.RGBA {
	return NewFrame(p.layout.Screen.W, p.layout.Screen.H)
}

// Draw repaints dst from scratch: background first, then one square per cell.
// Cells outside the layout's grid are ignored.
func (p *CellPainter) Draw(dst *image.RGBA, g *core.Grid) {
	fill(dst, p.palette.Background)
	w, h := min(g.W, p.layout.Grid.W), min(g.H, p.layout.Grid.H)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := p.palette.Dead
			if g.Get(x, y) {
				c = p.palette.Alive
			}
			fillRect(dst, p.layout.CellRect(x, y), c)
		}
	}
}

// Background paints the whole frame with the background colour.
func (p *CellPainter) Background(dst *image.RGBA) {
	fill(dst, p.palette.Background)
}
