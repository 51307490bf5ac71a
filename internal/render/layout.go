package render

import (
	"image"

	"lifescreen/internal/core"
)

// Layout maps grid cells onto display pixels. The cell area is centred on the
// screen; leftover pixels form a margin painted with the background colour.
type Layout struct {
	Screen core.Size
	Grid   core.Size
	Origin image.Point
	Cell   int
	Border int
}

// NewLayout fits as many cell-sized squares as possible onto a screen of w x h
// pixels.
func NewLayout(w, h, cell, border int) Layout {
	if cell <= 0 {
		cell = 1
	}
	if border < 0 {
		border = 0
	}
	gw, gh := w/cell, h/cell
	return Layout{
		Screen: core.Size{W: w, H: h},
		Grid:   core.Size{W: gw, H: gh},
		Origin: image.Pt((w-gw*cell)/2, (h-gh*cell)/2),
		Cell:   cell,
		Border: border,
	}
}

// CellRect returns the painted square of cell (x, y), inset by the border on
// every side. It is empty when the border swallows the whole cell.
func (l Layout) CellRect(x, y int) image.Rectangle {
	tl := l.Origin.Add(image.Pt(x*l.Cell+l.Border, y*l.Cell+l.Border))
	side := l.Cell - 2*l.Border
	if side <= 0 {
		return image.Rectangle{Min: tl, Max: tl}
	}
	return image.Rectangle{Min: tl, Max: tl.Add(image.Pt(side, side))}
}

// Radius returns the merge radius matched to the cell geometry: the painted
// side of one cell.
func (l Layout) Radius() int {
	if r := l.Cell - 2*l.Border; r > 0 {
		return r
	}
	return 0
}
