package core

import (
	"encoding/binary"
	"hash/maphash"
	"math/bits"
	"strings"
)

// Topology selects how coordinates outside the grid are resolved.
type Topology uint8

const (
	// Wrap joins each edge to the opposite one (toroidal grid).
	Wrap Topology = iota
	// Bounded treats everything outside the grid as permanently dead.
	Bounded
)

// String returns the topology name.
func (t Topology) String() string {
	if t == Bounded {
		return "bounded"
	}
	return "wrap"
}

// Grid is a bit-packed two-state cell grid stored row-major, one bit per cell.
// A grid that has been handed to a History must not be mutated again.
type Grid struct {
	W, H   int
	topo   Topology
	stride int // words per row
	bits   []uint64
}

// NewGrid allocates a blank grid with the given dimensions and topology.
func NewGrid(w, h int, topo Topology) *Grid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	stride := (w + 63) / 64
	return &Grid{W: w, H: h, topo: topo, stride: stride, bits: make([]uint64, stride*h)}
}

// Topology reports how out-of-range coordinates are handled.
func (g *Grid) Topology() Topology { return g.topo }

// Size returns the grid dimensions.
func (g *Grid) Size() Size { return Size{W: g.W, H: g.H} }

// Wrap applies toroidal wrapping to the provided coordinates.
func (g *Grid) Wrap(x, y int) (int, int) {
	x = (x%g.W + g.W) % g.W
	y = (y%g.H + g.H) % g.H
	return x, y
}

// resolve maps (x, y) onto an in-range cell according to the topology.
func (g *Grid) resolve(x, y int) (int, int, bool) {
	if g.topo == Wrap {
		x, y = g.Wrap(x, y)
		return x, y, true
	}
	if x < 0 || x >= g.W || y < 0 || y >= g.H {
		return 0, 0, false
	}
	return x, y, true
}

// Get reports whether the cell at (x, y) is alive.
func (g *Grid) Get(x, y int) bool {
	x, y, ok := g.resolve(x, y)
	if !ok {
		return false
	}
	return g.bits[y*g.stride+x>>6]&(1<<(uint(x)&63)) != 0
}

// Set updates the cell at (x, y). Writes outside a bounded grid are dropped.
func (g *Grid) Set(x, y int, alive bool) {
	x, y, ok := g.resolve(x, y)
	if !ok {
		return
	}
	i, mask := y*g.stride+x>>6, uint64(1)<<(uint(x)&63)
	if alive {
		g.bits[i] |= mask
		return
	}
	g.bits[i] &^= mask
}

// Neighbors counts live cells in the Moore neighbourhood of (x, y).
func (g *Grid) Neighbors(x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if g.Get(x+dx, y+dy) {
				n++
			}
		}
	}
	return n
}

// Randomize sets every cell alive with probability p, drawing one value per
// cell in row-major order so a fixed seed always yields the same grid.
func (g *Grid) Randomize(src Source, p float64) {
	clear(g.bits)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if src.Float64() < p {
				g.Set(x, y, true)
			}
		}
	}
}

// Next returns a freshly allocated grid holding the following generation.
// A live cell survives with 2 or 3 neighbours; a dead cell is born with 3.
func (g *Grid) Next() *Grid {
	next := NewGrid(g.W, g.H, g.topo)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			n := g.Neighbors(x, y)
			if n == 3 || (n == 2 && g.Get(x, y)) {
				next.Set(x, y, true)
			}
		}
	}
	return next
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := *g
	c.bits = append([]uint64(nil), g.bits...)
	return &c
}

// Population returns the number of live cells.
func (g *Grid) Population() int {
	n := 0
	for _, w := range g.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Equal reports whether both grids have the same dimensions and cells.
// Topology is not part of the comparison.
func (g *Grid) Equal(o *Grid) bool {
	if g == o {
		return true
	}
	if o == nil || g.W != o.W || g.H != o.H {
		return false
	}
	for i, w := range g.bits {
		if o.bits[i] != w {
			return false
		}
	}
	return true
}

// Hash digests the dimensions and cells; equal grids hash equally under the
// same seed.
func (g *Grid) Hash(seed maphash.Seed) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	buf := make([]byte, 0, 16+8*len(g.bits))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(g.W))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(g.H))
	for _, w := range g.bits {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	h.Write(buf)
	return h.Sum64()
}

// String draws the grid with two characters per cell, one line per row.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow(g.H * (g.W*6 + 1))
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if g.Get(x, y) {
				b.WriteString("▓▓")
			} else {
				b.WriteString("[]")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
