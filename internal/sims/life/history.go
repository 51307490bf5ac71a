package life

import (
	"hash/maphash"

	"lifescreen/internal/core"
)

// History is a value-keyed set of grid snapshots seen during one run. Grids
// added to it are owned by the set and must not be mutated afterwards.
//
// With a positive limit only the most recent limit snapshots are kept, so
// cycles longer than the window go unnoticed.
type History struct {
	seed  maphash.Seed
	limit int
	index map[uint64][]*core.Grid
	order []*core.Grid
}

// NewHistory creates an empty history. limit <= 0 keeps every snapshot.
func NewHistory(limit int) *History {
	return &History{
		seed:  maphash.MakeSeed(),
		limit: limit,
		index: make(map[uint64][]*core.Grid),
	}
}

// Len returns the number of distinct snapshots held.
func (h *History) Len() int { return len(h.order) }

// Contains reports whether a grid equal to g has been added.
func (h *History) Contains(g *core.Grid) bool {
	for _, s := range h.index[g.Hash(h.seed)] {
		if s.Equal(g) {
			return true
		}
	}
	return false
}

// Add records g. Adding a grid equal to one already present is a no-op.
func (h *History) Add(g *core.Grid) {
	key := g.Hash(h.seed)
	for _, s := range h.index[key] {
		if s.Equal(g) {
			return
		}
	}
	h.index[key] = append(h.index[key], g)
	h.order = append(h.order, g)
	if h.limit > 0 && len(h.order) > h.limit {
		h.evict()
	}
}

// evict drops the oldest snapshot.
func (h *History) evict() {
	old := h.order[0]
	h.order[0] = nil
	h.order = h.order[1:]

	key := old.Hash(h.seed)
	bucket := h.index[key]
	for i, s := range bucket {
		if s == old {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(h.index, key)
		return
	}
	h.index[key] = bucket
}

// Reset forgets every snapshot.
func (h *History) Reset() {
	clear(h.index)
	h.order = nil
}
