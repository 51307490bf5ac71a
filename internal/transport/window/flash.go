package window

import "image"

// flashFrames is how many window frames a dispatched region stays outlined.
const flashFrames = 12

type flash struct {
	rect image.Rectangle
	ttl  int
}

// flashes keeps the recently dispatched regions for the outline overlay.
type flashes struct {
	items []flash
	limit int
}

func newFlashes(limit int) *flashes {
	return &flashes{limit: limit}
}

// add records r; beyond the limit the oldest outline is dropped.
func (f *flashes) add(r image.Rectangle) {
	if f.limit > 0 && len(f.items) >= f.limit {
		copy(f.items, f.items[1:])
		f.items = f.items[:len(f.items)-1]
	}
	f.items = append(f.items, flash{rect: r, ttl: flashFrames})
}

// tick ages every outline by one frame and drops expired ones.
func (f *flashes) tick() {
	kept := f.items[:0]
	for _, it := range f.items {
		it.ttl--
		if it.ttl > 0 {
			kept = append(kept, it)
		}
	}
	f.items = kept
}

// alpha returns the outline opacity for an item, fading as it ages.
func (it flash) alpha() float64 {
	return float64(it.ttl) / flashFrames
}
