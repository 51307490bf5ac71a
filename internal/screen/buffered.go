// Package screen turns freshly rendered frames into the smallest practical
// set of region writes on a display.
//
// A Buffered screen owns the committed frame, the authoritative copy of what
// the device shows. Each Flush diffs a pending frame against it, clusters
// the changed pixels into rectangles with Merge and dispatches each rectangle
// through the display transport. Buffered is not safe for concurrent use.
package screen

import (
	"fmt"
	"image"

	"lifescreen/internal/transport"
)

// Stats describes one flush.
type Stats struct {
	Changed int // pixels that differed
	Regions int // rectangles dispatched
	Sent    int // pixels transmitted, including unchanged ones inside regions
	Full    bool
}

// DispatchError reports the region whose transmission failed.
type DispatchError struct {
	Region image.Rectangle
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("screen: dispatch %v: %v", e.Region, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Buffered tracks what a display shows and pushes only the differences.
type Buffered struct {
	display   transport.Display
	committed *image.RGBA
	valid     bool
	points    []image.Point
}

// NewBuffered wraps d. The device contents are unknown at first, so the first
// Flush sends the whole frame.
func NewBuffered(d transport.Display) *Buffered {
	return &Buffered{
		display:   d,
		committed: image.NewRGBA(d.Bounds()),
	}
}

// Invalidate forgets the device contents; the next Flush resends everything.
func (b *Buffered) Invalidate() { b.valid = false }

// Flush brings the device in line with pending, clustering changes with the
// given merge radii. If a region fails to dispatch the committed frame is
// invalidated and the error, a *DispatchError, is returned; the next
// successful Flush then retransmits the full frame.
func (b *Buffered) Flush(pending *image.RGBA, radX, radY int) (Stats, error) {
	if !b.valid {
		return b.flushFull(pending)
	}

	b.points = Diff(b.points[:0], b.committed, pending)
	st := Stats{Changed: len(b.points)}
	for _, r := range Merge(b.points, radX, radY) {
		if err := b.dispatch(pending, r); err != nil {
			b.valid = false
			return st, err
		}
		st.Regions++
		st.Sent += r.Dx() * r.Dy()
	}
	return st, nil
}

func (b *Buffered) flushFull(pending *image.RGBA) (Stats, error) {
	r := b.committed.Rect.Intersect(pending.Rect)
	st := Stats{Full: true}
	if r.Empty() {
		return st, nil
	}
	b.points = Diff(b.points[:0], b.committed, pending)
	st.Changed = len(b.points)
	if err := b.dispatch(pending, r); err != nil {
		return st, err
	}
	b.valid = true
	st.Regions = 1
	st.Sent = r.Dx() * r.Dy()
	return st, nil
}

func (b *Buffered) dispatch(pending *image.RGBA, r image.Rectangle) error {
	buf := b.display.CreateBuffer(r.Dx(), r.Dy())
	if err := b.display.WriteRegion(buf, pending.SubImage(r)); err != nil {
		return &DispatchError{Region: r, Err: err}
	}
	if err := b.display.DisplayBuffer(r.Min.X, r.Min.Y, buf); err != nil {
		return &DispatchError{Region: r, Err: err}
	}
	return nil
}
