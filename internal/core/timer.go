package core

import (
	"context"
	"time"
)

// FixedStep paces frame production at a steady rate. A zero rate disables
// pacing.
type FixedStep struct {
	step time.Duration
	last time.Time
	now  func() time.Time
}

// NewFixedStep constructs a FixedStep controller targeting the given frames
// per second. fps <= 0 yields an unpaced controller.
func NewFixedStep(fps int) *FixedStep {
	fs := &FixedStep{now: time.Now}
	fs.SetRate(fps)
	return fs
}

// SetRate changes the target rate.
func (f *FixedStep) SetRate(fps int) {
	if fps <= 0 {
		f.step = 0
		return
	}
	f.step = time.Second / time.Duration(fps)
}

// Step returns the interval between frames, zero when unpaced.
func (f *FixedStep) Step() time.Duration { return f.step }

// Remaining reports how long the caller should wait before the next frame.
func (f *FixedStep) Remaining() time.Duration {
	if f.step == 0 || f.last.IsZero() {
		return 0
	}
	d := f.step - f.now().Sub(f.last)
	if d < 0 {
		return 0
	}
	return d
}

// Wait blocks until the next frame is due or ctx is done, then marks the
// frame as started.
func (f *FixedStep) Wait(ctx context.Context) error {
	if d := f.Remaining(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	f.last = f.now()
	return nil
}
