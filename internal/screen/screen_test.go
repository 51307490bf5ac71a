package screen

import (
	"errors"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lifescreen/internal/transport/memory"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func frame(w, h int) *image.RGBA { return image.NewRGBA(image.Rect(0, 0, w, h)) }

func TestDiffReportsAndCommits(t *testing.T) {
	committed, pending := frame(4, 3), frame(4, 3)
	pending.SetRGBA(3, 0, red)
	pending.SetRGBA(1, 2, red)
	pending.SetRGBA(0, 2, blue)

	got := Diff(nil, committed, pending)
	want := []image.Point{{3, 0}, {0, 2}, {1, 2}}
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", d)
	}
	if committed.RGBAAt(1, 2) != red || committed.RGBAAt(0, 2) != blue {
		t.Fatal("Diff did not copy changed pixels into committed")
	}
	if again := Diff(nil, committed, pending); len(again) != 0 {
		t.Fatalf("second Diff reported %v, want nothing", again)
	}
}

func TestDiffRevertedPixelReportedAgain(t *testing.T) {
	committed, pending := frame(3, 3), frame(3, 3)
	pending.SetRGBA(1, 1, red)
	Diff(nil, committed, pending)

	pending.SetRGBA(1, 1, color.RGBA{})
	got := Diff(nil, committed, pending)
	if d := cmp.Diff([]image.Point{{1, 1}}, got); d != "" {
		t.Fatalf("reverted pixel not reported (-want +got):\n%s", d)
	}
}

func TestDiffAppendsToDst(t *testing.T) {
	committed, pending := frame(2, 1), frame(2, 1)
	pending.SetRGBA(1, 0, red)
	dst := []image.Point{{9, 9}}
	got := Diff(dst, committed, pending)
	if len(got) != 2 || got[1] != image.Pt(1, 0) {
		t.Fatalf("Diff=%v", got)
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil, 5, 5); got != nil {
		t.Fatalf("Merge(nil)=%v", got)
	}
}

func TestMergeLargeRadiusSingleBox(t *testing.T) {
	pts := []image.Point{{10, 2}, {0, 7}, {4, 4}, {19, 0}}
	got := Merge(pts, 100, 100)
	want := []image.Rectangle{image.Rect(0, 0, 20, 8)}
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("Merge mismatch (-want +got):\n%s", d)
	}
}

func TestMergeZeroRadiusOnePixelEach(t *testing.T) {
	pts := []image.Point{{1, 1}, {2, 1}, {1, 2}}
	got := Merge(pts, 0, 0)
	want := []image.Rectangle{image.Rect(1, 1, 2, 2), image.Rect(2, 1, 3, 2), image.Rect(1, 2, 2, 3)}
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("Merge mismatch (-want +got):\n%s", d)
	}
}

func TestMergeDistanceFromSeed(t *testing.T) {
	// (6,0) is within 3 of (3,0) but not of the seed (0,0).
	pts := []image.Point{{0, 0}, {3, 0}, {6, 0}}
	got := Merge(pts, 3, 3)
	want := []image.Rectangle{image.Rect(0, 0, 4, 1), image.Rect(6, 0, 7, 1)}
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("Merge mismatch (-want +got):\n%s", d)
	}

	// A seed in the middle pulls in members on both sides, so the box spans
	// twice the radius.
	got = Merge([]image.Point{{5, 0}, {2, 0}, {8, 0}}, 3, 0)
	if d := cmp.Diff([]image.Rectangle{image.Rect(2, 0, 9, 1)}, got); d != "" {
		t.Fatalf("Merge mismatch (-want +got):\n%s", d)
	}
}

func TestMergeAnisotropicRadii(t *testing.T) {
	pts := []image.Point{{0, 0}, {5, 0}, {0, 5}}
	got := Merge(pts, 5, 1)
	want := []image.Rectangle{image.Rect(0, 0, 6, 1), image.Rect(0, 5, 1, 6)}
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("Merge mismatch (-want +got):\n%s", d)
	}
}

// mergeReference is the plain quadratic form of Merge, without the sorted
// early exit.
func mergeReference(points []image.Point, radX, radY int) []image.Rectangle {
	claimed := make([]bool, len(points))
	var rects []image.Rectangle
	for i, s := range points {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		minX, minY, maxX, maxY := s.X, s.Y, s.X, s.Y
		for j := i + 1; j < len(points); j++ {
			p := points[j]
			if claimed[j] || abs(p.X-s.X) > radX || abs(p.Y-s.Y) > radY {
				continue
			}
			claimed[j] = true
			minX, minY = min(minX, p.X), min(minY, p.Y)
			maxX, maxY = max(maxX, p.X), max(maxY, p.Y)
		}
		rects = append(rects, image.Rect(minX, minY, maxX+1, maxY+1))
	}
	return rects
}

func randomChanges(rng *rand.Rand, w, h int) []image.Point {
	committed, pending := frame(w, h), frame(w, h)
	n := rng.IntN(w*h/4) + 1
	for i := 0; i < n; i++ {
		pending.SetRGBA(rng.IntN(w), rng.IntN(h), red)
	}
	return Diff(nil, committed, pending)
}

func TestMergeCompleteness(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 0))
	for trial := 0; trial < 200; trial++ {
		pts := randomChanges(rng, 40, 30)
		if trial%2 == 1 {
			rng.Shuffle(len(pts), func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })
		}
		radX, radY := rng.IntN(12), rng.IntN(12)
		rects := Merge(pts, radX, radY)

		if len(rects) == 0 || len(rects) > len(pts) {
			t.Fatalf("trial %d: %d rects for %d points", trial, len(rects), len(pts))
		}
		for _, p := range pts {
			covered := false
			for _, r := range rects {
				if p.In(r) {
					covered = true
					break
				}
			}
			if !covered {
				t.Fatalf("trial %d: point %v not covered by %v", trial, p, rects)
			}
		}
		if d := cmp.Diff(mergeReference(pts, radX, radY), rects); d != "" {
			t.Fatalf("trial %d: sorted scan differs from reference (-want +got):\n%s", trial, d)
		}
	}
}

func TestBufferedFirstFlushIsFullFrame(t *testing.T) {
	dev := memory.New(6, 4)
	b := NewBuffered(dev)
	pending := frame(6, 4)
	pending.SetRGBA(2, 2, red)

	st, err := b.Flush(pending, 1, 1)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !st.Full || st.Regions != 1 || st.Sent != 24 || st.Changed != 1 {
		t.Fatalf("stats=%+v", st)
	}
	if d := cmp.Diff(image.Rect(0, 0, 6, 4), dev.Ops()[0].Region); d != "" {
		t.Fatalf("region mismatch:\n%s", d)
	}
	if dev.Screen().RGBAAt(2, 2) != red {
		t.Fatal("device does not show the frame")
	}
}

func TestBufferedSendsOnlyChanges(t *testing.T) {
	dev := memory.New(20, 20)
	b := NewBuffered(dev)
	pending := frame(20, 20)
	if _, err := b.Flush(pending, 2, 2); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	dev.ResetStats()

	pending.SetRGBA(1, 1, red)
	pending.SetRGBA(2, 2, red)
	pending.SetRGBA(15, 15, blue)
	st, err := b.Flush(pending, 2, 2)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if st.Full || st.Changed != 3 || st.Regions != 2 || st.Sent != 5 {
		t.Fatalf("stats=%+v", st)
	}
	want := []memory.Op{{Region: image.Rect(1, 1, 3, 3)}, {Region: image.Rect(15, 15, 16, 16)}}
	if d := cmp.Diff(want, dev.Ops()); d != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", d)
	}
	if !sameImage(dev.Screen(), pending) {
		t.Fatal("device out of sync with pending frame")
	}

	st, err = b.Flush(pending, 2, 2)
	if err != nil || st.Regions != 0 {
		t.Fatalf("idle flush: stats=%+v err=%v", st, err)
	}
}

func TestBufferedFailureForcesFullResend(t *testing.T) {
	boom := errors.New("link down")
	dev := memory.New(10, 10)
	b := NewBuffered(dev)
	pending := frame(10, 10)
	if _, err := b.Flush(pending, 0, 0); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	dev.FailAfter = 2
	dev.Err = boom
	pending.SetRGBA(0, 0, red)
	pending.SetRGBA(9, 9, red)
	_, err := b.Flush(pending, 0, 0)
	var de *DispatchError
	if !errors.As(err, &de) || !errors.Is(err, boom) {
		t.Fatalf("err=%v, want DispatchError wrapping boom", err)
	}
	if de.Region != image.Rect(9, 9, 10, 10) {
		t.Fatalf("failed region=%v", de.Region)
	}

	dev.FailAfter = 0
	dev.ResetStats()
	st, err := b.Flush(pending, 0, 0)
	if err != nil {
		t.Fatalf("Flush after failure: %v", err)
	}
	if !st.Full || st.Sent != 100 {
		t.Fatalf("stats=%+v, want full resend", st)
	}
	if !sameImage(dev.Screen(), pending) {
		t.Fatal("device out of sync after recovery")
	}
}

func TestBufferedInvalidateResendsEverything(t *testing.T) {
	dev := memory.New(4, 4)
	b := NewBuffered(dev)
	pending := frame(4, 4)
	if _, err := b.Flush(pending, 0, 0); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	b.Invalidate()
	st, err := b.Flush(pending, 0, 0)
	if err != nil || !st.Full || st.Sent != 16 {
		t.Fatalf("stats=%+v err=%v, want full resend", st, err)
	}
}

func sameImage(a, b *image.RGBA) bool {
	if a.Rect != b.Rect {
		return false
	}
	for y := a.Rect.Min.Y; y < a.Rect.Max.Y; y++ {
		for x := a.Rect.Min.X; x < a.Rect.Max.X; x++ {
			if a.RGBAAt(x, y) != b.RGBAAt(x, y) {
				return false
			}
		}
	}
	return true
}
