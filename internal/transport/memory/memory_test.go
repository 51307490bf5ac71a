package memory

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"lifescreen/internal/transport"
)

func TestDisplayBufferCopiesRegion(t *testing.T) {
	d := New(8, 8)
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	src.SetRGBA(3, 4, color.RGBA{G: 200, A: 255})

	buf := d.CreateBuffer(2, 2)
	if err := d.WriteRegion(buf, src.SubImage(image.Rect(2, 3, 4, 5))); err != nil {
		t.Fatalf("WriteRegion: %v", err)
	}
	if err := d.DisplayBuffer(2, 3, buf); err != nil {
		t.Fatalf("DisplayBuffer: %v", err)
	}
	if got := d.Screen().RGBAAt(3, 4); got != (color.RGBA{G: 200, A: 255}) {
		t.Fatalf("screen pixel=%v", got)
	}
	if len(d.Ops()) != 1 || d.Pixels() != 4 {
		t.Fatalf("ops=%d pixels=%d, want 1 and 4", len(d.Ops()), d.Pixels())
	}
}

func TestFailAfter(t *testing.T) {
	boom := errors.New("boom")
	d := New(4, 4)
	d.FailAfter = 1
	d.Err = boom

	buf := d.CreateBuffer(1, 1)
	if err := d.DisplayBuffer(0, 0, buf); err != nil {
		t.Fatalf("first DisplayBuffer: %v", err)
	}
	if err := d.DisplayBuffer(1, 1, buf); !errors.Is(err, boom) {
		t.Fatalf("second DisplayBuffer err=%v, want boom", err)
	}
}

func TestRejectsOutOfBoundsAndClosed(t *testing.T) {
	d := New(4, 4)
	buf := d.CreateBuffer(2, 2)
	if err := d.DisplayBuffer(3, 3, buf); !errors.Is(err, transport.ErrOutOfBounds) {
		t.Fatalf("err=%v, want ErrOutOfBounds", err)
	}
	d.Close()
	if err := d.DisplayBuffer(0, 0, buf); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("err=%v, want ErrClosed", err)
	}
}

func TestRegistered(t *testing.T) {
	d, err := transport.Open("memory", transport.Options{Width: 5, Height: 6})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.Bounds() != image.Rect(0, 0, 5, 6) {
		t.Fatalf("bounds=%v", d.Bounds())
	}
}
