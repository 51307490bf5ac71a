package window

import (
	"image"
	"testing"
)

func TestFlashesExpire(t *testing.T) {
	f := newFlashes(0)
	f.add(image.Rect(0, 0, 2, 2))
	for i := 0; i < flashFrames-1; i++ {
		f.tick()
	}
	if len(f.items) != 1 || f.items[0].ttl != 1 {
		t.Fatalf("items=%+v", f.items)
	}
	f.tick()
	if len(f.items) != 0 {
		t.Fatalf("items=%+v, want expired", f.items)
	}
}

func TestFlashesLimitDropsOldest(t *testing.T) {
	f := newFlashes(2)
	f.add(image.Rect(0, 0, 1, 1))
	f.add(image.Rect(1, 1, 2, 2))
	f.add(image.Rect(2, 2, 3, 3))
	if len(f.items) != 2 || f.items[0].rect != image.Rect(1, 1, 2, 2) {
		t.Fatalf("items=%+v", f.items)
	}
}

func TestFlashAlphaFades(t *testing.T) {
	it := flash{ttl: flashFrames}
	if it.alpha() != 1 {
		t.Fatalf("alpha=%v", it.alpha())
	}
	it.ttl = flashFrames / 2
	if a := it.alpha(); a <= 0 || a >= 1 {
		t.Fatalf("alpha=%v", a)
	}
}
