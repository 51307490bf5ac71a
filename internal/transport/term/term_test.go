package term

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"lifescreen/internal/transport"
)

func TestDisplayBufferRepaintsRegionRows(t *testing.T) {
	var out bytes.Buffer
	d, err := New(&out, 8, 6)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out.Reset()

	src := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 2; y < 5; y++ {
		for x := 3; x < 5; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	r := image.Rect(3, 2, 5, 5)
	buf := d.CreateBuffer(r.Dx(), r.Dy())
	if err := d.WriteRegion(buf, src.SubImage(r)); err != nil {
		t.Fatalf("WriteRegion: %v", err)
	}
	if err := d.DisplayBuffer(r.Min.X, r.Min.Y, buf); err != nil {
		t.Fatalf("DisplayBuffer: %v", err)
	}

	if d.Canvas().RGBAAt(4, 4) != (color.RGBA{R: 255, A: 255}) {
		t.Fatal("canvas not updated")
	}
	got := out.String()
	// Pixel rows 2..4 live on terminal rows 2 and 3, starting at column 4.
	for _, seq := range []string{"\x1b[2;4H", "\x1b[3;4H"} {
		if !strings.Contains(got, seq) {
			t.Fatalf("output %q missing cursor move %q", got, seq)
		}
	}
	if strings.Contains(got, "\x1b[1;4H") || strings.Contains(got, "\x1b[4;4H") {
		t.Fatalf("output %q repaints rows outside the region", got)
	}
	if strings.Count(got, halfBlock) != 4 {
		t.Fatalf("output %q should draw 4 half blocks", got)
	}
}

func TestCloseRestoresCursor(t *testing.T) {
	var out bytes.Buffer
	d, err := New(&out, 4, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(out.String(), "\x1b[4;1H\x1b[?25h") {
		t.Fatalf("output %q does not restore the cursor", out.String())
	}
	if err := d.DisplayBuffer(0, 0, d.CreateBuffer(1, 1)); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("err=%v, want ErrClosed", err)
	}
}
