package tft

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"

	"lifescreen/internal/transport"
)

type write struct {
	data bool
	b    []byte
}

// recorder is an spi.Conn that logs every transfer with the D/C level at the
// time it was sent.
type recorder struct {
	dc     *gpiotest.Pin
	limit  int
	writes []write
	err    error
}

func (r *recorder) String() string { return "recorder" }
func (r *recorder) Duplex() conn.Duplex { return conn.Half }
func (r *recorder) MaxTxSize() int { return r.limit }
func (r *recorder) TxPackets([]spi.Packet) error { return errors.New("not supported") }

func (r *recorder) Tx(w, _ []byte) error {
	if r.err != nil {
		return r.err
	}
	r.writes = append(r.writes, write{data: r.dc.Read() == gpio.High, b: append([]byte(nil), w...)})
	return nil
}

func newTestDev(t *testing.T, w, h, limit int) (*Dev, *recorder) {
	t.Helper()
	dc := &gpiotest.Pin{N: "DC"}
	rec := &recorder{dc: dc, limit: limit}
	d, err := newDev(rec, dc, &Opts{W: w, H: h})
	if err != nil {
		t.Fatalf("newDev: %v", err)
	}
	rec.writes = nil
	return d, rec
}

func TestInitSequence(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	rst := &gpiotest.Pin{N: "RST"}
	rec := &recorder{dc: dc}
	if _, err := newDev(rec, dc, &Opts{W: 240, H: 320, Rotated: true, RST: rst}); err != nil {
		t.Fatalf("newDev: %v", err)
	}
	if rst.Read() != gpio.High {
		t.Error("RST left low after reset")
	}
	var cmds []byte
	for _, w := range rec.writes {
		if !w.data {
			cmds = append(cmds, w.b...)
		}
	}
	want := []byte{cmdSWRESET, cmdSLPOUT, cmdCOLMOD, cmdMADCTL, cmdWRCTRLD, cmdDISPON}
	if !bytes.Equal(cmds, want) {
		t.Fatalf("commands=% x, want % x", cmds, want)
	}
	// MADCTL argument follows its command.
	for i, w := range rec.writes {
		if !w.data && w.b[0] == cmdMADCTL {
			if got := rec.writes[i+1]; !got.data || got.b[0] != 0xC0 {
				t.Fatalf("MADCTL arg=%v", got)
			}
		}
	}
}

func TestDisplayBufferWindowAndPixels(t *testing.T) {
	d, rec := newTestDev(t, 240, 320, 0)
	src := image.NewRGBA(image.Rect(0, 0, 240, 320))
	src.SetRGBA(10, 300, color.RGBA{R: 255, A: 255})
	r := image.Rect(10, 299, 22, 301)

	buf := d.CreateBuffer(r.Dx(), r.Dy())
	if err := d.WriteRegion(buf, src.SubImage(r)); err != nil {
		t.Fatalf("WriteRegion: %v", err)
	}
	if err := d.DisplayBuffer(r.Min.X, r.Min.Y, buf); err != nil {
		t.Fatalf("DisplayBuffer: %v", err)
	}

	want := []write{
		{false, []byte{cmdCASET}}, {true, []byte{0, 10, 0, 21}},
		{false, []byte{cmdRASET}}, {true, []byte{0x01, 0x2B, 0x01, 0x2C}},
		{false, []byte{cmdRAMWR}},
	}
	if len(rec.writes) != len(want)+1 {
		t.Fatalf("got %d transfers, want %d", len(rec.writes), len(want)+1)
	}
	for i, w := range want {
		if rec.writes[i].data != w.data || !bytes.Equal(rec.writes[i].b, w.b) {
			t.Fatalf("transfer %d = %+v, want %+v", i, rec.writes[i], w)
		}
	}
	px := rec.writes[len(want)]
	if !px.data || len(px.b) != 2*r.Dx()*r.Dy() {
		t.Fatalf("pixel transfer len=%d data=%v", len(px.b), px.data)
	}
	// (10, 300) is the first pixel of the second region row: red, big-endian.
	off := 2 * r.Dx()
	if px.b[off] != 0xF8 || px.b[off+1] != 0x00 {
		t.Fatalf("pixel bytes % x, want f8 00", px.b[off:off+2])
	}
}

func TestDataChunkedToTxLimit(t *testing.T) {
	d, rec := newTestDev(t, 8, 8, 10)
	if err := d.sendData(make([]byte, 25)); err != nil {
		t.Fatalf("sendData: %v", err)
	}
	var sizes []int
	for _, w := range rec.writes {
		sizes = append(sizes, len(w.b))
	}
	if len(sizes) != 3 || sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Fatalf("chunk sizes=%v", sizes)
	}
}

func TestForeignBufferRejected(t *testing.T) {
	d, _ := newTestDev(t, 8, 8, 0)
	for _, buf := range []transport.Buffer{
		transport.NewRGBABuffer(2, 2),
		transport.NewRGB565Buffer(2, 2, false),
	} {
		if err := d.DisplayBuffer(0, 0, buf); !errors.Is(err, transport.ErrForeignBuffer) {
			t.Fatalf("err=%v, want ErrForeignBuffer", err)
		}
	}
	if err := d.DisplayBuffer(7, 7, d.CreateBuffer(2, 2)); !errors.Is(err, transport.ErrOutOfBounds) {
		t.Fatalf("err=%v, want ErrOutOfBounds", err)
	}
}

func TestHaltBlocksWrites(t *testing.T) {
	d, rec := newTestDev(t, 8, 8, 0)
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(rec.writes) != 1 || rec.writes[0].b[0] != cmdDISPOFF {
		t.Fatalf("writes=%v, want DISPOFF", rec.writes)
	}
	if err := d.DisplayBuffer(0, 0, d.CreateBuffer(1, 1)); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("err=%v, want ErrClosed", err)
	}
	if err := d.SetBrightness(50); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("err=%v, want ErrClosed", err)
	}
}

func TestTransferErrorWrapped(t *testing.T) {
	d, rec := newTestDev(t, 8, 8, 0)
	boom := errors.New("bus fault")
	rec.err = boom
	err := d.DisplayBuffer(0, 0, d.CreateBuffer(1, 1))
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want wrapped bus fault", err)
	}
}

func TestDevString(t *testing.T) {
	d := &Dev{rect: image.Rect(0, 0, 240, 320)}
	if got, want := d.String(), "tft.Dev{240x320}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
