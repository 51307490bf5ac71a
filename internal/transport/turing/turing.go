// Package turing speaks the revision A protocol of the USB-serial "Turing
// smart screen" family (3.5", 320x480).
//
// Every command is a 6-byte header packing four 10-bit coordinates and a
// command byte. DISPLAY_BITMAP is followed by the region pixels as
// little-endian RGB565.
package turing

import (
	"fmt"
	"image"
	"io"
	"time"

	"go.bug.st/serial"

	"lifescreen/internal/transport"
)

// Command bytes.
const (
	CmdReset         = 101
	CmdClear         = 102
	CmdScreenOff     = 108
	CmdScreenOn      = 109
	CmdSetBrightness = 110
	CmdDisplayBitmap = 197
)

// Panel dimensions in portrait orientation.
const (
	Width  = 320
	Height = 480
)

// Mode is the serial line setting of the panel: 115200 baud, 8N1.
var Mode = serial.Mode{
	BaudRate: 115200,
	DataBits: 8,
	Parity:   serial.NoParity,
	StopBits: serial.OneStopBit,
}

// openPort opens the serial device; tests replace it.
var openPort = func(path string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(path, mode)
}

// Screen is a revision A panel on a serial stream.
type Screen struct {
	rw     io.ReadWriteCloser
	rect   image.Rectangle
	closed bool
}

// New wraps an already configured serial stream. The panel is cleared and
// switched on.
func New(rw io.ReadWriteCloser, w, h int) (*Screen, error) {
	if w <= 0 || h <= 0 || w > 1023 || h > 1023 {
		return nil, fmt.Errorf("turing: invalid size %dx%d", w, h)
	}
	s := &Screen{rw: rw, rect: image.Rect(0, 0, w, h)}
	if err := s.send(CmdClear, 0, 0, 0, 0); err != nil {
		return nil, err
	}
	if err := s.send(CmdScreenOn, 0, 0, 0, 0); err != nil {
		return nil, err
	}
	return s, nil
}

// Header packs a command: x, y, ex and ey are 10-bit values laid out
// back to back, big end first, followed by the command byte.
func Header(cmd byte, x, y, ex, ey int) [6]byte {
	return [6]byte{
		byte(x >> 2),
		byte((x&3)<<6 | y>>4),
		byte((y&15)<<4 | ex>>6),
		byte((ex&63)<<2 | ey>>8),
		byte(ey),
		cmd,
	}
}

func (s *Screen) send(cmd byte, x, y, ex, ey int) error {
	h := Header(cmd, x, y, ex, ey)
	if _, err := s.rw.Write(h[:]); err != nil {
		return fmt.Errorf("turing: command %d: %w", cmd, err)
	}
	return nil
}

// Bounds returns the panel surface.
func (s *Screen) Bounds() image.Rectangle { return s.rect }

// CreateBuffer allocates a little-endian RGB565 buffer.
func (s *Screen) CreateBuffer(w, h int) transport.Buffer {
	return transport.NewRGB565Buffer(w, h, false)
}

// WriteRegion converts src into buf.
func (s *Screen) WriteRegion(buf transport.Buffer, src image.Image) error {
	b, ok := buf.(*transport.RGB565Buffer)
	if !ok || b.BigEndian {
		return fmt.Errorf("turing: %w", transport.ErrForeignBuffer)
	}
	return b.Load(src)
}

// DisplayBuffer sends buf with its top-left corner at (x, y).
func (s *Screen) DisplayBuffer(x, y int, buf transport.Buffer) error {
	if s.closed {
		return transport.ErrClosed
	}
	b, ok := buf.(*transport.RGB565Buffer)
	if !ok || b.BigEndian {
		return fmt.Errorf("turing: %w", transport.ErrForeignBuffer)
	}
	if err := transport.CheckPlacement(s.rect, x, y, b.Size()); err != nil {
		return err
	}
	if err := s.send(CmdDisplayBitmap, x, y, x+b.W-1, y+b.H-1); err != nil {
		return err
	}
	if _, err := s.rw.Write(b.Pix); err != nil {
		return fmt.Errorf("turing: bitmap: %w", err)
	}
	return nil
}

// SetBrightness sets the backlight, 0 (off) to 100 (full). The panel takes the
// inverse scale.
func (s *Screen) SetBrightness(level int) error {
	if s.closed {
		return transport.ErrClosed
	}
	level = min(max(level, 0), 100)
	return s.send(CmdSetBrightness, 255-level*255/100, 0, 0, 0)
}

// Clear blanks the panel.
func (s *Screen) Clear() error {
	if s.closed {
		return transport.ErrClosed
	}
	return s.send(CmdClear, 0, 0, 0, 0)
}

// Close switches the panel off and closes the stream.
func (s *Screen) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.send(CmdScreenOff, 0, 0, 0, 0)
	if cerr := s.rw.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("turing: %w", cerr)
	}
	return err
}

// Open opens the serial device named in opts with Mode, then clears the panel
// and applies the brightness.
func Open(opts transport.Options) (*Screen, error) {
	if opts.Device == "" {
		return nil, fmt.Errorf("turing: no serial device given")
	}
	mode := Mode
	f, err := openPort(opts.Device, &mode)
	if err != nil {
		return nil, fmt.Errorf("turing: open %s: %w", opts.Device, err)
	}
	w, h := opts.Width, opts.Height
	if w == 0 || h == 0 {
		w, h = Width, Height
	}
	s, err := New(f, w, h)
	if err != nil {
		f.Close()
		return nil, err
	}
	if opts.Settle > 0 {
		time.Sleep(opts.Settle)
	}
	if err := s.SetBrightness(opts.Brightness); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func init() {
	transport.Register("turing", func(opts transport.Options) (transport.Display, error) {
		return Open(opts)
	})
}
