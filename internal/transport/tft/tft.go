// Package tft drives a MIPI-DCS TFT panel (ST7789, ILI9341 and friends) over
// SPI using periph.io.
//
// Regions are written with a column/row address window followed by a RAM
// write of big-endian RGB565 pixels, so a partial update costs exactly the
// pixels it covers.
package tft

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"lifescreen/internal/transport"
)

// MIPI-DCS commands.
const (
	cmdSWRESET = 0x01
	cmdSLPOUT  = 0x11
	cmdDISPOFF = 0x28
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A
	cmdWRDISBV = 0x51
	cmdWRCTRLD = 0x53
)

// Opts is the configuration for the panel.
type Opts struct {
	W, H int

	// Hz is the SPI clock; zero selects 40MHz.
	Hz int
	// Rotated flips the panel 180 degrees.
	Rotated bool
	// Settle is the pause after reset and sleep-out.
	Settle time.Duration

	RST gpio.PinIO // optional
}

// Dev is the device handle for the panel.
type Dev struct {
	c    spi.Conn
	dc   gpio.PinOut
	rst  gpio.PinIO
	port io.Closer

	rect   image.Rectangle
	halted bool
}

// NewSPI connects to the panel on p and runs the init sequence. dc must be
// wired to the panel's data/command line.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 240, H: 320}
	}
	if opts.W <= 0 || opts.H <= 0 || opts.W > 0xFFFF || opts.H > 0xFFFF {
		return nil, errors.New("tft: invalid panel size")
	}
	if dc == nil {
		return nil, errors.New("tft: dc pin required")
	}
	hz := opts.Hz
	if hz <= 0 {
		hz = 40_000_000
	}
	c, err := p.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("tft: connect: %w", err)
	}
	return newDev(c, dc, opts)
}

func newDev(c spi.Conn, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	d := &Dev{
		c:    c,
		dc:   dc,
		rst:  opts.RST,
		rect: image.Rect(0, 0, opts.W, opts.H),
	}
	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("tft: failed to pull RST low: %w", err)
		}
		time.Sleep(opts.Settle / 4)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("tft: failed to pull RST high: %w", err)
		}
	}
	if err := d.sendCommand(cmdSWRESET); err != nil {
		return err
	}
	time.Sleep(opts.Settle)
	if err := d.sendCommand(cmdSLPOUT); err != nil {
		return err
	}
	time.Sleep(opts.Settle)

	madctl := byte(0x00)
	if opts.Rotated {
		madctl = 0xC0
	}
	steps := []struct {
		cmd  byte
		args []byte
	}{
		{cmdCOLMOD, []byte{0x55}}, // 16 bits per pixel
		{cmdMADCTL, []byte{madctl}},
		{cmdWRCTRLD, []byte{0x24}}, // brightness control on
	}
	for _, s := range steps {
		if err := d.sendCommand(s.cmd, s.args...); err != nil {
			return err
		}
	}
	return d.sendCommand(cmdDISPON)
}

// Bounds returns the panel surface.
func (d *Dev) Bounds() image.Rectangle { return d.rect }

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("tft.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// CreateBuffer allocates a big-endian RGB565 buffer.
func (d *Dev) CreateBuffer(w, h int) transport.Buffer {
	return transport.NewRGB565Buffer(w, h, true)
}

// WriteRegion converts src into buf.
func (d *Dev) WriteRegion(buf transport.Buffer, src image.Image) error {
	b, ok := buf.(*transport.RGB565Buffer)
	if !ok || !b.BigEndian {
		return fmt.Errorf("tft: %w", transport.ErrForeignBuffer)
	}
	return b.Load(src)
}

// DisplayBuffer writes buf to the panel RAM at (x, y).
func (d *Dev) DisplayBuffer(x, y int, buf transport.Buffer) error {
	if d.halted {
		return fmt.Errorf("tft: %w", transport.ErrClosed)
	}
	b, ok := buf.(*transport.RGB565Buffer)
	if !ok || !b.BigEndian {
		return fmt.Errorf("tft: %w", transport.ErrForeignBuffer)
	}
	if err := transport.CheckPlacement(d.rect, x, y, b.Size()); err != nil {
		return err
	}
	return d.writeRect(x, y, b.W, b.H, b.Pix)
}

// SetBrightness sets the backlight level, 0 to 100.
func (d *Dev) SetBrightness(level int) error {
	if d.halted {
		return fmt.Errorf("tft: %w", transport.ErrClosed)
	}
	level = min(max(level, 0), 100)
	return d.sendCommand(cmdWRDISBV, byte(level*255/100))
}

// Halt turns the panel off. Further writes fail.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	return d.sendCommand(cmdDISPOFF)
}

// Close halts the panel and releases the port when the device opened it.
func (d *Dev) Close() error {
	err := d.Halt()
	if d.port != nil {
		if cerr := d.port.Close(); err == nil {
			err = cerr
		}
		d.port = nil
	}
	return err
}

func (d *Dev) writeRect(x, y, w, h int, pixels []byte) error {
	x1, y1 := x+w-1, y+h-1
	if err := d.sendCommand(cmdCASET, byte(x>>8), byte(x), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.sendCommand(cmdRASET, byte(y>>8), byte(y), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	if err := d.sendCommand(cmdRAMWR); err != nil {
		return err
	}
	return d.sendData(pixels)
}

// sendCommand sends cmd with the D/C line low, then its arguments as data.
func (d *Dev) sendCommand(cmd byte, args ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("tft: command %#02x: %w", cmd, err)
	}
	if len(args) == 0 {
		return nil
	}
	return d.sendData(args)
}

// sendData sends data with the D/C line high, split to the bus transfer limit.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	chunk := len(data)
	if l, ok := d.c.(conn.Limits); ok {
		if n := l.MaxTxSize(); n > 0 {
			chunk = n
		}
	}
	for len(data) > 0 {
		n := min(chunk, len(data))
		if err := d.c.Tx(data[:n], nil); err != nil {
			return fmt.Errorf("tft: data: %w", err)
		}
		data = data[n:]
	}
	return nil
}

// Open initialises the host drivers and opens the panel described by opts.
func Open(opts transport.Options) (*Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("tft: host init: %w", err)
	}
	p, err := spireg.Open(opts.SPI.Bus)
	if err != nil {
		return nil, fmt.Errorf("tft: open %q: %w", opts.SPI.Bus, err)
	}
	dc := gpioreg.ByName(opts.SPI.DC)
	if dc == nil {
		p.Close()
		return nil, fmt.Errorf("tft: no gpio pin %q for dc", opts.SPI.DC)
	}
	o := &Opts{W: opts.Width, H: opts.Height, Hz: opts.SPI.Hz, Settle: opts.Settle}
	if opts.SPI.RST != "" {
		if o.RST = gpioreg.ByName(opts.SPI.RST); o.RST == nil {
			p.Close()
			return nil, fmt.Errorf("tft: no gpio pin %q for rst", opts.SPI.RST)
		}
	}
	d, err := NewSPI(p, dc, o)
	if err != nil {
		p.Close()
		return nil, err
	}
	d.port = p
	if err := d.SetBrightness(opts.Brightness); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func init() {
	transport.Register("tft", func(opts transport.Options) (transport.Display, error) {
		return Open(opts)
	})
}
