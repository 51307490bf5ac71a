// Package transport defines the display device boundary: a surface that
// accepts rectangular pixel blocks, one region at a time.
//
// A region is pushed in three calls, mirroring how serial and SPI panels
// work: CreateBuffer sizes a staging buffer, WriteRegion fills it from a
// source image and DisplayBuffer sends it to the device at an offset.
// Implementations live in sub-packages and register themselves by name.
package transport

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
	"time"

	"lifescreen/internal/core"
)

var (
	// ErrClosed is returned by operations on a closed display.
	ErrClosed = errors.New("transport: closed")

	// ErrForeignBuffer is returned when a buffer created by another display,
	// or of a mismatched size, is passed in.
	ErrForeignBuffer = errors.New("transport: foreign or mismatched buffer")

	// ErrOutOfBounds is returned when a region does not fit on the display.
	ErrOutOfBounds = errors.New("transport: region outside display")

	// ErrUnknown is returned by Open for an unregistered transport name.
	ErrUnknown = errors.New("transport: unknown transport")
)

// Buffer is a staging area sized for one region.
type Buffer interface {
	Size() core.Size
}

// Display is the device a frame is pushed to.
type Display interface {
	// Bounds returns the device surface in pixels.
	Bounds() image.Rectangle
	// CreateBuffer allocates a staging buffer of w x h pixels.
	CreateBuffer(w, h int) Buffer
	// WriteRegion fills buf from src; src.Bounds() must match the buffer size.
	WriteRegion(buf Buffer, src image.Image) error
	// DisplayBuffer sends buf to the device with its top-left corner at (x, y).
	DisplayBuffer(x, y int, buf Buffer) error
	// Close releases the device.
	Close() error
}

// SPIOptions selects the bus and pins of an SPI panel.
type SPIOptions struct {
	Bus string `yaml:"bus"`
	DC  string `yaml:"dc"`
	RST string `yaml:"rst"`
	Hz  int    `yaml:"hz"`
}

// Options carries everything a factory may need to open a device.
type Options struct {
	Width      int
	Height     int
	Device     string
	Brightness int
	SPI        SPIOptions

	// Out is where terminal-style transports write.
	Out io.Writer
	// Settle is how long a device is given after reset before use.
	Settle time.Duration
}

// Factory opens a display.
type Factory func(opts Options) (Display, error)

var transports = map[string]Factory{}

// Register adds a transport factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	transports[name] = f
}

// Names lists the registered transports in lexical order.
func Names() []string {
	names := make([]string, 0, len(transports))
	for name := range transports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the named display.
func Open(name string, opts Options) (Display, error) {
	f, ok := transports[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknown, name, Names())
	}
	return f(opts)
}

// CheckPlacement verifies that a buffer of the given size placed at (x, y)
// fits inside bounds.
func CheckPlacement(bounds image.Rectangle, x, y int, size core.Size) error {
	r := image.Rect(x, y, x+size.W, y+size.H)
	if size.W <= 0 || size.H <= 0 || !r.In(bounds) {
		return fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, bounds)
	}
	return nil
}
