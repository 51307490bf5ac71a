package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrUnknownColor reports a colour string that is neither hex nor a CSS name.
var ErrUnknownColor = errors.New("render: unknown color")

// Palette is the colour policy used to paint a grid.
type Palette struct {
	Background color.RGBA
	Alive      color.RGBA
	Dead       color.RGBA
}

// DefaultPalette returns the stock colours.
func DefaultPalette() Palette {
	return Palette{
		Background: colornames.Mediumvioletred,
		Alive:      colornames.White,
		Dead:       colornames.Black,
	}
}

// ParseColor accepts #RGB, #RGBA, #RRGGBB, #RRGGBBAA or a case-insensitive CSS
// colour name. On failure it returns opaque black and an error wrapping
// ErrUnknownColor.
func ParseColor(s string) (color.RGBA, error) {
	black := color.RGBA{A: 0xff}
	s = strings.TrimSpace(s)
	if s == "" {
		return black, fmt.Errorf("%w: empty", ErrUnknownColor)
	}
	if strings.HasPrefix(s, "#") {
		c, err := parseHex(s[1:])
		if err != nil {
			return black, fmt.Errorf("%w: %q", ErrUnknownColor, s)
		}
		return c, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	return black, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

func parseHex(hex string) (color.RGBA, error) {
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, err
	}
	switch len(hex) {
	case 3:
		return color.RGBA{R: nibble(v >> 8), G: nibble(v >> 4), B: nibble(v), A: 0xff}, nil
	case 4:
		return color.RGBA{R: nibble(v >> 12), G: nibble(v >> 8), B: nibble(v >> 4), A: nibble(v)}, nil
	case 6:
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	case 8:
		return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	}
	return color.RGBA{}, fmt.Errorf("bad length %d", len(hex))
}

// nibble expands a 4-bit channel to 8 bits (0xf -> 0xff).
func nibble(v uint64) uint8 { return uint8(v&0xf) * 0x11 }
