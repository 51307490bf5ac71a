package app

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"lifescreen/internal/core"
	"lifescreen/internal/render"
	"lifescreen/internal/transport"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	DefaultWidth         = 320
	DefaultHeight        = 480
	DefaultCellSize      = 8
	DefaultBorder        = 1
	DefaultDensity       = 0.10
	DefaultInitialRadius = 80
	DefaultBrightness    = 70
	DefaultRetryDelay    = 2 * time.Second
)

// Config describes one lifescreen deployment.
type Config struct {
	Transport string `yaml:"transport"`
	Device    string `yaml:"device,omitempty"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	// Scale magnifies the window transport.
	Scale      int                  `yaml:"scale"`
	Brightness int                  `yaml:"brightness"`
	SPI        transport.SPIOptions `yaml:"spi"`

	CellSize int     `yaml:"cell_size"`
	Border   int     `yaml:"border"`
	Density  float64 `yaml:"density"`
	Seed     int64   `yaml:"seed"`
	Wrap     bool    `yaml:"wrap"`

	Background string `yaml:"background"`
	Alive      string `yaml:"alive"`
	Dead       string `yaml:"dead"`

	// Radius is the merge radius for frame updates; zero derives it from the
	// painted cell side.
	Radius        int `yaml:"radius"`
	InitialRadius int `yaml:"initial_radius"`
	HistoryLimit  int `yaml:"history_limit"`

	Autorestart    bool          `yaml:"autorestart"`
	Failsafe       bool          `yaml:"failsafe"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	FPS            int           `yaml:"fps"`
	MaxGenerations int           `yaml:"max_generations"`
}

// DefaultConfig returns the configuration for a 3.5" portrait smart screen.
func DefaultConfig() *Config {
	return &Config{
		Transport:     "turing",
		Device:        "/dev/ttyACM0",
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Scale:         2,
		Brightness:    DefaultBrightness,
		SPI:           transport.SPIOptions{Bus: "SPI0.0", DC: "GPIO25", RST: "GPIO27", Hz: 40_000_000},
		CellSize:      DefaultCellSize,
		Border:        DefaultBorder,
		Density:       DefaultDensity,
		Seed:          1,
		Wrap:          true,
		Background:    "mediumvioletred",
		Alive:         "white",
		Dead:          "black",
		InitialRadius: DefaultInitialRadius,
		Autorestart:   true,
		Failsafe:      true,
		RetryDelay:    DefaultRetryDelay,
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Transport, "transport", "t", c.Transport, fmt.Sprintf("display transport %v", append(transport.Names(), "window")))
	fs.StringVarP(&c.Device, "port", "p", c.Device, "serial device of the smart screen")
	fs.IntVar(&c.Width, "width", c.Width, "display width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "display height in pixels")
	fs.IntVar(&c.Scale, "scale", c.Scale, "window pixel scale")
	fs.IntVarP(&c.Brightness, "luminosity", "l", c.Brightness, "brightness 0-100")
	fs.StringVar(&c.SPI.Bus, "spi-bus", c.SPI.Bus, "SPI port of the TFT panel")
	fs.StringVar(&c.SPI.DC, "spi-dc", c.SPI.DC, "data/command GPIO of the TFT panel")
	fs.StringVar(&c.SPI.RST, "spi-rst", c.SPI.RST, "reset GPIO of the TFT panel (empty for none)")
	fs.IntVar(&c.SPI.Hz, "spi-hz", c.SPI.Hz, "SPI clock in Hz")

	fs.IntVarP(&c.CellSize, "cell", "c", c.CellSize, "cell size in pixels")
	fs.IntVarP(&c.Border, "border", "r", c.Border, "border around each cell in pixels")
	fs.Float64VarP(&c.Density, "density", "d", c.Density, "probability for each cell to be alive")
	fs.Int64VarP(&c.Seed, "seed", "s", c.Seed, "random generator seed")
	fs.BoolVar(&c.Wrap, "wrap", c.Wrap, "wrap the grid at its edges")
	fs.StringVarP(&c.Background, "background", "b", c.Background, "background colour (name or #RRGGBB/#RRGGBBAA)")
	fs.StringVarP(&c.Alive, "alive", "a", c.Alive, "alive colour")
	fs.StringVar(&c.Dead, "dead", c.Dead, "dead colour")

	fs.IntVar(&c.Radius, "radius", c.Radius, "merge radius (0 = painted cell side)")
	fs.IntVar(&c.InitialRadius, "initial-radius", c.InitialRadius, "merge radius for the first board and boards after a reseed")
	fs.IntVar(&c.HistoryLimit, "history", c.HistoryLimit, "generations kept for cycle detection (0 = whole run)")
	fs.BoolVar(&c.Autorestart, "autorestart", c.Autorestart, "reseed a stagnant board instead of ending the session")
	fs.BoolVarP(&c.Failsafe, "failsafe", "f", c.Failsafe, "reconnect after a transport failure")
	fs.DurationVar(&c.RetryDelay, "retry-delay", c.RetryDelay, "pause before reconnecting")
	fs.IntVar(&c.FPS, "fps", c.FPS, "frame rate cap (0 = unpaced)")
	fs.IntVar(&c.MaxGenerations, "generations", c.MaxGenerations, "stop after this many generations (0 = never)")
}

// Validate checks the configuration for values the session cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}
	check(c.Transport != "", "transport is empty")
	check(c.Width > 0 && c.Height > 0, "display size %dx%d", c.Width, c.Height)
	check(c.Scale > 0, "scale %d", c.Scale)
	check(c.CellSize > 0, "cell size %d", c.CellSize)
	check(c.Border >= 0 && c.CellSize-2*c.Border > 0, "border %d leaves nothing of a %d pixel cell", c.Border, c.CellSize)
	check(c.CellSize <= c.Width && c.CellSize <= c.Height, "cell size %d exceeds the display", c.CellSize)
	check(c.Density >= 0 && c.Density <= 1, "density %v outside [0, 1]", c.Density)
	check(c.Radius >= 0, "radius %d", c.Radius)
	check(c.InitialRadius >= 0, "initial radius %d", c.InitialRadius)
	check(c.HistoryLimit >= 0, "history limit %d", c.HistoryLimit)
	check(c.RetryDelay >= 0, "retry delay %v", c.RetryDelay)
	check(c.FPS >= 0, "fps %d", c.FPS)
	check(c.MaxGenerations >= 0, "generations %d", c.MaxGenerations)
	check(c.Brightness >= 0 && c.Brightness <= 100, "brightness %d outside [0, 100]", c.Brightness)
	return errors.Join(errs...)
}

// MergeRadius returns the radius used for regular frames.
func (c *Config) MergeRadius() int {
	if c.Radius > 0 {
		return c.Radius
	}
	return render.NewLayout(c.Width, c.Height, c.CellSize, c.Border).Radius()
}

// Topology returns the grid edge behaviour.
func (c *Config) Topology() core.Topology {
	if c.Wrap {
		return core.Wrap
	}
	return core.Bounded
}

// TransportOptions returns the device options for the configured display.
func (c *Config) TransportOptions() transport.Options {
	return transport.Options{
		Width:      c.Width,
		Height:     c.Height,
		Device:     c.Device,
		Brightness: c.Brightness,
		SPI:        c.SPI,
		Settle:     120 * time.Millisecond,
	}
}

// LoadConfig reads a YAML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// SaveConfig writes cfg as YAML.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve builds the effective configuration: defaults, then the named preset,
// then the YAML file at path, then every flag explicitly set on fs. Either
// preset or path may be empty.
func Resolve(fs *pflag.FlagSet, preset, path string) (*Config, error) {
	cfg := DefaultConfig()
	if preset != "" {
		p := GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("%w: unknown preset %q (available: %v)", ErrInvalidConfig, preset, ListPresets())
		}
		cfg = p
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	bound := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
	cfg.Bind(bound)
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil || bound.Lookup(f.Name) == nil {
			return
		}
		err = bound.Set(f.Name, f.Value.String())
	})
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func preset(edit func(c *Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// Presets are ready-made configurations for common displays.
var Presets = map[string]*Config{
	"smartscreen": preset(func(c *Config) {
		c.Transport = "turing"
		c.Device = "/dev/ttyACM0"
	}),
	"tft": preset(func(c *Config) {
		c.Transport = "tft"
		c.Width, c.Height = 240, 320
		c.CellSize = 6
	}),
	"terminal": preset(func(c *Config) {
		c.Transport = "term"
		c.Width, c.Height = 120, 72
		c.CellSize, c.Border = 2, 0
		c.FPS = 15
	}),
	"desktop": preset(func(c *Config) {
		c.Transport = "window"
		c.FPS = 30
	}),
	"soup": preset(func(c *Config) {
		c.CellSize, c.Border = 4, 0
		c.Density = 0.35
	}),
	"bounded": preset(func(c *Config) {
		c.Wrap = false
		c.Density = 0.2
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

// ListPresets returns the preset names in lexical order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
