// Package app runs Game of Life sessions on a display: it owns the
// configuration, the session loop and the reconnect policy.
package app

import (
	"context"
	"image"
	"image/color"

	"lifescreen/internal/core"
	"lifescreen/internal/render"
	"lifescreen/internal/screen"
	"lifescreen/internal/sims/life"
	"lifescreen/internal/transport"
)

// FrameStats describes one flushed frame.
type FrameStats struct {
	screen.Stats
	Generation int
	Population int
	// Reseeded is set on the frame drawn right after a stagnation reseed.
	Reseeded bool
}

// Runner draws a Life simulation onto displays. The simulation and its random
// source survive across sessions, so a reconnect continues the same seeded
// sequence.
type Runner struct {
	cfg     *Config
	layout  render.Layout
	painter *render.CellPainter
	life    *life.Life
	pacer   *core.FixedStep
	frame   *image.RGBA

	// OnFrame, when set, is called after every flushed frame.
	OnFrame func(FrameStats)
}

// NewRunner prepares a runner for cfg, drawing random boards from rng.
func NewRunner(cfg *Config, rng core.Source) *Runner {
	layout := render.NewLayout(cfg.Width, cfg.Height, cfg.CellSize, cfg.Border)
	stock := render.DefaultPalette()
	palette := render.Palette{
		Background: resolveColor("background", cfg.Background, stock.Background),
		Alive:      resolveColor("alive", cfg.Alive, stock.Alive),
		Dead:       resolveColor("dead", cfg.Dead, stock.Dead),
	}
	sim := life.New(life.Config{
		Width:        layout.Grid.W,
		Height:       layout.Grid.H,
		Topology:     cfg.Topology(),
		Density:      cfg.Density,
		HistoryLimit: cfg.HistoryLimit,
	}, rng)
	painter := render.NewCellPainter(layout, palette)
	return &Runner{
		cfg:     cfg,
		layout:  layout,
		painter: painter,
		life:    sim,
		pacer:   core.NewFixedStep(cfg.FPS),
		frame:   painter.NewFrame(),
	}
}

func resolveColor(name, s string, fallback color.RGBA) color.RGBA {
	c, err := render.ParseColor(s)
	if err != nil {
		Logger().Warn("colour fallback", "which", name, "value", s, "err", err)
		return fallback
	}
	return c
}

// Layout returns the screen geometry.
func (r *Runner) Layout() render.Layout { return r.layout }

// Life returns the simulation.
func (r *Runner) Life() *life.Life { return r.life }

// Session runs one game on d until ctx is done, a transport error occurs, the
// generation limit is reached or, with autorestart off, the board stagnates.
//
// The device is first cleared to the background; the first board and every
// board after a reseed are flushed with the initial radius, all other frames
// with the regular merge radius.
func (r *Runner) Session(ctx context.Context, d transport.Display) error {
	log := Logger()
	buf := screen.NewBuffered(d)

	r.painter.Background(r.frame)
	if _, err := buf.Flush(r.frame, r.cfg.InitialRadius, r.cfg.InitialRadius); err != nil {
		log.Error("transport failure", "err", err)
		return err
	}

	r.life.Randomize()
	log.Info("session start",
		"grid", r.layout.Grid, "density", r.cfg.Density, "population", r.life.Grid().Population(),
		"interval", r.pacer.Step())

	radius := r.cfg.InitialRadius
	reseeded := false
	generations := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.pacer.Wait(ctx); err != nil {
			return err
		}

		r.painter.Draw(r.frame, r.life.Grid())
		st, err := buf.Flush(r.frame, radius, radius)
		if err != nil {
			log.Error("transport failure", "generation", r.life.Generation(), "err", err)
			return err
		}
		fs := FrameStats{
			Stats:      st,
			Generation: r.life.Generation(),
			Population: r.life.Grid().Population(),
			Reseeded:   reseeded,
		}
		log.Debug("frame",
			"generation", fs.Generation, "changed", st.Changed, "regions", st.Regions, "sent", st.Sent, "full", st.Full)
		if r.OnFrame != nil {
			r.OnFrame(fs)
		}

		radius, reseeded = r.cfg.MergeRadius(), false
		stagnant := r.life.Step()
		generations++
		if r.cfg.MaxGenerations > 0 && generations >= r.cfg.MaxGenerations {
			return nil
		}
		if !stagnant {
			continue
		}
		if !r.cfg.Autorestart {
			log.Info("stagnant, stopping", "generation", r.life.Generation(), "seen", r.life.Seen())
			return nil
		}
		log.Info("stagnant, reseeding", "generation", r.life.Generation(), "seen", r.life.Seen())
		r.life.Randomize()
		radius, reseeded = r.cfg.InitialRadius, true
	}
}
