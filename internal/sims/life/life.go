package life

import (
	"lifescreen/internal/core"
)

// Config controls the Life simulation.
type Config struct {
	Width    int
	Height   int
	Topology core.Topology

	// Density is the probability of a cell being alive after Randomize.
	Density float64

	// HistoryLimit caps the number of remembered generations; zero keeps the
	// whole run.
	HistoryLimit int
}

// Life implements Conway's Game of Life with cycle detection.
type Life struct {
	cfg  Config
	rng  core.Source
	cur  *core.Grid
	hist *History
	gen  int
}

// New returns a Life simulation with a blank grid. rng feeds Randomize.
func New(cfg Config, rng core.Source) *Life {
	return &Life{
		cfg:  cfg,
		rng:  rng,
		cur:  core.NewGrid(cfg.Width, cfg.Height, cfg.Topology),
		hist: NewHistory(cfg.HistoryLimit),
	}
}

// Grid exposes the current generation. Callers must treat it as read-only.
func (l *Life) Grid() *core.Grid { return l.cur }

// Generation returns the number of steps since the last reseed.
func (l *Life) Generation() int { return l.gen }

// Seen returns the number of generations held for cycle detection.
func (l *Life) Seen() int { return l.hist.Len() }

// Randomize replaces the board with a fresh random one and forgets history.
func (l *Life) Randomize() {
	g := core.NewGrid(l.cfg.Width, l.cfg.Height, l.cfg.Topology)
	g.Randomize(l.rng, l.cfg.Density)
	l.Load(g)
}

// Load installs g as the current generation and forgets history. The grid is
// owned by the simulation afterwards.
func (l *Life) Load(g *core.Grid) {
	l.hist.Reset()
	l.cur = g
	l.gen = 0
}

// Step advances the simulation by one generation. It reports true when the new
// generation has already been seen in this run, i.e. the board is stagnant.
func (l *Life) Step() bool {
	next := l.cur.Next()
	l.hist.Add(l.cur)
	l.cur = next
	l.gen++
	return l.hist.Contains(next)
}
