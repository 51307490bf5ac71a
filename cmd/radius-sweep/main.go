package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"lifescreen/internal/app"
	"lifescreen/internal/core"
	"lifescreen/internal/transport/memory"
)

type scenario struct {
	seed   int64
	radius int
}

type scenarioResult struct {
	scenario
	frames  int
	regions int
	sent    int
	changed int
}

// cost weighs every region with a fixed per-command overhead in pixel
// equivalents on top of the pixels it carries.
func (r scenarioResult) cost(overhead float64) float64 {
	if r.frames == 0 {
		return 0
	}
	return (float64(r.regions)*overhead + float64(r.sent)) / float64(r.frames)
}

func main() {
	frames := pflag.Int("frames", 300, "frames to run per scenario")
	seeds := pflag.Int("seeds", 8, "seeds per radius")
	maxRadius := pflag.Int("max-radius", 24, "largest merge radius to try")
	overhead := pflag.Float64("overhead", 64, "per-region cost in pixel equivalents")
	workers := pflag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	base := app.DefaultConfig()
	base.Bind(pflag.CommandLine)
	pflag.Parse()

	base.Transport = "memory"
	base.MaxGenerations = *frames
	base.FPS = 0
	base.Autorestart = true
	if err := base.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var sets []scenario
	for radius := 1; radius <= *maxRadius; radius++ {
		for s := 0; s < *seeds; s++ {
			sets = append(sets, scenario{seed: base.Seed + int64(s), radius: radius})
		}
	}

	fmt.Printf("Sweeping %d scenarios (%d workers, %d frames, %dx%d screen, cell %d)\n",
		len(sets), *workers, *frames, base.Width, base.Height, base.CellSize)

	jobs := make(chan scenario)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sc := range jobs {
				results <- runScenario(*base, sc)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, sc := range sets {
			jobs <- sc
		}
		close(jobs)
	}()

	start := time.Now()
	byRadius := map[int]*scenarioResult{}
	for res := range results {
		agg, ok := byRadius[res.radius]
		if !ok {
			agg = &scenarioResult{scenario: scenario{radius: res.radius}}
			byRadius[res.radius] = agg
		}
		agg.frames += res.frames
		agg.regions += res.regions
		agg.sent += res.sent
		agg.changed += res.changed
	}

	all := make([]scenarioResult, 0, len(byRadius))
	for _, agg := range byRadius {
		all = append(all, *agg)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].cost(*overhead) < all[j].cost(*overhead) })
	elapsed := time.Since(start)

	fmt.Printf("\nRadii by cost (elapsed %s):\n", elapsed.Round(time.Millisecond))
	for i, res := range all {
		f := float64(res.frames)
		overdraw := 0.0
		if res.changed > 0 {
			overdraw = float64(res.sent) / float64(res.changed)
		}
		fmt.Printf("%2d) radius=%2d cost=%.0f regions/frame=%.1f sent/frame=%.0f overdraw=%.2fx\n",
			i+1, res.radius, res.cost(*overhead), float64(res.regions)/f, float64(res.sent)/f, overdraw)
	}
	if len(all) > 0 {
		fmt.Printf("\nBest radius: %d (painted cell side %d)\n", all[0].radius, max(base.CellSize-2*base.Border, 0))
	}
}

func runScenario(cfg app.Config, sc scenario) scenarioResult {
	cfg.Seed = sc.seed
	cfg.Radius = sc.radius
	res := scenarioResult{scenario: sc}
	r := app.NewRunner(&cfg, core.NewRNG(sc.seed))
	first := true
	r.OnFrame = func(fs app.FrameStats) {
		// The first board is flushed with the initial radius; it says nothing
		// about the radius under test.
		if first || fs.Reseeded {
			first = false
			return
		}
		res.frames++
		res.regions += fs.Regions
		res.sent += fs.Sent
		res.changed += fs.Changed
	}
	d := memory.New(cfg.Width, cfg.Height)
	if err := r.Session(context.Background(), d); err != nil {
		fmt.Printf("seed %d radius %d: %v\n", sc.seed, sc.radius, err)
	}
	return res
}
