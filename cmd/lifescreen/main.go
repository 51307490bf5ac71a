package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lifescreen/internal/app"
	"lifescreen/internal/core"
	"lifescreen/internal/render"
	"lifescreen/internal/sims/life"
	"lifescreen/internal/transport"
	_ "lifescreen/internal/transport/memory"
	_ "lifescreen/internal/transport/term"
	_ "lifescreen/internal/transport/tft"
	_ "lifescreen/internal/transport/turing"
	"lifescreen/internal/transport/window"
)

var (
	configFile string
	preset     string
	logLevel   string

	benchFrames int
	snapAdvance int
	snapOut     string
	snapScale   int
	writeConfig string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lifescreen",
		Short: "Game of Life on small displays with partial screen updates",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := app.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			app.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "play on a display until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runScreen,
	}
	app.DefaultConfig().Bind(runCmd.Flags())

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure update traffic against an in-memory display",
		Args:  cobra.NoArgs,
		RunE:  benchScreen,
	}
	app.DefaultConfig().Bind(benchCmd.Flags())
	benchCmd.Flags().IntVar(&benchFrames, "frames", 200, "frames to run")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "write a board as PNG after some generations",
		Args:  cobra.NoArgs,
		RunE:  snapshot,
	}
	app.DefaultConfig().Bind(snapshotCmd.Flags())
	snapshotCmd.Flags().IntVar(&snapAdvance, "advance", 0, "generations to advance before saving")
	snapshotCmd.Flags().StringVarP(&snapOut, "out", "o", "board.png", "output file")
	snapshotCmd.Flags().IntVar(&snapScale, "png-scale", 4, "pixels per cell")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTRANSPORT\tSIZE\tCELL\tDENSITY")
			for _, name := range app.ListPresets() {
				p := app.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d/%d\t%.2f\n", name, p.Transport, p.Width, p.Height, p.CellSize, p.Border, p.Density)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as yaml",
		Args:  cobra.NoArgs,
		RunE:  showConfig,
	}
	app.DefaultConfig().Bind(configCmd.Flags())
	configCmd.Flags().StringVarP(&writeConfig, "write", "w", "", "save to this file instead of printing")

	transportsCmd := &cobra.Command{
		Use:   "transports",
		Short: "list display transports",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, name := range transport.Names() {
				fmt.Fprintln(out, name)
			}
			fmt.Fprintln(out, "window")
		},
	}

	rootCmd.AddCommand(runCmd, benchCmd, snapshotCmd, presetsCmd, configCmd, transportsCmd)
	return rootCmd
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := app.Resolve(cmd.Flags(), preset, configFile)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := app.NewRunner(cfg, core.NewRNG(cfg.Seed))
	if cfg.Transport != "window" {
		return app.Supervise(ctx, cfg, runner, app.OpenTransport(cfg))
	}
	return window.Run(ctx, cfg.TransportOptions(), cfg.Scale, func(ctx context.Context, d transport.Display) error {
		return app.Supervise(ctx, cfg, runner, func() (transport.Display, error) { return d, nil })
	})
}

func benchScreen(cmd *cobra.Command, args []string) error {
	cfg, err := app.Resolve(cmd.Flags(), preset, configFile)
	if err != nil {
		return err
	}
	if benchFrames <= 0 {
		return fmt.Errorf("frames must be positive")
	}
	cfg.Transport = "memory"
	cfg.MaxGenerations = benchFrames
	cfg.FPS = 0
	cfg.Autorestart = true

	var regions, sent, changed []float64
	reseeds := 0
	runner := app.NewRunner(cfg, core.NewRNG(cfg.Seed))
	runner.OnFrame = func(fs app.FrameStats) {
		regions = append(regions, float64(fs.Regions))
		sent = append(sent, float64(fs.Sent))
		changed = append(changed, float64(fs.Changed))
		if fs.Reseeded {
			reseeds++
		}
	}
	d, err := transport.Open(cfg.Transport, cfg.TransportOptions())
	if err != nil {
		return err
	}
	defer d.Close()
	if err := runner.Session(cmd.Context(), d); err != nil {
		return err
	}

	var totRegions, totSent, totChanged float64
	for i := range regions {
		totRegions += regions[i]
		totSent += sent[i]
		totChanged += changed[i]
	}
	n := float64(len(regions))
	area := float64(cfg.Width * cfg.Height)

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "frames\t%d\n", len(regions))
	fmt.Fprintf(w, "grid\t%dx%d\n", runner.Layout().Grid.W, runner.Layout().Grid.H)
	fmt.Fprintf(w, "merge radius\t%d (initial %d)\n", cfg.MergeRadius(), cfg.InitialRadius)
	fmt.Fprintf(w, "reseeds\t%d\n", reseeds)
	fmt.Fprintf(w, "regions/frame\t%.1f\n", totRegions/n)
	fmt.Fprintf(w, "pixels sent/frame\t%.0f (%.1f%% of screen)\n", totSent/n, 100*totSent/n/area)
	if totChanged > 0 {
		fmt.Fprintf(w, "overdraw\t%.2fx\n", totSent/totChanged)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, asciigraph.Plot(regions,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("regions per frame"),
	))
	fmt.Fprintln(out)
	fmt.Fprintln(out, asciigraph.Plot(sent,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("pixels sent per frame"),
	))
	return nil
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := app.Resolve(cmd.Flags(), preset, configFile)
	if err != nil {
		return err
	}
	layout := render.NewLayout(cfg.Width, cfg.Height, cfg.CellSize, cfg.Border)
	sim := life.New(life.Config{
		Width:    layout.Grid.W,
		Height:   layout.Grid.H,
		Topology: cfg.Topology(),
		Density:  cfg.Density,
	}, core.NewRNG(cfg.Seed))
	sim.Randomize()
	for i := 0; i < snapAdvance; i++ {
		if sim.Step() {
			app.Logger().Info("stagnant", "generation", sim.Generation())
			break
		}
	}
	if err := render.SaveGridPNG(snapOut, sim.Grid(), snapScale); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (generation %d, population %d)\n", snapOut, sim.Generation(), sim.Grid().Population())
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := app.Resolve(cmd.Flags(), preset, configFile)
	if err != nil {
		return err
	}
	if writeConfig != "" {
		return app.SaveConfig(writeConfig, cfg)
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}
