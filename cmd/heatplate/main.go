// Command heatplate computes the steady-state temperature of a rectangular
// plate whose left and right edges are held at fixed temperatures.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/heatplate/internal/config"
	"github.com/banshee-data/heatplate/internal/fsutil"
	"github.com/banshee-data/heatplate/internal/monitoring"
	"github.com/banshee-data/heatplate/internal/plate"
	"github.com/banshee-data/heatplate/internal/relax"
	"github.com/banshee-data/heatplate/internal/report"
	"github.com/banshee-data/heatplate/internal/timeutil"
	"github.com/banshee-data/heatplate/internal/version"
)

// Exit codes.
const (
	exitOK           = 0
	exitNotConverged = 1
	exitError        = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, timeutil.RealClock{}))
}

// options are the parsed command-line flags. Pointer fields stay nil unless
// the flag was given, so config files and presets are only overridden
// explicitly.
type options struct {
	configPath  string
	preset      string
	jsonOut     bool
	verbose     bool
	showVersion bool
	override    config.SolverConfig
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("heatplate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "Path to a JSON solver config")
	fs.StringVar(&opts.preset, "preset", "", fmt.Sprintf("Reference configuration %v", config.PresetNames()))
	fs.BoolVar(&opts.jsonOut, "json", false, "Print the summary as JSON")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")

	rows := fs.Int("rows", config.DefaultRows, "Plate rows (>= 3)")
	cols := fs.Int("cols", config.DefaultCols, "Plate columns (>= 3)")
	left := fs.Float64("left", plate.DefaultLeft, "Left edge temperature")
	right := fs.Float64("right", plate.DefaultRight, "Right edge temperature")
	epsilon := fs.Float64("epsilon", relax.DefaultEpsilon, "Convergence tolerance")
	maxIter := fs.Int("max-iterations", config.DefaultMaxIterations, "Sweep cap, 0 for none")
	workers := fs.Int("workers", 0, "Concurrent row bands, 0 for one per CPU")
	progress := fs.Int("progress", 0, "Log progress every N sweeps, 0 to disable")
	printGrid := fs.Bool("print-grid", false, "Print the final grid")
	elapsed := fs.Bool("elapsed", true, "Report wall-clock solve time")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		o := &opts.override
		switch f.Name {
		case "rows":
			o.Rows = rows
		case "cols":
			o.Cols = cols
		case "left":
			o.LeftTemperature = left
		case "right":
			o.RightTemperature = right
		case "epsilon":
			o.Epsilon = epsilon
		case "max-iterations":
			o.MaxIterations = maxIter
		case "workers":
			o.Workers = workers
		case "progress":
			o.ProgressInterval = progress
		case "print-grid":
			o.PrintGrid = printGrid
		case "elapsed":
			o.ReportElapsed = elapsed
		}
	})
	return opts, nil
}

// resolveConfig layers defaults, the defaults file, preset, config file and
// flags, in that order.
func resolveConfig(opts *options, fsys fsutil.FileSystem) (*config.SolverConfig, error) {
	cfg, err := config.LoadDefaultConfig(fsys)
	if err != nil {
		return nil, fmt.Errorf("defaults file: %w", err)
	}
	if opts.preset != "" {
		p, err := config.Preset(opts.preset)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(p)
	}
	if opts.configPath != "" {
		fileCfg, err := config.LoadSolverConfigFS(fsys, opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(&opts.override)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, clock timeutil.Clock) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "heatplate: %v\n", err)
		return exitError
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, version.String("heatplate"))
		return exitOK
	}
	monitoring.SetVerbose(opts.verbose)

	cfg, err := resolveConfig(opts, fsutil.OSFileSystem{})
	if err != nil {
		fmt.Fprintf(stderr, "heatplate: %v\n", err)
		return exitError
	}
	if monitoring.Verbose() {
		if b, err := json.Marshal(cfg); err == nil {
			monitoring.Logf("heatplate: resolved config %s", b)
		}
	}

	g, err := plate.New(cfg.GetRows(), cfg.GetCols())
	if err != nil {
		fmt.Fprintf(stderr, "heatplate: %v\n", err)
		return exitError
	}
	g.Initialize(cfg.GetLeftTemperature(), cfg.GetRightTemperature())

	solver, err := relax.New(cfg.RelaxConfig())
	if err != nil {
		fmt.Fprintf(stderr, "heatplate: %v\n", err)
		return exitError
	}
	monitoring.Logf("heatplate: solving %dx%d plate with %d workers", g.Rows(), g.Cols(), solver.Workers())

	sw := timeutil.StartStopwatch(clock)
	res, solveErr := solver.Solve(ctx, g)
	summary := report.NewSummary(g, solver.Epsilon(), res, sw.Elapsed())

	code := exitOK
	if solveErr != nil {
		if !errors.Is(solveErr, relax.ErrNotConverged) {
			fmt.Fprintf(stderr, "heatplate: %v\n", solveErr)
			return exitError
		}
		code = exitNotConverged
	}

	if err := writeReport(stdout, g, summary, cfg, opts.jsonOut); err != nil {
		fmt.Fprintf(stderr, "heatplate: failed to write report: %v\n", err)
		return exitError
	}
	return code
}

func writeReport(w io.Writer, g *plate.Grid, s report.Summary, cfg *config.SolverConfig, jsonOut bool) error {
	if !cfg.GetReportElapsed() {
		s.Elapsed = 0
	}
	if jsonOut {
		return report.WriteJSON(w, s)
	}
	if err := report.WriteSummary(w, s); err != nil {
		return err
	}
	if cfg.GetPrintGrid() {
		if err := report.WriteGrid(w, g); err != nil {
			return err
		}
	}
	if cfg.GetReportElapsed() {
		return report.WriteElapsed(w, s.Elapsed)
	}
	return nil
}
