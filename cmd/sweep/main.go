// Command sweep solves reference plates over a range of sizes and
// tolerances and prints iteration counts and timings as CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/heatplate/internal/config"
	"github.com/banshee-data/heatplate/internal/relax"
	"github.com/banshee-data/heatplate/internal/sweep"
	"github.com/banshee-data/heatplate/internal/timeutil"
)

const (
	exitOK    = 0
	exitError = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, timeutil.RealClock{}))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, clock timeutil.Clock) int {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(stderr)

	sizesFlag := fs.String("sizes", "10,50,100", "Comma-separated square plate sizes")
	epsilonsFlag := fs.String("epsilons", "1e-3,1e-4,1e-6", "Comma-separated convergence tolerances")
	repeats := fs.Int("repeats", 3, "Timed solves per case")
	workers := fs.Int("workers", 0, "Concurrent row bands, 0 for one per CPU")
	maxIter := fs.Int("max-iterations", config.DefaultMaxIterations, "Sweep cap per solve, 0 for none")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "sweep: %v\n", err)
		return exitError
	}

	sizes, err := sweep.ParseCSVInts(*sizesFlag)
	if err != nil {
		fmt.Fprintf(stderr, "sweep: invalid -sizes: %v\n", err)
		return exitError
	}
	epsilons, err := sweep.ParseCSVFloat64s(*epsilonsFlag)
	if err != nil {
		fmt.Fprintf(stderr, "sweep: invalid -epsilons: %v\n", err)
		return exitError
	}
	if len(sizes) == 0 || len(epsilons) == 0 {
		fmt.Fprintln(stderr, "sweep: need at least one size and one epsilon")
		return exitError
	}

	r := &sweep.Runner{
		Base:    relax.Config{MaxIterations: *maxIter, Workers: *workers},
		Clock:   clock,
		Repeats: *repeats,
	}
	if _, err := r.Run(ctx, sweep.Cases(sizes, epsilons), sweep.NewCSVWriter(stdout)); err != nil {
		fmt.Fprintf(stderr, "sweep: %v\n", err)
		return exitError
	}
	return exitOK
}
