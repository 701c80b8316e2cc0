package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/heatplate/internal/monitoring"
	"github.com/banshee-data/heatplate/internal/plate"
	"github.com/banshee-data/heatplate/internal/relax"
	"github.com/banshee-data/heatplate/internal/timeutil"
)

// Case is one point of the sweep: a plate shape and a tolerance.
type Case struct {
	Rows    int
	Cols    int
	Epsilon float64
}

// CaseResult holds the outcome of a case over all repeats.
// Iterations and MaxDiff come from the last repeat; the solver is
// deterministic so every repeat agrees on them.
type CaseResult struct {
	Case
	Iterations    int
	MaxDiff       float64
	Converged     bool
	ElapsedMean   float64 // seconds
	ElapsedStddev float64 // seconds
}

// Cases returns the cartesian product of square plate sizes and tolerances,
// sizes varying slowest.
func Cases(sizes []int, epsilons []float64) []Case {
	out := make([]Case, 0, len(sizes)*len(epsilons))
	for _, n := range sizes {
		for _, eps := range epsilons {
			out = append(out, Case{Rows: n, Cols: n, Epsilon: eps})
		}
	}
	return out
}

// Runner solves each case on a fresh reference plate.
type Runner struct {
	// Base supplies every solver setting except Epsilon.
	Base relax.Config
	// Clock times each solve. Nil uses the real clock.
	Clock timeutil.Clock
	// Repeats is the number of timed solves per case. Values below 1 mean 1.
	Repeats int
}

// Run solves every case, writing a CSV row per case to out when out is
// non-nil. Hitting the iteration cap is recorded, not fatal.
func (r *Runner) Run(ctx context.Context, cases []Case, out *CSVWriter) ([]CaseResult, error) {
	repeats := r.Repeats
	if repeats < 1 {
		repeats = 1
	}
	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	if out != nil {
		if err := out.WriteHeader(); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	results := make([]CaseResult, 0, len(cases))
	for _, c := range cases {
		cfg := r.Base
		cfg.Epsilon = c.Epsilon
		solver, err := relax.New(cfg)
		if err != nil {
			return results, fmt.Errorf("case %dx%d eps %g: %w", c.Rows, c.Cols, c.Epsilon, err)
		}

		cr := CaseResult{Case: c}
		elapsed := make([]float64, 0, repeats)
		sw := timeutil.StartStopwatch(clock)
		for k := 0; k < repeats; k++ {
			g, err := plate.NewReference(c.Rows, c.Cols)
			if err != nil {
				return results, fmt.Errorf("case %dx%d: %w", c.Rows, c.Cols, err)
			}

			// Plate allocation is not part of the timed solve.
			sw.Restart()
			res, err := solver.Solve(ctx, g)
			elapsed = append(elapsed, sw.Elapsed().Seconds())
			if err != nil && !errors.Is(err, relax.ErrNotConverged) {
				return results, fmt.Errorf("case %dx%d eps %g: %w", c.Rows, c.Cols, c.Epsilon, err)
			}
			cr.Iterations = res.Iterations
			cr.MaxDiff = res.MaxDiff
			cr.Converged = res.Converged
		}
		cr.ElapsedMean, cr.ElapsedStddev = MeanStddev(elapsed)
		monitoring.Logf("sweep: %dx%d eps %g: %d iterations, converged=%v, %.6fs mean",
			c.Rows, c.Cols, c.Epsilon, cr.Iterations, cr.Converged, cr.ElapsedMean)

		results = append(results, cr)
		if out != nil {
			if err := out.WriteResult(cr); err != nil {
				return results, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	if out != nil {
		if err := out.Flush(); err != nil {
			return results, fmt.Errorf("failed to flush output: %w", err)
		}
	}
	return results, nil
}
