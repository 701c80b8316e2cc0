package relax

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/heatplate/internal/monitoring"
	"github.com/banshee-data/heatplate/internal/plate"
)

// DefaultEpsilon is the reference convergence tolerance.
const DefaultEpsilon = 1e-6

// Config holds the solver parameters.
type Config struct {
	// Epsilon is the largest per-cell change of a sweep that counts as converged.
	Epsilon float64
	// MaxIterations caps the number of sweeps. Zero means no cap.
	MaxIterations int
	// Workers is the number of interior-row bands swept concurrently.
	// Zero means runtime.NumCPU().
	Workers int
	// ProgressInterval logs a progress line every N sweeps. Zero disables it.
	ProgressInterval int
	// Observer, if set, is called after every committed sweep.
	Observer func(iteration int, maxDiff float64)
}

// DefaultConfig returns the reference configuration: epsilon 1e-6, no
// iteration cap, one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Epsilon: DefaultEpsilon,
		Workers: runtime.NumCPU(),
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if !(c.Epsilon > 0) || math.IsInf(c.Epsilon, 0) {
		return fmt.Errorf("%w: epsilon must be positive and finite, got %g", ErrInvalidConfig, c.Epsilon)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations must be non-negative, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("%w: progress interval must be non-negative, got %d", ErrInvalidConfig, c.ProgressInterval)
	}
	return nil
}

// Result describes a finished solve.
type Result struct {
	RunID      string
	Iterations int
	// MaxDiff is the largest per-cell change of the last sweep.
	MaxDiff   float64
	Converged bool
}

// Solver runs Jacobi relaxation on grids. A Solver holds no per-solve
// state and may be shared, but a single grid must not be solved concurrently.
type Solver struct {
	cfg     Config
	workers int
}

// New validates cfg and returns a Solver.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	return &Solver{cfg: cfg, workers: workers}, nil
}

// Workers returns the effective worker count.
func (s *Solver) Workers() int { return s.workers }

// Epsilon returns the convergence tolerance.
func (s *Solver) Epsilon() float64 { return s.cfg.Epsilon }

// Solve relaxes g in place until the largest per-cell change of a sweep is at
// or below epsilon. A grid without interior cells is already converged and
// takes zero sweeps.
//
// If the iteration cap is reached first, Solve returns the partial Result
// together with a *NotConvergedError. Cancelling ctx stops the solve before
// the next sweep is committed; the grid then holds the last committed sweep.
func (s *Solver) Solve(ctx context.Context, g *plate.Grid) (Result, error) {
	res := Result{RunID: uuid.NewString()}

	if !g.HasInterior() {
		res.Converged = true
		monitoring.Logf("relax: run %s: %dx%d grid has no interior cells, nothing to do", res.RunID, g.Rows(), g.Cols())
		return res, nil
	}

	scratch := g.Clone()
	bands := partition(g.Rows(), s.workers)
	partials := make([]float64, len(bands))
	monitoring.Debugf("relax: run %s: %dx%d grid, %d bands, epsilon %g", res.RunID, g.Rows(), g.Cols(), len(bands), s.cfg.Epsilon)

	// The sentinel exceeds epsilon so at least one sweep runs.
	maxDiff := s.cfg.Epsilon + 1
	for maxDiff > s.cfg.Epsilon {
		if s.cfg.MaxIterations > 0 && res.Iterations >= s.cfg.MaxIterations {
			monitoring.Logf("relax: run %s: stopped at cap of %d iterations, max diff %g", res.RunID, res.Iterations, res.MaxDiff)
			return res, &NotConvergedError{
				Iterations: res.Iterations,
				MaxDiff:    res.MaxDiff,
				Epsilon:    s.cfg.Epsilon,
			}
		}

		err := updatePhase(bands, func(k int, b band) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[k] = updateBand(g, scratch, b)
			return nil
		})
		if err != nil {
			return res, fmt.Errorf("relax: run %s canceled after %d sweeps: %w", res.RunID, res.Iterations, err)
		}
		maxDiff = reduceMax(partials)

		// The commit must run to completion once started; it never checks ctx.
		commitPhase(bands, scratch, g)

		res.Iterations++
		res.MaxDiff = maxDiff

		if math.IsNaN(maxDiff) || math.IsInf(maxDiff, 0) {
			return res, fmt.Errorf("%w: run %s, sweep %d", ErrNonFinite, res.RunID, res.Iterations)
		}
		if s.cfg.Observer != nil {
			s.cfg.Observer(res.Iterations, maxDiff)
		}
		if s.cfg.ProgressInterval > 0 && res.Iterations%s.cfg.ProgressInterval == 0 {
			monitoring.Logf("relax: run %s: sweep %d, max diff %g", res.RunID, res.Iterations, maxDiff)
		}
	}

	res.Converged = true
	monitoring.Logf("relax: run %s: converged after %d iterations", res.RunID, res.Iterations)
	return res, nil
}

// band is a contiguous range [lo, hi) of interior rows.
type band struct {
	lo, hi int
}

// partition splits interior rows 1..rows-2 into at most workers bands of
// near-equal size. Earlier bands take the remainder rows.
func partition(rows, workers int) []band {
	interior := rows - 2
	n := workers
	if n > interior {
		n = interior
	}
	if n < 1 {
		n = 1
	}
	bands := make([]band, 0, n)
	lo := 1
	for k := 0; k < n; k++ {
		size := interior / n
		if k < interior%n {
			size++
		}
		bands = append(bands, band{lo: lo, hi: lo + size})
		lo += size
	}
	return bands
}

// updatePhase applies fn to every band and returns once all of them finish.
// A single band runs on the calling goroutine.
func updatePhase(bands []band, fn func(k int, b band) error) error {
	if len(bands) == 1 {
		return fn(0, bands[0])
	}
	var eg errgroup.Group
	for k, b := range bands {
		k, b := k, b
		eg.Go(func() error {
			return fn(k, b)
		})
	}
	return eg.Wait()
}

// updateBand writes the Jacobi update of the rows in b from cur into next and
// returns the largest absolute change. A NaN change is sticky.
func updateBand(cur, next *plate.Grid, b band) float64 {
	cols := cur.Cols()
	var maxDiff float64
	for i := b.lo; i < b.hi; i++ {
		up := cur.RawRow(i - 1)
		row := cur.RawRow(i)
		down := cur.RawRow(i + 1)
		out := next.RawRow(i)
		for j := 1; j < cols-1; j++ {
			v := (up[j] + down[j] + row[j-1] + row[j+1]) / 4.0
			out[j] = v
			d := math.Abs(v - row[j])
			if d > maxDiff || d != d {
				maxDiff = d
			}
		}
	}
	return maxDiff
}

// commitPhase copies the interior of every band from src to dst and returns
// once all bands are written.
func commitPhase(bands []band, src, dst *plate.Grid) {
	if len(bands) == 1 {
		src.CopyInterior(dst, bands[0].lo, bands[0].hi)
		return
	}
	var wg sync.WaitGroup
	for _, b := range bands {
		b := b
		wg.Add(1)
		go func() {
			defer wg.Done()
			src.CopyInterior(dst, b.lo, b.hi)
		}()
	}
	wg.Wait()
}

// reduceMax is the max reduction over band partials. NaN wins.
func reduceMax(partials []float64) float64 {
	if floats.HasNaN(partials) {
		return math.NaN()
	}
	return floats.Max(partials)
}
