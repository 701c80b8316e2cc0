package relax

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a solver configuration outside valid bounds.
	ErrInvalidConfig = errors.New("relax: invalid config")

	// ErrNotConverged indicates the iteration cap was reached before the
	// largest per-sweep change dropped to epsilon.
	ErrNotConverged = errors.New("relax: did not converge")

	// ErrNonFinite indicates a sweep produced NaN or Inf.
	ErrNonFinite = errors.New("relax: non-finite value in grid")
)

// NotConvergedError carries the state of a solve stopped by the iteration cap.
type NotConvergedError struct {
	Iterations int
	MaxDiff    float64
	Epsilon    float64
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("relax: did not converge within %d iterations (max diff %g > epsilon %g)",
		e.Iterations, e.MaxDiff, e.Epsilon)
}

func (e *NotConvergedError) Unwrap() error {
	return ErrNotConverged
}
