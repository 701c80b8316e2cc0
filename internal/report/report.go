// Package report formats solve results for the console.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/banshee-data/heatplate/internal/plate"
	"github.com/banshee-data/heatplate/internal/relax"
)

// Summary is the outcome of one solve as shown to the user.
type Summary struct {
	RunID      string        `json:"run_id"`
	Rows       int           `json:"rows"`
	Cols       int           `json:"cols"`
	Epsilon    float64       `json:"epsilon"`
	Iterations int           `json:"iterations"`
	MaxDiff    float64       `json:"max_diff"`
	Converged  bool          `json:"converged"`
	Elapsed    time.Duration `json:"-"`
}

// NewSummary combines a solve result with the grid shape and timing.
func NewSummary(g *plate.Grid, epsilon float64, res relax.Result, elapsed time.Duration) Summary {
	return Summary{
		RunID:      res.RunID,
		Rows:       g.Rows(),
		Cols:       g.Cols(),
		Epsilon:    epsilon,
		Iterations: res.Iterations,
		MaxDiff:    res.MaxDiff,
		Converged:  res.Converged,
		Elapsed:    elapsed,
	}
}

// WriteGrid writes g row-major, one line per row, each cell as "%.2f ".
func WriteGrid(w io.Writer, g *plate.Grid) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 16)
	for i := 0; i < g.Rows(); i++ {
		for _, v := range g.RawRow(i) {
			buf = strconv.AppendFloat(buf[:0], v, 'f', 2, 64)
			buf = append(buf, ' ')
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSummary writes the iteration count line.
func WriteSummary(w io.Writer, s Summary) error {
	if s.Converged {
		_, err := fmt.Fprintf(w, "Converged after %d iterations\n", s.Iterations)
		return err
	}
	_, err := fmt.Fprintf(w, "Did not converge after %d iterations (max diff %g, epsilon %g)\n",
		s.Iterations, s.MaxDiff, s.Epsilon)
	return err
}

// WriteElapsed writes the wall-clock time of the solve in seconds.
func WriteElapsed(w io.Writer, elapsed time.Duration) error {
	_, err := fmt.Fprintf(w, "Elapsed: %.6f s\n", elapsed.Seconds())
	return err
}

type jsonSummary struct {
	Summary
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// WriteJSON writes s as a single JSON object followed by a newline.
func WriteJSON(w io.Writer, s Summary) error {
	return json.NewEncoder(w).Encode(jsonSummary{Summary: s, ElapsedSeconds: s.Elapsed.Seconds()})
}
