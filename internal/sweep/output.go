package sweep

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVWriter wraps csv.Writer with methods for sweep output.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a CSVWriter on out.
func NewCSVWriter(out io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(out)}
}

// WriteHeader writes the column names.
func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{
		"rows", "cols", "epsilon", "iterations", "converged",
		"max_diff", "elapsed_mean_s", "elapsed_stddev_s",
	})
}

// WriteResult writes one row for a finished case.
func (c *CSVWriter) WriteResult(r CaseResult) error {
	return c.w.Write([]string{
		strconv.Itoa(r.Rows),
		strconv.Itoa(r.Cols),
		strconv.FormatFloat(r.Epsilon, 'g', -1, 64),
		strconv.Itoa(r.Iterations),
		strconv.FormatBool(r.Converged),
		strconv.FormatFloat(r.MaxDiff, 'g', 6, 64),
		strconv.FormatFloat(r.ElapsedMean, 'f', 6, 64),
		strconv.FormatFloat(r.ElapsedStddev, 'f', 6, 64),
	})
}

// Flush writes buffered rows and reports any write error.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
