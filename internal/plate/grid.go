// Package plate owns the temperature grid of a rectangular plate.
//
// Responsibilities: grid allocation, boundary-value assignment and cell access.
// Key types: Grid.
//
// Dependency rule: plate is a leaf package. Relaxation lives in relax.
package plate

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Reference boundary temperatures for the left and right plate edges.
const (
	DefaultLeft  = 100.0
	DefaultRight = 0.0
)

// MinInteriorDim is the smallest row or column count that leaves at least
// one interior cell.
const MinInteriorDim = 3

var (
	// ErrInvalidShape is returned when a grid dimension is not positive.
	ErrInvalidShape = errors.New("plate: rows and cols must be positive")

	// ErrShapeMismatch is returned when two grids of different shape are combined.
	ErrShapeMismatch = errors.New("plate: grid shape mismatch")
)

// Grid is a fixed-size rows x cols array of temperatures stored row-major.
type Grid struct {
	rows int
	cols int
	data *mat.Dense
}

// New allocates a zeroed rows x cols grid.
// Grids smaller than 3x3 are valid but have no interior cells.
func New(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidShape, rows, cols)
	}
	return &Grid{
		rows: rows,
		cols: cols,
		data: mat.NewDense(rows, cols, nil),
	}, nil
}

// NewReference allocates a grid and applies the reference boundary
// conditions: left edge 100.0, right edge 0.0, everything else 0.0.
func NewReference(rows, cols int) (*Grid, error) {
	g, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	g.Initialize(DefaultLeft, DefaultRight)
	return g, nil
}

// Initialize sets every cell to 0.0, then pins column 0 of every row to left
// and column cols-1 of every row to right. Rows 0 and rows-1 keep 0.0 in
// their other columns.
func (g *Grid) Initialize(left, right float64) {
	g.data.Zero()
	for i := 0; i < g.rows; i++ {
		row := g.data.RawRowView(i)
		row[0] = left
		row[g.cols-1] = right
	}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// HasInterior reports whether the grid has at least one interior cell.
func (g *Grid) HasInterior() bool {
	return g.rows >= MinInteriorDim && g.cols >= MinInteriorDim
}

// InteriorCells returns the number of cells the solver may update.
func (g *Grid) InteriorCells() int {
	if !g.HasInterior() {
		return 0
	}
	return (g.rows - 2) * (g.cols - 2)
}

// At returns the value at row i, column j. It panics when out of range.
func (g *Grid) At(i, j int) float64 {
	return g.data.At(i, j)
}

// Set stores v at row i, column j. It panics when out of range.
func (g *Grid) Set(i, j int, v float64) {
	g.data.Set(i, j, v)
}

// Row returns a copy of row i.
func (g *Grid) Row(i int) []float64 {
	out := make([]float64, g.cols)
	copy(out, g.data.RawRowView(i))
	return out
}

// RawRow returns row i backed by the grid storage. Writes through the
// returned slice modify the grid.
func (g *Grid) RawRow(i int) []float64 {
	return g.data.RawRowView(i)
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{
		rows: g.rows,
		cols: g.cols,
		data: mat.DenseCopyOf(g.data),
	}
}

// SameShape reports whether g and other have identical dimensions.
func (g *Grid) SameShape(other *Grid) bool {
	return other != nil && g.rows == other.rows && g.cols == other.cols
}

// CopyFrom overwrites every cell of g with the matching cell of src.
func (g *Grid) CopyFrom(src *Grid) error {
	if src == nil {
		return fmt.Errorf("%w: nil source grid", ErrShapeMismatch)
	}
	if !g.SameShape(src) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, g.rows, g.cols, src.rows, src.cols)
	}
	g.data.Copy(src.data)
	return nil
}

// CopyInterior copies columns 1..cols-2 of rows [lo, hi) from g into dst.
// Boundary columns of dst are left untouched. Both grids must have the same
// shape and the row range must lie within the grid; otherwise it panics.
func (g *Grid) CopyInterior(dst *Grid, lo, hi int) {
	if !g.SameShape(dst) {
		panic(ErrShapeMismatch)
	}
	if lo < 0 || hi > g.rows || lo > hi {
		panic(fmt.Sprintf("plate: row range [%d, %d) out of bounds for %d rows", lo, hi, g.rows))
	}
	if g.cols < MinInteriorDim {
		return
	}
	for i := lo; i < hi; i++ {
		copy(dst.data.RawRowView(i)[1:g.cols-1], g.data.RawRowView(i)[1:g.cols-1])
	}
}

// Equal reports whether g and other have the same shape and bit-identical cells.
func (g *Grid) Equal(other *Grid) bool {
	return g.SameShape(other) && mat.Equal(g.data, other.data)
}

// EqualApprox reports whether every cell of g is within tol of other.
func (g *Grid) EqualApprox(other *Grid, tol float64) bool {
	return g.SameShape(other) && mat.EqualApprox(g.data, other.data, tol)
}
