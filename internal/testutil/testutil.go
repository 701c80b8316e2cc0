// Package testutil provides shared test utilities and fixtures.
//
// This package centralises grid fixtures and assertions used by the plate,
// relax, report and sweep tests.
package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/heatplate/internal/plate"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewReferenceGrid returns a rows x cols grid with the reference boundary
// conditions applied (left 100, right 0).
func NewReferenceGrid(t testing.TB, rows, cols int) *plate.Grid {
	t.Helper()
	g, err := plate.NewReference(rows, cols)
	if err != nil {
		t.Fatalf("NewReference(%d, %d): %v", rows, cols, err)
	}
	return g
}

// GridRows returns the grid contents as a slice of row copies.
func GridRows(g *plate.Grid) [][]float64 {
	out := make([][]float64, g.Rows())
	for i := range out {
		out[i] = g.Row(i)
	}
	return out
}

// GridDiff returns a human-readable diff between two grids, or "" when they
// are bit-identical.
func GridDiff(want, got *plate.Grid) string {
	return cmp.Diff(GridRows(want), GridRows(got))
}

// AssertBoundaryEqual fails the test unless columns 0 and cols-1 and rows 0
// and rows-1 of got are bit-identical to want.
func AssertBoundaryEqual(t testing.TB, want, got *plate.Grid) {
	t.Helper()
	if !want.SameShape(got) {
		t.Fatalf("shape mismatch: want %dx%d, got %dx%d", want.Rows(), want.Cols(), got.Rows(), got.Cols())
		return
	}
	rows, cols := want.Rows(), want.Cols()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if i != 0 && i != rows-1 && j != 0 && j != cols-1 {
				continue
			}
			if want.At(i, j) != got.At(i, j) {
				t.Errorf("boundary cell (%d,%d) = %v, want %v", i, j, got.At(i, j), want.At(i, j))
				return
			}
		}
	}
}
