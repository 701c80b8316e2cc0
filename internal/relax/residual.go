package relax

import (
	"math"

	"github.com/banshee-data/heatplate/internal/plate"
)

// Residual returns the largest |cell - mean(neighbours)| over the interior
// cells of g. It is zero for a grid without interior cells.
func Residual(g *plate.Grid) float64 {
	if !g.HasInterior() {
		return 0
	}
	cols := g.Cols()
	var worst float64
	for i := 1; i < g.Rows()-1; i++ {
		up, row, down := g.RawRow(i-1), g.RawRow(i), g.RawRow(i+1)
		for j := 1; j < cols-1; j++ {
			mean := (up[j] + down[j] + row[j-1] + row[j+1]) / 4.0
			if d := math.Abs(row[j] - mean); d > worst {
				worst = d
			}
		}
	}
	return worst
}
