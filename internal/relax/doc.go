// Package relax drives a plate.Grid to the steady state of the discrete
// Laplace equation by Jacobi relaxation.
//
// Each sweep replaces every interior cell with the mean of its four
// neighbours as they were at the start of the sweep. New values are staged
// in a scratch grid owned by the Solve call and committed only after the
// whole update phase has finished, so concurrent bands never observe each
// other's writes. The sweep loop stops once the largest per-cell change of a
// sweep is at or below the configured epsilon.
//
// Only rows 1..rows-2 and columns 1..cols-2 are ever written. Columns 0 and
// cols-1 hold the boundary temperatures; rows 0 and rows-1 are never updated
// and keep whatever value they were initialized with.
package relax
