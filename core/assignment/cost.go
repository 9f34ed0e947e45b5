package assignment

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CostModel is the normalized pairwise cost between agents (rows) and
// targets (columns).
type CostModel struct {
	Matrix *mat.Dense
	// Scale is the maximum raw cost the matrix was divided by. Zero means
	// every position coincides and the matrix was left unnormalized.
	Scale float64
}

// Degenerate reports whether all pairwise costs are zero.
func (c CostModel) Degenerate() bool { return c.Scale == 0 }

// BuildCost returns the squared Euclidean distance matrix between agents and
// targets divided by its largest entry.
func BuildCost(agents, targets [][]float64) (CostModel, error) {
	if len(agents) == 0 || len(targets) == 0 {
		return CostModel{}, ErrEmptyPopulation
	}
	dim := len(agents[0])
	if dim == 0 {
		return CostModel{}, fmt.Errorf("%w: zero-length position", ErrDimensionMismatch)
	}
	for _, sets := range [][][]float64{agents, targets} {
		for _, p := range sets {
			if len(p) != dim {
				return CostModel{}, fmt.Errorf("%w: position of length %d, expected %d", ErrDimensionMismatch, len(p), dim)
			}
		}
	}

	cost := mat.NewDense(len(agents), len(targets), nil)
	diff := make([]float64, dim)
	for i, a := range agents {
		for j, t := range targets {
			floats.SubTo(diff, a, t)
			cost.Set(i, j, floats.Dot(diff, diff))
		}
	}

	scale := mat.Max(cost)
	if scale > 0 {
		cost.Scale(1/scale, cost)
	}
	return CostModel{Matrix: cost, Scale: scale}, nil
}
