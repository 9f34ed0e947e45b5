package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBuildCostNormalized(t *testing.T) {
	agents := [][]float64{{0, 0, 0}, {1, 0, 0}}
	targets := [][]float64{{0, 2, 0}, {3, 0, 0}}

	cm, err := BuildCost(agents, targets)
	require.NoError(t, err)
	assert.False(t, cm.Degenerate())
	assert.Equal(t, 9.0, cm.Scale)

	want := mat.NewDense(2, 2, []float64{4.0 / 9, 1, 5.0 / 9, 4.0 / 9})
	assert.True(t, mat.EqualApprox(want, cm.Matrix, 1e-12))
	assert.Equal(t, 1.0, mat.Max(cm.Matrix))
	assert.GreaterOrEqual(t, mat.Min(cm.Matrix), 0.0)
}

func TestBuildCostColocated(t *testing.T) {
	p := []float64{5, 5, 5}
	cm, err := BuildCost([][]float64{p, p}, [][]float64{p, p, p})
	require.NoError(t, err)
	assert.True(t, cm.Degenerate())
	r, c := cm.Matrix.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 0.0, mat.Max(cm.Matrix))
}

func TestBuildCostErrors(t *testing.T) {
	_, err := BuildCost(nil, [][]float64{{0}})
	assert.ErrorIs(t, err, ErrEmptyPopulation)

	_, err = BuildCost([][]float64{{0, 0}}, [][]float64{{0, 0, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = BuildCost([][]float64{{}}, [][]float64{{}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
