package control

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dynamics computes the state derivative of an entity under a control input.
type Dynamics interface {
	Derivative(t float64, x, u []float64) []float64
	StateDim() int
	ControlDim() int
}

// StateSpace is implemented by linear models exposing their A and B matrices.
type StateSpace interface {
	StateSpace() (a, b *mat.Dense)
}

// LinearModel implements x' = A·x + B·u.
type LinearModel struct {
	a *mat.Dense
	b *mat.Dense
}

// NewLinearModel validates the matrix shapes and returns the model.
func NewLinearModel(a, b *mat.Dense) (*LinearModel, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != ac || br != ar || bc == 0 {
		return nil, fmt.Errorf("%w: A is %dx%d, B is %dx%d", ErrDimensionMismatch, ar, ac, br, bc)
	}
	return &LinearModel{a: mat.DenseCopyOf(a), b: mat.DenseCopyOf(b)}, nil
}

// DoubleIntegrator returns the dim-axis double integrator with state
// [positions..., velocities...] and acceleration inputs.
func DoubleIntegrator(dim int) *LinearModel {
	n := 2 * dim
	a := mat.NewDense(n, n, nil)
	b := mat.NewDense(n, dim, nil)
	for i := 0; i < dim; i++ {
		a.Set(i, dim+i, 1)
		b.Set(dim+i, i, 1)
	}
	return &LinearModel{a: a, b: b}
}

func (m *LinearModel) StateDim() int {
	r, _ := m.a.Dims()
	return r
}

func (m *LinearModel) ControlDim() int {
	_, c := m.b.Dims()
	return c
}

// StateSpace returns copies of A and B.
func (m *LinearModel) StateSpace() (*mat.Dense, *mat.Dense) {
	return mat.DenseCopyOf(m.a), mat.DenseCopyOf(m.b)
}

// Derivative returns A·x + B·u. A nil u is treated as zero input.
func (m *LinearModel) Derivative(_ float64, x, u []float64) []float64 {
	var dx mat.VecDense
	dx.MulVec(m.a, mat.NewVecDense(len(x), x))
	if len(u) > 0 {
		var bu mat.VecDense
		bu.MulVec(m.b, mat.NewVecDense(len(u), u))
		dx.AddVec(&dx, &bu)
	}
	out := make([]float64, len(x))
	copy(out, dx.RawVector().Data)
	return out
}
