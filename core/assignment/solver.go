package assignment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// weightTol is the tolerance on the unit sum of mass weights.
const weightTol = 1e-9

// Solver computes an optimal transport coupling between the agent masses a
// (rows) and the target masses b (columns) under the given cost.
type Solver interface {
	Name() string
	Solve(a, b []float64, cost mat.Matrix) (*mat.Dense, error)
}

// UniformWeights returns n equal masses summing to one.
func UniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// CheckWeights validates the solver preconditions: a and b match the cost
// dimensions, are non-negative and each sum to one.
func CheckWeights(a, b []float64, cost mat.Matrix) error {
	r, c := cost.Dims()
	if r == 0 || c == 0 {
		return ErrEmptyPopulation
	}
	if len(a) != r || len(b) != c {
		return fmt.Errorf("%w: weights %d/%d, cost %dx%d", ErrDimensionMismatch, len(a), len(b), r, c)
	}
	for _, w := range [][]float64{a, b} {
		if floats.Min(w) < 0 {
			return fmt.Errorf("%w: negative mass", ErrInfeasibleWeights)
		}
		if s := floats.Sum(w); math.Abs(s-1) > weightTol {
			return fmt.Errorf("%w: masses sum to %v", ErrInfeasibleWeights, s)
		}
	}
	return nil
}

// EMDSolver solves the exact earth mover's distance problem as a linear
// program.
type EMDSolver struct {
	Tol float64
}

func (EMDSolver) Name() string { return SolverEMD }

// Solve implements Solver.
func (s EMDSolver) Solve(a, b []float64, cost mat.Matrix) (*mat.Dense, error) {
	if err := CheckWeights(a, b, cost); err != nil {
		return nil, &SolverError{Solver: SolverEMD, Err: err}
	}
	tol := s.Tol
	if tol <= 0 {
		tol = defaultEMDTol
	}
	gamma, err := emdSolve(a, b, cost, tol)
	if err != nil {
		return nil, &SolverError{Solver: SolverEMD, Err: err}
	}
	return gamma, nil
}

// solveEMD minimises <gamma, cost> subject to gamma·1 = a, gammaᵀ·1 = b and
// gamma >= 0. The last column constraint is implied by the others and is
// dropped so the constraint matrix has full row rank.
func solveEMD(a, b []float64, cost mat.Matrix, tol float64) (*mat.Dense, error) {
	n, m := cost.Dims()
	// single row or column: the marginals fix the coupling
	if n == 1 || m == 1 {
		gamma := mat.NewDense(n, m, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				if n == 1 {
					gamma.Set(i, j, b[j])
				} else {
					gamma.Set(i, j, a[i])
				}
			}
		}
		return gamma, nil
	}

	nv := n * m
	c := make([]float64, nv)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			c[i*m+j] = cost.At(i, j)
		}
	}
	rows := n + m - 1
	A := mat.NewDense(rows, nv, nil)
	rhs := make([]float64, rows)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			A.Set(i, i*m+j, 1)
		}
		rhs[i] = a[i]
	}
	for j := 0; j < m-1; j++ {
		for i := 0; i < n; i++ {
			A.Set(n+j, i*m+j, 1)
		}
		rhs[n+j] = b[j]
	}

	_, x, err := lp.Simplex(c, A, rhs, tol, nil)
	if err != nil {
		return nil, err
	}
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
	return mat.NewDense(n, m, x), nil
}

// emdSolve points to the function used to solve the transport LP. Tests
// override it to simulate solver failures.
var emdSolve = solveEMD

// SinkhornSolver approximates the transport plan with entropic
// regularization.
type SinkhornSolver struct {
	Reg     float64
	MaxIter int
	Tol     float64
}

func (SinkhornSolver) Name() string { return SolverSinkhorn }

// Solve implements Solver.
func (s SinkhornSolver) Solve(a, b []float64, cost mat.Matrix) (*mat.Dense, error) {
	fail := func(err error) (*mat.Dense, error) {
		return nil, &SolverError{Solver: SolverSinkhorn, Err: err}
	}
	if err := CheckWeights(a, b, cost); err != nil {
		return fail(err)
	}
	if s.Reg <= 0 {
		return fail(fmt.Errorf("regularization must be positive, got %v", s.Reg))
	}
	maxIter, tol := s.MaxIter, s.Tol
	if maxIter <= 0 {
		maxIter = defaultSinkhornMaxIter
	}
	if tol <= 0 {
		tol = defaultSinkhornTol
	}

	n, m := cost.Dims()
	k := mat.NewDense(n, m, nil)
	k.Apply(func(_, _ int, v float64) float64 { return math.Exp(-v / s.Reg) }, cost)

	u := mat.NewVecDense(n, nil)
	v := mat.NewVecDense(m, nil)
	for i := 0; i < n; i++ {
		u.SetVec(i, 1)
	}
	for j := 0; j < m; j++ {
		v.SetVec(j, 1)
	}
	kv := mat.NewVecDense(n, nil)
	ktu := mat.NewVecDense(m, nil)

	converged := false
	for it := 0; it < maxIter; it++ {
		kv.MulVec(k, v)
		for i := 0; i < n; i++ {
			u.SetVec(i, a[i]/kv.AtVec(i))
		}
		ktu.MulVec(k.T(), u)
		for j := 0; j < m; j++ {
			v.SetVec(j, b[j]/ktu.AtVec(j))
		}
		if !finite(u.RawVector().Data) || !finite(v.RawVector().Data) {
			return fail(fmt.Errorf("%w: non-finite scaling at iteration %d", ErrNotConverged, it))
		}
		// columns match b exactly after the v update; check the rows
		kv.MulVec(k, v)
		dev := 0.0
		for i := 0; i < n; i++ {
			dev += math.Abs(u.AtVec(i)*kv.AtVec(i) - a[i])
		}
		if dev < tol {
			converged = true
			break
		}
	}
	if !converged {
		return fail(fmt.Errorf("%w after %d iterations", ErrNotConverged, maxIter))
	}

	gamma := mat.NewDense(n, m, nil)
	gamma.Apply(func(i, j int, kij float64) float64 {
		return u.AtVec(i) * kij * v.AtVec(j)
	}, k)
	return gamma, nil
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NewSolver returns the solver selected by cfg.
func NewSolver(cfg Config) (Solver, error) {
	switch cfg.Solver {
	case SolverEMD, "":
		return EMDSolver{Tol: cfg.Tolerance}, nil
	case SolverSinkhorn:
		return SinkhornSolver{Reg: cfg.Sinkhorn.Reg, MaxIter: cfg.Sinkhorn.MaxIter, Tol: cfg.Sinkhorn.Tol}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, cfg.Solver)
	}
}
