package control

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// GainSolver provides the state feedback gain K of the control law u = -K·e.
// The returned matrix is shared and must not be modified.
type GainSolver interface {
	Gain() (*mat.Dense, error)
}

// FixedGain returns a precomputed gain.
type FixedGain struct {
	K *mat.Dense
}

func (g FixedGain) Gain() (*mat.Dense, error) {
	if g.K == nil {
		return nil, fmt.Errorf("%w: nil gain", ErrDimensionMismatch)
	}
	return g.K, nil
}

// LQR computes the infinite-horizon continuous LQR gain K = R⁻¹·Bᵀ·P where P
// solves the algebraic Riccati equation. P is obtained by integrating the
// Riccati flow from P = 0 until it is stationary. The gain is computed once.
type LQR struct {
	A, B, Q, R *mat.Dense

	// Step is the pseudo-time step of the Riccati flow.
	Step float64
	// Tol is the stationarity threshold on max|dP/dτ|.
	Tol     float64
	MaxIter int

	once sync.Once
	k    *mat.Dense
	err  error
}

// NewLQR validates shapes and returns an LQR gain solver with default
// iteration settings.
func NewLQR(a, b, q, r *mat.Dense) (*LQR, error) {
	n, nc := a.Dims()
	br, m := b.Dims()
	qr, qc := q.Dims()
	rr, rc := r.Dims()
	if n != nc || br != n || qr != n || qc != n || rr != m || rc != m {
		return nil, fmt.Errorf("%w: A %dx%d, B %dx%d, Q %dx%d, R %dx%d", ErrDimensionMismatch, n, nc, br, m, qr, qc, rr, rc)
	}
	return &LQR{A: a, B: b, Q: q, R: r, Step: 1e-2, Tol: 1e-9, MaxIter: 1_000_000}, nil
}

// NewLQRFor builds an LQR for a model exposing its state space with identity
// weights scaled by qWeight and rWeight.
func NewLQRFor(m StateSpace, qWeight, rWeight float64) (*LQR, error) {
	a, b := m.StateSpace()
	n, _ := a.Dims()
	_, c := b.Dims()
	return NewLQR(a, b, scaledIdentity(n, qWeight), scaledIdentity(c, rWeight))
}

func scaledIdentity(n int, w float64) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, w)
	}
	return d
}

// Gain implements GainSolver.
func (l *LQR) Gain() (*mat.Dense, error) {
	l.once.Do(func() {
		l.k, l.err = l.solve()
	})
	return l.k, l.err
}

func (l *LQR) solve() (*mat.Dense, error) {
	var rInv mat.Dense
	if err := rInv.Inverse(l.R); err != nil {
		return nil, fmt.Errorf("invert R: %w", err)
	}
	// S = B·R⁻¹·Bᵀ
	var brInv, s mat.Dense
	brInv.Mul(l.B, &rInv)
	s.Mul(&brInv, l.B.T())

	n, _ := l.A.Dims()
	p := mat.NewDense(n, n, nil)
	rhs := func(p *mat.Dense) *mat.Dense {
		var atp, pa, ps, psp mat.Dense
		atp.Mul(l.A.T(), p)
		pa.Mul(p, l.A)
		ps.Mul(p, &s)
		psp.Mul(&ps, p)
		out := mat.NewDense(n, n, nil)
		out.Add(&atp, &pa)
		out.Sub(out, &psp)
		out.Add(out, l.Q)
		return out
	}

	h := l.Step
	var tmp mat.Dense
	for it := 0; it < l.MaxIter; it++ {
		k1 := rhs(p)
		if maxAbs(k1) < l.Tol {
			var rbt, k mat.Dense
			rbt.Mul(&rInv, l.B.T())
			k.Mul(&rbt, p)
			return &k, nil
		}
		tmp.Scale(h/2, k1)
		tmp.Add(&tmp, p)
		k2 := rhs(&tmp)
		tmp.Scale(h/2, k2)
		tmp.Add(&tmp, p)
		k3 := rhs(&tmp)
		tmp.Scale(h, k3)
		tmp.Add(&tmp, p)
		k4 := rhs(&tmp)

		k2.Scale(2, k2)
		k3.Scale(2, k3)
		k1.Add(k1, k2)
		k1.Add(k1, k3)
		k1.Add(k1, k4)
		k1.Scale(h/6, k1)
		p.Add(p, k1)
		symmetrize(p)
		if v := maxAbs(p); math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: diverged after %d iterations", ErrGainNotConverged, it)
		}
	}
	return nil, fmt.Errorf("%w after %d iterations", ErrGainNotConverged, l.MaxIter)
}

func symmetrize(p *mat.Dense) {
	n, _ := p.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := (p.At(i, j) + p.At(j, i)) / 2
			p.Set(i, j, v)
			p.Set(j, i, v)
		}
	}
}

func maxAbs(m mat.Matrix) float64 {
	r, c := m.Dims()
	v := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a := math.Abs(m.At(i, j))
			if math.IsNaN(a) {
				return a
			}
			if a > v {
				v = a
			}
		}
	}
	return v
}
