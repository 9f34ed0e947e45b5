package control

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/formflight/core/model"
)

// Field is the closed-loop vector field f(t, x).
type Field func(t float64, x []float64) []float64

// Kind selects the integration scheme.
type Kind int

const (
	Euler Kind = iota
	RK4
	RK45
)

func (k Kind) String() string {
	switch k {
	case Euler:
		return "euler"
	case RK4:
		return "rk4"
	case RK45:
		return "rk45"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a configuration string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "euler":
		return Euler, nil
	case "rk4":
		return RK4, nil
	case "rk45", "":
		return RK45, nil
	default:
		return 0, fmt.Errorf("unknown integrator %q", s)
	}
}

// Options tunes the integration. FirstStep is the fixed step for Euler and
// RK4 and the initial step for RK45.
type Options struct {
	FirstStep float64
	RelTol    float64
	AbsTol    float64
	MinStep   float64
	MaxSteps  int
}

// DefaultOptions mirrors the tolerances used by the tracking step.
func DefaultOptions() Options {
	return Options{FirstStep: 0.1, RelTol: 1e-3, AbsTol: 1e-6, MinStep: 1e-10, MaxSteps: 100000}
}

func (o Options) withDefaults(span float64) Options {
	d := DefaultOptions()
	if o.FirstStep <= 0 || o.FirstStep > span {
		o.FirstStep = span
	}
	if o.RelTol <= 0 {
		o.RelTol = d.RelTol
	}
	if o.AbsTol <= 0 {
		o.AbsTol = d.AbsTol
	}
	if o.MinStep <= 0 {
		o.MinStep = d.MinStep
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = d.MaxSteps
	}
	return o
}

// Integrator advances a vector field over a time span and returns the sample
// times together with the trajectory. The last sample is the state at the end
// of the span.
type Integrator interface {
	Integrate(f Field, t0, tf float64, x0 []float64, opts Options) ([]float64, []model.StateVector, error)
}

// Solver is the built-in Integrator.
type Solver struct {
	Kind Kind
}

// NewSolver returns a Solver for the given scheme.
func NewSolver(kind Kind) Solver { return Solver{Kind: kind} }

// Integrate implements Integrator.
func (s Solver) Integrate(f Field, t0, tf float64, x0 []float64, opts Options) ([]float64, []model.StateVector, error) {
	return Integrate(f, t0, tf, x0, s.Kind, opts)
}

// Integrate solves the initial value problem x' = f(t, x), x(t0) = x0 over
// [t0, tf] with the requested scheme.
func Integrate(f Field, t0, tf float64, x0 []float64, kind Kind, opts Options) ([]float64, []model.StateVector, error) {
	if math.IsNaN(t0) || math.IsNaN(tf) || tf < t0 {
		return nil, nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidSpan, t0, tf)
	}
	if !finite(x0) {
		return nil, nil, ErrNonFinite
	}
	times := []float64{t0}
	traj := []model.StateVector{model.StateVector(x0).Clone()}
	if tf == t0 {
		return times, traj, nil
	}
	opts = opts.withDefaults(tf - t0)
	switch kind {
	case Euler:
		return fixedStep(f, t0, tf, x0, opts, eulerStep, times, traj)
	case RK4:
		return fixedStep(f, t0, tf, x0, opts, rk4Step, times, traj)
	case RK45:
		return dormandPrince(f, t0, tf, x0, opts, times, traj)
	default:
		return nil, nil, fmt.Errorf("unsupported integrator %s", kind)
	}
}

type stepFunc func(f Field, t, h float64, x []float64) []float64

func fixedStep(f Field, t0, tf float64, x0 []float64, opts Options, step stepFunc, times []float64, traj []model.StateVector) ([]float64, []model.StateVector, error) {
	t := t0
	x := model.StateVector(x0).Clone()
	for n := 0; !reached(t, tf); n++ {
		if n >= opts.MaxSteps {
			return times, traj, ErrMaxSteps
		}
		h := math.Min(opts.FirstStep, tf-t)
		x = step(f, t, h, x)
		if !finite(x) {
			return times, traj, fmt.Errorf("%w at t=%v", ErrNonFinite, t+h)
		}
		t += h
		if reached(t, tf) {
			t = tf
		}
		times = append(times, t)
		traj = append(traj, model.StateVector(x).Clone())
	}
	return times, traj, nil
}

func eulerStep(f Field, t, h float64, x []float64) []float64 {
	out := make([]float64, len(x))
	floats.AddScaledTo(out, x, h, f(t, x))
	return out
}

func rk4Step(f Field, t, h float64, x []float64) []float64 {
	tmp := make([]float64, len(x))
	k1 := f(t, x)
	floats.AddScaledTo(tmp, x, h/2, k1)
	k2 := f(t+h/2, tmp)
	floats.AddScaledTo(tmp, x, h/2, k2)
	k3 := f(t+h/2, tmp)
	floats.AddScaledTo(tmp, x, h, k3)
	k4 := f(t+h, tmp)

	out := make([]float64, len(x))
	copy(out, x)
	floats.AddScaled(out, h/6, k1)
	floats.AddScaled(out, h/3, k2)
	floats.AddScaled(out, h/3, k3)
	floats.AddScaled(out, h/6, k4)
	return out
}

// Dormand–Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// difference between the 5th and 4th order weights
	dpE = [7]float64{71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40}
)

func dormandPrince(f Field, t0, tf float64, x0 []float64, opts Options, times []float64, traj []model.StateVector) ([]float64, []model.StateVector, error) {
	n := len(x0)
	t := t0
	x := model.StateVector(x0).Clone()
	h := opts.FirstStep
	var k [7][]float64
	tmp := make([]float64, n)
	errv := make([]float64, n)

	for steps := 0; !reached(t, tf); steps++ {
		if steps >= opts.MaxSteps {
			return times, traj, ErrMaxSteps
		}
		if h < opts.MinStep {
			return times, traj, fmt.Errorf("%w: h=%g at t=%v", ErrStepSizeUnderflow, h, t)
		}
		if t+h > tf {
			h = tf - t
		}

		k[0] = f(t, x)
		for s := 1; s < 7; s++ {
			copy(tmp, x)
			for j := 0; j < s; j++ {
				if dpA[s][j] != 0 {
					floats.AddScaled(tmp, h*dpA[s][j], k[j])
				}
			}
			k[s] = f(t+dpC[s]*h, tmp)
		}
		// tmp holds the 5th order solution after the last stage
		xNew := make([]float64, n)
		copy(xNew, tmp)

		for i := range errv {
			errv[i] = 0
		}
		for s := 0; s < 7; s++ {
			if dpE[s] != 0 {
				floats.AddScaled(errv, h*dpE[s], k[s])
			}
		}
		errNorm := 0.0
		for i := 0; i < n; i++ {
			sc := opts.AbsTol + opts.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
			e := errv[i] / sc
			errNorm += e * e
		}
		errNorm = math.Sqrt(errNorm / float64(n))
		if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
			return times, traj, fmt.Errorf("%w at t=%v", ErrNonFinite, t)
		}

		if errNorm <= 1 {
			if !finite(xNew) {
				return times, traj, fmt.Errorf("%w at t=%v", ErrNonFinite, t+h)
			}
			t += h
			if reached(t, tf) {
				t = tf
			}
			x = xNew
			times = append(times, t)
			traj = append(traj, model.StateVector(x).Clone())
		}
		h *= stepFactor(errNorm)
	}
	return times, traj, nil
}

func stepFactor(errNorm float64) float64 {
	if errNorm == 0 {
		return 5
	}
	fac := 0.9 * math.Pow(errNorm, -0.2)
	return math.Min(5, math.Max(0.2, fac))
}

func reached(t, tf float64) bool {
	return tf-t <= 1e-12*math.Max(1, math.Abs(tf))
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
