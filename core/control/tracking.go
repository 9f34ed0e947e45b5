package control

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/formflight/core/model"
)

// Body is an entity advanced by the tracking step. Implementations guard
// their own state; the tracker only touches the body it was handed.
type Body interface {
	Identity() model.Identity
	State() model.StateVector
	SetState(model.StateVector)
	Dynamics() Dynamics
	Gain() GainSolver
}

// StepResult captures the quantities computed during one tracking step.
type StepResult struct {
	Error   model.StateVector
	Control []float64
	State   model.StateVector
	Times   []float64
}

// Tracker runs the per-agent control-and-integration step.
type Tracker struct {
	integrator Integrator
	opts       Options
}

// NewTracker returns a tracker using integ with the given options.
func NewTracker(integ Integrator, opts Options) *Tracker {
	return &Tracker{integrator: integ, opts: opts}
}

// ErrorState returns x0 - ref. A nil ref is the zero reference.
func ErrorState(x0, ref model.StateVector) (model.StateVector, error) {
	e := x0.Clone()
	if ref == nil {
		return e, nil
	}
	if len(ref) != len(x0) {
		return nil, fmt.Errorf("%w: state %d, reference %d", ErrDimensionMismatch, len(x0), len(ref))
	}
	for i := range e {
		e[i] -= ref[i]
	}
	return e, nil
}

// Control applies u = -K·e.
func Control(k mat.Matrix, e model.StateVector) ([]float64, error) {
	r, c := k.Dims()
	if c != len(e) {
		return nil, fmt.Errorf("%w: gain %dx%d, error state %d", ErrDimensionMismatch, r, c, len(e))
	}
	var u mat.VecDense
	u.MulVec(k, mat.NewVecDense(len(e), e))
	u.ScaleVec(-1, &u)
	out := make([]float64, r)
	copy(out, u.RawVector().Data)
	return out, nil
}

// Step advances body over [t0, t0+dt] chasing ref and writes the final state
// back. The body's state is left untouched on error.
func (tr *Tracker) Step(ctx context.Context, body Body, ref model.StateVector, t0, dt float64) (StepResult, error) {
	id := body.Identity()
	fail := func(err error) (StepResult, error) {
		return StepResult{}, &StepError{Agent: id, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	x0 := body.State()
	dyn := body.Dynamics()
	if dyn == nil || body.Gain() == nil {
		return fail(fmt.Errorf("%w: body without dynamics or gain", ErrDimensionMismatch))
	}
	if len(x0) != dyn.StateDim() {
		return fail(fmt.Errorf("%w: state %d, dynamics %d", ErrDimensionMismatch, len(x0), dyn.StateDim()))
	}
	e, err := ErrorState(x0, ref)
	if err != nil {
		return fail(err)
	}
	k, err := body.Gain().Gain()
	if err != nil {
		return fail(fmt.Errorf("gain: %w", err))
	}
	if r, _ := k.Dims(); r != dyn.ControlDim() {
		return fail(fmt.Errorf("%w: gain rows %d, control %d", ErrDimensionMismatch, r, dyn.ControlDim()))
	}
	u, err := Control(k, e)
	if err != nil {
		return fail(err)
	}

	f := func(t float64, x []float64) []float64 {
		return dyn.Derivative(t, x, u)
	}
	times, traj, err := tr.integrator.Integrate(f, t0, t0+dt, x0, tr.opts)
	if err != nil {
		return fail(fmt.Errorf("integrate: %w", err))
	}
	final := traj[len(traj)-1]
	if len(final) != len(x0) {
		return fail(fmt.Errorf("%w: integrator returned %d components", ErrDimensionMismatch, len(final)))
	}
	body.SetState(final.Clone())
	return StepResult{Error: e, Control: u, State: final, Times: times}, nil
}
