package control

import (
	"errors"
	"fmt"

	"github.com/kilianp07/formflight/core/model"
)

var (
	// ErrDimensionMismatch indicates vectors or matrices with incompatible sizes.
	ErrDimensionMismatch = errors.New("control: dimension mismatch")
	// ErrInvalidSpan is returned when the integration span ends before it starts.
	ErrInvalidSpan = errors.New("control: invalid time span")
	// ErrNonFinite is returned when the integrated state contains NaN or Inf.
	ErrNonFinite = errors.New("control: non-finite state")
	// ErrStepSizeUnderflow is returned when the adaptive step shrinks below MinStep.
	ErrStepSizeUnderflow = errors.New("control: step size underflow")
	// ErrMaxSteps is returned when the integrator exceeds its step budget.
	ErrMaxSteps = errors.New("control: maximum number of steps exceeded")
	// ErrGainNotConverged is returned when the Riccati iteration does not settle.
	ErrGainNotConverged = errors.New("control: riccati iteration did not converge")
)

// StepError reports the failure of one agent's tracking step.
type StepError struct {
	Agent model.Identity
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("tracking step for %s: %v", e.Agent.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
