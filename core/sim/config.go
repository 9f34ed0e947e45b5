package sim

import (
	"errors"
	"fmt"

	"github.com/kilianp07/formflight/core/control"
)

const (
	defaultDt        = 0.1
	defaultSteps     = 100
	defaultFirstStep = 0.01
	defaultRelTol    = 1e-3
	defaultAbsTol    = 1e-6
)

// Config controls the simulation clock and the integrator used by the
// tracking step.
type Config struct {
	Dt         float64 `json:"dt"`
	Steps      int     `json:"steps"`
	Integrator string  `json:"integrator"`
	FirstStep  float64 `json:"first_step"`
	RelTol     float64 `json:"rtol"`
	AbsTol     float64 `json:"atol"`
	// ContinueOnStepError keeps the run going when some agents fail their
	// tracking step. Reassignment failures always stop the run.
	ContinueOnStepError bool `json:"continue_on_step_error"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Dt == 0 {
		c.Dt = defaultDt
	}
	if c.Steps == 0 {
		c.Steps = defaultSteps
	}
	if c.Integrator == "" {
		c.Integrator = control.RK45.String()
	}
	if c.FirstStep == 0 {
		c.FirstStep = defaultFirstStep
	}
	if c.RelTol == 0 {
		c.RelTol = defaultRelTol
	}
	if c.AbsTol == 0 {
		c.AbsTol = defaultAbsTol
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %v", c.Dt))
	}
	if c.Steps < 0 {
		errs = append(errs, fmt.Errorf("steps must not be negative, got %d", c.Steps))
	}
	if _, err := control.ParseKind(c.Integrator); err != nil {
		errs = append(errs, err)
	}
	if c.FirstStep < 0 || c.RelTol < 0 || c.AbsTol < 0 {
		errs = append(errs, errors.New("first_step, rtol and atol must not be negative"))
	}
	return errors.Join(errs...)
}

// Options returns the integrator options.
func (c Config) Options() control.Options {
	o := control.DefaultOptions()
	o.FirstStep = c.FirstStep
	o.RelTol = c.RelTol
	o.AbsTol = c.AbsTol
	return o
}
