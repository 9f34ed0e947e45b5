package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/formflight/core/control"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, 0.1, c.Dt)
	assert.Equal(t, 100, c.Steps)
	assert.Equal(t, "rk45", c.Integrator)
	assert.NoError(t, c.Validate())

	o := c.Options()
	assert.Equal(t, 0.01, o.FirstStep)
	assert.Equal(t, 1e-3, o.RelTol)
	assert.Equal(t, 1e-6, o.AbsTol)
	assert.Equal(t, control.DefaultOptions().MaxSteps, o.MaxSteps)
}

func TestConfigValidate(t *testing.T) {
	c := Config{Dt: 0, Steps: -1, Integrator: "verlet", RelTol: -1}
	err := c.Validate()
	assert.ErrorContains(t, err, "dt")
	assert.ErrorContains(t, err, "steps")
	assert.ErrorContains(t, err, "verlet")
	assert.ErrorContains(t, err, "rtol")
}
