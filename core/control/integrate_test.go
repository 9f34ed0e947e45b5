package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decay(_ float64, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = -v
	}
	return out
}

func TestIntegrateSchemes(t *testing.T) {
	want := math.Exp(-1)
	cases := []struct {
		kind Kind
		opts Options
		tol  float64
	}{
		{Euler, Options{FirstStep: 1e-4}, 1e-3},
		{RK4, Options{FirstStep: 0.05}, 1e-6},
		{RK45, Options{FirstStep: 0.1, RelTol: 1e-8, AbsTol: 1e-10}, 1e-6},
	}
	for _, c := range cases {
		t.Run(c.kind.String(), func(t *testing.T) {
			times, traj, err := Integrate(decay, 0, 1, []float64{1}, c.kind, c.opts)
			require.NoError(t, err)
			require.Equal(t, len(times), len(traj))
			assert.Equal(t, 0.0, times[0])
			assert.InDelta(t, 1.0, times[len(times)-1], 1e-12)
			assert.InDelta(t, want, traj[len(traj)-1][0], c.tol)
		})
	}
}

func TestIntegrateLandsOnEndTime(t *testing.T) {
	times, _, err := Integrate(decay, 0, 0.25, []float64{1}, RK4, Options{FirstStep: 0.1})
	require.NoError(t, err)
	assert.Equal(t, 4, len(times))
	assert.Equal(t, 0.25, times[len(times)-1])
}

func TestIntegrateEmptySpan(t *testing.T) {
	times, traj, err := Integrate(decay, 2, 2, []float64{3}, RK45, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, times)
	assert.Equal(t, 3.0, traj[0][0])
}

func TestIntegrateErrors(t *testing.T) {
	_, _, err := Integrate(decay, 1, 0, []float64{1}, RK45, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidSpan)

	nan := func(float64, []float64) []float64 { return []float64{math.NaN()} }
	for _, k := range []Kind{Euler, RK4, RK45} {
		_, _, err = Integrate(nan, 0, 1, []float64{1}, k, DefaultOptions())
		assert.ErrorIs(t, err, ErrNonFinite, k.String())
	}

	_, _, err = Integrate(decay, 0, 1, []float64{1}, RK4, Options{FirstStep: 0.001, MaxSteps: 10})
	assert.ErrorIs(t, err, ErrMaxSteps)

	_, _, err = Integrate(decay, 0, 1, []float64{math.Inf(1)}, RK4, DefaultOptions())
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestSolverImplementsIntegrator(t *testing.T) {
	var integ Integrator = NewSolver(RK45)
	_, traj, err := integ.Integrate(decay, 0, 0.5, []float64{2}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Exp(-0.5), traj[len(traj)-1][0], 1e-3)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"euler": Euler, "RK4": RK4, "rk45": RK45, "": RK45} {
		k, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, k)
	}
	_, err := ParseKind("leapfrog")
	assert.Error(t, err)
}
