package scenarios

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/formflight/core/assignment"
	"github.com/kilianp07/formflight/core/scenario"
	"github.com/kilianp07/formflight/core/sim"
	"github.com/kilianp07/formflight/core/world"
	"github.com/kilianp07/formflight/infra/logger"
	"github.com/kilianp07/formflight/infra/metrics"
)

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	w := world.New()
	rosters, err := scenario.Default().SetupRoster(w, sc.Roster())
	require.NoError(t, err)

	acfg := assignment.Config{Solver: sc.Solver}
	acfg.SetDefaults()
	solver, err := assignment.NewSolver(acfg)
	require.NoError(t, err)
	phase := assignment.NewPhase(solver, assignment.NewLedger(), acfg.PositionDim, logger.NopLogger{})
	s, err := sim.New(w, phase, solver.Name(), sim.Config{Dt: sc.Dt, Steps: sc.Steps}, logger.NopLogger{})
	require.NoError(t, err)
	s.SetSink(sink)

	targets := make(map[string]*world.Entity)
	for _, id := range rosters.Targets {
		e, ok := w.Get(id.UUID)
		require.True(t, ok)
		targets[id.Name] = e
	}

	switches, multi := 0, 0
	for i := 0; s.Ticks() < sc.Steps; i++ {
		for name, after := range sc.DespawnAfter {
			if i == after {
				require.True(t, w.Despawn(targets[name].Identity().UUID), "despawn %s", name)
			}
		}
		res, err := s.Tick(context.Background())
		require.NoError(t, err, "tick %d", i)
		switches += res.Reassignment.Switches
		multi = res.Reassignment.MultiAssigned
	}

	assert.Equal(t, float64(sc.Steps), counterValue(t, reg, "sim_ticks_total"))
	assert.Equal(t, float64(switches), counterValue(t, reg, "sim_assignment_switches_total"))
	assert.GreaterOrEqual(t, switches, sc.Expected.MinSwitches)
	assert.Equal(t, sc.Expected.MultiAssigned, multi)

	names := s.Names()
	for _, a := range rosters.Agents {
		tid, ok := s.Ledger().Active(a.UUID)
		require.True(t, ok, "%s has no target", a.Name)
		if want, ok := sc.Expected.Pairing[a.Name]; ok {
			assert.Equal(t, want, names[tid].Name, "pairing of %s", a.Name)
		}
		if sc.Expected.MaxFinalDistance <= 0 {
			continue
		}
		agent, _ := w.Get(a.UUID)
		target, ok := w.Get(tid)
		require.True(t, ok, "%s paired with a despawned target", a.Name)
		assert.LessOrEqual(t, distance(agent.State(), target.State()), sc.Expected.MaxFinalDistance, "distance of %s", a.Name)
	}
}

func distance(a, b []float64) float64 {
	d := 0.0
	for k := range scenario.Dim {
		d += (a[k] - b[k]) * (a[k] - b[k])
	}
	return math.Sqrt(d)
}

// counterValue sums every series of the named counter.
func counterValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	mfs, err := g.Gather()
	require.NoError(t, err)
	v := 0.0
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			v += m.GetCounter().GetValue()
		}
	}
	return v
}
