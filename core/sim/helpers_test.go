package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/formflight/core/assignment"
	"github.com/kilianp07/formflight/core/control"
	"github.com/kilianp07/formflight/core/metrics"
	"github.com/kilianp07/formflight/core/model"
	"github.com/kilianp07/formflight/core/world"
	"github.com/kilianp07/formflight/infra/logger"
)

// lineWorld spawns three agents on the x axis and three targets one unit
// above them so the optimal pairing is Agent i -> Target i.
func lineWorld(t *testing.T) (*world.World, []*world.Entity, []*world.Entity) {
	t.Helper()
	dyn := control.DoubleIntegrator(3)
	gain, err := control.NewLQRFor(dyn, 1, 1)
	require.NoError(t, err)

	w := world.New()
	var agents, targets []*world.Entity
	for i, x := range []float64{0, 10, 20} {
		agents = append(agents, world.NewEntity(model.NewIdentity("Agent"+string(rune('0'+i))), model.KindAgent,
			model.StateVector{x, 0, 0, 0, 0, 0}, dyn, gain))
	}
	for i, x := range []float64{0, 10, 20} {
		targets = append(targets, world.NewEntity(model.NewIdentity("Target"+string(rune('0'+i))), model.KindTarget,
			model.StateVector{x, 1, 0, 0, 0, 0}, dyn, gain))
	}
	require.NoError(t, w.Spawn(agents...))
	require.NoError(t, w.Spawn(targets...))
	return w, agents, targets
}

func newSim(t *testing.T, w *world.World, cfg Config) *Simulator {
	t.Helper()
	phase := assignment.NewPhase(assignment.EMDSolver{Tol: 1e-9}, assignment.NewLedger(), 3, logger.NopLogger{})
	s, err := New(w, phase, assignment.SolverEMD, cfg, logger.NopLogger{})
	require.NoError(t, err)
	return s
}

type recSink struct {
	mu     sync.Mutex
	ticks  []metrics.TickMetrics
	phases []metrics.ReassignmentMetrics
}

func (r *recSink) RecordTick(m metrics.TickMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, m)
	return nil
}

func (r *recSink) RecordReassignment(m metrics.ReassignmentMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, m)
	return nil
}
