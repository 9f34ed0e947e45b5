package assignment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/formflight/core/logger"
	"github.com/kilianp07/formflight/core/model"
	"github.com/kilianp07/formflight/core/world"
)

// lineWorld places three agents and three targets on parallel lines so the
// only optimal pairing is Agent i -> Target i.
func lineWorld(t *testing.T) (*world.World, []*world.Entity, []*world.Entity) {
	t.Helper()
	w := world.New()
	var agents, targets []*world.Entity
	for i := 0; i < 3; i++ {
		x := float64(10 * i)
		a := world.NewEntity(model.NewIdentity("Agent"+string(rune('0'+i))), model.KindAgent,
			model.StateVector{x, 0, 0, 0, 0, 0}, nil, nil)
		tg := world.NewEntity(model.NewIdentity("Target"+string(rune('0'+i))), model.KindTarget,
			model.StateVector{x, 1, 0, 0, 0, 0}, nil, nil)
		require.NoError(t, w.Spawn(a, tg))
		agents = append(agents, a)
		targets = append(targets, tg)
	}
	return w, agents, targets
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

var _ logger.Logger = nopLogger{}
