package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/formflight/core/model"
	"github.com/kilianp07/formflight/core/world"
)

func TestDefaults(t *testing.T) {
	s := Default()
	assert.Equal(t, 50, s.NumAgents)
	assert.Equal(t, 50, s.NumTargets)
	assert.Equal(t, FormationSphere, s.AgentFormation)
	assert.Equal(t, FormationCircle3D, s.TargetFormation)
	assert.Equal(t, 10.0, s.Radius)
	require.NotNil(t, s.TargetOffset)
	assert.Equal(t, 50.0, *s.TargetOffset)
	assert.Equal(t, 1.0, s.QWeight)
	assert.Equal(t, 1.0, s.RWeight)
	assert.NoError(t, s.Validate())
}

func TestExplicitZeroOffsetIsKept(t *testing.T) {
	zero := 0.0
	s := TrackingScenario{TargetOffset: &zero}
	s.SetDefaults()
	assert.Equal(t, 0.0, *s.TargetOffset)
}

func TestValidate(t *testing.T) {
	s := Default()
	s.NumAgents = -1
	s.AgentFormation = "cube"
	s.RWeight = -1
	err := s.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "num_agents")
	assert.ErrorContains(t, err, "agent_formation")
	assert.ErrorContains(t, err, "r_weight")

	s = Default()
	s.Roster = "roster.yaml"
	s.NumAgents = -1
	assert.NoError(t, s.Validate())
}

func TestSetupSpawnsNamedEntities(t *testing.T) {
	s := Default()
	s.NumAgents = 4
	s.NumTargets = 3
	w := world.New()
	r, err := s.Setup(w)
	require.NoError(t, err)

	require.Len(t, r.Agents, 4)
	require.Len(t, r.Targets, 3)
	assert.Equal(t, "Agent0", r.Agents[0].Name)
	assert.Equal(t, "Target2", r.Targets[2].Name)
	assert.NotEqual(t, r.Agents[0].UUID, r.Agents[1].UUID)

	agents := w.Query(model.KindAgent)
	require.Len(t, agents, 4)
	for i, a := range agents {
		assert.Equal(t, r.Agents[i], a.Identity())
		st := a.State()
		require.Len(t, st, 6)
		assert.Equal(t, []float64{0, 0, 0}, []float64(st[3:]))
		require.NotNil(t, a.Dynamics())
		assert.Equal(t, 6, a.Dynamics().StateDim())
		assert.Equal(t, 3, a.Dynamics().ControlDim())
		require.NotNil(t, a.Gain())
	}
	for _, tg := range w.Query(model.KindTarget) {
		// circle3d shifted by +50 on x
		assert.InDelta(t, 50, tg.State()[0], 10+1e-9)
		assert.Zero(t, tg.State()[2])
	}
}

func TestSetupFromRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agents:
  - name: Lead
    state: [0, 0, 0]
  - state: [1, 2, 3, 0.5, 0, 0]
targets:
  - name: Gate
    state: [10, 0, 0]
`), 0o644))

	s := Default()
	s.Roster = path
	w := world.New()
	r, err := s.Setup(w)
	require.NoError(t, err)
	require.Len(t, r.Agents, 2)
	assert.Equal(t, "Lead", r.Agents[0].Name)
	assert.Equal(t, "Agent1", r.Agents[1].Name)
	assert.Equal(t, "Gate", r.Targets[0].Name)

	e, ok := w.Get(r.Agents[1].UUID)
	require.True(t, ok)
	assert.Equal(t, model.StateVector{1, 2, 3, 0.5, 0, 0}, e.State())
}

func TestDecodeRoster(t *testing.T) {
	r, err := DecodeRoster(strings.NewReader(`{"agents":[{"name":"a","state":[0,0,0]}],"targets":[{"name":"t","state":[1,1,1,0,0,0]}]}`), "json")
	require.NoError(t, err)
	assert.Equal(t, "a", r.Agents[0].Name)

	_, err = DecodeRoster(strings.NewReader(`{"agents":[{"state":[0,0]}],"targets":[]}`), "json")
	require.Error(t, err)
	assert.ErrorContains(t, err, "no targets")
	assert.ErrorContains(t, err, "3 or 6 components")

	_, err = DecodeRoster(strings.NewReader(""), "toml")
	assert.ErrorContains(t, err, "unsupported")

	_, err = LoadRoster(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
