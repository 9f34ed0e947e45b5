package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `simulation:
  dt: 0.05
  steps: 40
  integrator: rk4
  continue_on_step_error: true
scenario:
  num_agents: 8
  num_targets: 6
  agent_formation: line
  target_offset: 0
assignment:
  solver: sinkhorn
  sinkhorn:
    reg: 0.05
metrics:
  sinks:
    - type: nop
  prometheus_addr: ":9100"
logging:
  level: debug
output:
  dir: out
  tick_log:
    backend: jsonl
    path: out/ticks.jsonl
mqtt:
  enabled: true
  broker: tcp://localhost:1883
api:
  addr: ":8080"
  token: secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Simulation.Dt)
	assert.Equal(t, 40, cfg.Simulation.Steps)
	assert.Equal(t, "rk4", cfg.Simulation.Integrator)
	assert.True(t, cfg.Simulation.ContinueOnStepError)
	assert.Equal(t, 1e-3, cfg.Simulation.RelTol)

	assert.Equal(t, 8, cfg.Scenario.NumAgents)
	assert.Equal(t, "line", cfg.Scenario.AgentFormation)
	assert.Equal(t, "circle3d", cfg.Scenario.TargetFormation)
	require.NotNil(t, cfg.Scenario.TargetOffset)
	assert.Zero(t, *cfg.Scenario.TargetOffset)

	assert.Equal(t, "sinkhorn", cfg.Assignment.Solver)
	assert.Equal(t, 0.05, cfg.Assignment.Sinkhorn.Reg)
	assert.Equal(t, 10000, cfg.Assignment.Sinkhorn.MaxIter)

	require.Len(t, cfg.Metrics.Sinks, 1)
	assert.Equal(t, "nop", cfg.Metrics.Sinks[0].Type)
	assert.Equal(t, ":9100", cfg.Metrics.PrometheusAddr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "results.csv", cfg.Output.Results)
	assert.Equal(t, "jsonl", cfg.Output.TickLog.Backend)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "formflight", cfg.MQTT.TopicPrefix)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, "secret", cfg.API.Token)
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	path := writeFile(t, "config.json", `{"simulation": {"steps": 5}, "assignment": {"solver": "emd"}}`)
	t.Setenv("FF_SIMULATION__STEPS", "12")
	t.Setenv("FF_OUTPUT__TICK_LOG__BACKEND", "sqlite")
	t.Setenv("FF_OUTPUT__TICK_LOG__PATH", "ticks.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Simulation.Steps)
	assert.Equal(t, "sqlite", cfg.Output.TickLog.Backend)
	assert.Equal(t, "ticks.db", cfg.Output.TickLog.Path)
	assert.Equal(t, 50, cfg.Scenario.NumAgents)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("config.toml")
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, "bad.yaml", `assignment:
  solver: hungarian
metrics:
  sinks:
    - type: graphite
logging:
  level: loud
api:
  token: orphan
`)
	_, err = Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "assignment")
	assert.ErrorContains(t, err, "graphite")
	assert.ErrorContains(t, err, "logging")
	assert.ErrorContains(t, err, "api: token set without addr")
}
