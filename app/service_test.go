package app

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/formflight/config"
	"github.com/kilianp07/formflight/core/assignment"
	"github.com/kilianp07/formflight/core/factory"
	coremetrics "github.com/kilianp07/formflight/core/metrics"
	"github.com/kilianp07/formflight/core/output"
	"github.com/kilianp07/formflight/infra/logger"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Simulation.Steps = 3
	cfg.Scenario.NumAgents = 4
	cfg.Scenario.NumTargets = 3
	cfg.Scenario.AgentFormation = "line"
	cfg.Scenario.TargetFormation = "line"
	cfg.Output.Dir = t.TempDir()
	cfg.Output.TickLog = output.TickLogConfig{Backend: output.BackendJSONL, Path: filepath.Join(cfg.Output.Dir, "ticks.jsonl")}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceRunWritesOutputs(t *testing.T) {
	cfg := smallConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	require.Len(t, svc.Rosters.Agents, 4)
	require.Len(t, svc.Rosters.Targets, 3)
	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, 3, svc.Sim.Ticks())

	raw, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "assignments.json"))
	require.NoError(t, err)
	var hist map[string][]map[string]any
	require.NoError(t, json.Unmarshal(raw, &hist))
	assert.Len(t, hist, 4)
	for _, h := range hist {
		// one entry per tick at least
		assert.GreaterOrEqual(t, len(h), 3)
	}

	raw, err = os.ReadFile(filepath.Join(cfg.Output.Dir, "entities.json"))
	require.NoError(t, err)
	var ents output.Rosters
	require.NoError(t, json.Unmarshal(raw, &ents))
	assert.Equal(t, svc.Rosters, ents)

	f, err := os.Open(filepath.Join(cfg.Output.Dir, "results.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "time", rows[0][0])
	assert.Equal(t, "Agent0", rows[0][1])
	assert.Len(t, rows[0], 1+7*6)

	recs, err := svc.tickLog.Query(context.Background(), output.TickQuery{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestServiceWithoutOutputDir(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Output.Dir = ""
	cfg.Output.TickLog = output.TickLogConfig{}
	svc, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, svc.Run(context.Background()))
	assert.NoError(t, svc.WriteOutputs())
	assert.NoError(t, svc.Close())
}

func TestNewRejectsBadLevel(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Logging.Level = "shout"
	_, err := New(cfg)
	assert.ErrorContains(t, err, "log level")
}

func TestAssignOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`agents:
  - name: A
    state: [0, 0, 0]
  - name: B
    state: [10, 0, 0]
targets:
  - name: Far
    state: [11, 1, 0]
  - name: Near
    state: [1, 1, 0]
`), 0o644))

	rep, err := AssignOnce(path, assignment.Config{})
	require.NoError(t, err)
	require.Len(t, rep.Pairs, 2)
	assert.Equal(t, "A", rep.Pairs[0].Agent.Name)
	assert.Equal(t, "Near", rep.Pairs[0].Target.Name)
	assert.Equal(t, "B", rep.Pairs[1].Agent.Name)
	assert.Equal(t, "Far", rep.Pairs[1].Target.Name)
	assert.Equal(t, "0 1\n1 0\n", rep.Result.Binary.String())

	_, err = AssignOnce(path, assignment.Config{Solver: "auction"})
	assert.ErrorIs(t, err, assignment.ErrUnknownSolver)
}

func TestServiceHandler(t *testing.T) {
	cfg := smallConfig(t)
	cfg.API.Token = "tok"
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()
	_, err = svc.Sim.Tick(context.Background())
	require.NoError(t, err)

	h := svc.Handler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/agents", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var status []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Len(t, status, 4)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/agents/Agent0/history", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ticks", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "reassignment")
}

var closedSinks int

type closingSink struct{ coremetrics.NopSink }

func (closingSink) Close() error {
	closedSinks++
	return nil
}

func init() {
	_ = coremetrics.RegisterTickSink("closing-test", func(map[string]any) (coremetrics.TickSink, error) {
		return closingSink{}, nil
	})
}

func readIfExists(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return data
}

func TestNewReleasesResourcesOnError(t *testing.T) {
	closedSinks = 0
	cfg := smallConfig(t)
	logPath := filepath.Join(t.TempDir(), "service.log")
	cfg.Logging.File = logPath
	cfg.Logging.Format = "json"
	cfg.Logging.SetDefaults()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "closing-test"}}
	cfg.Output.TickLog = output.TickLogConfig{Backend: "bogus", Path: filepath.Join(cfg.Output.Dir, "ticks")}

	_, err := New(cfg)
	require.ErrorContains(t, err, "tick log")
	assert.Equal(t, 1, closedSinks)

	// the log file was released: new loggers write to stdout again
	before := readIfExists(t, logPath)
	logger.New("after").Errorf("not in the file")
	assert.Equal(t, before, readIfExists(t, logPath))
}
