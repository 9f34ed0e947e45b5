package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "agents": [{"name": "A", "state": [0, 0, 0]}, {"name": "B", "state": [5, 0, 0]}],
  "targets": [{"name": "T0", "state": [0, 1, 0]}, {"name": "T1", "state": [5, 1, 0]}]
}`), 0o644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"assign", "-r", path})
	require.NoError(t, Execute())
	assert.Equal(t, "solver: emd\n1 0\n0 1\nA -> T0\nB -> T1\n", buf.String())
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`scenario:
  num_agents: 3
  num_targets: 3
simulation:
  steps: 50
`), 0o644))

	rootCmd.SetArgs([]string{"run", "-c", cfg, "--steps", "2", "-o", dir})
	require.NoError(t, Execute())
	assert.FileExists(t, filepath.Join(dir, "results.csv"))
	assert.FileExists(t, filepath.Join(dir, "assignments.json"))
	assert.FileExists(t, filepath.Join(dir, "entities.json"))
}
