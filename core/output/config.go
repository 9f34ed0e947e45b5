package output

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Config controls what is written after a run.
type Config struct {
	// Dir receives the result files. An empty Dir disables them.
	Dir         string        `json:"dir"`
	Assignments string        `json:"assignments"`
	Entities    string        `json:"entities"`
	Results     string        `json:"results"`
	TickLog     TickLogConfig `json:"tick_log"`
}

// SetDefaults fills zero values with the file names used by the plotting
// scripts.
func (c *Config) SetDefaults() {
	if c.Assignments == "" {
		c.Assignments = "assignments.json"
	}
	if c.Entities == "" {
		c.Entities = "entities.json"
	}
	if c.Results == "" {
		c.Results = "results.csv"
	}
}

// Validate checks the tick log settings.
func (c Config) Validate() error {
	switch c.TickLog.Backend {
	case BackendNone:
		return nil
	case BackendJSONL, BackendRotating, BackendSQLite:
	default:
		return fmt.Errorf("output.tick_log.backend %q not supported", c.TickLog.Backend)
	}
	if c.TickLog.Path == "" {
		return errors.New("output.tick_log.path is required")
	}
	if c.TickLog.MaxSizeMB < 0 || c.TickLog.MaxBackups < 0 || c.TickLog.MaxAgeDays < 0 {
		return errors.New("output.tick_log rotation settings must not be negative")
	}
	return nil
}

// Path joins Dir and name.
func (c Config) Path(name string) string { return filepath.Join(c.Dir, name) }
