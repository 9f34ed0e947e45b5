package output

import (
	"context"
	"fmt"
	"time"
)

// TickRecord captures one simulation tick.
type TickRecord struct {
	Tick      int       `json:"tick"`
	SimTime   float64   `json:"sim_time"`
	Timestamp time.Time `json:"timestamp"`
	Solver    string    `json:"solver"`
	// Pairing maps agent names to the name of their active target.
	Pairing       map[string]string `json:"pairing"`
	Switches      int               `json:"switches"`
	MultiAssigned int               `json:"multi_assigned"`
	MeanError     float64           `json:"mean_error"`
	// StepFailures maps agent names to the error of their failed step.
	StepFailures map[string]string `json:"step_failures,omitempty"`
	// Error is set when the reassignment phase failed.
	Error string `json:"error,omitempty"`
}

// TickQuery filters tick records. Zero values disable a filter.
type TickQuery struct {
	FromTick int
	ToTick   int
	// Agent keeps records where the agent was paired or failed.
	Agent      string
	FailedOnly bool
}

func (q TickQuery) match(r TickRecord) bool {
	if q.FromTick > 0 && r.Tick < q.FromTick {
		return false
	}
	if q.ToTick > 0 && r.Tick > q.ToTick {
		return false
	}
	if q.FailedOnly && r.Error == "" && len(r.StepFailures) == 0 {
		return false
	}
	if q.Agent != "" {
		_, paired := r.Pairing[q.Agent]
		_, failed := r.StepFailures[q.Agent]
		if !paired && !failed {
			return false
		}
	}
	return true
}

// TickLog persists TickRecords and supports querying.
type TickLog interface {
	Append(ctx context.Context, rec TickRecord) error
	Query(ctx context.Context, q TickQuery) ([]TickRecord, error)
	Close() error
}

// TickLog backends.
const (
	BackendNone     = ""
	BackendJSONL    = "jsonl"
	BackendRotating = "rotating"
	BackendSQLite   = "sqlite"
)

// TickLogConfig selects and tunes the tick log backend.
type TickLogConfig struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// NewTickLog opens the configured backend. It returns nil when no backend is
// configured.
func NewTickLog(cfg TickLogConfig) (TickLog, error) {
	var (
		log TickLog
		err error
	)
	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case BackendJSONL:
		log, err = NewJSONLStore(cfg.Path)
	case BackendRotating:
		log, err = NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		log, err = NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown tick log backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s tick log: %w", cfg.Backend, err)
	}
	return log, nil
}
