package metrics

import (
	"errors"
	"time"
)

// TickMetrics summarizes one simulation tick.
type TickMetrics struct {
	Tick         int
	SimTime      float64
	Agents       int
	StepFailures int
	// MeanError and MaxError are the Euclidean norms of the agents' tracking
	// error states at the start of the tick.
	MeanError float64
	MaxError  float64
	Duration  time.Duration
	Time      time.Time
}

// TickSink records tick summaries.
type TickSink interface {
	RecordTick(m TickMetrics) error
}

// ReassignmentMetrics describes one reassignment phase. Pairing maps agent
// names to the name of their active target.
type ReassignmentMetrics struct {
	Tick          int
	Solver        string
	Switches      int
	MultiAssigned int
	Stale         int
	Pairing       map[string]string
	Duration      time.Duration
	Time          time.Time
}

// ReassignmentRecorder is implemented by sinks able to record reassignment
// phases.
type ReassignmentRecorder interface {
	RecordReassignment(m ReassignmentMetrics) error
}

// NopSink implements TickSink and ReassignmentRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickMetrics) error                 { return nil }
func (NopSink) RecordReassignment(ReassignmentMetrics) error { return nil }

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []TickSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...TickSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the record to every sink and joins their errors.
func (m *MultiSink) RecordTick(t TickMetrics) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordTick(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordReassignment forwards to sinks implementing ReassignmentRecorder.
func (m *MultiSink) RecordReassignment(r ReassignmentMetrics) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ReassignmentRecorder); ok {
			if err := rec.RecordReassignment(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks implementing io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
