package events

import (
	"time"

	"github.com/google/uuid"
)

// TickEvent is published once a tick has been fully processed.
type TickEvent struct {
	Tick      int
	Time      float64
	Agents    int
	Failures  int
	MeanError float64
	Duration  time.Duration
}

// ReassignmentEvent summarizes one reassignment phase. Pairing maps each
// agent to its active target; Err is set when the phase failed.
type ReassignmentEvent struct {
	Tick          int
	Solver        string
	Pairing       map[uuid.UUID]uuid.UUID
	Switches      int
	MultiAssigned int
	Stale         int
	Duration      time.Duration
	Err           error
}

// StepFailureEvent is published for each agent whose tracking step failed.
type StepFailureEvent struct {
	Tick  int
	Agent uuid.UUID
	Name  string
	Err   error
}
