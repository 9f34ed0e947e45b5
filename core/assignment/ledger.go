package assignment

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kilianp07/formflight/core/model"
)

// Ledger owns the assignment history and the current-assignment cache. It is
// written only during the reassignment phase and read concurrently by the
// tracking steps.
type Ledger struct {
	mu      sync.RWMutex
	history map[uuid.UUID][]uuid.UUID
	current map[uuid.UUID]model.StateVector
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		history: make(map[uuid.UUID][]uuid.UUID),
		current: make(map[uuid.UUID]model.StateVector),
	}
}

// Append records, for every set cell (i, j) of bin, target j at the end of
// agent i's history. Targets of one row are appended in column order; rows
// without a set cell leave the history unchanged. The ledger is not modified
// when the dimensions disagree.
func (l *Ledger) Append(agentIDs, targetIDs []uuid.UUID, bin Binary) error {
	if len(bin) != len(agentIDs) {
		return fmt.Errorf("%w: %d rows for %d agents", ErrDimensionMismatch, len(bin), len(agentIDs))
	}
	for i, row := range bin {
		if len(row) != len(targetIDs) {
			return fmt.Errorf("%w: row %d has %d columns for %d targets", ErrDimensionMismatch, i, len(row), len(targetIDs))
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, row := range bin {
		for j, v := range row {
			if v == 0 {
				continue
			}
			l.history[agentIDs[i]] = append(l.history[agentIDs[i]], targetIDs[j])
		}
	}
	return nil
}

// Refresh updates the cached reference of each agent with the latest state of
// its most recently appended target. Agents whose target is no longer
// targetable keep their previous reference, and stale counts them.
func (l *Ledger) Refresh(agentIDs []uuid.UUID, targetable TargetableSet) (stale int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range agentIDs {
		h := l.history[id]
		if len(h) == 0 {
			continue
		}
		state, ok := targetable[h[len(h)-1]]
		if !ok {
			stale++
			continue
		}
		l.current[id] = state.Clone()
	}
	return stale
}

// Current returns a copy of the cached reference of agent id. The boolean is
// false when the agent has never been assigned.
func (l *Ledger) Current(id uuid.UUID) (model.StateVector, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.current[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Active returns the most recently appended target of agent id.
func (l *Ledger) Active(id uuid.UUID) (uuid.UUID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h := l.history[id]
	if len(h) == 0 {
		return uuid.Nil, false
	}
	return h[len(h)-1], true
}

// History returns a copy of the targets appended for agent id, oldest first.
func (l *Ledger) History(id uuid.UUID) []uuid.UUID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h := l.history[id]
	if h == nil {
		return nil
	}
	out := make([]uuid.UUID, len(h))
	copy(out, h)
	return out
}

// HistorySnapshot returns a deep copy of the full history.
func (l *Ledger) HistorySnapshot() map[uuid.UUID][]uuid.UUID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[uuid.UUID][]uuid.UUID, len(l.history))
	for id, h := range l.history {
		out[id] = append([]uuid.UUID(nil), h...)
	}
	return out
}
