package assignment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/formflight/core/model"
	"github.com/kilianp07/formflight/core/world"
)

// Population gives read access to the entities of one kind.
type Population interface {
	Query(kind model.Kind) []*world.Entity
}

// TargetableSet maps target ids to their latest state.
type TargetableSet map[uuid.UUID]model.StateVector

// Snapshot is the per-tick view of both populations. Index i of the agent
// slices refers to row i of the cost and assignment matrices, index j of the
// target slices to column j.
type Snapshot struct {
	Agents          []model.Identity
	AgentPositions  [][]float64
	Targets         []model.Identity
	TargetPositions [][]float64
	Targetable      TargetableSet
}

// AgentIDs returns the agent UUIDs in row order.
func (s Snapshot) AgentIDs() []uuid.UUID { return uuids(s.Agents) }

// TargetIDs returns the target UUIDs in column order.
func (s Snapshot) TargetIDs() []uuid.UUID { return uuids(s.Targets) }

func uuids(ids []model.Identity) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		out[i] = id.UUID
	}
	return out
}

// Extract reads the identities and the first posDim state components of every
// agent and target. Each entity state is read once so positions and the
// targetable set agree. Every state must have the length of the first
// agent's state.
func Extract(pop Population, posDim int) (Snapshot, error) {
	var snap Snapshot
	agents := pop.Query(model.KindAgent)
	targets := pop.Query(model.KindTarget)
	if len(agents) == 0 || len(targets) == 0 {
		return snap, fmt.Errorf("%w: %d agents, %d targets", ErrEmptyPopulation, len(agents), len(targets))
	}

	stateDim := -1
	position := func(e *world.Entity, state model.StateVector) ([]float64, error) {
		if stateDim < 0 {
			stateDim = len(state)
		}
		if len(state) != stateDim {
			return nil, fmt.Errorf("%w: %s has %d state components, expected %d", ErrDimensionMismatch, e.Identity().Name, len(state), stateDim)
		}
		pos, err := state.Position(posDim)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDimensionMismatch, e.Identity().Name, err)
		}
		return pos, nil
	}

	snap.Agents = make([]model.Identity, len(agents))
	snap.AgentPositions = make([][]float64, len(agents))
	for i, e := range agents {
		pos, err := position(e, e.State())
		if err != nil {
			return Snapshot{}, err
		}
		snap.Agents[i] = e.Identity()
		snap.AgentPositions[i] = pos
	}

	snap.Targets = make([]model.Identity, len(targets))
	snap.TargetPositions = make([][]float64, len(targets))
	snap.Targetable = make(TargetableSet, len(targets))
	for j, e := range targets {
		state := e.State()
		pos, err := position(e, state)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Targets[j] = e.Identity()
		snap.TargetPositions[j] = pos
		snap.Targetable[e.Identity().UUID] = state
	}
	return snap, nil
}
