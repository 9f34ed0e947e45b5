package assignment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/formflight/core/logger"
)

// Result describes one reassignment phase.
type Result struct {
	Snapshot Snapshot
	Cost     CostModel
	Coupling *mat.Dense
	Binary   Binary
	// Switches counts agents whose active target changed.
	Switches      int
	MultiAssigned int
	Stale         int
	Duration      time.Duration
}

// Pairing returns the active target of every agent in row order. Agents
// without an active target map to uuid.Nil.
func (r Result) Pairing(l *Ledger) map[uuid.UUID]uuid.UUID {
	out := make(map[uuid.UUID]uuid.UUID, len(r.Snapshot.Agents))
	for _, a := range r.Snapshot.Agents {
		t, _ := l.Active(a.UUID)
		out[a.UUID] = t
	}
	return out
}

// Phase runs the reassignment pipeline: snapshot, cost, transport, binary
// thresholding and ledger update.
type Phase struct {
	solver Solver
	ledger *Ledger
	posDim int
	log    logger.Logger
}

// NewPhase creates a reassignment phase writing into ledger.
func NewPhase(solver Solver, ledger *Ledger, posDim int, log logger.Logger) *Phase {
	return &Phase{solver: solver, ledger: ledger, posDim: posDim, log: log}
}

// Ledger returns the ledger the phase writes into.
func (p *Phase) Ledger() *Ledger { return p.ledger }

// Run executes one reassignment phase over pop. On error the ledger is left
// as it was before the call.
func (p *Phase) Run(pop Population) (Result, error) {
	start := time.Now()
	res, err := p.run(pop)
	res.Duration = time.Since(start)
	reassignmentDuration.WithLabelValues(p.solver.Name()).Observe(res.Duration.Seconds())
	if err != nil {
		var pe *PhaseError
		if errors.As(err, &pe) {
			reassignmentFailures.WithLabelValues(pe.Stage).Inc()
		}
		return res, err
	}
	assignmentSwitches.Add(float64(res.Switches))
	multiAssignedAgents.Set(float64(res.MultiAssigned))
	staleAssignments.Set(float64(res.Stale))
	return res, nil
}

func (p *Phase) run(pop Population) (Result, error) {
	var res Result
	snap, err := Extract(pop, p.posDim)
	if err != nil {
		return res, &PhaseError{Stage: "extract", Err: err}
	}
	res.Snapshot = snap

	cost, err := BuildCost(snap.AgentPositions, snap.TargetPositions)
	if err != nil {
		return res, &PhaseError{Stage: "cost", Err: err}
	}
	if cost.Degenerate() {
		p.log.Debugw("all agents and targets co-located, cost left unnormalized", map[string]any{
			"agents":  len(snap.Agents),
			"targets": len(snap.Targets),
		})
	}
	res.Cost = cost

	n, m := cost.Matrix.Dims()
	coupling, err := p.solver.Solve(UniformWeights(n), UniformWeights(m), cost.Matrix)
	if err != nil {
		p.log.Errorf("transport solver failed: %v", err)
		return res, &PhaseError{Stage: "solve", Err: err}
	}
	res.Coupling = coupling
	res.Binary = Binarize(coupling)
	res.MultiAssigned = res.Binary.MultiAssigned()

	agentIDs := snap.AgentIDs()
	before := make([]uuid.UUID, len(agentIDs))
	for i, id := range agentIDs {
		before[i], _ = p.ledger.Active(id)
	}
	if err := p.ledger.Append(agentIDs, snap.TargetIDs(), res.Binary); err != nil {
		return res, &PhaseError{Stage: "ledger", Err: err}
	}
	res.Stale = p.ledger.Refresh(agentIDs, snap.Targetable)
	for i, id := range agentIDs {
		if after, _ := p.ledger.Active(id); after != before[i] {
			res.Switches++
		}
	}
	if res.Stale > 0 {
		p.log.Warnf("%d agents kept a stale reference", res.Stale)
	}
	p.log.Debugw("reassignment done", map[string]any{
		"agents":         n,
		"targets":        m,
		"switches":       res.Switches,
		"multi_assigned": res.MultiAssigned,
	})
	return res, nil
}
