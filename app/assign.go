package app

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/formflight/core/assignment"
	"github.com/kilianp07/formflight/core/model"
	"github.com/kilianp07/formflight/core/scenario"
	"github.com/kilianp07/formflight/core/world"
	"github.com/kilianp07/formflight/infra/logger"
)

// Pair is the active target of one agent.
type Pair struct {
	Agent  model.Identity
	Target model.Identity
}

// AssignReport is the outcome of a single reassignment phase.
type AssignReport struct {
	Result assignment.Result
	Pairs  []Pair
}

// AssignOnce loads the roster at path and runs one reassignment phase over
// it without advancing any entity.
func AssignOnce(path string, cfg assignment.Config) (AssignReport, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return AssignReport{}, err
	}
	sc := scenario.Default()
	sc.Roster = path
	w := world.New()
	rosters, err := sc.Setup(w)
	if err != nil {
		return AssignReport{}, fmt.Errorf("roster: %w", err)
	}
	solver, err := assignment.NewSolver(cfg)
	if err != nil {
		return AssignReport{}, err
	}
	ledger := assignment.NewLedger()
	phase := assignment.NewPhase(solver, ledger, cfg.PositionDim, logger.New("assign"))
	res, err := phase.Run(w)
	if err != nil {
		return AssignReport{Result: res}, err
	}

	targets := make(map[uuid.UUID]model.Identity, len(rosters.Targets))
	for _, t := range rosters.Targets {
		targets[t.UUID] = t
	}
	rep := AssignReport{Result: res}
	for _, a := range rosters.Agents {
		tid, ok := ledger.Active(a.UUID)
		if !ok {
			continue
		}
		rep.Pairs = append(rep.Pairs, Pair{Agent: a, Target: targets[tid]})
	}
	return rep, nil
}
