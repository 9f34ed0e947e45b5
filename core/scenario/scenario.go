package scenario

import (
	"errors"
	"fmt"

	"github.com/kilianp07/formflight/core/control"
	"github.com/kilianp07/formflight/core/model"
	"github.com/kilianp07/formflight/core/output"
	"github.com/kilianp07/formflight/core/world"
)

// Dim is the number of spatial axes of every entity. States are laid out as
// [x, y, z, vx, vy, vz].
const Dim = 3

const (
	defaultPopulation   = 50
	defaultRadius       = 10
	defaultTargetOffset = 50
	defaultWeight       = 1
)

// TrackingScenario describes the initial population. When Roster is set the
// entities are read from that file and the formation settings are ignored.
type TrackingScenario struct {
	NumAgents       int     `json:"num_agents"`
	NumTargets      int     `json:"num_targets"`
	AgentFormation  string  `json:"agent_formation"`
	TargetFormation string  `json:"target_formation"`
	Radius          float64 `json:"radius"`
	// TargetOffset shifts the target formation along x. Nil means the
	// default offset.
	TargetOffset *float64 `json:"target_offset"`
	QWeight      float64  `json:"q_weight"`
	RWeight      float64  `json:"r_weight"`
	Roster       string   `json:"roster"`
}

// Default returns the scenario with every default applied.
func Default() TrackingScenario {
	var s TrackingScenario
	s.SetDefaults()
	return s
}

// SetDefaults fills zero values.
func (s *TrackingScenario) SetDefaults() {
	if s.NumAgents == 0 {
		s.NumAgents = defaultPopulation
	}
	if s.NumTargets == 0 {
		s.NumTargets = defaultPopulation
	}
	if s.AgentFormation == "" {
		s.AgentFormation = FormationSphere
	}
	if s.TargetFormation == "" {
		s.TargetFormation = FormationCircle3D
	}
	if s.Radius == 0 {
		s.Radius = defaultRadius
	}
	if s.TargetOffset == nil {
		off := float64(defaultTargetOffset)
		s.TargetOffset = &off
	}
	if s.QWeight == 0 {
		s.QWeight = defaultWeight
	}
	if s.RWeight == 0 {
		s.RWeight = defaultWeight
	}
}

// Validate checks the scenario.
func (s TrackingScenario) Validate() error {
	var errs []error
	if s.Roster == "" {
		if s.NumAgents < 1 {
			errs = append(errs, fmt.Errorf("num_agents must be positive, got %d", s.NumAgents))
		}
		if s.NumTargets < 1 {
			errs = append(errs, fmt.Errorf("num_targets must be positive, got %d", s.NumTargets))
		}
		if _, err := LookupFormation(s.AgentFormation); err != nil {
			errs = append(errs, fmt.Errorf("agent_formation: %w", err))
		}
		if _, err := LookupFormation(s.TargetFormation); err != nil {
			errs = append(errs, fmt.Errorf("target_formation: %w", err))
		}
		if s.Radius < 0 {
			errs = append(errs, fmt.Errorf("radius must not be negative, got %v", s.Radius))
		}
	}
	if s.QWeight <= 0 || s.RWeight <= 0 {
		errs = append(errs, fmt.Errorf("q_weight and r_weight must be positive, got %v and %v", s.QWeight, s.RWeight))
	}
	return errors.Join(errs...)
}

func (s TrackingScenario) offset() float64 {
	if s.TargetOffset == nil {
		return defaultTargetOffset
	}
	return *s.TargetOffset
}

// Setup spawns the agents and targets into w and returns their identities
// in spawn order.
func (s TrackingScenario) Setup(w *world.World) (output.Rosters, error) {
	roster, err := s.roster()
	if err != nil {
		return output.Rosters{}, err
	}
	return s.SetupRoster(w, roster)
}

// SetupRoster spawns the entities of roster into w using the scenario's
// control weights.
func (s TrackingScenario) SetupRoster(w *world.World, roster Roster) (output.Rosters, error) {
	if err := roster.Validate(); err != nil {
		return output.Rosters{}, err
	}
	dyn := control.DoubleIntegrator(Dim)
	// all entities share the same model so one cached gain serves them all
	gain, err := control.NewLQRFor(dyn, s.QWeight, s.RWeight)
	if err != nil {
		return output.Rosters{}, fmt.Errorf("lqr: %w", err)
	}

	var rosters output.Rosters
	spawn := func(entries []Entry, kind model.Kind) ([]model.Identity, error) {
		ids := make([]model.Identity, 0, len(entries))
		ents := make([]*world.Entity, 0, len(entries))
		for _, e := range entries {
			state, err := e.StateVector()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Name, err)
			}
			id := model.NewIdentity(e.Name)
			ids = append(ids, id)
			ents = append(ents, world.NewEntity(id, kind, state, dyn, gain))
		}
		return ids, w.Spawn(ents...)
	}
	if rosters.Agents, err = spawn(roster.Agents, model.KindAgent); err != nil {
		return output.Rosters{}, err
	}
	if rosters.Targets, err = spawn(roster.Targets, model.KindTarget); err != nil {
		return output.Rosters{}, err
	}
	return rosters, nil
}

func (s TrackingScenario) roster() (Roster, error) {
	if s.Roster != "" {
		return LoadRoster(s.Roster)
	}
	return s.Generate()
}

// Generate builds the roster from the configured formations.
func (s TrackingScenario) Generate() (Roster, error) {
	af, err := LookupFormation(s.AgentFormation)
	if err != nil {
		return Roster{}, err
	}
	tf, err := LookupFormation(s.TargetFormation)
	if err != nil {
		return Roster{}, err
	}
	var r Roster
	for i, p := range af(s.Radius, s.NumAgents) {
		r.Agents = append(r.Agents, Entry{Name: fmt.Sprintf("Agent%d", i), State: atRest(p)})
	}
	off := s.offset()
	for i, p := range tf(s.Radius, s.NumTargets) {
		p[0] += off
		r.Targets = append(r.Targets, Entry{Name: fmt.Sprintf("Target%d", i), State: atRest(p)})
	}
	return r, nil
}

func atRest(p Point) []float64 {
	return []float64{p[0], p[1], p[2], 0, 0, 0}
}
