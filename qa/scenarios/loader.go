// Package scenarios replays tracking scenarios described in YAML files and
// checks their outcome.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/formflight/core/scenario"
)

type Expected struct {
	// Pairing maps agent names to the target they must end on.
	Pairing map[string]string `yaml:"pairing"`
	// MaxFinalDistance bounds the distance between every agent and its
	// active target after the last tick.
	MaxFinalDistance float64 `yaml:"max_final_distance"`
	MinSwitches      int     `yaml:"min_switches"`
	MultiAssigned    int     `yaml:"multi_assigned"`
}

type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Solver      string           `yaml:"solver"`
	Dt          float64          `yaml:"dt"`
	Steps       int              `yaml:"steps"`
	Agents      []scenario.Entry `yaml:"agents"`
	Targets     []scenario.Entry `yaml:"targets"`
	// DespawnAfter removes a target before the given tick.
	DespawnAfter map[string]int `yaml:"despawn_after,omitempty"`
	Expected     Expected       `yaml:"expected"`
}

// Roster returns the initial population of the scenario.
func (s Scenario) Roster() scenario.Roster {
	return scenario.Roster{Agents: s.Agents, Targets: s.Targets}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
