package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/formflight/core/model"
)

// Entry is one entity of a roster file. State holds either a position or
// the full [x, y, z, vx, vy, vz] state.
type Entry struct {
	Name  string    `json:"name" yaml:"name"`
	State []float64 `json:"state" yaml:"state"`
}

// StateVector returns the full state of the entry, with zero velocity when
// only a position was given.
func (e Entry) StateVector() (model.StateVector, error) {
	switch len(e.State) {
	case Dim:
		s := make(model.StateVector, 2*Dim)
		copy(s, e.State)
		return s, nil
	case 2 * Dim:
		return model.StateVector(e.State).Clone(), nil
	default:
		return nil, fmt.Errorf("state must have %d or %d components, got %d", Dim, 2*Dim, len(e.State))
	}
}

// Roster lists explicit initial states for both populations.
type Roster struct {
	Agents  []Entry `json:"agents" yaml:"agents"`
	Targets []Entry `json:"targets" yaml:"targets"`
}

// Validate checks every entry and fills missing names.
func (r *Roster) Validate() error {
	var errs []error
	if len(r.Agents) == 0 {
		errs = append(errs, errors.New("roster has no agents"))
	}
	if len(r.Targets) == 0 {
		errs = append(errs, errors.New("roster has no targets"))
	}
	check := func(prefix string, es []Entry) {
		for i := range es {
			if es[i].Name == "" {
				es[i].Name = fmt.Sprintf("%s%d", prefix, i)
			}
			if _, err := es[i].StateVector(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", es[i].Name, err))
			}
		}
	}
	check("Agent", r.Agents)
	check("Target", r.Targets)
	return errors.Join(errs...)
}

// LoadRoster reads a roster from a JSON or YAML file.
func LoadRoster(path string) (Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return Roster{}, err
	}
	defer f.Close()
	return DecodeRoster(f, strings.TrimPrefix(filepath.Ext(path), "."))
}

// DecodeRoster decodes a roster in the given format ("yaml", "yml" or
// "json") and validates it.
func DecodeRoster(r io.Reader, format string) (Roster, error) {
	var ro Roster
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&ro); err != nil {
			return ro, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&ro); err != nil {
			return ro, err
		}
	default:
		return ro, fmt.Errorf("unsupported roster format: %q", format)
	}
	if err := ro.Validate(); err != nil {
		return ro, err
	}
	return ro, nil
}
