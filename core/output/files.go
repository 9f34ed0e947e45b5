package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/kilianp07/formflight/core/model"
)

// Rosters lists the identities of both populations.
type Rosters struct {
	Agents  []model.Identity `json:"Agents"`
	Targets []model.Identity `json:"Targets"`
}

// Series is the state history of one entity, one state per sample time.
type Series struct {
	Name   string
	States []model.StateVector
}

// WriteAssignments writes the assignment history as pretty-printed JSON keyed
// by agent UUID. Each value lists the assigned targets oldest first; names
// resolves UUIDs to identities and unknown ids keep an empty name.
func WriteAssignments(path string, history map[uuid.UUID][]uuid.UUID, names map[uuid.UUID]model.Identity) error {
	out := make(map[string][]model.Identity, len(history))
	for agent, targets := range history {
		ids := make([]model.Identity, len(targets))
		for i, t := range targets {
			id, ok := names[t]
			if !ok {
				id = model.Identity{UUID: t}
			}
			ids[i] = id
		}
		out[agent.String()] = ids
	}
	return writeJSON(path, out)
}

// WriteEntities writes both rosters as pretty-printed JSON.
func WriteEntities(path string, r Rosters) error {
	return writeJSON(path, r)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

// WriteResultsCSV writes one row per sample time. Each entity contributes one
// column per state component named "<name>", "<name>.1", "<name>.2", ...
func WriteResultsCSV(path string, times []float64, series []Series) error {
	for _, s := range series {
		if len(s.States) != len(times) {
			return fmt.Errorf("series %s has %d samples for %d times", s.Name, len(s.States), len(times))
		}
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	header := []string{"time"}
	for _, s := range series {
		for k := range width(s) {
			if k == 0 {
				header = append(header, s.Name)
			} else {
				header = append(header, s.Name+"."+strconv.Itoa(k))
			}
		}
	}
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}

	row := make([]string, 0, len(header))
	for i, t := range times {
		row = append(row[:0], formatFloat(t))
		for _, s := range series {
			st := s.States[i]
			for k := range width(s) {
				if k < len(st) {
					row = append(row, formatFloat(st[k]))
				} else {
					row = append(row, "")
				}
			}
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func width(s Series) int {
	n := 0
	for _, st := range s.States {
		n = max(n, len(st))
	}
	return n
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
