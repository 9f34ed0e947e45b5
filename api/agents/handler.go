// Package agents exposes the live assignment state of the agents over HTTP.
package agents

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kilianp07/formflight/core/assignment"
	"github.com/kilianp07/formflight/core/model"
)

// Source provides the agents and the ledger of a running simulation.
type Source interface {
	Agents() []model.Identity
	Ledger() *assignment.Ledger
	Names() map[uuid.UUID]model.Identity
}

// Status is the assignment state of one agent.
type Status struct {
	Agent       model.Identity    `json:"agent"`
	Target      *model.Identity   `json:"target,omitempty"`
	Reference   model.StateVector `json:"reference,omitempty"`
	Assignments int               `json:"assignments"`
}

// NewStatusHandler serves the current pairing via GET /api/agents.
func NewStatusHandler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ledger := src.Ledger()
		names := src.Names()
		agents := src.Agents()
		out := make([]Status, 0, len(agents))
		for _, a := range agents {
			st := Status{Agent: a, Assignments: len(ledger.History(a.UUID))}
			if tid, ok := ledger.Active(a.UUID); ok {
				t := lookup(names, tid)
				st.Target = &t
			}
			st.Reference, _ = ledger.Current(a.UUID)
			out = append(out, st)
		}
		writeJSON(w, out)
	})
}

// NewHistoryHandler serves the assignment history of one agent via GET
// /api/agents/{name}/history. The agent may be given by name or UUID.
func NewHistoryHandler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/agents/"), "/"), "/")
		if len(parts) != 2 || parts[1] != "history" {
			http.NotFound(w, r)
			return
		}
		agent, ok := find(src.Agents(), parts[0])
		if !ok {
			http.Error(w, "unknown agent", http.StatusNotFound)
			return
		}
		names := src.Names()
		hist := src.Ledger().History(agent.UUID)
		out := make([]model.Identity, len(hist))
		for i, id := range hist {
			out[i] = lookup(names, id)
		}
		writeJSON(w, out)
	})
}

func find(agents []model.Identity, key string) (model.Identity, bool) {
	for _, a := range agents {
		if a.Name == key || a.UUID.String() == key {
			return a, true
		}
	}
	return model.Identity{}, false
}

func lookup(names map[uuid.UUID]model.Identity, id uuid.UUID) model.Identity {
	if n, ok := names[id]; ok {
		return n
	}
	return model.Identity{UUID: id}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
