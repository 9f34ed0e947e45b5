// Package ticks exposes the persisted tick log over HTTP.
package ticks

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kilianp07/formflight/core/output"
)

// NewHandler returns an HTTP handler serving tick records via GET
// /api/ticks. Requests must carry "Authorization: Bearer <token>" when token
// is non-empty. Supported filters: from, to, agent and failed.
func NewHandler(store output.TickLog, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []output.TickRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func parseQuery(r *http.Request) (output.TickQuery, error) {
	v := r.URL.Query()
	q := output.TickQuery{Agent: v.Get("agent")}
	var err error
	if s := v.Get("from"); s != "" {
		if q.FromTick, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("to"); s != "" {
		if q.ToTick, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("failed"); s != "" {
		if q.FailedOnly, err = strconv.ParseBool(s); err != nil {
			return q, err
		}
	}
	return q, nil
}
