package ticks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/formflight/core/output"
)

func store(t *testing.T) output.TickLog {
	t.Helper()
	s, err := output.NewJSONLStore(filepath.Join(t.TempDir(), "ticks.jsonl"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, output.TickRecord{Tick: 0, Pairing: map[string]string{"Agent0": "Target0"}}))
	require.NoError(t, s.Append(ctx, output.TickRecord{Tick: 1, Pairing: map[string]string{"Agent0": "Target1"},
		StepFailures: map[string]string{"Agent1": "integrate: non-finite state"}}))
	require.NoError(t, s.Append(ctx, output.TickRecord{Tick: 2, Pairing: map[string]string{"Agent0": "Target1"}}))
	return s
}

func get(t *testing.T, h http.Handler, url, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerFilters(t *testing.T) {
	h := NewHandler(store(t), "tok")

	rr := get(t, h, "/api/ticks?from=1", "tok")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []output.TickRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Tick)

	rr = get(t, h, "/api/ticks?failed=true", "tok")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Contains(t, out[0].StepFailures, "Agent1")

	rr = get(t, h, "/api/ticks?agent=Agent9", "tok")
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestHandlerRejects(t *testing.T) {
	h := NewHandler(store(t), "tok")
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/ticks", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/ticks?from=x", "tok").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/ticks", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
