package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/formflight/api/agents"
	"github.com/kilianp07/formflight/api/ticks"
	"github.com/kilianp07/formflight/infra/metrics"
)

// Handler returns the inspection API: /api/agents, /api/agents/{name}/history,
// /api/ticks when a tick log is configured, and /metrics.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/agents", agents.NewStatusHandler(s.Sim))
	mux.Handle("/api/agents/", agents.NewHistoryHandler(s.Sim))
	if s.tickLog != nil {
		mux.Handle("/api/ticks", ticks.NewHandler(s.tickLog, s.cfg.API.Token))
	}
	mux.Handle("/metrics", metrics.PromHandler(nil))
	return mux
}

func serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
