package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/formflight/core/metrics"
	"github.com/kilianp07/formflight/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	// RunID tags every point so several runs can share a bucket.
	RunID string `json:"run_id"`
}

// InfluxSink writes tick summaries to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	runID    string
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		runID:    cfg.RunID,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.TickSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) point(measurement string, ts time.Time) *write.Point {
	p := write.NewPointWithMeasurement(measurement).SetTime(ts)
	if s.runID != "" {
		p.AddTag("run_id", s.runID)
	}
	return p
}

// RecordTick writes the tick summary as a "sim_tick" point.
func (s *InfluxSink) RecordTick(m coremetrics.TickMetrics) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := s.point("sim_tick", m.Time).
		AddField("tick", m.Tick).
		AddField("sim_time", round3(m.SimTime)).
		AddField("agents", m.Agents).
		AddField("step_failures", m.StepFailures).
		AddField("mean_error", round3(m.MeanError)).
		AddField("max_error", round3(m.MaxError)).
		AddField("duration_ms", round3(float64(m.Duration)/float64(time.Millisecond)))
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordReassignment writes the phase summary as a "reassignment" point.
func (s *InfluxSink) RecordReassignment(m coremetrics.ReassignmentMetrics) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := s.point("reassignment", m.Time).
		AddTag("solver", m.Solver).
		AddField("tick", m.Tick).
		AddField("switches", m.Switches).
		AddField("multi_assigned", m.MultiAssigned).
		AddField("stale", m.Stale).
		AddField("duration_ms", round3(float64(m.Duration)/float64(time.Millisecond)))
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
