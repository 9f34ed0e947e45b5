package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/formflight/core/metrics"
)

// PromSink records tick summaries in Prometheus metrics.
type PromSink struct {
	ticks     prometheus.Counter
	duration  prometheus.Histogram
	failures  prometheus.Counter
	meanError prometheus.Gauge
	maxError  prometheus.Gauge
	simTime   prometheus.Gauge
	switches  *prometheus.CounterVec
}

// NewPromSink registers the simulation metrics on the default Prometheus
// registerer. The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// that are already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var err error
	s := &PromSink{}
	if s.ticks, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Number of simulation ticks processed",
	})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall-clock duration of a simulation tick",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_agent_step_failures_total",
		Help: "Number of failed agent tracking steps",
	})); err != nil {
		return nil, err
	}
	if s.meanError, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_tracking_error_mean",
		Help: "Mean norm of the agents' tracking error in the last tick",
	})); err != nil {
		return nil, err
	}
	if s.maxError, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_tracking_error_max",
		Help: "Largest norm of an agent tracking error in the last tick",
	})); err != nil {
		return nil, err
	}
	if s.simTime, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_time_seconds",
		Help: "Simulated time at the end of the last tick",
	})); err != nil {
		return nil, err
	}
	if s.switches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_assignment_switches_total",
		Help: "Number of agents whose active target changed",
	}, []string{"solver"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTick updates the tick metrics.
func (s *PromSink) RecordTick(m coremetrics.TickMetrics) error {
	s.ticks.Inc()
	s.duration.Observe(m.Duration.Seconds())
	s.failures.Add(float64(m.StepFailures))
	s.meanError.Set(m.MeanError)
	s.maxError.Set(m.MaxError)
	s.simTime.Set(m.SimTime)
	return nil
}

// RecordReassignment counts assignment switches.
func (s *PromSink) RecordReassignment(m coremetrics.ReassignmentMetrics) error {
	s.switches.WithLabelValues(m.Solver).Add(float64(m.Switches))
	return nil
}
