package assignment

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	reassignmentDuration *prometheus.HistogramVec
	reassignmentFailures *prometheus.CounterVec
	assignmentSwitches   prometheus.Counter
	multiAssignedAgents  prometheus.Gauge
	staleAssignments     prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Gauge, prometheus.Gauge) {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reassignment_duration_seconds",
			Help:    "Duration of the reassignment phase",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"solver"},
	)
	fail := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reassignment_failures_total",
			Help: "Number of failed reassignment phases by stage",
		},
		[]string{"stage"},
	)
	sw := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assignment_switches_total",
			Help: "Number of agents whose active target changed",
		},
	)
	multi := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assignment_multi_assigned_agents",
			Help: "Agents paired with more than one target in the last tick",
		},
	)
	stale := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assignment_stale_agents",
			Help: "Agents whose active target could not be resolved in the last tick",
		},
	)
	return dur, fail, sw, multi, stale
}

func init() {
	reassignmentDuration, reassignmentFailures, assignmentSwitches, multiAssignedAgents, staleAssignments = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers reassignment metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(reassignmentDuration, reassignmentFailures, assignmentSwitches, multiAssignedAgents, staleAssignments)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	reassignmentDuration, reassignmentFailures, assignmentSwitches, multiAssignedAgents, staleAssignments = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
