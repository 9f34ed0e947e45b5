// Package metrics defines the sinks that record simulation metrics. Sinks
// such as the Prometheus and InfluxDB implementations in infra/metrics record
// per-tick summaries and may additionally implement ReassignmentRecorder. The
// factory helpers return a MultiSink automatically when several sinks are
// configured.
package metrics
