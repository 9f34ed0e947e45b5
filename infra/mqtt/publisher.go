package mqtt

import (
	"encoding/json"
	"time"

	"github.com/kilianp07/formflight/core/factory"
	coremetrics "github.com/kilianp07/formflight/core/metrics"
)

// Publisher sends raw payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

type assignmentMessage struct {
	Tick     int               `json:"tick"`
	Solver   string            `json:"solver"`
	Switches int               `json:"switches"`
	Pairing  map[string]string `json:"pairing"`
	Time     time.Time         `json:"time"`
}

type tickMessage struct {
	Tick         int     `json:"tick"`
	SimTime      float64 `json:"sim_time"`
	Agents       int     `json:"agents"`
	StepFailures int     `json:"step_failures"`
	MeanError    float64 `json:"mean_error"`
	MaxError     float64 `json:"max_error"`
}

// AssignmentPublisher streams the current pairing to <prefix>/assignments and
// tick summaries to <prefix>/ticks.
type AssignmentPublisher struct {
	pub    Publisher
	prefix string
}

// NewAssignmentPublisher publishes through pub under the given topic prefix.
func NewAssignmentPublisher(pub Publisher, prefix string) *AssignmentPublisher {
	return &AssignmentPublisher{pub: pub, prefix: prefix}
}

// AssignmentsTopic returns the topic carrying the pairing.
func (a *AssignmentPublisher) AssignmentsTopic() string { return a.prefix + "/assignments" }

// TicksTopic returns the topic carrying tick summaries.
func (a *AssignmentPublisher) TicksTopic() string { return a.prefix + "/ticks" }

// RecordReassignment publishes the pairing of the phase.
func (a *AssignmentPublisher) RecordReassignment(m coremetrics.ReassignmentMetrics) error {
	payload, err := json.Marshal(assignmentMessage{
		Tick:     m.Tick,
		Solver:   m.Solver,
		Switches: m.Switches,
		Pairing:  m.Pairing,
		Time:     m.Time,
	})
	if err != nil {
		return err
	}
	return a.pub.Publish(a.AssignmentsTopic(), payload)
}

// RecordTick publishes the tick summary.
func (a *AssignmentPublisher) RecordTick(m coremetrics.TickMetrics) error {
	payload, err := json.Marshal(tickMessage{
		Tick:         m.Tick,
		SimTime:      m.SimTime,
		Agents:       m.Agents,
		StepFailures: m.StepFailures,
		MeanError:    m.MeanError,
		MaxError:     m.MaxError,
	})
	if err != nil {
		return err
	}
	return a.pub.Publish(a.TicksTopic(), payload)
}

// Close disconnects the underlying client when it supports it.
func (a *AssignmentPublisher) Close() error {
	if d, ok := a.pub.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	return nil
}

// NewFromConfig connects to the broker and returns a publisher for cfg.
func NewFromConfig(cfg Config) (*AssignmentPublisher, error) {
	cfg.SetDefaults()
	cli, err := NewPahoClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewAssignmentPublisher(cli, cfg.TopicPrefix), nil
}

func init() {
	_ = coremetrics.RegisterTickSink("mqtt", func(conf map[string]any) (coremetrics.TickSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.Enabled = true
		c.SetDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		pub, err := NewFromConfig(c)
		if err != nil {
			return nil, err
		}
		return pub, nil
	})
}
