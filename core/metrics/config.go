package metrics

import (
	"fmt"

	"github.com/kilianp07/formflight/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr enables the /metrics HTTP endpoint when not empty.
	PrometheusAddr string `json:"prometheus_addr"`
}

// Validate checks that every sink names a registered type.
func (c Config) Validate() error {
	known := sinkRegistry.Types()
	for i, s := range c.Sinks {
		found := false
		for _, k := range known {
			if s.Type == k {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("metrics.sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}
