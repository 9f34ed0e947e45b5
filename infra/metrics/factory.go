package metrics

import (
	"github.com/kilianp07/formflight/core/factory"
	coremetrics "github.com/kilianp07/formflight/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterTickSink("prometheus", func(map[string]any) (coremetrics.TickSink, error) {
		return NewPromSink()
	})

	_ = coremetrics.RegisterTickSink("influx", func(conf map[string]any) (coremetrics.TickSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
