package metrics

import "github.com/kilianp07/formflight/core/factory"

var sinkRegistry = factory.NewRegistry[TickSink]()

// RegisterTickSink adds a sink factory identified by name.
func RegisterTickSink(name string, f factory.Factory[TickSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewTickSink creates a TickSink from the provided configuration.
func NewTickSink(cfgs []factory.ModuleConfig) (TickSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]TickSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

func init() {
	_ = RegisterTickSink("nop", func(map[string]any) (TickSink, error) {
		return NopSink{}, nil
	})
}
