// Package factory instantiates pluggable modules, such as tick sinks, from
// a type name and a map of raw settings.
//
//	reg := factory.NewRegistry[metrics.TickSink]()
//	_ = reg.Register("influx", func(conf map[string]any) (metrics.TickSink, error) {
//	    var c InfluxConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewInfluxSink(c), nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: conf})
package factory
