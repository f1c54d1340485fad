// Package factory provides a small generic registry used to instantiate
// pluggable components (solver engines, metrics sinks, journal backends)
// from configuration. A component is described by a type string and a map of
// raw settings; factories decode the settings into typed structs.
//
// Example usage:
//
//	reg := factory.NewRegistry[routing.Solver]()
//	reg.Register("alns", func(conf map[string]any) (routing.Solver, error) {
//	    var c solver.ALNSConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return solver.NewALNS(c), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "alns", Conf: map[string]any{"cooling": 0.99}})
package factory
