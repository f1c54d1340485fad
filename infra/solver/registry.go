package solver

import (
	"github.com/kilianp07/cmapd/core/factory"
	"github.com/kilianp07/cmapd/core/routing"
)

// Engine names accepted by New.
const (
	TypeExact = "exact"
	TypeALNS  = "alns"
	TypeAuto  = "auto"
)

type autoConf struct {
	ExactMaxTasks *int       `json:"exact_max_tasks"`
	ALNS          ALNSConfig `json:"alns"`
}

var registry = factory.NewRegistry[routing.Solver]()

func init() {
	_ = registry.Register(TypeExact, func(map[string]any) (routing.Solver, error) {
		return NewExact(), nil
	})
	_ = registry.Register(TypeALNS, func(conf map[string]any) (routing.Solver, error) {
		var c ALNSConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewALNS(c), nil
	})
	_ = registry.Register(TypeAuto, func(conf map[string]any) (routing.Solver, error) {
		var c autoConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		limit := DefaultExactMaxTasks
		if c.ExactMaxTasks != nil {
			limit = *c.ExactMaxTasks
		}
		return NewAuto(limit, c.ALNS), nil
	})
}

// Register adds a custom engine factory.
func Register(name string, f factory.Factory[routing.Solver]) error {
	return registry.Register(name, f)
}

// New creates the engine described by cfg.
func New(cfg factory.ModuleConfig) (routing.Solver, error) {
	return registry.Create(cfg)
}

// Types lists the registered engine names.
func Types() []string { return registry.Names() }
