package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/cmapd/core/assign"
	"github.com/kilianp07/cmapd/core/factory"
	"github.com/kilianp07/cmapd/core/routing"
	"github.com/kilianp07/cmapd/infra/solver"
)

// DefaultCapacity is the robot capacity used when none is configured.
const DefaultCapacity int64 = 3

// SearchConfig drives the makespan scan.
type SearchConfig struct {
	Capacity    int64 `json:"capacity"`
	MinMakespan int64 `json:"min_makespan"`
	// MaxMakespan overrides the computed upper bound when positive.
	MaxMakespan    int64   `json:"max_makespan"`
	TimeoutRetries int     `json:"timeout_retries"`
	TimeoutGrowth  float64 `json:"timeout_growth"`
}

// SetDefaults fills the minimum bound and timeout growth.
func (c *SearchConfig) SetDefaults() {
	if c.MinMakespan == 0 {
		c.MinMakespan = assign.DefaultMinMakespan
	}
	if c.TimeoutGrowth == 0 {
		c.TimeoutGrowth = 2
	}
}

// Validate rejects negative values.
func (c SearchConfig) Validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be >= 0, got %d", c.Capacity)
	}
	if c.MinMakespan < 0 || c.MaxMakespan < 0 {
		return fmt.Errorf("makespan bounds must be >= 0")
	}
	if c.TimeoutRetries < 0 {
		return fmt.Errorf("timeout_retries must be >= 0")
	}
	if c.TimeoutGrowth < 1 {
		return fmt.Errorf("timeout_growth must be >= 1, got %v", c.TimeoutGrowth)
	}
	return nil
}

// SolverConfig selects and tunes the routing engine.
type SolverConfig struct {
	Type                string         `json:"type"`
	TimeLimitSeconds    float64        `json:"time_limit_seconds"`
	SpanCostCoefficient int64          `json:"span_cost_coefficient"`
	FirstSolution       string         `json:"first_solution"`
	Metaheuristic       string         `json:"metaheuristic"`
	Seed                int64          `json:"seed"`
	ExactMaxTasks       int            `json:"exact_max_tasks"`
	Iterations          int            `json:"iterations"`
	ALNS                map[string]any `json:"alns"`
}

// SetDefaults mirrors routing.DefaultSearchParameters.
func (c *SolverConfig) SetDefaults() {
	def := routing.DefaultSearchParameters()
	if c.Type == "" {
		c.Type = solver.TypeAuto
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = def.TimeLimit.Seconds()
	}
	if c.SpanCostCoefficient == 0 {
		c.SpanCostCoefficient = routing.DefaultSpanCostCoefficient
	}
	if c.FirstSolution == "" {
		c.FirstSolution = string(def.FirstSolution)
	}
	if c.Metaheuristic == "" {
		c.Metaheuristic = string(def.Metaheuristic)
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	if c.ExactMaxTasks == 0 {
		c.ExactMaxTasks = solver.DefaultExactMaxTasks
	}
}

// Validate checks engine names and budgets.
func (c SolverConfig) Validate() error {
	known := false
	for _, t := range solver.Types() {
		if t == c.Type {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown solver type %q, known: %v", c.Type, solver.Types())
	}
	if c.TimeLimitSeconds <= 0 {
		return fmt.Errorf("time_limit_seconds must be > 0")
	}
	if c.SpanCostCoefficient < 0 || c.Iterations < 0 || c.ExactMaxTasks < 0 {
		return fmt.Errorf("span_cost_coefficient, iterations and exact_max_tasks must be >= 0")
	}
	switch routing.FirstSolutionStrategy(c.FirstSolution) {
	case routing.CheapestInsertion, routing.PathCheapestArc:
	default:
		return fmt.Errorf("unknown first_solution %q", c.FirstSolution)
	}
	switch routing.Metaheuristic(c.Metaheuristic) {
	case routing.SimulatedAnnealing, routing.GreedyDescent:
	default:
		return fmt.Errorf("unknown metaheuristic %q", c.Metaheuristic)
	}
	return nil
}

// Module returns the factory configuration of the engine.
func (c SolverConfig) Module() factory.ModuleConfig {
	conf := map[string]any{"exact_max_tasks": c.ExactMaxTasks}
	if c.ALNS != nil {
		conf["alns"] = c.ALNS
		if c.Type == solver.TypeALNS {
			conf = c.ALNS
		}
	}
	return factory.ModuleConfig{Type: c.Type, Conf: conf}
}

// Params returns the per-solve search parameters.
func (c SolverConfig) Params() routing.SearchParameters {
	return routing.SearchParameters{
		TimeLimit:     time.Duration(c.TimeLimitSeconds * float64(time.Second)),
		FirstSolution: routing.FirstSolutionStrategy(c.FirstSolution),
		Metaheuristic: routing.Metaheuristic(c.Metaheuristic),
		Seed:          c.Seed,
		Iterations:    c.Iterations,
	}
}

// SearchConfig combines the search and solver sections into the planner's
// configuration.
func (c Config) SearchConfig() assign.SearchConfig {
	return assign.SearchConfig{
		Capacity:            c.Search.Capacity,
		MinMakespan:         c.Search.MinMakespan,
		MaxMakespan:         c.Search.MaxMakespan,
		SpanCostCoefficient: c.Solver.SpanCostCoefficient,
		TimeoutRetries:      c.Search.TimeoutRetries,
		TimeoutGrowth:       c.Search.TimeoutGrowth,
		Params:              c.Solver.Params(),
	}
}
