package routing

import (
	"context"
	"time"
)

// Status is the outcome of one solve call.
type Status int

const (
	// Feasible means Routes holds a solution satisfying every constraint.
	Feasible Status = iota + 1
	// Infeasible means the engine proved that no solution exists.
	Infeasible
	// Timeout means the budget ran out without a solution or a proof.
	Timeout
)

func (s Status) String() string {
	switch s {
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Result is returned by a Solver. Routes holds one node sequence per
// vehicle, start and end included, and is nil unless Status is Feasible.
type Result struct {
	Status     Status
	Routes     [][]int
	Cost       int64
	Iterations int
}

// FirstSolutionStrategy selects how the initial solution is built.
type FirstSolutionStrategy string

const (
	CheapestInsertion FirstSolutionStrategy = "cheapest_insertion"
	PathCheapestArc   FirstSolutionStrategy = "path_cheapest_arc"
)

// Metaheuristic selects how the improvement phase accepts moves.
type Metaheuristic string

const (
	SimulatedAnnealing Metaheuristic = "simulated_annealing"
	GreedyDescent      Metaheuristic = "greedy_descent"
)

// SearchParameters bound and steer one solve call.
type SearchParameters struct {
	TimeLimit     time.Duration
	FirstSolution FirstSolutionStrategy
	Metaheuristic Metaheuristic
	Seed          int64
	// Iterations caps improvement iterations; 0 means time bound only.
	Iterations int
}

// DefaultSearchParameters returns a 30s budget with cheapest insertion and
// simulated annealing.
func DefaultSearchParameters() SearchParameters {
	return SearchParameters{
		TimeLimit:     30 * time.Second,
		FirstSolution: CheapestInsertion,
		Metaheuristic: SimulatedAnnealing,
		Seed:          1,
	}
}

// Solver solves a routing model. A solver must return a Feasible result only
// for routes accepted by Model.CheckRoutes, and Infeasible only when it has
// proved that none exist.
type Solver interface {
	Solve(ctx context.Context, m *Model, params SearchParameters) (Result, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, m *Model, params SearchParameters) (Result, error)

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, m *Model, params SearchParameters) (Result, error) {
	return f(ctx, m, params)
}
