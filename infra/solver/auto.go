package solver

import (
	"context"

	"github.com/kilianp07/cmapd/core/routing"
)

// DefaultExactMaxTasks is the largest pair count handed to the exact engine
// in auto mode.
const DefaultExactMaxTasks = 6

// Auto runs the exact engine on small models and ALNS on the rest.
type Auto struct {
	ExactMaxTasks int
	exact         routing.Solver
	heuristic     routing.Solver
}

// NewAuto returns an auto engine switching at exactMaxTasks requests.
func NewAuto(exactMaxTasks int, alns ALNSConfig) *Auto {
	if exactMaxTasks < 0 {
		exactMaxTasks = DefaultExactMaxTasks
	}
	return &Auto{ExactMaxTasks: exactMaxTasks, exact: NewExact(), heuristic: NewALNS(alns)}
}

// Solve dispatches on the number of requests in m.
func (a *Auto) Solve(ctx context.Context, m *routing.Model, params routing.SearchParameters) (routing.Result, error) {
	if len(m.Requests()) <= a.ExactMaxTasks {
		return a.exact.Solve(ctx, m, params)
	}
	return a.heuristic.Solve(ctx, m, params)
}
