package routing

import (
	"errors"
	"fmt"
)

// ErrViolation is returned when a candidate route breaks a model constraint.
var ErrViolation = errors.New("route violates model constraint")

// RouteEval summarises one feasible vehicle route.
type RouteEval struct {
	ArcCost int64
	// Cumuls[d][i] is the cumul of dimension d at the i-th route node.
	Cumuls [][]int64
}

// EndCumul returns the cumul of dimension d at the route end.
func (e RouteEval) EndCumul(d int) int64 {
	c := e.Cumuls[d]
	return c[len(c)-1]
}

// EvalRoute checks a single vehicle route, given with its start and end
// nodes. It verifies depots, node ranges, pair completeness and precedence
// within the route, and every dimension bound.
func (m *Model) EvalRoute(v int, route []int) (RouteEval, error) {
	if v < 0 || v >= len(m.starts) {
		return RouteEval{}, fmt.Errorf("vehicle %d of %d: %w", v, len(m.starts), ErrInvalidModel)
	}
	if len(route) < 2 || route[0] != m.starts[v] || route[len(route)-1] != m.ends[v] {
		return RouteEval{}, fmt.Errorf("vehicle %d route %v must run %d..%d: %w", v, route, m.starts[v], m.ends[v], ErrViolation)
	}
	pos := make(map[int]int, len(route))
	for i, n := range route[1 : len(route)-1] {
		if n < 0 || n >= m.nodes || m.depot[n] {
			return RouteEval{}, fmt.Errorf("vehicle %d visits invalid node %d: %w", v, n, ErrViolation)
		}
		if _, dup := pos[n]; dup {
			return RouteEval{}, fmt.Errorf("vehicle %d visits node %d twice: %w", v, n, ErrViolation)
		}
		pos[n] = i
	}
	for _, p := range m.pairs {
		pi, hasP := pos[p.Pickup]
		di, hasD := pos[p.Delivery]
		switch {
		case hasP != hasD:
			return RouteEval{}, fmt.Errorf("vehicle %d serves only half of pair %d->%d: %w", v, p.Pickup, p.Delivery, ErrViolation)
		case hasP && pi >= di:
			return RouteEval{}, fmt.Errorf("vehicle %d delivers node %d before pickup %d: %w", v, p.Delivery, p.Pickup, ErrViolation)
		}
	}

	eval := RouteEval{Cumuls: make([][]int64, len(m.dims))}
	for d := range m.dims {
		eval.Cumuls[d] = make([]int64, len(route))
	}
	for i := 1; i < len(route); i++ {
		from, to := route[i-1], route[i]
		eval.ArcCost += m.ArcCost(from, to)
		for d, dim := range m.dims {
			next, ok := dim.Step(v, eval.Cumuls[d][i-1], from, to)
			if !ok {
				return RouteEval{}, fmt.Errorf("vehicle %d dimension %s out of [0,%d] at node %d (%d): %w",
					v, dim.name, dim.capacities[v], to, next, ErrViolation)
			}
			eval.Cumuls[d][i] = next
		}
	}
	return eval, nil
}

// Objective combines per-vehicle evaluations into the model objective: the
// sum of arc costs plus every dimension's span coefficient times the spread
// between the latest end cumul and the earliest start cumul.
func (m *Model) Objective(evals []RouteEval) int64 {
	var cost int64
	for _, e := range evals {
		cost += e.ArcCost
	}
	if len(evals) == 0 {
		return cost
	}
	for d, dim := range m.dims {
		if dim.spanCoef == 0 {
			continue
		}
		maxEnd, minStart := evals[0].EndCumul(d), evals[0].Cumuls[d][0]
		for _, e := range evals[1:] {
			maxEnd = max(maxEnd, e.EndCumul(d))
			minStart = min(minStart, e.Cumuls[d][0])
		}
		cost += dim.spanCoef * (maxEnd - minStart)
	}
	return cost
}

// CheckRoutes validates a complete solution, one route per vehicle, and
// returns its objective. Every non-depot node must be visited exactly once.
func (m *Model) CheckRoutes(routes [][]int) (int64, error) {
	if len(routes) != len(m.starts) {
		return 0, fmt.Errorf("%d routes for %d vehicles: %w", len(routes), len(m.starts), ErrViolation)
	}
	visited := make([]bool, m.nodes)
	evals := make([]RouteEval, len(routes))
	for v, route := range routes {
		e, err := m.EvalRoute(v, route)
		if err != nil {
			return 0, err
		}
		evals[v] = e
		for _, n := range route[1 : len(route)-1] {
			if visited[n] {
				return 0, fmt.Errorf("node %d visited by more than one vehicle: %w", n, ErrViolation)
			}
			visited[n] = true
		}
	}
	for n := 0; n < m.nodes; n++ {
		if !m.depot[n] && !visited[n] {
			return 0, fmt.Errorf("node %d is never visited: %w", n, ErrViolation)
		}
	}
	return m.Objective(evals), nil
}
