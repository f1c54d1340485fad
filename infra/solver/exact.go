package solver

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kilianp07/cmapd/core/routing"
)

// Exact is a depth-first branch and bound that builds routes vehicle by
// vehicle. Exhausting the tree without a solution proves infeasibility.
// Pruning assumes non-negative arc costs.
type Exact struct{}

// NewExact returns the exact engine.
func NewExact() *Exact { return &Exact{} }

// Solve explores every admissible visiting order until the tree is
// exhausted, the time limit passes, ctx is cancelled, or params.Iterations
// search nodes have been expanded.
func (e *Exact) Solve(ctx context.Context, m *routing.Model, params routing.SearchParameters) (routing.Result, error) {
	s := newBnB(ctx, m, params)
	s.open(0)
	if s.found {
		cost, err := m.CheckRoutes(s.best)
		if err != nil {
			return routing.Result{}, fmt.Errorf("exact search produced invalid routes: %w", err)
		}
		return routing.Result{Status: routing.Feasible, Routes: s.best, Cost: cost, Iterations: s.expanded}, nil
	}
	if s.stopped {
		return routing.Result{Status: routing.Timeout, Iterations: s.expanded}, nil
	}
	return routing.Result{Status: routing.Infeasible, Iterations: s.expanded}, nil
}

type bnb struct {
	ctx      context.Context
	m        *routing.Model
	dims     []*routing.Dimension
	reqs     []routing.Request
	deadline time.Time
	limit    int

	done     []bool
	carrying []bool
	served   int
	routes   [][]int
	endCumul [][]int64
	arc      int64

	best     [][]int
	bestCost int64
	found    bool
	expanded int
	stopped  bool
}

func newBnB(ctx context.Context, m *routing.Model, params routing.SearchParameters) *bnb {
	limit := params.TimeLimit
	if limit <= 0 {
		limit = routing.DefaultSearchParameters().TimeLimit
	}
	reqs := m.Requests()
	s := &bnb{
		ctx:      ctx,
		m:        m,
		dims:     m.Dimensions(),
		reqs:     reqs,
		deadline: time.Now().Add(limit),
		limit:    params.Iterations,
		done:     make([]bool, len(reqs)),
		carrying: make([]bool, len(reqs)),
		routes:   make([][]int, m.NumVehicles()),
		endCumul: make([][]int64, m.NumVehicles()),
	}
	return s
}

func (s *bnb) interrupted() bool {
	if s.stopped {
		return true
	}
	s.expanded++
	if s.limit > 0 && s.expanded > s.limit {
		s.stopped = true
	} else if s.expanded%256 == 0 && (s.ctx.Err() != nil || time.Now().After(s.deadline)) {
		s.stopped = true
	}
	return s.stopped
}

// bound is a lower bound of any completion of the current partial plan:
// travelled arcs plus the span implied by already closed vehicles.
func (s *bnb) bound(closed int) int64 {
	lb := s.arc
	for d, dim := range s.dims {
		coef := dim.GlobalSpanCostCoefficient()
		if coef == 0 {
			continue
		}
		var span int64
		for v := 0; v < closed; v++ {
			span = max(span, s.endCumul[v][d])
		}
		lb += coef * span
	}
	return lb
}

// open starts vehicle v at its start node.
func (s *bnb) open(v int) {
	if v == s.m.NumVehicles() {
		if s.served == len(s.reqs) {
			s.record()
		}
		return
	}
	s.routes[v] = s.routes[v][:0]
	s.extend(v, s.m.Start(v), make([]int64, len(s.dims)), 0)
}

type move struct {
	req      int
	node     int
	delivery bool
	cost     int64
}

func (s *bnb) extend(v, last int, cumul []int64, load int) {
	if s.interrupted() {
		return
	}
	if s.found && s.bound(v) >= s.bestCost {
		return
	}

	moves := make([]move, 0, len(s.reqs))
	for i, r := range s.reqs {
		switch {
		case s.carrying[i]:
			moves = append(moves, move{req: i, node: r.Delivery, delivery: true, cost: s.m.ArcCost(last, r.Delivery)})
		case !s.done[i]:
			moves = append(moves, move{req: i, node: r.Pickup, cost: s.m.ArcCost(last, r.Pickup)})
		}
	}
	slices.SortStableFunc(moves, func(a, b move) int {
		switch {
		case a.cost < b.cost:
			return -1
		case a.cost > b.cost:
			return 1
		}
		return 0
	})

	for _, mv := range moves {
		next, ok := s.step(v, cumul, last, mv.node)
		if !ok {
			continue
		}
		r := s.reqs[mv.req]
		s.routes[v] = append(s.routes[v], mv.node)
		s.arc += mv.cost
		switch {
		case mv.delivery:
			s.carrying[mv.req], s.done[mv.req] = false, true
			s.served++
			s.extend(v, mv.node, next, load-1)
			s.served--
			s.carrying[mv.req], s.done[mv.req] = true, false
		case r.Paired():
			s.carrying[mv.req] = true
			s.extend(v, mv.node, next, load+1)
			s.carrying[mv.req] = false
		default:
			s.done[mv.req] = true
			s.served++
			s.extend(v, mv.node, next, load)
			s.served--
			s.done[mv.req] = false
		}
		s.arc -= mv.cost
		s.routes[v] = s.routes[v][:len(s.routes[v])-1]
		if s.stopped {
			return
		}
	}

	// close the vehicle once it carries nothing
	if load != 0 {
		return
	}
	if v == s.m.NumVehicles()-1 && s.served != len(s.reqs) {
		return
	}
	end := s.m.End(v)
	final, ok := s.step(v, cumul, last, end)
	if !ok {
		return
	}
	cost := s.m.ArcCost(last, end)
	s.arc += cost
	s.endCumul[v] = final
	s.open(v + 1)
	s.arc -= cost
}

func (s *bnb) step(v int, cumul []int64, from, to int) ([]int64, bool) {
	next := make([]int64, len(cumul))
	for d, dim := range s.dims {
		c, ok := dim.Step(v, cumul[d], from, to)
		if !ok {
			return nil, false
		}
		next[d] = c
	}
	return next, true
}

func (s *bnb) record() {
	cost := s.bound(s.m.NumVehicles())
	if s.found && cost >= s.bestCost {
		return
	}
	s.found = true
	s.bestCost = cost
	s.best = make([][]int, len(s.routes))
	for v, r := range s.routes {
		route := make([]int, 0, len(r)+2)
		route = append(route, s.m.Start(v))
		route = append(route, r...)
		s.best[v] = append(route, s.m.End(v))
	}
}
