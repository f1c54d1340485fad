package solver

import (
	"github.com/kilianp07/cmapd/core/routing"
)

// plan is a complete or partial assignment of requests to vehicles. Routes
// hold interior nodes only; depots are added when evaluating.
type plan struct {
	m          *routing.Model
	routes     [][]int
	evals      []routing.RouteEval
	unassigned []routing.Request
}

func newPlan(m *routing.Model) (*plan, bool) {
	p := &plan{
		m:          m,
		routes:     make([][]int, m.NumVehicles()),
		evals:      make([]routing.RouteEval, m.NumVehicles()),
		unassigned: m.Requests(),
	}
	for v := range p.routes {
		e, err := m.EvalRoute(v, p.full(v, nil))
		if err != nil {
			return nil, false
		}
		p.evals[v] = e
	}
	return p, true
}

func (p *plan) full(v int, interior []int) []int {
	route := make([]int, 0, len(interior)+2)
	route = append(route, p.m.Start(v))
	route = append(route, interior...)
	return append(route, p.m.End(v))
}

func (p *plan) clone() *plan {
	c := &plan{
		m:          p.m,
		routes:     make([][]int, len(p.routes)),
		evals:      append([]routing.RouteEval(nil), p.evals...),
		unassigned: append([]routing.Request(nil), p.unassigned...),
	}
	for v, r := range p.routes {
		c.routes[v] = append([]int(nil), r...)
	}
	return c
}

func (p *plan) cost() int64 { return p.m.Objective(p.evals) }

// costWith returns the objective after replacing the evaluation of vehicle v.
func (p *plan) costWith(v int, e routing.RouteEval) int64 {
	old := p.evals[v]
	p.evals[v] = e
	c := p.m.Objective(p.evals)
	p.evals[v] = old
	return c
}

func (p *plan) complete() bool { return len(p.unassigned) == 0 }

// result re-checks the final routes against every model constraint.
func (p *plan) result(iterations int) (routing.Result, error) {
	routes := make([][]int, len(p.routes))
	for v, r := range p.routes {
		routes[v] = p.full(v, r)
	}
	cost, err := p.m.CheckRoutes(routes)
	if err != nil {
		return routing.Result{}, err
	}
	return routing.Result{Status: routing.Feasible, Routes: routes, Cost: cost, Iterations: iterations}, nil
}

// insertion is a feasible placement of one request.
type insertion struct {
	vehicle int
	route   []int
	eval    routing.RouteEval
	cost    int64
}

// insertions returns the cheapest feasible placement of req for every
// vehicle that can take it, in vehicle order.
func (p *plan) insertions(req routing.Request) []insertion {
	var out []insertion
	for v := range p.routes {
		if ins, ok := p.bestIn(v, req); ok {
			out = append(out, ins)
		}
	}
	return out
}

func (p *plan) bestIn(v int, req routing.Request) (insertion, bool) {
	cur := p.routes[v]
	best := insertion{vehicle: v}
	found := false
	try := func(route []int) {
		e, err := p.m.EvalRoute(v, p.full(v, route))
		if err != nil {
			return
		}
		c := p.costWith(v, e)
		if !found || c < best.cost {
			best.route, best.eval, best.cost = route, e, c
			found = true
		}
	}
	for i := 0; i <= len(cur); i++ {
		if !req.Paired() {
			try(insertAt(cur, i, req.Pickup))
			continue
		}
		withPickup := insertAt(cur, i, req.Pickup)
		for j := i + 1; j <= len(withPickup); j++ {
			try(insertAt(withPickup, j, req.Delivery))
		}
	}
	return best, found
}

func (p *plan) apply(ins insertion, req routing.Request) {
	p.routes[ins.vehicle] = ins.route
	p.evals[ins.vehicle] = ins.eval
	for i, u := range p.unassigned {
		if u == req {
			p.unassigned = append(p.unassigned[:i], p.unassigned[i+1:]...)
			break
		}
	}
}

// remove takes the given requests out of their routes and marks them
// unassigned. It reports false when a shortened route no longer fits the
// model, which happens when transits break the triangle inequality; the plan
// must then be discarded.
func (p *plan) remove(reqs []routing.Request) bool {
	drop := make(map[int]bool, 2*len(reqs))
	for _, r := range reqs {
		drop[r.Pickup] = true
		if r.Paired() {
			drop[r.Delivery] = true
		}
	}
	for v, route := range p.routes {
		kept := route[:0:0]
		for _, n := range route {
			if !drop[n] {
				kept = append(kept, n)
			}
		}
		if len(kept) == len(route) {
			continue
		}
		e, err := p.m.EvalRoute(v, p.full(v, kept))
		if err != nil {
			return false
		}
		p.routes[v] = kept
		p.evals[v] = e
	}
	p.unassigned = append(p.unassigned, reqs...)
	return true
}

// assigned lists the requests currently placed on a route.
func (p *plan) assigned() []routing.Request {
	open := make(map[routing.Request]bool, len(p.unassigned))
	for _, u := range p.unassigned {
		open[u] = true
	}
	var out []routing.Request
	for _, r := range p.m.Requests() {
		if !open[r] {
			out = append(out, r)
		}
	}
	return out
}

func insertAt(route []int, i, node int) []int {
	out := make([]int, 0, len(route)+1)
	out = append(out, route[:i]...)
	out = append(out, node)
	return append(out, route[i:]...)
}

// unservable returns a request that no vehicle can serve even alone.
func unservable(m *routing.Model) (routing.Request, bool) {
	for _, req := range m.Requests() {
		alone := []int{req.Pickup}
		if req.Paired() {
			alone = append(alone, req.Delivery)
		}
		ok := false
		for v := 0; v < m.NumVehicles() && !ok; v++ {
			route := append(append([]int{m.Start(v)}, alone...), m.End(v))
			_, err := m.EvalRoute(v, route)
			ok = err == nil
		}
		if !ok {
			return req, true
		}
	}
	return routing.Request{}, false
}

// provesInfeasible reports whether req failing alone rules out every
// solution. It does when interleaving other requests can only raise the
// cumuls seen at the vehicle starts and at req's own nodes, which holds for
// each dimension that is either shortcut free around those nodes or a
// unary demand with balanced pairs.
func provesInfeasible(m *routing.Model, req routing.Request) bool {
	anchors := []int{req.Pickup}
	if req.Paired() {
		anchors = append(anchors, req.Delivery)
	}
	for v := 0; v < m.NumVehicles(); v++ {
		anchors = append(anchors, m.Start(v))
	}
	for _, d := range m.Dimensions() {
		if !shortcutFree(m, d, anchors) && !balancedDemand(m, d) {
			return false
		}
	}
	return true
}

// shortcutFree checks that transits are non-negative and that no detour
// through a request node from an anchor is shorter than the direct arc:
// t(a,k) <= t(a,j) + t(j,k) for every anchor a, request node j and
// successor k.
func shortcutFree(m *routing.Model, d *routing.Dimension, anchors []int) bool {
	n := m.NumNodes()
	starts := make(map[int]bool, m.NumVehicles())
	for v := 0; v < m.NumVehicles(); v++ {
		starts[m.Start(v)] = true
	}
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			if d.Transit(i, k) < 0 {
				return false
			}
		}
	}
	for _, a := range anchors {
		for j := 0; j < n; j++ {
			if m.IsDepot(j) {
				continue
			}
			via := d.Transit(a, j)
			for k := 0; k < n; k++ {
				if starts[k] || k == j {
					continue
				}
				if d.Transit(a, k) > via+d.Transit(j, k) {
					return false
				}
			}
		}
	}
	return true
}

// balancedDemand checks that transits depend on the departure node only,
// that no start or pickup has a negative demand and that every delivery
// cancels its pickup.
func balancedDemand(m *routing.Model, d *routing.Dimension) bool {
	n := m.NumNodes()
	demand := make([]int64, n)
	for i := 0; i < n; i++ {
		demand[i] = d.Transit(i, 0)
		for k := 1; k < n; k++ {
			if d.Transit(i, k) != demand[i] {
				return false
			}
		}
	}
	for v := 0; v < m.NumVehicles(); v++ {
		if demand[m.Start(v)] < 0 {
			return false
		}
	}
	for _, r := range m.Requests() {
		if demand[r.Pickup] < 0 {
			return false
		}
		if r.Paired() && demand[r.Pickup]+demand[r.Delivery] != 0 {
			return false
		}
	}
	return true
}
