package solver

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/kilianp07/cmapd/core/routing"
)

// unassignedPenalty dominates any reachable objective so that partial plans
// always score worse than complete ones.
const unassignedPenalty = 1e13

// ALNSConfig tunes the adaptive large neighbourhood search.
type ALNSConfig struct {
	InitialTemp float64 `json:"initial_temp"`
	Cooling     float64 `json:"cooling"`
	MaxRemoval  int     `json:"max_removal"`
	// StallLimit stops the search after this many iterations without a
	// better complete solution, once one has been found.
	StallLimit int `json:"stall_limit"`
}

// SetDefaults fills unset fields.
func (c *ALNSConfig) SetDefaults() {
	if c.InitialTemp <= 0 {
		c.InitialTemp = 10
	}
	if c.Cooling <= 0 || c.Cooling >= 1 {
		c.Cooling = 0.995
	}
	if c.MaxRemoval <= 0 {
		c.MaxRemoval = 3
	}
	if c.StallLimit <= 0 {
		c.StallLimit = 500
	}
}

// ALNS removes and reinserts pickup/delivery requests, selecting operators
// by adaptive roulette weights and accepting moves by simulated annealing.
//
// It proves infeasibility only when a request cannot be served by any
// vehicle on its own and the model's dimensions guarantee that adding other
// requests never helps; any other unsolved run ends as a timeout.
type ALNS struct {
	cfg ALNSConfig
}

// NewALNS returns an ALNS engine with cfg defaults applied.
func NewALNS(cfg ALNSConfig) *ALNS {
	cfg.SetDefaults()
	return &ALNS{cfg: cfg}
}

// Solve runs the search until the time limit, the iteration cap, ctx
// cancellation, or the stall limit after a solution has been found.
func (a *ALNS) Solve(ctx context.Context, m *routing.Model, params routing.SearchParameters) (routing.Result, error) {
	if req, ok := unservable(m); ok && provesInfeasible(m, req) {
		return routing.Result{Status: routing.Infeasible}, nil
	}
	curr, ok := newPlan(m)
	if !ok {
		return routing.Result{Status: routing.Timeout}, nil
	}
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	limit := params.TimeLimit
	if limit <= 0 {
		limit = routing.DefaultSearchParameters().TimeLimit
	}
	deadline := time.Now().Add(limit)

	if params.FirstSolution == routing.PathCheapestArc {
		pathCheapestArc(curr)
	}
	greedyInsert(curr)

	var best *plan
	if curr.complete() {
		best = curr.clone()
	}
	remW := []float64{1, 1} // random, related
	insW := []float64{1, 1} // greedy, regret2
	temp := a.cfg.InitialTemp
	iterations, stall := 0, 0
	for time.Now().Before(deadline) && ctx.Err() == nil {
		if params.Iterations > 0 && iterations >= params.Iterations {
			break
		}
		if best != nil && (best.cost() == 0 || stall >= a.cfg.StallLimit) {
			break
		}
		iterations++
		stall++

		cand := curr.clone()
		op := selectOp(remW, rng)
		ip := selectOp(insW, rng)
		if assigned := cand.assigned(); len(assigned) > 0 {
			k := 1 + rng.Intn(min(a.cfg.MaxRemoval, len(assigned)))
			var removed []routing.Request
			switch op {
			case 0:
				removed = pickRandom(assigned, k, rng)
			case 1:
				removed = relatedRemoval(m, assigned, k, rng)
			}
			if !cand.remove(removed) {
				continue
			}
		}
		rng.Shuffle(len(cand.unassigned), func(i, j int) {
			cand.unassigned[i], cand.unassigned[j] = cand.unassigned[j], cand.unassigned[i]
		})
		switch ip {
		case 0:
			greedyInsert(cand)
		case 1:
			regretInsert(cand)
		}

		delta := score(cand) - score(curr)
		accepted := delta <= 0
		if !accepted && params.Metaheuristic != routing.GreedyDescent {
			accepted = rng.Float64() < math.Exp(-delta/(temp+1e-9))
		}
		if accepted {
			curr = cand
			if cand.complete() && (best == nil || cand.cost() < best.cost()) {
				best = cand.clone()
				stall = 0
				remW[op] += 0.1
				insW[ip] += 0.1
			} else {
				remW[op] += 0.01
				insW[ip] += 0.01
			}
		} else {
			remW[op] = math.Max(0.01, remW[op]*0.999)
			insW[ip] = math.Max(0.01, insW[ip]*0.999)
		}
		temp *= a.cfg.Cooling
	}

	if best == nil {
		return routing.Result{Status: routing.Timeout, Iterations: iterations}, nil
	}
	res, err := best.result(iterations)
	if err != nil {
		return routing.Result{}, fmt.Errorf("alns produced invalid routes: %w", err)
	}
	return res, nil
}

func score(p *plan) float64 {
	return float64(p.cost()) + unassignedPenalty*float64(len(p.unassigned))
}

// greedyInsert repeatedly places the unassigned request with the cheapest
// feasible insertion. Requests that fit nowhere stay unassigned.
func greedyInsert(p *plan) {
	for len(p.unassigned) > 0 {
		var (
			best    insertion
			bestReq routing.Request
			found   bool
		)
		for _, req := range p.unassigned {
			for _, ins := range p.insertions(req) {
				if !found || ins.cost < best.cost {
					best, bestReq, found = ins, req, true
				}
			}
		}
		if !found {
			return
		}
		p.apply(best, bestReq)
	}
}

// regretInsert places first the request whose best vehicle beats its second
// best by the widest margin. A request with a single option has infinite
// regret.
func regretInsert(p *plan) {
	for len(p.unassigned) > 0 {
		var (
			pick    insertion
			pickReq routing.Request
			regret  = -1.0
			found   bool
		)
		for _, req := range p.unassigned {
			opts := p.insertions(req)
			if len(opts) == 0 {
				continue
			}
			sort.Slice(opts, func(i, j int) bool { return opts[i].cost < opts[j].cost })
			r := math.Inf(1)
			if len(opts) > 1 {
				r = float64(opts[1].cost - opts[0].cost)
			}
			if !found || r > regret || r == regret && opts[0].cost < pick.cost {
				pick, pickReq, regret, found = opts[0], req, r, true
			}
		}
		if !found {
			return
		}
		p.apply(pick, pickReq)
	}
}

// pathCheapestArc extends each vehicle in turn with the request whose
// pickup is nearest to the current route end, appending both stops.
func pathCheapestArc(p *plan) {
	for v := range p.routes {
		for {
			last := p.m.Start(v)
			if r := p.routes[v]; len(r) > 0 {
				last = r[len(r)-1]
			}
			var (
				best    insertion
				bestReq routing.Request
				bestArc int64
				found   bool
			)
			for _, req := range p.unassigned {
				route := append(append([]int(nil), p.routes[v]...), req.Pickup)
				if req.Paired() {
					route = append(route, req.Delivery)
				}
				e, err := p.m.EvalRoute(v, p.full(v, route))
				if err != nil {
					continue
				}
				arc := p.m.ArcCost(last, req.Pickup)
				if !found || arc < bestArc {
					best = insertion{vehicle: v, route: route, eval: e}
					bestReq, bestArc, found = req, arc, true
				}
			}
			if !found {
				break
			}
			p.apply(best, bestReq)
		}
	}
}

func pickRandom(reqs []routing.Request, k int, rng *rand.Rand) []routing.Request {
	pool := append([]routing.Request(nil), reqs...)
	out := make([]routing.Request, 0, k)
	for i := 0; i < k && len(pool) > 0; i++ {
		j := rng.Intn(len(pool))
		out = append(out, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}
	return out
}

// relatedRemoval picks a random seed request and the k-1 requests whose
// pickups and deliveries lie closest to it.
func relatedRemoval(m *routing.Model, reqs []routing.Request, k int, rng *rand.Rand) []routing.Request {
	seed := reqs[rng.Intn(len(reqs))]
	type scored struct {
		req   routing.Request
		score int64
	}
	end := func(r routing.Request) int {
		if r.Paired() {
			return r.Delivery
		}
		return r.Pickup
	}
	rel := make([]scored, 0, len(reqs))
	for _, r := range reqs {
		if r == seed {
			continue
		}
		s := m.ArcCost(seed.Pickup, r.Pickup) + m.ArcCost(end(seed), end(r))
		rel = append(rel, scored{req: r, score: s})
	}
	sort.SliceStable(rel, func(i, j int) bool { return rel[i].score < rel[j].score })
	out := []routing.Request{seed}
	for i := 0; i < len(rel) && len(out) < k; i++ {
		out = append(out, rel[i].req)
	}
	return out
}

func selectOp(weights []float64, rng *rand.Rand) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 0
	}
	r := rng.Float64() * sum
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}
