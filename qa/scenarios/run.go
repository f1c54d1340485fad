package scenarios

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/cmapd/core/assign"
	"github.com/kilianp07/cmapd/core/factory"
	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/core/model"
	"github.com/kilianp07/cmapd/infra/solver"
)

// Report is the outcome of running one scenario.
type Report struct {
	Name       string
	Plan       *assign.Plan
	Mismatches []string
}

// OK reports whether every expectation held.
func (r Report) OK() bool { return len(r.Mismatches) == 0 }

func (r *Report) failf(format string, args ...any) {
	r.Mismatches = append(r.Mismatches, fmt.Sprintf(format, args...))
}

// Config returns the search configuration of the scenario.
func (sc *Scenario) Config() assign.SearchConfig {
	cfg := assign.DefaultSearchConfig(sc.Capacity)
	if sc.Search.MinMakespan > 0 {
		cfg.MinMakespan = sc.Search.MinMakespan
	}
	cfg.MaxMakespan = sc.Search.MaxMakespan
	cfg.TimeoutRetries = sc.Search.TimeoutRetries
	if sc.Search.TimeLimitSeconds > 0 {
		cfg.Params.TimeLimit = time.Duration(sc.Search.TimeLimitSeconds * float64(time.Second))
	}
	if sc.Search.Seed != 0 {
		cfg.Params.Seed = sc.Search.Seed
	}
	return cfg
}

// Run plans the scenario with its solver (auto by default) and compares the
// result with the expectations. The error is non-nil only when the scenario
// itself is broken or planning failed for a reason other than exhaustion.
func Run(ctx context.Context, sc *Scenario, opts ...assign.Option) (Report, error) {
	rep := Report{Name: sc.Name}
	g, in, err := sc.Instance()
	if err != nil {
		return rep, err
	}
	kind := sc.Solver
	if kind == "" {
		kind = solver.TypeAuto
	}
	s, err := solver.New(factory.ModuleConfig{Type: kind})
	if err != nil {
		return rep, err
	}
	opts = append([]assign.Option{assign.WithSolverName(kind)}, opts...)
	p := assign.NewPlanner(s, sc.Config(), opts...)

	plan, err := p.Plan(ctx, assign.Request{Instance: in, Distances: grid.ComputeDistances(g)})
	if err != nil && !errors.Is(err, assign.ErrSearchExhausted) {
		return rep, err
	}
	rep.Plan = plan
	check(&rep, sc, in, plan)
	return rep, nil
}

func check(rep *Report, sc *Scenario, in *model.Instance, plan *assign.Plan) {
	exp := sc.Expected
	feasible := plan.Outcome.Feasible()
	if feasible != exp.Feasible {
		rep.failf("feasible = %v, want %v", feasible, exp.Feasible)
		return
	}
	if !feasible {
		if !plan.Assignment.Empty() {
			rep.failf("infeasible run returned %d routes", len(plan.Assignment))
		}
		return
	}
	if exp.Makespan > 0 && plan.Outcome.Makespan != exp.Makespan {
		rep.failf("makespan = %d, want %d", plan.Outcome.Makespan, exp.Makespan)
	}
	if len(plan.Assignment) != len(in.Robots) {
		rep.failf("%d routes for %d robots", len(plan.Assignment), len(in.Robots))
		return
	}
	for i, r := range plan.Assignment {
		if len(r) == 0 || r[0] != in.Dims.Coord(in.Robots[i].Start) {
			rep.failf("route %d does not start at the robot origin", i)
		}
	}
	if exp.Routes != nil {
		for i, want := range exp.Routes {
			if i >= len(plan.Assignment) || !equalRoute(plan.Assignment[i], want) {
				rep.failf("route %d = %v, want %v", i, routeAt(plan.Assignment, i), want)
			}
		}
	}
	served := owners(in, plan.Assignment)
	for task, robot := range exp.Owners {
		if got, ok := served[task]; !ok || got != robot {
			rep.failf("task %d served by robot %v, want %d", task, got, robot)
		}
	}
	if exp.Distinct {
		seen := map[int]int{}
		for task, robot := range served {
			if other, dup := seen[robot]; dup {
				rep.failf("robot %d serves tasks %d and %d", robot, other, task)
			}
			seen[robot] = task
		}
	}
	if len(served) != len(in.Tasks) {
		rep.failf("%d of %d tasks served", len(served), len(in.Tasks))
	}
}

// owners maps each task to the robot whose route visits its pickup followed
// later by its delivery.
func owners(in *model.Instance, a model.Assignment) map[int]int {
	out := make(map[int]int, len(in.Tasks))
	for ti, t := range in.Tasks {
		p, d := in.Dims.Coord(t.Pickup), in.Dims.Coord(t.Delivery)
		for robot, route := range a {
			picked := false
			for _, c := range route[min(1, len(route)):] {
				if !picked && c == p {
					picked = true
					continue
				}
				if picked && c == d {
					out[ti] = robot
					break
				}
			}
			if _, ok := out[ti]; ok {
				break
			}
		}
	}
	return out
}

func equalRoute(a []model.Coord, b []model.Coord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func routeAt(a model.Assignment, i int) model.Route {
	if i < len(a) {
		return a[i]
	}
	return nil
}
