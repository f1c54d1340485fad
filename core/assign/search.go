// Package assign turns a reduced planning problem into per-robot waypoint
// sequences: it scans makespan bounds upward, solving a freshly built
// routing model at each bound, and maps the first feasible solution back to
// grid coordinates.
package assign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/core/reduce"
	"github.com/kilianp07/cmapd/core/routing"
)

// ErrSearchExhausted is returned when no bound up to the upper bound yields a
// feasible assignment.
var ErrSearchExhausted = errors.New("no feasible makespan up to the upper bound")

// DefaultMinMakespan is the first bound tried.
const DefaultMinMakespan int64 = 20

// SearchConfig drives one makespan search.
type SearchConfig struct {
	Capacity    int64
	MinMakespan int64
	// MaxMakespan overrides the computed upper bound when positive.
	MaxMakespan         int64
	SpanCostCoefficient int64
	// TimeoutRetries re-solves a bound that timed out, each time with the
	// time limit multiplied by TimeoutGrowth and a new seed.
	TimeoutRetries int
	TimeoutGrowth  float64
	Params         routing.SearchParameters
}

// DefaultSearchConfig returns the reference configuration for a capacity.
func DefaultSearchConfig(capacity int64) SearchConfig {
	return SearchConfig{
		Capacity:            capacity,
		MinMakespan:         DefaultMinMakespan,
		SpanCostCoefficient: routing.DefaultSpanCostCoefficient,
		TimeoutGrowth:       2,
		Params:              routing.DefaultSearchParameters(),
	}
}

// Validate rejects negative settings.
func (c SearchConfig) Validate() error {
	switch {
	case c.Capacity < 0:
		return fmt.Errorf("capacity must be >= 0, got %d", c.Capacity)
	case c.MinMakespan < 0 || c.MaxMakespan < 0:
		return fmt.Errorf("makespan bounds must be >= 0, got %d..%d", c.MinMakespan, c.MaxMakespan)
	case c.TimeoutRetries < 0:
		return fmt.Errorf("timeout retries must be >= 0, got %d", c.TimeoutRetries)
	case c.TimeoutRetries > 0 && c.TimeoutGrowth < 1:
		return fmt.Errorf("timeout growth must be >= 1, got %v", c.TimeoutGrowth)
	}
	return nil
}

// Attempt records one solve call.
type Attempt struct {
	Makespan   int64
	Status     routing.Status
	Retry      int
	Iterations int
	TimeLimit  time.Duration
	Elapsed    time.Duration
}

// Outcome is the result of a search. Result is the winning solve when the
// search succeeded.
type Outcome struct {
	Result   routing.Result
	Makespan int64
	Upper    int64
	Attempts []Attempt
	// Unproved counts bounds passed over after a timeout rather than a
	// proof of infeasibility.
	Unproved int
}

// Feasible reports whether the search found an assignment.
func (o Outcome) Feasible() bool { return o.Result.Status == routing.Feasible }

// UpperBound returns the last bound a search tries: maxMakespan when
// positive, 2 * tasks * the largest finite reduced distance otherwise, and
// never less than minMakespan.
func UpperBound(r *reduce.Matrix, minMakespan, maxMakespan int64) int64 {
	upper := maxMakespan
	if upper <= 0 {
		upper = 2 * int64(r.NumTasks()) * r.MaxDistance()
	}
	return max(upper, minMakespan)
}

// Observer is called after every solve call.
type Observer func(Attempt)

// Search scans makespan bounds from cfg.MinMakespan upward by one and stops
// at the first feasible solve. Each bound gets a fresh routing model. A
// timed out bound is retried cfg.TimeoutRetries times before the scan moves
// on. When every bound fails the returned error is ErrSearchExhausted and
// the outcome still lists the attempts made.
func Search(ctx context.Context, s routing.Solver, r *reduce.Matrix, cfg SearchConfig, observe Observer) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}
	out := Outcome{Upper: UpperBound(r, cfg.MinMakespan, cfg.MaxMakespan)}
	if r.NumRobots() == 0 {
		if r.NumTasks() == 0 {
			out.Result = routing.Result{Status: routing.Feasible, Routes: [][]int{}}
			out.Makespan = cfg.MinMakespan
			return out, nil
		}
		return out, ErrSearchExhausted
	}
	opts := routing.BuildOptions{SpanCostCoefficient: cfg.SpanCostCoefficient}

	for makespan := cfg.MinMakespan; makespan <= out.Upper; makespan++ {
		params := cfg.Params
		for retry := 0; ; retry++ {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			m, err := routing.Build(r, cfg.Capacity, makespan, opts)
			if err != nil {
				return out, err
			}
			start := time.Now()
			res, err := s.Solve(ctx, m, params)
			if err != nil {
				return out, fmt.Errorf("solve makespan %d: %w", makespan, err)
			}
			a := Attempt{
				Makespan:   makespan,
				Status:     res.Status,
				Retry:      retry,
				Iterations: res.Iterations,
				TimeLimit:  params.TimeLimit,
				Elapsed:    time.Since(start),
			}
			out.Attempts = append(out.Attempts, a)
			if observe != nil {
				observe(a)
			}
			if res.Status == routing.Feasible {
				out.Result = res
				out.Makespan = makespan
				return out, nil
			}
			if res.Status != routing.Timeout || ctx.Err() != nil {
				break
			}
			if retry < cfg.TimeoutRetries {
				params.TimeLimit = time.Duration(float64(params.TimeLimit) * cfg.TimeoutGrowth)
				params.Seed++
				continue
			}
			out.Unproved++
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, ErrSearchExhausted
}

// reachable reports whether every task endpoint can be reached from some
// robot, which every feasible plan requires.
func reachable(r *reduce.Matrix) bool {
	for t := 0; t < r.NumTasks(); t++ {
		p := r.PickupNode(t)
		if r.At(p, r.DeliveryNode(t)) >= grid.Unreachable {
			return false
		}
		ok := false
		for v := 0; v < r.NumRobots() && !ok; v++ {
			ok = r.At(r.RobotNode(v), p) < grid.Unreachable
		}
		if !ok {
			return false
		}
	}
	return true
}
