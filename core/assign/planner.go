package assign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/cmapd/core/events"
	"github.com/kilianp07/cmapd/core/journal"
	"github.com/kilianp07/cmapd/core/logger"
	"github.com/kilianp07/cmapd/core/metrics"
	"github.com/kilianp07/cmapd/core/model"
	"github.com/kilianp07/cmapd/core/reduce"
	"github.com/kilianp07/cmapd/core/routing"
	"github.com/kilianp07/cmapd/internal/eventbus"
)

// Request is one planning problem.
type Request struct {
	Instance  *model.Instance
	Distances reduce.Distances
	// AgentsPath and TasksPath are recorded in the journal when set.
	AgentsPath string
	TasksPath  string
}

// Plan is the result of a planning run.
type Plan struct {
	RunID      string
	Assignment model.Assignment
	Outcome    Outcome
	Summary    Summary
	Started    time.Time
	Duration   time.Duration
}

// Planner runs reduce, search and extract for one instance and reports the
// run to the configured logger, event bus, metrics sink and journal.
type Planner struct {
	solver     routing.Solver
	solverName string
	cfg        SearchConfig
	log        logger.Logger
	bus        *eventbus.TypedBus[events.Event]
	sink       metrics.MetricsSink
	journal    journal.Store
	now        func() time.Time
	newID      func() string
}

// Option configures a Planner.
type Option func(*Planner)

func WithLogger(l logger.Logger) Option { return func(p *Planner) { p.log = logger.OrNop(l) } }

func WithBus(b *eventbus.TypedBus[events.Event]) Option { return func(p *Planner) { p.bus = b } }

func WithMetrics(s metrics.MetricsSink) Option {
	return func(p *Planner) {
		if s != nil {
			p.sink = s
		}
	}
}

func WithJournal(j journal.Store) Option {
	return func(p *Planner) {
		if j != nil {
			p.journal = j
		}
	}
}

// WithSolverName sets the engine name reported in metrics and the journal.
func WithSolverName(name string) Option { return func(p *Planner) { p.solverName = name } }

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option { return func(p *Planner) { p.now = now } }

// WithRunIDs replaces the uuid run id generator.
func WithRunIDs(gen func() string) Option { return func(p *Planner) { p.newID = gen } }

// NewPlanner creates a Planner solving with s.
func NewPlanner(s routing.Solver, cfg SearchConfig, opts ...Option) *Planner {
	p := &Planner{
		solver:  s,
		cfg:     cfg,
		log:     logger.NopLogger{},
		sink:    metrics.NopSink{},
		journal: journal.NopStore{},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Plan solves req. When the search is exhausted the returned Plan has an
// empty assignment and err is ErrSearchExhausted; any other error means the
// run failed and Plan is nil.
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	plan := &Plan{RunID: p.newID(), Started: p.now()}
	rec := journal.Record{
		RunID:     plan.RunID,
		Timestamp: plan.Started,
		Agents:    req.AgentsPath,
		TaskFile:  req.TasksPath,
		Capacity:  p.cfg.Capacity,
		Solver:    p.solverName,
	}

	out, r, err := p.search(ctx, plan.RunID, req)
	plan.Outcome = out
	plan.Duration = p.now().Sub(plan.Started)
	rec.Duration = plan.Duration
	rec.Attempts = len(out.Attempts)
	rec.Unproved = out.Unproved
	if req.Instance != nil {
		rec.Robots, rec.Tasks = len(req.Instance.Robots), len(req.Instance.Tasks)
	}

	switch {
	case err == nil:
		plan.Assignment = Extract(r, req.Instance.Dims, out.Result)
		plan.Summary = Summarize(r, out.Result)
		rec.Status = journal.StatusFeasible
		rec.Makespan = out.Makespan
		rec.Cost = out.Result.Cost
		rec.Routes = plan.Assignment
		p.publish(events.SearchEvent{RunID: plan.RunID, Phase: events.PhaseFeasible, Makespan: out.Makespan, Upper: out.Upper, Time: p.now()})
		p.log.Infof("run %s: makespan %d cost %d after %d attempts in %s",
			plan.RunID, out.Makespan, out.Result.Cost, len(out.Attempts), plan.Duration)
	case errors.Is(err, ErrSearchExhausted):
		rec.Status = journal.StatusExhausted
		p.publish(events.SearchEvent{RunID: plan.RunID, Phase: events.PhaseExhausted, Upper: out.Upper, Time: p.now()})
		p.log.Warnf("run %s: no feasible makespan up to %d (%d attempts, %d bounds unproved)",
			plan.RunID, out.Upper, len(out.Attempts), out.Unproved)
	default:
		rec.Status = journal.StatusFailed
		rec.Error = err.Error()
		p.log.Errorf("run %s failed: %v", plan.RunID, err)
	}

	if rec.Status != journal.StatusFailed {
		if merr := p.sink.RecordPlan(metrics.PlanRecord{
			RunID:       plan.RunID,
			Solver:      p.solverName,
			Robots:      rec.Robots,
			Tasks:       rec.Tasks,
			Capacity:    p.cfg.Capacity,
			Feasible:    rec.Status == journal.StatusFeasible,
			Makespan:    rec.Makespan,
			Cost:        rec.Cost,
			Attempts:    rec.Attempts,
			Unproved:    rec.Unproved,
			RouteStdDev: plan.Summary.StdDev,
			Duration:    plan.Duration,
			Time:        p.now(),
		}); merr != nil {
			p.log.Warnf("record plan metrics: %v", merr)
		}
	}
	if jerr := p.journal.Append(ctx, rec); jerr != nil {
		p.log.Warnf("journal append: %v", jerr)
	}

	if rec.Status == journal.StatusFailed {
		return nil, err
	}
	return plan, err
}

func (p *Planner) search(ctx context.Context, runID string, req Request) (Outcome, *reduce.Matrix, error) {
	in := req.Instance
	if in == nil || req.Distances == nil {
		return Outcome{}, nil, fmt.Errorf("instance and distance matrix are required: %w", model.ErrMalformedInput)
	}
	if err := in.Validate(); err != nil {
		return Outcome{}, nil, err
	}
	if got, want := req.Distances.Cells(), in.Dims.Cells(); got != want {
		return Outcome{}, nil, fmt.Errorf("distance matrix covers %d cells, grid has %d: %w", got, want, model.ErrMalformedInput)
	}
	r, err := reduce.Reduce(req.Distances, in.RobotCells(), in.Tasks)
	if err != nil {
		return Outcome{}, nil, err
	}
	if !reachable(r) {
		p.log.Warnf("run %s: some task cannot be reached by any robot", runID)
	}

	upper := UpperBound(r, p.cfg.MinMakespan, p.cfg.MaxMakespan)
	p.publish(events.SearchEvent{RunID: runID, Phase: events.PhaseStarted, Makespan: p.cfg.MinMakespan, Upper: upper, Time: p.now()})
	p.log.Debugw("search started", map[string]any{
		"run_id": runID, "robots": r.NumRobots(), "tasks": r.NumTasks(),
		"nodes": r.Size(), "capacity": p.cfg.Capacity, "min": p.cfg.MinMakespan, "upper": upper,
	})

	out, err := Search(ctx, p.solver, r, p.cfg, func(a Attempt) { p.observe(runID, a) })
	return out, r, err
}

func (p *Planner) observe(runID string, a Attempt) {
	now := p.now()
	p.log.Debugw("solve attempt", map[string]any{
		"run_id": runID, "makespan": a.Makespan, "status": a.Status.String(),
		"retry": a.Retry, "iterations": a.Iterations, "elapsed": a.Elapsed.String(),
	})
	if a.Retry > 0 {
		p.publish(events.SearchEvent{RunID: runID, Phase: events.PhaseRetry, Makespan: a.Makespan, Time: now})
	}
	p.publish(events.AttemptEvent{
		RunID: runID, Makespan: a.Makespan, Status: a.Status.String(), Retry: a.Retry,
		Iterations: a.Iterations, Elapsed: a.Elapsed, Time: now,
	})
	if err := p.sink.RecordAttempt(metrics.AttemptRecord{
		RunID: runID, Makespan: a.Makespan, Status: a.Status.String(), Retry: a.Retry,
		Iterations: a.Iterations, Elapsed: a.Elapsed, Time: now,
	}); err != nil {
		p.log.Warnf("record attempt metrics: %v", err)
	}
}

func (p *Planner) publish(e events.Event) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}
