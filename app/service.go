// Package app wires configuration, planner, sinks and publishers into a
// service used by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/cmapd/config"
	"github.com/kilianp07/cmapd/core/assign"
	"github.com/kilianp07/cmapd/core/events"
	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/core/instance"
	"github.com/kilianp07/cmapd/core/journal"
	coremetrics "github.com/kilianp07/cmapd/core/metrics"
	coremon "github.com/kilianp07/cmapd/core/monitoring"
	coremqtt "github.com/kilianp07/cmapd/core/mqtt"
	"github.com/kilianp07/cmapd/core/routing"
	"github.com/kilianp07/cmapd/infra/logger"
	"github.com/kilianp07/cmapd/infra/metrics"
	"github.com/kilianp07/cmapd/infra/mqtt"
	"github.com/kilianp07/cmapd/infra/solver"
	"github.com/kilianp07/cmapd/internal/eventbus"
	"github.com/kilianp07/cmapd/pkg/export"
)

// Service runs planning requests with the configured engine and reports to
// the configured sinks.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	bus       *eventbus.TypedBus[events.Event]
	sink      coremetrics.MetricsSink
	journal   journal.Store
	publisher coremqtt.Publisher
	planner   *assign.Planner

	stopCollector context.CancelFunc
	collectorDone <-chan struct{}
}

// Option overrides a collaborator built from the configuration.
type Option func(*options)

type options struct {
	solver    routing.Solver
	publisher coremqtt.Publisher
	sink      coremetrics.MetricsSink
	journal   journal.Store
	log       logger.Logger
}

func WithSolver(s routing.Solver) Option { return func(o *options) { o.solver = s } }
func WithPublisher(p coremqtt.Publisher) Option { return func(o *options) { o.publisher = p } }
func WithMetricsSink(s coremetrics.MetricsSink) Option { return func(o *options) { o.sink = s } }
func WithJournal(j journal.Store) Option { return func(o *options) { o.journal = j } }
func WithLogger(l logger.Logger) Option { return func(o *options) { o.log = l } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logg := o.log
	if logg == nil {
		logg = logger.New("service")
	}

	s := o.solver
	if s == nil {
		var err error
		if s, err = solver.New(cfg.Solver.Module()); err != nil {
			return nil, fmt.Errorf("solver: %w", err)
		}
	}
	sink := o.sink
	if sink == nil {
		var err error
		if sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}
	store := o.journal
	if store == nil {
		var err error
		if store, err = journal.Open(cfg.Journal); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	pub := o.publisher
	if pub == nil && cfg.MQTT.Enabled {
		cli, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		pub = cli
	}

	bus := eventbus.NewTyped[events.Event]()
	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		cfg:           cfg,
		log:           logg,
		bus:           bus,
		sink:          sink,
		journal:       store,
		publisher:     pub,
		stopCollector: cancel,
		collectorDone: metrics.StartEventCollector(ctx, bus, sink),
	}
	svc.planner = assign.NewPlanner(s, cfg.SearchConfig(),
		assign.WithLogger(logger.New("planner")),
		assign.WithBus(bus),
		assign.WithMetrics(sink),
		assign.WithJournal(store),
		assign.WithSolverName(cfg.Solver.Type),
	)
	return svc, nil
}

// Bus returns the event bus the planner publishes on.
func (s *Service) Bus() *eventbus.TypedBus[events.Event] { return s.bus }

// Journal returns the run journal.
func (s *Service) Journal() journal.Store { return s.journal }

// LoadRequest reads the agents and tasks files and the distance matrix named
// by inst. A precomputed matrix wins over computing one from the grid map.
func LoadRequest(inst config.InstanceConfig) (assign.Request, error) {
	if inst.Agents == "" || inst.Tasks == "" {
		return assign.Request{}, errors.New("agents and tasks files are required")
	}
	in, err := instance.Load(inst.Agents, inst.Tasks)
	if err != nil {
		return assign.Request{}, err
	}
	req := assign.Request{Instance: in, AgentsPath: inst.Agents, TasksPath: inst.Tasks}
	switch {
	case inst.DMPath != "":
		dm, err := grid.LoadDistanceMatrix(inst.DMPath)
		if err != nil {
			return assign.Request{}, err
		}
		req.Distances = dm
	case inst.GridPath != "":
		g, err := grid.Load(inst.GridPath)
		if err != nil {
			return assign.Request{}, err
		}
		if err := g.CheckDims(in.Dims); err != nil {
			return assign.Request{}, err
		}
		req.Distances = grid.ComputeDistances(g)
	default:
		return assign.Request{}, errors.New("either dm_path or grid_path is required")
	}
	return req, nil
}

// Solve plans req, writes the assignment to the configured output and
// publishes feasible plans. An exhausted search still writes the empty
// assignment and returns assign.ErrSearchExhausted.
func (s *Service) Solve(ctx context.Context, req assign.Request) (*assign.Plan, error) {
	plan, err := s.planner.Plan(ctx, req)
	if plan == nil {
		coremon.CaptureException(err, coremon.Tags("module", "planner", "tasks", req.TasksPath))
		return nil, err
	}
	format, ferr := export.ParseFormat(s.cfg.Output.Format)
	if ferr != nil {
		return plan, ferr
	}
	if werr := export.WriteFile(s.cfg.Output.Path, format, plan.Assignment); werr != nil {
		return plan, fmt.Errorf("write output: %w", werr)
	}
	if err == nil && s.publisher != nil {
		msg := coremqtt.NewPlanMessage(plan.RunID, plan.Outcome.Makespan, plan.Outcome.Result.Cost, plan.Assignment, time.Now())
		if id, perr := s.publisher.PublishPlan(msg); perr != nil {
			s.log.Errorf("publish plan %s: %v", plan.RunID, perr)
		} else {
			s.log.Infof("plan %s published as %s", plan.RunID, id)
		}
	}
	return plan, err
}

// ServeMetrics exposes Prometheus metrics on the configured address until
// ctx is canceled. It returns immediately when no address is configured.
func (s *Service) ServeMetrics(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusAddr == "" {
		return nil
	}
	return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr)
}

// Close stops the event collector and releases the journal and the MQTT
// connection.
func (s *Service) Close() error {
	s.bus.Close()
	s.stopCollector()
	<-s.collectorDone
	if d, ok := s.publisher.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	coremon.Flush(2 * time.Second)
	return s.journal.Close()
}
