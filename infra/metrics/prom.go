package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/cmapd/core/metrics"
)

// PromSink records planning activity in Prometheus metrics.
type PromSink struct {
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	makespan *prometheus.GaugeVec
	cost     *prometheus.GaugeVec
	plans    *prometheus.CounterVec
	bound    prometheus.Gauge
	upper    prometheus.Gauge
	phases   *prometheus.CounterVec
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
// Exposing them over HTTP is left to StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmapd_solve_attempts_total",
			Help: "Solve calls made by the makespan search, by status",
		}, []string{"status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cmapd_solve_attempt_seconds",
			Help:    "Wall time of a single solve call",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
		}, []string{"status"}),
		makespan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cmapd_plan_makespan",
			Help: "Makespan bound of the last feasible plan",
		}, []string{"solver"}),
		cost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cmapd_plan_cost",
			Help: "Objective value of the last feasible plan",
		}, []string{"solver"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmapd_plans_total",
			Help: "Planning runs, by outcome",
		}, []string{"solver", "feasible"}),
		bound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cmapd_search_bound",
			Help: "Makespan bound the running search is trying",
		}),
		upper: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cmapd_search_upper_bound",
			Help: "Last makespan bound of the running search",
		}),
		phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmapd_search_phase_total",
			Help: "Search phase transitions",
		}, []string{"phase"}),
	}

	var err error
	if s.attempts, err = register(reg, s.attempts); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.makespan, err = register(reg, s.makespan); err != nil {
		return nil, err
	}
	if s.cost, err = register(reg, s.cost); err != nil {
		return nil, err
	}
	if s.plans, err = register(reg, s.plans); err != nil {
		return nil, err
	}
	if s.bound, err = register(reg, s.bound); err != nil {
		return nil, err
	}
	if s.upper, err = register(reg, s.upper); err != nil {
		return nil, err
	}
	if s.phases, err = register(reg, s.phases); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the collector already registered under the same
// descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAttempt counts the attempt and observes its duration.
func (s *PromSink) RecordAttempt(rec coremetrics.AttemptRecord) error {
	s.attempts.WithLabelValues(rec.Status).Inc()
	s.latency.WithLabelValues(rec.Status).Observe(rec.Elapsed.Seconds())
	return nil
}

// RecordPlan counts the run and, when feasible, sets the plan gauges.
func (s *PromSink) RecordPlan(rec coremetrics.PlanRecord) error {
	solver := rec.Solver
	if solver == "" {
		solver = "unknown"
	}
	feasible := "false"
	if rec.Feasible {
		feasible = "true"
		s.makespan.WithLabelValues(solver).Set(float64(rec.Makespan))
		s.cost.WithLabelValues(solver).Set(float64(rec.Cost))
	}
	s.plans.WithLabelValues(solver, feasible).Inc()
	return nil
}

// RecordSearchProgress tracks the bound of the running search.
func (s *PromSink) RecordSearchProgress(ev coremetrics.SearchProgress) error {
	s.phases.WithLabelValues(ev.Phase).Inc()
	if ev.Makespan > 0 {
		s.bound.Set(float64(ev.Makespan))
	}
	if ev.Upper > 0 {
		s.upper.Set(float64(ev.Upper))
	}
	return nil
}
