package metrics

import "time"

// AttemptRecord describes one solve call of the makespan search.
type AttemptRecord struct {
	RunID      string
	Makespan   int64
	Status     string
	Retry      int
	Iterations int
	Elapsed    time.Duration
	Time       time.Time
}

// PlanRecord describes the outcome of one planning run.
type PlanRecord struct {
	RunID    string
	Solver   string
	Robots   int
	Tasks    int
	Capacity int64
	Feasible bool
	Makespan int64
	Cost     int64
	Attempts int
	Unproved int
	// RouteStdDev is the standard deviation of per-robot travel.
	RouteStdDev float64
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records planning activity for observability purposes.
type MetricsSink interface {
	RecordAttempt(rec AttemptRecord) error
	RecordPlan(rec PlanRecord) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAttempt(AttemptRecord) error { return nil }
func (NopSink) RecordPlan(PlanRecord) error       { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAttempt forwards the record to every sink, returning the first error.
func (m *MultiSink) RecordAttempt(rec AttemptRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordAttempt(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlan forwards the record to every sink, returning the first error.
func (m *MultiSink) RecordPlan(rec PlanRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(rec); err != nil {
			return err
		}
	}
	return nil
}

// SearchProgress is a makespan search phase change.
type SearchProgress struct {
	RunID    string
	Phase    string
	Makespan int64
	Upper    int64
	Time     time.Time
}

// SearchProgressRecorder is implemented by sinks that track searches while
// they run.
type SearchProgressRecorder interface {
	RecordSearchProgress(ev SearchProgress) error
}

// RecordSearchProgress forwards the event to every sink that tracks progress.
func (m *MultiSink) RecordSearchProgress(ev SearchProgress) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SearchProgressRecorder); ok {
			if err := rec.RecordSearchProgress(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
