package events

import "time"

// Event is implemented by every planning event.
type Event interface {
	Run() string
}

// AttemptEvent is published after every solve call.
type AttemptEvent struct {
	RunID      string
	Makespan   int64
	Status     string
	Retry      int
	Iterations int
	Elapsed    time.Duration
	Time       time.Time
}

func (e AttemptEvent) Run() string { return e.RunID }

// Phase of a makespan search.
type Phase string

const (
	PhaseStarted   Phase = "started"
	PhaseRetry     Phase = "retry"
	PhaseFeasible  Phase = "feasible"
	PhaseExhausted Phase = "exhausted"
)

// SearchEvent marks a change of search phase. Makespan is the bound concerned
// (the winning one for PhaseFeasible); Upper is the last bound to try.
type SearchEvent struct {
	RunID    string
	Phase    Phase
	Makespan int64
	Upper    int64
	Time     time.Time
}

func (e SearchEvent) Run() string { return e.RunID }
