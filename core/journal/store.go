// Package journal records one entry per planning run. The journal is write
// only from the planner's point of view: it is never consulted to skip or
// warm-start a solve. Records can be queried back for reporting.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/cmapd/core/model"
)

// Status is the final state of a planning run.
type Status string

const (
	StatusFeasible  Status = "feasible"
	StatusExhausted Status = "exhausted"
	StatusFailed    Status = "failed"
)

// Record captures one planning run and its result.
type Record struct {
	RunID     string           `json:"run_id"`
	Timestamp time.Time        `json:"timestamp"`
	Agents    string           `json:"agents,omitempty"`
	TaskFile  string           `json:"task_file,omitempty"`
	Robots    int              `json:"robots"`
	Tasks     int              `json:"tasks"`
	Capacity  int64            `json:"capacity"`
	Solver    string           `json:"solver"`
	Status    Status           `json:"status"`
	Makespan  int64            `json:"makespan"`
	Cost      int64            `json:"cost"`
	Attempts  int              `json:"attempts"`
	Unproved  int              `json:"unproved"`
	Routes    model.Assignment `json:"routes"`
	Duration  time.Duration    `json:"duration_ns"`
	Error     string           `json:"error,omitempty"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start  time.Time
	End    time.Time
	Status Status
	RunID  string
}

// Match reports whether r passes every filter of q.
func (q Query) Match(r Record) bool {
	switch {
	case !q.Start.IsZero() && r.Timestamp.Before(q.Start):
		return false
	case !q.End.IsZero() && r.Timestamp.After(q.End):
		return false
	case q.Status != "" && r.Status != q.Status:
		return false
	case q.RunID != "" && r.RunID != q.RunID:
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }

// Config selects and tunes a journal backend.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies default rotation settings.
func (c *Config) SetDefaults() {
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 28
	}
}

// Validate checks that the backend is known and has a path.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "nop":
		return nil
	case "jsonl", "rotating", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("journal backend %s requires a path", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("unknown journal backend %q", c.Backend)
	}
}

// Open creates the configured store. An empty backend yields a NopStore.
func Open(c Config) (Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.SetDefaults()
	switch c.Backend {
	case "jsonl":
		return NewJSONLStore(c.Path)
	case "rotating":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	default:
		return NopStore{}, nil
	}
}
