package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	count int
	err   error
}

func (r *recordSink) RecordAttempt(AttemptRecord) error {
	r.count++
	return r.err
}

func (r *recordSink) RecordPlan(PlanRecord) error {
	r.count++
	return r.err
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordAttempt(AttemptRecord{Makespan: 20}); err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if err := m.RecordPlan(PlanRecord{Feasible: true}); err != nil {
		t.Fatalf("record plan: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("records not forwarded")
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	if err := NewMultiSink(s1, s2).RecordPlan(PlanRecord{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s2.count != 0 {
		t.Fatalf("second sink should not be reached")
	}
}

type progressSink struct {
	recordSink
	phases []string
}

func (p *progressSink) RecordSearchProgress(ev SearchProgress) error {
	p.phases = append(p.phases, ev.Phase)
	return nil
}

func TestMultiSinkProgressSkipsPlainSinks(t *testing.T) {
	plain := &recordSink{}
	prog := &progressSink{}
	m := NewMultiSink(plain, prog)
	if err := m.RecordSearchProgress(SearchProgress{Phase: "started"}); err != nil {
		t.Fatalf("record progress: %v", err)
	}
	if len(prog.phases) != 1 || prog.phases[0] != "started" {
		t.Fatalf("progress not forwarded: %v", prog.phases)
	}
	if plain.count != 0 {
		t.Fatalf("plain sink should not receive progress")
	}
}
