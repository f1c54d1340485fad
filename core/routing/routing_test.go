package routing

import (
	"errors"
	"testing"

	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/core/model"
	"github.com/kilianp07/cmapd/core/reduce"
)

// singleTask reduces the 3x3 open grid instance: robot (0,0), task
// (0,2)->(2,2). Nodes: 0 robot, 1 pickup, 2 delivery, 3 sink.
func singleTask(t *testing.T) *reduce.Matrix {
	t.Helper()
	g, err := grid.New(model.Dims{Rows: 3, Cols: 3})
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	r, err := reduce.Reduce(grid.ComputeDistances(g), []int{0}, []model.Task{{Pickup: 2, Delivery: 8}})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	return r
}

func TestBuildAcceptsShortestRoute(t *testing.T) {
	m, err := Build(singleTask(t), 1, 4, BuildOptions{SpanCostCoefficient: DefaultSpanCostCoefficient})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cost, err := m.CheckRoutes([][]int{{0, 1, 2, 3}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	// 4 steps of travel plus the span of the only route weighted by 100
	if cost != 404 {
		t.Fatalf("cost = %d, want 404", cost)
	}
	e, err := m.EvalRoute(0, []int{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	dist, _ := m.Dimension(DistanceDimension)
	capd, _ := m.Dimension(CapacityDimension)
	if got := e.Cumuls[dist.index]; got[1] > got[2] {
		t.Fatalf("pickup cumul %d after delivery cumul %d", got[1], got[2])
	}
	if got := e.Cumuls[capd.index]; got[2] != 1 || got[3] != 0 {
		t.Fatalf("load profile = %v", got)
	}
}

func TestBuildRejectsViolations(t *testing.T) {
	cases := []struct {
		name     string
		capacity int64
		makespan int64
		routes   [][]int
	}{
		{"makespan too small", 1, 3, [][]int{{0, 1, 2, 3}}},
		{"zero capacity", 0, 10, [][]int{{0, 1, 2, 3}}},
		{"delivery first", 1, 10, [][]int{{0, 2, 1, 3}}},
		{"task skipped", 1, 10, [][]int{{0, 3}}},
		{"half a pair", 1, 10, [][]int{{0, 1, 3}}},
		{"wrong start", 1, 10, [][]int{{1, 2, 3}}},
		{"route count", 1, 10, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Build(singleTask(t), tc.capacity, tc.makespan, BuildOptions{})
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if _, err := m.CheckRoutes(tc.routes); !errors.Is(err, ErrViolation) {
				t.Fatalf("expected violation, got %v", err)
			}
		})
	}
}

func TestBuildRegistersPairs(t *testing.T) {
	g, _ := grid.New(model.Dims{Rows: 4, Cols: 4})
	tasks := []model.Task{{Pickup: 1, Delivery: 5}, {Pickup: 6, Delivery: 7}, {Pickup: 7, Delivery: 7}}
	r, err := reduce.Reduce(grid.ComputeDistances(g), []int{0, 15}, tasks)
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	m, err := Build(r, 2, 50, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.NumVehicles() != 2 || m.NumNodes() != 9 {
		t.Fatalf("vehicles=%d nodes=%d", m.NumVehicles(), m.NumNodes())
	}
	pairs := m.Pairs()
	if len(pairs) != 3 {
		t.Fatalf("pairs = %v", pairs)
	}
	for i, p := range pairs {
		if p.Pickup != r.PickupNode(i) || p.Delivery != r.DeliveryNode(i) {
			t.Fatalf("pair %d = %+v", i, p)
		}
	}
	if len(m.Requests()) != 3 {
		t.Fatalf("unexpected unpaired requests: %v", m.Requests())
	}
	for v := 0; v < 2; v++ {
		if m.End(v) != r.Sink() || m.Start(v) != v {
			t.Fatalf("vehicle %d depots %d/%d", v, m.Start(v), m.End(v))
		}
	}
}

func TestModelValidation(t *testing.T) {
	if _, err := NewModel(3, nil, nil); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("no vehicles: %v", err)
	}
	if _, err := NewModel(3, []int{0, 0}, []int{2, 2}); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("shared start: %v", err)
	}
	if _, err := NewModel(3, []int{0}, []int{0}); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("end on start: %v", err)
	}
	m, err := NewModel(4, []int{0}, []int{3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.SetArcCostEvaluatorOfAllVehicles(7); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("bad callback: %v", err)
	}
	unit := m.RegisterTransitCallback(func(int, int) int64 { return 1 })
	if err := m.AddDimension(unit, 0, 5, true, "d"); err != nil {
		t.Fatalf("dimension: %v", err)
	}
	if err := m.AddDimension(unit, 0, 5, true, "d"); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("duplicate dimension: %v", err)
	}
	if _, err := m.Dimension("missing"); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("missing dimension: %v", err)
	}
	if err := m.AddPickupAndDelivery(0, 1); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("depot in pair: %v", err)
	}
	if err := m.AddPickupAndDelivery(1, 2); err != nil {
		t.Fatalf("pair: %v", err)
	}
	if err := m.AddPickupAndDelivery(2, 1); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("reused pair node: %v", err)
	}
}

func TestUnpairedRequestsAndSlack(t *testing.T) {
	m, err := NewModel(4, []int{0}, []int{3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// node 1 drops the load by 2, slack 2 lets the cumul rest at zero
	drop := m.RegisterUnaryTransitCallback(func(n int) int64 {
		if n == 1 {
			return -2
		}
		return 0
	})
	if err := m.AddDimension(drop, 2, 1, true, "load"); err != nil {
		t.Fatalf("dimension: %v", err)
	}
	reqs := m.Requests()
	if len(reqs) != 2 || reqs[0].Paired() || reqs[1].Paired() {
		t.Fatalf("requests = %v", reqs)
	}
	if _, err := m.CheckRoutes([][]int{{0, 1, 2, 3}}); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{Feasible: "feasible", Infeasible: "infeasible", Timeout: "timeout", 0: "unknown"} {
		if s.String() != want {
			t.Fatalf("%d.String() = %q", s, s.String())
		}
	}
}
