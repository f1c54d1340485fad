package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cmapd/core/factory"
	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/core/model"
	"github.com/kilianp07/cmapd/core/reduce"
	"github.com/kilianp07/cmapd/core/routing"
)

// buildModel reduces an obstacle-free rows x cols grid instance and builds the
// routing model for the given capacity and makespan.
func buildModel(t *testing.T, dims model.Dims, robots []int, tasks [][2]int, capacity, makespan int64) *routing.Model {
	t.Helper()
	g, err := grid.New(dims)
	require.NoError(t, err)
	ts := make([]model.Task, len(tasks))
	for i, tk := range tasks {
		ts[i] = model.Task{ID: i, Pickup: tk[0], Delivery: tk[1]}
	}
	r, err := reduce.Reduce(grid.ComputeDistances(g), robots, ts)
	require.NoError(t, err)
	m, err := routing.Build(r, capacity, makespan, routing.BuildOptions{SpanCostCoefficient: routing.DefaultSpanCostCoefficient})
	require.NoError(t, err)
	return m
}

var square = model.Dims{Rows: 3, Cols: 3}

func params() routing.SearchParameters {
	p := routing.DefaultSearchParameters()
	p.TimeLimit = 2 * time.Second
	p.Seed = 7
	return p
}

func engines() map[string]routing.Solver {
	return map[string]routing.Solver{
		"exact": NewExact(),
		"alns":  NewALNS(ALNSConfig{}),
	}
}

func TestSingleTaskShortestRoute(t *testing.T) {
	for name, s := range engines() {
		t.Run(name, func(t *testing.T) {
			m := buildModel(t, square, []int{0}, [][2]int{{2, 8}}, 1, 4)
			res, err := s.Solve(context.Background(), m, params())
			require.NoError(t, err)
			require.Equal(t, routing.Feasible, res.Status)
			assert.Equal(t, [][]int{{0, 1, 2, 3}}, res.Routes)
			cost, err := m.CheckRoutes(res.Routes)
			require.NoError(t, err)
			assert.Equal(t, cost, res.Cost)
		})
	}
}

func TestMakespanTooTightIsInfeasible(t *testing.T) {
	for name, s := range engines() {
		t.Run(name, func(t *testing.T) {
			m := buildModel(t, square, []int{0}, [][2]int{{2, 8}}, 1, 3)
			res, err := s.Solve(context.Background(), m, params())
			require.NoError(t, err)
			assert.Equal(t, routing.Infeasible, res.Status)
			assert.Nil(t, res.Routes)
		})
	}
}

func TestZeroCapacityIsInfeasible(t *testing.T) {
	for name, s := range engines() {
		t.Run(name, func(t *testing.T) {
			m := buildModel(t, square, []int{0}, [][2]int{{2, 8}}, 0, 100)
			res, err := s.Solve(context.Background(), m, params())
			require.NoError(t, err)
			assert.Equal(t, routing.Infeasible, res.Status)
		})
	}
}

func TestEachRobotTakesNearestTask(t *testing.T) {
	// 1x10 corridor, robots at both ends, one short task next to each
	corridor := model.Dims{Rows: 1, Cols: 10}
	for name, s := range engines() {
		t.Run(name, func(t *testing.T) {
			m := buildModel(t, corridor, []int{0, 9}, [][2]int{{1, 2}, {8, 7}}, 1, 2)
			res, err := s.Solve(context.Background(), m, params())
			require.NoError(t, err)
			require.Equal(t, routing.Feasible, res.Status)
			assert.Equal(t, [][]int{{0, 2, 3, 6}, {1, 4, 5, 6}}, res.Routes)
		})
	}
}

func TestNoTasksIsTriviallyFeasible(t *testing.T) {
	for name, s := range engines() {
		t.Run(name, func(t *testing.T) {
			m := buildModel(t, square, []int{0, 4}, nil, 1, 0)
			res, err := s.Solve(context.Background(), m, params())
			require.NoError(t, err)
			require.Equal(t, routing.Feasible, res.Status)
			assert.Equal(t, [][]int{{0, 2}, {1, 2}}, res.Routes)
			assert.Zero(t, res.Cost)
		})
	}
}

// robot in the middle of a corridor with one task on each side: either task
// fits the makespan alone, both together do not.
func splitCorridor(t *testing.T) *routing.Model {
	return buildModel(t, model.Dims{Rows: 1, Cols: 11}, []int{5}, [][2]int{{3, 2}, {7, 8}}, 2, 3)
}

func TestExactProvesJointInfeasibility(t *testing.T) {
	res, err := NewExact().Solve(context.Background(), splitCorridor(t), params())
	require.NoError(t, err)
	assert.Equal(t, routing.Infeasible, res.Status)
	assert.Positive(t, res.Iterations)
}

func TestALNSReportsTimeoutWithoutProof(t *testing.T) {
	p := params()
	p.TimeLimit = 50 * time.Millisecond
	res, err := NewALNS(ALNSConfig{}).Solve(context.Background(), splitCorridor(t), p)
	require.NoError(t, err)
	assert.Equal(t, routing.Timeout, res.Status)
}

func TestExactNodeLimitTimesOut(t *testing.T) {
	p := params()
	p.Iterations = 1
	m := buildModel(t, square, []int{0}, [][2]int{{2, 8}, {6, 1}}, 2, 100)
	res, err := NewExact().Solve(context.Background(), m, p)
	require.NoError(t, err)
	assert.Equal(t, routing.Timeout, res.Status)
}

func TestExactFindsOptimumOnSmallInstance(t *testing.T) {
	m := buildModel(t, square, []int{0, 8}, [][2]int{{1, 2}, {7, 6}, {5, 3}}, 1, 20)
	res, err := NewExact().Solve(context.Background(), m, params())
	require.NoError(t, err)
	require.Equal(t, routing.Feasible, res.Status)

	// ALNS can never beat the exhaustive optimum
	heur, err := NewALNS(ALNSConfig{}).Solve(context.Background(), m, params())
	require.NoError(t, err)
	require.Equal(t, routing.Feasible, heur.Status)
	assert.LessOrEqual(t, res.Cost, heur.Cost)
}

func TestALNSPathCheapestArcSeed(t *testing.T) {
	p := params()
	p.FirstSolution = routing.PathCheapestArc
	p.Metaheuristic = routing.GreedyDescent
	m := buildModel(t, model.Dims{Rows: 4, Cols: 4}, []int{0, 15}, [][2]int{{1, 2}, {14, 13}, {4, 8}, {11, 7}}, 2, 40)
	res, err := NewALNS(ALNSConfig{StallLimit: 50}).Solve(context.Background(), m, p)
	require.NoError(t, err)
	require.Equal(t, routing.Feasible, res.Status)
	_, err = m.CheckRoutes(res.Routes)
	assert.NoError(t, err)
}

func TestALNSHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewALNS(ALNSConfig{}).Solve(ctx, splitCorridor(t), params())
	require.NoError(t, err)
	assert.Equal(t, routing.Timeout, res.Status)
	assert.Zero(t, res.Iterations)
}

func TestAutoDispatch(t *testing.T) {
	p := params()
	p.TimeLimit = 50 * time.Millisecond
	res, err := NewAuto(DefaultExactMaxTasks, ALNSConfig{}).Solve(context.Background(), splitCorridor(t), p)
	require.NoError(t, err)
	assert.Equal(t, routing.Infeasible, res.Status, "small models go to the exact engine")

	res, err = NewAuto(1, ALNSConfig{}).Solve(context.Background(), splitCorridor(t), p)
	require.NoError(t, err)
	assert.Equal(t, routing.Timeout, res.Status, "larger models go to ALNS")
}

func TestRegistry(t *testing.T) {
	assert.ElementsMatch(t, []string{TypeALNS, TypeAuto, TypeExact}, Types())

	s, err := New(factory.ModuleConfig{Type: TypeALNS, Conf: map[string]any{"cooling": 0.9, "max_removal": 2}})
	require.NoError(t, err)
	a, ok := s.(*ALNS)
	require.True(t, ok)
	assert.Equal(t, 0.9, a.cfg.Cooling)
	assert.Equal(t, 2, a.cfg.MaxRemoval)
	assert.Equal(t, 500, a.cfg.StallLimit)

	s, err = New(factory.ModuleConfig{Type: TypeAuto, Conf: map[string]any{"exact_max_tasks": 0}})
	require.NoError(t, err)
	assert.Equal(t, 0, s.(*Auto).ExactMaxTasks)

	_, err = New(factory.ModuleConfig{Type: "cp-sat"})
	assert.Error(t, err)
}

// denseDistances is a hand-written cell distance table.
type denseDistances [][]int64

func (d denseDistances) Cells() int { return len(d) }
func (d denseDistances) At(from, to int) int64 { return d[from][to] }

// shortcutModel has one robot on cell 0 and two tasks, 1->2 and 3->4. The
// direct arc 0->1 costs 10 but the detour 0->3->1 costs 2, so task 0 misses
// a makespan of 5 on its own and fits once task 1 is served alongside it.
func shortcutModel(t *testing.T, makespan int64) *routing.Model {
	t.Helper()
	const far = 50
	d := make(denseDistances, 5)
	for i := range d {
		d[i] = make([]int64, 5)
		for j := range d[i] {
			if i != j {
				d[i][j] = far
			}
		}
	}
	d[0][1] = 10
	d[0][3], d[3][1], d[1][2], d[2][4], d[3][4] = 1, 1, 1, 1, 1
	tasks := []model.Task{{ID: 0, Pickup: 1, Delivery: 2}, {ID: 1, Pickup: 3, Delivery: 4}}
	r, err := reduce.Reduce(d, []int{0}, tasks)
	require.NoError(t, err)
	m, err := routing.Build(r, 2, makespan, routing.BuildOptions{SpanCostCoefficient: routing.DefaultSpanCostCoefficient})
	require.NoError(t, err)
	return m
}

func TestShortcutDistancesAreNotProof(t *testing.T) {
	m := shortcutModel(t, 5)
	req, ok := unservable(m)
	require.True(t, ok)
	assert.Equal(t, 1, req.Pickup)
	assert.False(t, provesInfeasible(m, req))

	grid := buildModel(t, square, []int{0}, [][2]int{{2, 8}}, 1, 3)
	req, ok = unservable(grid)
	require.True(t, ok)
	assert.True(t, provesInfeasible(grid, req))
}

func TestShortcutDistancesStillSolve(t *testing.T) {
	for name, s := range engines() {
		t.Run(name, func(t *testing.T) {
			m := shortcutModel(t, 5)
			res, err := s.Solve(context.Background(), m, params())
			require.NoError(t, err)
			require.Equal(t, routing.Feasible, res.Status)
			assert.Equal(t, [][]int{{0, 3, 1, 2, 4, 5}}, res.Routes)
			_, err = m.CheckRoutes(res.Routes)
			assert.NoError(t, err)
		})
	}
}

func TestALNSDoesNotClaimProofOnShortcutDistances(t *testing.T) {
	// the joint route needs 4, so makespan 3 is truly infeasible, but only
	// the exhaustive engine can show it
	p := params()
	p.TimeLimit = 50 * time.Millisecond
	res, err := NewALNS(ALNSConfig{}).Solve(context.Background(), shortcutModel(t, 3), p)
	require.NoError(t, err)
	assert.Equal(t, routing.Timeout, res.Status)

	res, err = NewExact().Solve(context.Background(), shortcutModel(t, 3), params())
	require.NoError(t, err)
	assert.Equal(t, routing.Infeasible, res.Status)
}

func TestRemoveRejectsRouteBrokenByShortcut(t *testing.T) {
	m := shortcutModel(t, 5)
	p, ok := newPlan(m)
	require.True(t, ok)
	greedyInsert(p)
	require.True(t, p.complete())
	reqs := m.Requests()

	// dropping task 1 leaves 0->1->2, which costs 11
	c := p.clone()
	assert.False(t, c.remove([]routing.Request{reqs[1]}))

	c = p.clone()
	assert.True(t, c.remove(reqs))
	assert.Len(t, c.unassigned, 2)
	assert.Empty(t, c.routes[0])
}

func TestResultRejectsIncompletePlan(t *testing.T) {
	m := shortcutModel(t, 5)
	p, ok := newPlan(m)
	require.True(t, ok)
	_, err := p.result(0)
	assert.ErrorIs(t, err, routing.ErrViolation)
}
