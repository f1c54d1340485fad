package routing

import (
	"fmt"

	"github.com/kilianp07/cmapd/core/reduce"
)

const (
	// DistanceDimension bounds the travel of every robot by the makespan.
	DistanceDimension = "Distance"
	// CapacityDimension bounds the number of carried items.
	CapacityDimension = "Capacity"
	// DefaultSpanCostCoefficient weights the longest route in the objective.
	DefaultSpanCostCoefficient int64 = 100
)

// BuildOptions tunes the objective of built models.
type BuildOptions struct {
	SpanCostCoefficient int64
}

// Build encodes one fixed-makespan pickup-and-delivery problem over a
// reduced matrix. Robot i is vehicle i starting at its origin node; every
// vehicle ends at the sink. A fresh model is built for every call.
func Build(r *reduce.Matrix, capacity, makespan int64, opts BuildOptions) (*Model, error) {
	if capacity < 0 || makespan < 0 {
		return nil, fmt.Errorf("capacity %d, makespan %d: %w", capacity, makespan, ErrInvalidModel)
	}
	starts := make([]int, r.NumRobots())
	ends := make([]int, r.NumRobots())
	for v := range starts {
		starts[v] = r.RobotNode(v)
		ends[v] = r.Sink()
	}
	m, err := NewModel(r.Size(), starts, ends)
	if err != nil {
		return nil, err
	}

	distance := m.RegisterTransitCallback(r.At)
	if err := m.SetArcCostEvaluatorOfAllVehicles(distance); err != nil {
		return nil, err
	}
	if err := m.AddDimension(distance, 0, makespan, true, DistanceDimension); err != nil {
		return nil, err
	}
	dist, err := m.Dimension(DistanceDimension)
	if err != nil {
		return nil, err
	}
	dist.SetGlobalSpanCostCoefficient(opts.SpanCostCoefficient)

	demand := m.RegisterUnaryTransitCallback(r.Demand)
	caps := make([]int64, r.NumRobots())
	for v := range caps {
		caps[v] = capacity
	}
	if err := m.AddDimensionWithVehicleCapacity(demand, 0, caps, true, CapacityDimension); err != nil {
		return nil, err
	}

	// pickup precedes delivery on the same route, so with non-negative
	// distances cumul(pickup) <= cumul(delivery) on the distance dimension
	for t := 0; t < r.NumTasks(); t++ {
		if err := m.AddPickupAndDelivery(r.PickupNode(t), r.DeliveryNode(t)); err != nil {
			return nil, fmt.Errorf("task %d: %w", t, err)
		}
	}
	return m, nil
}
