// Package reduce compresses the full grid distance matrix down to the nodes
// that take part in one planning instance.
//
// Node ordering is fixed: robot origins first (robot i is node i), then for
// every task in input order its pickup followed by its delivery, then a
// single sink node whose distance to and from every node is zero. The sink is
// the shared route end of every robot, which makes routes open: robots stop
// wherever their last delivery is.
package reduce

import (
	"fmt"

	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/core/model"
)

// ErrOutOfRange is returned when a robot or task cell is not addressable in
// the full matrix. It matches model.ErrMalformedInput.
var ErrOutOfRange = fmt.Errorf("cell out of range: %w", model.ErrMalformedInput)

// Distances is the read-only full matrix consumed by Reduce.
type Distances interface {
	Cells() int
	At(from, to int) int64
}

// Matrix is the reduced problem matrix together with the node bookkeeping
// derived from it. It is immutable and safe to share between solve attempts.
type Matrix struct {
	nRobots int
	nTasks  int
	values  [][]int64
	cells   []int
	nodes   map[int][]int
	demands []int64
}

// Reduce builds the reduced matrix for the given robot start cells and tasks.
func Reduce(full Distances, robots []int, tasks []model.Task) (*Matrix, error) {
	n := full.Cells()
	cells := make([]int, 0, len(robots)+2*len(tasks))
	cells = append(cells, robots...)
	for _, t := range tasks {
		cells = append(cells, t.Pickup, t.Delivery)
	}
	for node, c := range cells {
		if c < 0 || c >= n {
			return nil, fmt.Errorf("node %d references cell %d of %d: %w", node, c, n, ErrOutOfRange)
		}
	}

	size := len(cells) + 1
	values := make([][]int64, size)
	for i, from := range cells {
		row := make([]int64, size)
		for j, to := range cells {
			row[j] = full.At(from, to)
		}
		// row[size-1] stays 0: reaching the sink is free
		values[i] = row
	}
	values[size-1] = make([]int64, size)

	nodes := make(map[int][]int, len(cells))
	for node, c := range cells {
		nodes[c] = append(nodes[c], node)
	}
	return &Matrix{
		nRobots: len(robots),
		nTasks:  len(tasks),
		values:  values,
		cells:   cells,
		nodes:   nodes,
		demands: ComputeDemands(len(robots), len(tasks)),
	}, nil
}

// ComputeDemands returns the capacity delta of every non-sink node: 0 for
// robot origins, +1 for pickups and -1 for deliveries.
func ComputeDemands(nRobots, nTasks int) []int64 {
	demands := make([]int64, nRobots, nRobots+2*nTasks)
	for i := 0; i < nTasks; i++ {
		demands = append(demands, 1, -1)
	}
	return demands
}

// Size is the number of nodes including the sink: robots + 2*tasks + 1.
func (m *Matrix) Size() int { return len(m.values) }

// Sink returns the index of the synthetic end node.
func (m *Matrix) Sink() int { return len(m.values) - 1 }

// NumRobots returns the number of robot origin nodes.
func (m *Matrix) NumRobots() int { return m.nRobots }

// NumTasks returns the number of tasks.
func (m *Matrix) NumTasks() int { return m.nTasks }

// At returns the reduced travel cost between two nodes.
func (m *Matrix) At(from, to int) int64 { return m.values[from][to] }

// Row returns a copy of one matrix row.
func (m *Matrix) Row(i int) []int64 {
	out := make([]int64, len(m.values[i]))
	copy(out, m.values[i])
	return out
}

// RobotNode returns the origin node of robot r.
func (m *Matrix) RobotNode(r int) int { return r }

// PickupNode returns the pickup node of task t.
func (m *Matrix) PickupNode(t int) int { return m.nRobots + 2*t }

// DeliveryNode returns the delivery node of task t.
func (m *Matrix) DeliveryNode(t int) int { return m.nRobots + 2*t + 1 }

// Cell maps a node back to its grid cell. The sink has no cell.
func (m *Matrix) Cell(node int) (int, bool) {
	if node < 0 || node >= len(m.cells) {
		return 0, false
	}
	return m.cells[node], true
}

// Nodes returns every node located on the given cell, in node order. A cell
// shared by several robots or task endpoints maps to several nodes.
func (m *Matrix) Nodes(cell int) []int {
	return append([]int(nil), m.nodes[cell]...)
}

// Demands returns a copy of the demand vector (sink excluded).
func (m *Matrix) Demands() []int64 {
	return append([]int64(nil), m.demands...)
}

// Demand returns the capacity delta of a node; the sink contributes 0.
func (m *Matrix) Demand(node int) int64 {
	if node < 0 || node >= len(m.demands) {
		return 0
	}
	return m.demands[node]
}

// MaxDistance returns the largest finite entry of the reduced matrix.
// Entries equal to grid.Unreachable are ignored.
func (m *Matrix) MaxDistance() int64 {
	var best int64
	for _, row := range m.values {
		for _, v := range row {
			if v < grid.Unreachable && v > best {
				best = v
			}
		}
	}
	return best
}
