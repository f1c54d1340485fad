package assign

import (
	"github.com/kilianp07/cmapd/core/model"
	"github.com/kilianp07/cmapd/core/reduce"
	"github.com/kilianp07/cmapd/core/routing"
)

// Extract maps the node sequence of every vehicle back to grid coordinates.
// Each route starts at the robot origin and stops before the sink. A result
// that is not Feasible yields an empty assignment.
func Extract(r *reduce.Matrix, dims model.Dims, res routing.Result) model.Assignment {
	if res.Status != routing.Feasible {
		return nil
	}
	out := make(model.Assignment, len(res.Routes))
	for v, route := range res.Routes {
		coords := make(model.Route, 0, len(route))
		for _, node := range route {
			if node == r.Sink() {
				break
			}
			if cell, ok := r.Cell(node); ok {
				coords = append(coords, dims.Coord(cell))
			}
		}
		out[v] = coords
	}
	return out
}
