package assign

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/cmapd/core/reduce"
	"github.com/kilianp07/cmapd/core/routing"
)

// Summary describes how evenly a solution spreads work across robots.
type Summary struct {
	// RouteLengths is the travel of each robot, sink arcs excluded.
	RouteLengths  []float64 `json:"route_lengths"`
	TasksPerRobot []int     `json:"tasks_per_robot"`
	Total         float64   `json:"total"`
	Longest       float64   `json:"longest"`
	Mean          float64   `json:"mean"`
	StdDev        float64   `json:"std_dev"`
	Busy          int       `json:"busy"`
}

// Summarize computes route statistics for a feasible result. Other results
// yield a zero Summary.
func Summarize(r *reduce.Matrix, res routing.Result) Summary {
	if res.Status != routing.Feasible || len(res.Routes) == 0 {
		return Summary{}
	}
	s := Summary{
		RouteLengths:  make([]float64, len(res.Routes)),
		TasksPerRobot: make([]int, len(res.Routes)),
	}
	for v, route := range res.Routes {
		for i := 1; i < len(route); i++ {
			s.RouteLengths[v] += float64(r.At(route[i-1], route[i]))
			if r.Demand(route[i]) > 0 {
				s.TasksPerRobot[v]++
			}
		}
		if s.TasksPerRobot[v] > 0 {
			s.Busy++
		}
	}
	s.Total = floats.Sum(s.RouteLengths)
	s.Longest = floats.Max(s.RouteLengths)
	if len(s.RouteLengths) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(s.RouteLengths, nil)
	} else {
		s.Mean = s.RouteLengths[0]
	}
	return s
}
