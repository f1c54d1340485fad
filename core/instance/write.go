package instance

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kilianp07/cmapd/core/model"
)

// WriteAgents encodes robots in the agents file format.
func WriteAgents(w io.Writer, dims model.Dims, robots []model.Robot) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d,%d\n%d\n", dims.Rows, dims.Cols, len(robots))
	for _, r := range robots {
		fmt.Fprintf(bw, "%s\n", dims.Coord(r.Start))
	}
	return bw.Flush()
}

// WriteTasks encodes tasks in the tasks file format.
func WriteTasks(w io.Writer, dims model.Dims, tasks []model.Task) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(bw, "%s,%s\n", dims.Coord(t.Pickup), dims.Coord(t.Delivery))
	}
	return bw.Flush()
}
