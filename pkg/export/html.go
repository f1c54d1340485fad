package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/cmapd/core/model"
)

// WriteHTML renders every robot's waypoints as a line series on a col/row
// plane.
func WriteHTML(w io.Writer, a model.Assignment, title string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d robots", len(a))}),
		charts.WithXAxisOpts(opts.XAxis{Name: "col", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "row", Type: "value"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}),
	)
	for robot, route := range a {
		data := make([]opts.LineData, len(route))
		for i, c := range route {
			data[i] = opts.LineData{Value: []int{c.Col, c.Row}, Name: fmt.Sprintf("step %d", i)}
		}
		line.AddSeries(fmt.Sprintf("robot %d", robot), data)
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
