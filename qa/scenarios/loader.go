// Package scenarios loads YAML planning scenarios and checks the planner's
// answer against their expectations.
package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/core/model"
)

// TaskDef is a pickup/delivery pair in grid coordinates.
type TaskDef struct {
	Pickup   model.Coord `yaml:"pickup"`
	Delivery model.Coord `yaml:"delivery"`
}

// SearchDef overrides the makespan search settings.
type SearchDef struct {
	MinMakespan      int64   `yaml:"min_makespan"`
	MaxMakespan      int64   `yaml:"max_makespan"`
	TimeLimitSeconds float64 `yaml:"time_limit_seconds"`
	TimeoutRetries   int     `yaml:"timeout_retries"`
	Seed             int64   `yaml:"seed"`
}

// Expected holds what a correct planner must report. Routes and Owners are
// optional; Owners maps a task index to the robot that must serve it.
type Expected struct {
	Feasible bool            `yaml:"feasible"`
	Makespan int64           `yaml:"makespan,omitempty"`
	Routes   [][]model.Coord `yaml:"routes,omitempty"`
	Owners   map[int]int     `yaml:"owners,omitempty"`
	Distinct bool            `yaml:"distinct_robots,omitempty"`
	Extra    map[string]any  `yaml:",inline"`
}

// Scenario is one planning problem with its expected outcome.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Grid        []string      `yaml:"grid"`
	Robots      []model.Coord `yaml:"robots"`
	Tasks       []TaskDef     `yaml:"tasks"`
	Capacity    int64         `yaml:"capacity"`
	Solver      string        `yaml:"solver,omitempty"`
	Search      SearchDef     `yaml:"search"`
	Expected    Expected      `yaml:"expected"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(sc.Expected.Extra) > 0 {
		keys := make([]string, 0, len(sc.Expected.Extra))
		for k := range sc.Expected.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown expectation keys %v", path, keys)
	}
	return &sc, nil
}

// LoadDir reads every *.yaml file of dir in name order.
func LoadDir(dir string) ([]*Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Instance builds the grid and planning instance of the scenario.
func (sc *Scenario) Instance() (*grid.Grid, *model.Instance, error) {
	g, err := grid.Parse(strings.NewReader(strings.Join(sc.Grid, "\n")), sc.Name)
	if err != nil {
		return nil, nil, err
	}
	dims := g.Dims()
	cell := func(c model.Coord, what string) (int, error) {
		if !dims.Contains(c) {
			return 0, fmt.Errorf("%s %s outside %dx%d grid: %w", what, c, dims.Rows, dims.Cols, model.ErrMalformedInput)
		}
		return dims.Index(c), nil
	}
	in := &model.Instance{Dims: dims}
	for i, c := range sc.Robots {
		idx, err := cell(c, fmt.Sprintf("robot %d", i))
		if err != nil {
			return nil, nil, err
		}
		in.Robots = append(in.Robots, model.Robot{ID: i, Start: idx})
	}
	for i, t := range sc.Tasks {
		p, err := cell(t.Pickup, fmt.Sprintf("task %d pickup", i))
		if err != nil {
			return nil, nil, err
		}
		d, err := cell(t.Delivery, fmt.Sprintf("task %d delivery", i))
		if err != nil {
			return nil, nil, err
		}
		in.Tasks = append(in.Tasks, model.Task{ID: i, Pickup: p, Delivery: d})
	}
	return g, in, nil
}
