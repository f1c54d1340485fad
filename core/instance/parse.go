// Package instance reads and writes the robot (agents) and task files of a
// planning instance and generates random instances on a grid.
package instance

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/cmapd/core/model"
)

// lineReader yields trimmed lines and tracks the current line number.
type lineReader struct {
	sc     *bufio.Scanner
	source string
	line   int
}

func newLineReader(r io.Reader, source string) *lineReader {
	return &lineReader{sc: bufio.NewScanner(r), source: source}
}

func (l *lineReader) next(what string) (string, error) {
	if !l.sc.Scan() {
		if err := l.sc.Err(); err != nil {
			return "", l.fail(err)
		}
		l.line++
		return "", l.fail(fmt.Errorf("unexpected end of file, want %s", what))
	}
	l.line++
	return strings.TrimSpace(l.sc.Text()), nil
}

func (l *lineReader) fail(err error) error {
	return &model.InputError{Source: l.source, Line: l.line, Err: err}
}

// ints parses exactly n comma separated integers.
func (l *lineReader) ints(text string, n int) ([]int, error) {
	parts := strings.Split(text, ",")
	if len(parts) != n {
		return nil, l.fail(fmt.Errorf("want %d comma separated values, got %q", n, text))
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, l.fail(fmt.Errorf("value %q: %w", p, err))
		}
		out[i] = v
	}
	return out, nil
}

func (l *lineReader) count(what string) (int, error) {
	text, err := l.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0, l.fail(fmt.Errorf("invalid %s %q", what, text))
	}
	return n, nil
}

func (l *lineReader) cell(d model.Dims, row, col int) (int, error) {
	c := model.Coord{Row: row, Col: col}
	if !d.Contains(c) {
		return 0, l.fail(fmt.Errorf("cell %v outside %dx%d grid", c, d.Rows, d.Cols))
	}
	return d.Index(c), nil
}

// ParseAgents reads an agents file: "nRows,nCols", then the robot count, then
// one "row,col" line per robot.
func ParseAgents(r io.Reader, source string) (model.Dims, []model.Robot, error) {
	lr := newLineReader(r, source)
	text, err := lr.next("grid size")
	if err != nil {
		return model.Dims{}, nil, err
	}
	size, err := lr.ints(text, 2)
	if err != nil {
		return model.Dims{}, nil, err
	}
	dims := model.Dims{Rows: size[0], Cols: size[1]}
	if err := dims.Validate(); err != nil {
		return model.Dims{}, nil, lr.fail(err)
	}
	n, err := lr.count("robot count")
	if err != nil {
		return model.Dims{}, nil, err
	}
	robots := make([]model.Robot, 0, n)
	for i := 0; i < n; i++ {
		text, err := lr.next(fmt.Sprintf("robot %d", i))
		if err != nil {
			return model.Dims{}, nil, err
		}
		rc, err := lr.ints(text, 2)
		if err != nil {
			return model.Dims{}, nil, err
		}
		cell, err := lr.cell(dims, rc[0], rc[1])
		if err != nil {
			return model.Dims{}, nil, err
		}
		robots = append(robots, model.Robot{ID: i, Start: cell})
	}
	return dims, robots, nil
}

// ParseTasks reads a tasks file: the task count, then one
// "pickupRow,pickupCol,deliveryRow,deliveryCol" line per task.
func ParseTasks(r io.Reader, source string, dims model.Dims) ([]model.Task, error) {
	lr := newLineReader(r, source)
	n, err := lr.count("task count")
	if err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, n)
	for i := 0; i < n; i++ {
		text, err := lr.next(fmt.Sprintf("task %d", i))
		if err != nil {
			return nil, err
		}
		v, err := lr.ints(text, 4)
		if err != nil {
			return nil, err
		}
		pickup, err := lr.cell(dims, v[0], v[1])
		if err != nil {
			return nil, err
		}
		delivery, err := lr.cell(dims, v[2], v[3])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, model.Task{ID: i, Pickup: pickup, Delivery: delivery})
	}
	return tasks, nil
}

// LoadAgents opens and parses an agents file.
func LoadAgents(path string) (model.Dims, []model.Robot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Dims{}, nil, &model.InputError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return ParseAgents(f, path)
}

// LoadTasks opens and parses a tasks file for a grid of the given size.
func LoadTasks(path string, dims model.Dims) ([]model.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.InputError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return ParseTasks(f, path, dims)
}

// Load reads both files of an instance. The grid size comes from the agents
// file.
func Load(agentsPath, tasksPath string) (*model.Instance, error) {
	dims, robots, err := LoadAgents(agentsPath)
	if err != nil {
		return nil, err
	}
	tasks, err := LoadTasks(tasksPath, dims)
	if err != nil {
		return nil, err
	}
	return &model.Instance{Dims: dims, Robots: robots, Tasks: tasks}, nil
}
