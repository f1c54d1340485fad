package grid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kilianp07/cmapd/core/model"
)

// Map characters understood by Parse.
const (
	Obstacle = '@'
	Endpoint = 'G'
	Floor    = '.'
	Robot    = 'r'
)

// Grid is a rectangular occupancy grid.
type Grid struct {
	dims      model.Dims
	blocked   []bool
	endpoints []int
}

// New returns an obstacle-free grid of the given size.
func New(dims model.Dims) (*Grid, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	return &Grid{dims: dims, blocked: make([]bool, dims.Cells())}, nil
}

// Load reads a grid map file.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.InputError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return Parse(f, path)
}

// Parse reads one text line per row. The column count is taken from the first
// non-empty line and every following row must be at least that wide.
func Parse(r io.Reader, source string) (*Grid, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			if len(rows) == 0 {
				continue
			}
			break
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, &model.InputError{Source: source, Err: err}
	}
	if len(rows) == 0 {
		return nil, &model.InputError{Source: source, Err: fmt.Errorf("empty grid")}
	}
	dims := model.Dims{Rows: len(rows), Cols: len(rows[0])}
	g := &Grid{dims: dims, blocked: make([]bool, dims.Cells())}
	for r, line := range rows {
		if len(line) < dims.Cols {
			return nil, &model.InputError{Source: source, Line: r + 1, Err: fmt.Errorf("row has %d cells, want %d", len(line), dims.Cols)}
		}
		for c := 0; c < dims.Cols; c++ {
			idx := dims.Index(model.Coord{Row: r, Col: c})
			switch line[c] {
			case Obstacle:
				g.blocked[idx] = true
			case Endpoint:
				g.endpoints = append(g.endpoints, idx)
			}
		}
	}
	return g, nil
}

// Dims returns the grid size.
func (g *Grid) Dims() model.Dims { return g.dims }

// Blocked reports whether the cell is an obstacle.
func (g *Grid) Blocked(cell int) bool { return g.blocked[cell] }

// SetBlocked marks or clears an obstacle.
func (g *Grid) SetBlocked(cell int, blocked bool) { g.blocked[cell] = blocked }

// Endpoints returns the cells marked as task/robot endpoints.
func (g *Grid) Endpoints() []int {
	out := make([]int, len(g.endpoints))
	copy(out, g.endpoints)
	return out
}

// FreeCells returns every non-obstacle cell in index order.
func (g *Grid) FreeCells() []int {
	var out []int
	for i, b := range g.blocked {
		if !b {
			out = append(out, i)
		}
	}
	return out
}

// Neighbors appends the free 4-connected neighbours of cell to dst.
func (g *Grid) Neighbors(dst []int, cell int) []int {
	c := g.dims.Coord(cell)
	for _, d := range [4]model.Coord{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}} {
		n := model.Coord{Row: c.Row + d.Row, Col: c.Col + d.Col}
		if !g.dims.Contains(n) {
			continue
		}
		idx := g.dims.Index(n)
		if !g.blocked[idx] {
			dst = append(dst, idx)
		}
	}
	return dst
}

// CheckDims returns an error when the grid does not match the size announced
// by an instance file.
func (g *Grid) CheckDims(d model.Dims) error {
	if g.dims != d {
		return fmt.Errorf("grid is %dx%d, instance expects %dx%d: %w", g.dims.Rows, g.dims.Cols, d.Rows, d.Cols, model.ErrMalformedInput)
	}
	return nil
}
