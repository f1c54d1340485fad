package model

import "fmt"

// Coord identifies a grid cell by row and column.
type Coord struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// String returns the "row,col" form used by the instance files.
func (c Coord) String() string {
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

// Dims describes a rectangular grid of Rows x Cols cells. Cells are
// linearised row-major: index = row*Cols + col.
type Dims struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Validate checks that both sides are positive.
func (d Dims) Validate() error {
	if d.Rows <= 0 || d.Cols <= 0 {
		return fmt.Errorf("grid %dx%d: %w", d.Rows, d.Cols, ErrMalformedInput)
	}
	return nil
}

// Cells returns the number of cells in the grid.
func (d Dims) Cells() int { return d.Rows * d.Cols }

// Contains reports whether c lies inside the grid.
func (d Dims) Contains(c Coord) bool {
	return c.Row >= 0 && c.Row < d.Rows && c.Col >= 0 && c.Col < d.Cols
}

// ContainsIndex reports whether the linear index i addresses a cell of the grid.
func (d Dims) ContainsIndex(i int) bool {
	return i >= 0 && i < d.Cells()
}

// Index converts a coordinate to its linear index. The coordinate is not
// range checked; use Contains first when the input is untrusted.
func (d Dims) Index(c Coord) int {
	return c.Row*d.Cols + c.Col
}

// Coord converts a linear index back to its coordinate. It is the inverse of
// Index for every cell of the grid.
func (d Dims) Coord(i int) Coord {
	return Coord{Row: i / d.Cols, Col: i % d.Cols}
}
