package grid

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sbinet/npyio/npy"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/cmapd/core/model"
)

// Unreachable is the distance stored between disconnected cells.
const Unreachable int64 = math.MaxInt32

// ErrShape is returned when a serialized matrix is not square.
var ErrShape = errors.New("distance matrix is not square")

// DistanceMatrix is a dense cells x cells travel cost matrix. Values are
// integral: they are truncated toward zero when the matrix is built.
type DistanceMatrix struct {
	m *mat.Dense
	n int
}

// NewDistanceMatrix builds an n x n matrix from row-major data. Negative or
// NaN entries are rejected, +Inf and values beyond Unreachable are clamped to
// Unreachable. data is modified in place.
func NewDistanceMatrix(n int, data []float64) (*DistanceMatrix, error) {
	if n <= 0 || len(data) != n*n {
		return nil, fmt.Errorf("%d values for %dx%d: %w", len(data), n, n, ErrShape)
	}
	for i, v := range data {
		switch {
		case math.IsNaN(v) || v < 0:
			return nil, fmt.Errorf("entry %d is %v: %w", i, v, model.ErrMalformedInput)
		case v >= float64(Unreachable):
			data[i] = float64(Unreachable)
		default:
			data[i] = math.Trunc(v)
		}
	}
	return &DistanceMatrix{m: mat.NewDense(n, n, data), n: n}, nil
}

// Cells returns the matrix side.
func (d *DistanceMatrix) Cells() int { return d.n }

// At returns the travel cost from one cell to another.
func (d *DistanceMatrix) At(from, to int) int64 {
	return int64(d.m.At(from, to))
}

// Matrix exposes the underlying values as a read-only gonum matrix.
func (d *DistanceMatrix) Matrix() mat.Matrix { return d.m }

// LoadDistanceMatrix reads a NumPy .npy file holding float64 distances with
// shape [rows, cols, rows, cols] or [cells, cells].
func LoadDistanceMatrix(path string) (*DistanceMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.InputError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return ReadDistanceMatrix(f, path)
}

// ReadDistanceMatrix decodes a .npy stream, see LoadDistanceMatrix.
func ReadDistanceMatrix(r io.Reader, source string) (*DistanceMatrix, error) {
	rd, err := npy.NewReader(r)
	if err != nil {
		return nil, &model.InputError{Source: source, Err: err}
	}
	shape := rd.Header.Descr.Shape
	var from, to int
	switch len(shape) {
	case 4:
		from, to = shape[0]*shape[1], shape[2]*shape[3]
	case 2:
		from, to = shape[0], shape[1]
	default:
		return nil, &model.InputError{Source: source, Err: fmt.Errorf("shape %v: %w", shape, ErrShape)}
	}
	if from != to {
		return nil, &model.InputError{Source: source, Err: fmt.Errorf("shape %v: %w", shape, ErrShape)}
	}
	var data []float64
	if err := rd.Read(&data); err != nil {
		return nil, &model.InputError{Source: source, Err: err}
	}
	dm, err := NewDistanceMatrix(from, data)
	if err != nil {
		return nil, &model.InputError{Source: source, Err: err}
	}
	return dm, nil
}

// WriteDistanceMatrix encodes the matrix as a [cells, cells] float64 .npy.
func WriteDistanceMatrix(w io.Writer, d *DistanceMatrix) error {
	return npy.Write(w, d.m)
}

// ComputeDistances runs a breadth-first search from every free cell with unit
// step cost over 4-connected free cells. Obstacles are unreachable from
// everywhere, including from themselves to any other cell.
func ComputeDistances(g *Grid) *DistanceMatrix {
	n := g.dims.Cells()
	data := make([]float64, n*n)
	for i := range data {
		data[i] = float64(Unreachable)
	}
	dist := make([]int, n)
	queue := make([]int, 0, n)
	var nbrs []int
	for src := 0; src < n; src++ {
		data[src*n+src] = 0
		if g.blocked[src] {
			continue
		}
		for i := range dist {
			dist[i] = -1
		}
		dist[src] = 0
		queue = append(queue[:0], src)
		for head := 0; head < len(queue); head++ {
			cur := queue[head]
			nbrs = g.Neighbors(nbrs[:0], cur)
			for _, nb := range nbrs {
				if dist[nb] >= 0 {
					continue
				}
				dist[nb] = dist[cur] + 1
				data[src*n+nb] = float64(dist[nb])
				queue = append(queue, nb)
			}
		}
	}
	return &DistanceMatrix{m: mat.NewDense(n, n, data), n: n}
}
