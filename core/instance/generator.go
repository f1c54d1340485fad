package instance

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/core/model"
)

// ErrNotEnoughEndpoints is returned when the grid cannot host the requested
// number of distinct robot and task cells.
var ErrNotEnoughEndpoints = errors.New("not enough endpoints")

// Generator draws random instances from the endpoint cells of a grid. When
// the map declares no endpoints every free cell is a candidate.
type Generator struct {
	grid *grid.Grid
	rng  *rand.Rand
}

// NewGenerator returns a generator driven by the provided random source.
func NewGenerator(g *grid.Grid, rng *rand.Rand) *Generator {
	return &Generator{grid: g, rng: rng}
}

func (g *Generator) candidates() []int {
	if eps := g.grid.Endpoints(); len(eps) > 0 {
		return eps
	}
	return g.grid.FreeCells()
}

// Generate draws one instance. Robots and task endpoints are pairwise
// distinct cells.
func (g *Generator) Generate(nAgents, nTasks int) (model.Instance, error) {
	cells := g.candidates()
	need := nAgents + 2*nTasks
	if nAgents < 0 || nTasks < 0 || need > len(cells) {
		return model.Instance{}, fmt.Errorf("%d agents and %d tasks need %d cells, grid has %d: %w", nAgents, nTasks, need, len(cells), ErrNotEnoughEndpoints)
	}
	g.rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })
	in := model.Instance{Dims: g.grid.Dims()}
	for a := 0; a < nAgents; a++ {
		in.Robots = append(in.Robots, model.Robot{ID: a, Start: cells[a]})
	}
	for t, k := 0, nAgents; t < nTasks; t, k = t+1, k+2 {
		in.Tasks = append(in.Tasks, model.Task{ID: t, Pickup: cells[k], Delivery: cells[k+1]})
	}
	return in, nil
}

// Dir returns the directory holding instances of the given size under root.
func Dir(root string, nAgents, nTasks int) string {
	return filepath.Join(root, fmt.Sprintf("a%d_t%d", nAgents, nTasks))
}

// GenerateFiles writes n instances as <root>/a{A}_t{T}/{i}.agents and
// {i}.tasks and returns the directory.
func (g *Generator) GenerateFiles(root string, n, nAgents, nTasks int) (string, error) {
	dir := Dir(root, nAgents, nTasks)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	for i := 0; i < n; i++ {
		in, err := g.Generate(nAgents, nTasks)
		if err != nil {
			return "", err
		}
		if err := writeFile(filepath.Join(dir, fmt.Sprintf("%d.agents", i)), func(f *os.File) error {
			return WriteAgents(f, in.Dims, in.Robots)
		}); err != nil {
			return "", err
		}
		if err := writeFile(filepath.Join(dir, fmt.Sprintf("%d.tasks", i)), func(f *os.File) error {
			return WriteTasks(f, in.Dims, in.Tasks)
		}); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
