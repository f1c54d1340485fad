package instance

import (
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kilianp07/cmapd/core/grid"
)

func TestGeneratorDistinctCells(t *testing.T) {
	g, err := grid.Parse(strings.NewReader("G.G.G\n.@@@.\nG.G.G\n"), "map")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	gen := NewGenerator(g, rand.New(rand.NewSource(7)))
	in, err := gen.Generate(2, 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(in.Robots) != 2 || len(in.Tasks) != 2 {
		t.Fatalf("unexpected sizes: %d robots %d tasks", len(in.Robots), len(in.Tasks))
	}
	endpoints := map[int]bool{}
	for _, e := range g.Endpoints() {
		endpoints[e] = true
	}
	used := map[int]bool{}
	mark := func(c int) {
		if !endpoints[c] {
			t.Fatalf("cell %d is not an endpoint", c)
		}
		if used[c] {
			t.Fatalf("cell %d used twice", c)
		}
		used[c] = true
	}
	for _, r := range in.Robots {
		mark(r.Start)
	}
	for _, task := range in.Tasks {
		mark(task.Pickup)
		mark(task.Delivery)
	}
}

func TestGeneratorReproducible(t *testing.T) {
	g, err := grid.Parse(strings.NewReader(".....\n.....\n.....\n"), "map")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a, _ := NewGenerator(g, rand.New(rand.NewSource(42))).Generate(3, 4)
	b, _ := NewGenerator(g, rand.New(rand.NewSource(42))).Generate(3, 4)
	for i := range a.Tasks {
		if a.Tasks[i] != b.Tasks[i] {
			t.Fatalf("same seed produced different tasks: %v vs %v", a.Tasks[i], b.Tasks[i])
		}
	}
}

func TestGeneratorNotEnoughEndpoints(t *testing.T) {
	g, err := grid.Parse(strings.NewReader("G.\n@G\n"), "map")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = NewGenerator(g, rand.New(rand.NewSource(1))).Generate(1, 1)
	if !errors.Is(err, ErrNotEnoughEndpoints) {
		t.Fatalf("expected ErrNotEnoughEndpoints, got %v", err)
	}
}

func TestGenerateFiles(t *testing.T) {
	g, err := grid.Parse(strings.NewReader("....\n....\n"), "map")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := t.TempDir()
	dir, err := NewGenerator(g, rand.New(rand.NewSource(3))).GenerateFiles(root, 2, 1, 2)
	if err != nil {
		t.Fatalf("generate files: %v", err)
	}
	if dir != filepath.Join(root, "a1_t2") {
		t.Fatalf("unexpected dir %s", dir)
	}
	for _, i := range []string{"0", "1"} {
		in, err := Load(filepath.Join(dir, i+".agents"), filepath.Join(dir, i+".tasks"))
		if err != nil {
			t.Fatalf("load %s: %v", i, err)
		}
		if len(in.Robots) != 1 || len(in.Tasks) != 2 {
			t.Fatalf("instance %s has %d robots %d tasks", i, len(in.Robots), len(in.Tasks))
		}
	}
}
