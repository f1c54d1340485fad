package cmd

import (
	"errors"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/core/instance"
	"github.com/kilianp07/cmapd/infra/logger"
)

var genFlags struct {
	gridPath string
	agents   int
	tasks    int
	count    int
	root     string
	seed     int64
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate random agents and tasks files on a grid map",
	RunE:  generate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFlags.gridPath, "grid_path", "", "grid map")
	f.IntVar(&genFlags.agents, "a", 5, "robots per instance")
	f.IntVar(&genFlags.tasks, "t", 10, "tasks per instance")
	f.IntVar(&genFlags.count, "n", 1, "number of instances")
	f.StringVar(&genFlags.root, "root", "instances", "output directory")
	f.Int64Var(&genFlags.seed, "seed", 0, "random seed, time based when 0")
	rootCmd.AddCommand(generateCmd)
}

func generate(cmd *cobra.Command, args []string) error {
	if genFlags.gridPath == "" {
		genFlags.gridPath = cfg.Instance.GridPath
	}
	if genFlags.gridPath == "" {
		return errors.New("--grid_path is required")
	}
	g, err := grid.Load(genFlags.gridPath)
	if err != nil {
		return err
	}
	seed := genFlags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := instance.NewGenerator(g, rand.New(rand.NewSource(seed)))
	dir, err := gen.GenerateFiles(genFlags.root, genFlags.count, genFlags.agents, genFlags.tasks)
	if err != nil {
		return err
	}
	logger.New("generate").Infof("wrote %d instances to %s (seed %d)", genFlags.count, dir, seed)
	return nil
}
