package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cmapd/app"
	"github.com/kilianp07/cmapd/core/assign"
	"github.com/kilianp07/cmapd/infra/logger"
)

var solveFlags struct {
	agents   string
	tasks    string
	capacity int64
	gridPath string
	dmPath   string
	out      string
	format   string
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Assign tasks to robots and write the waypoint sequences",
	RunE:  solve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveFlags.agents, "a", "", "agents file")
	f.StringVar(&solveFlags.tasks, "t", "", "tasks file")
	f.Int64Var(&solveFlags.capacity, "c", 0, "robot capacity (overrides search.capacity)")
	f.StringVar(&solveFlags.gridPath, "grid_path", "", "grid map used to compute distances")
	f.StringVar(&solveFlags.dmPath, "dm_path", "", "precomputed distance matrix (.npy)")
	f.StringVar(&solveFlags.out, "out", "", "output file, stdout when empty")
	f.StringVar(&solveFlags.format, "format", "", "output format: json, csv or html")
	rootCmd.AddCommand(solveCmd)
}

// applySolveFlags copies explicitly set flags over the loaded configuration.
func applySolveFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("a") {
		cfg.Instance.Agents = solveFlags.agents
	}
	if f.Changed("t") {
		cfg.Instance.Tasks = solveFlags.tasks
	}
	if f.Changed("c") {
		cfg.Search.Capacity = solveFlags.capacity
	}
	if f.Changed("grid_path") {
		cfg.Instance.GridPath = solveFlags.gridPath
	}
	if f.Changed("dm_path") {
		cfg.Instance.DMPath = solveFlags.dmPath
	}
	if f.Changed("out") {
		cfg.Output.Path = solveFlags.out
	}
	if f.Changed("format") {
		cfg.Output.Format = solveFlags.format
	}
	return cfg.Validate()
}

func solve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := applySolveFlags(cmd); err != nil {
		return err
	}
	logg := logger.New("solve")
	req, err := app.LoadRequest(cfg.Instance)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	metricsCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := svc.ServeMetrics(metricsCtx); err != nil {
			logg.Errorf("prometheus server: %v", err)
		}
	}()

	// An exhausted search has already written the empty assignment.
	if _, err := svc.Solve(ctx, req); err != nil && !errors.Is(err, assign.ErrSearchExhausted) {
		return err
	}
	return nil
}
