package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cmapd/core/grid"
	"github.com/kilianp07/cmapd/infra/logger"
)

var distFlags struct {
	gridPath string
	out      string
}

var distmatrixCmd = &cobra.Command{
	Use:   "distmatrix",
	Short: "Compute the all-pairs distance matrix of a grid map",
	RunE:  distmatrix,
}

func init() {
	distmatrixCmd.Flags().StringVar(&distFlags.gridPath, "grid_path", "", "grid map")
	distmatrixCmd.Flags().StringVar(&distFlags.out, "out", "", "output .npy file")
	rootCmd.AddCommand(distmatrixCmd)
}

func distmatrix(cmd *cobra.Command, args []string) error {
	if distFlags.gridPath == "" {
		distFlags.gridPath = cfg.Instance.GridPath
	}
	if distFlags.gridPath == "" || distFlags.out == "" {
		return errors.New("--grid_path and --out are required")
	}
	g, err := grid.Load(distFlags.gridPath)
	if err != nil {
		return err
	}
	d := grid.ComputeDistances(g)
	f, err := os.Create(distFlags.out)
	if err != nil {
		return err
	}
	if err := grid.WriteDistanceMatrix(f, d); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", distFlags.out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.New("distmatrix").Infof("wrote %dx%d matrix to %s", d.Cells(), d.Cells(), distFlags.out)
	return nil
}
