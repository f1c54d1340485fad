// Package cmd holds the cobra commands of the cmapd binary.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cmapd/config"
	coremon "github.com/kilianp07/cmapd/core/monitoring"
	"github.com/kilianp07/cmapd/infra/monitoring"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "cmapd",
	Short:         "Task assignment for multi-robot pickup and delivery",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		mon, err := monitoring.NewSentryMonitor(c.Sentry)
		if err != nil {
			return fmt.Errorf("sentry: %w", err)
		}
		coremon.Init(mon)
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
