package config

import (
	"github.com/kilianp07/cmapd/pkg/export"
)

// InstanceConfig locates the files of a planning problem.
type InstanceConfig struct {
	GridPath string `json:"grid_path"`
	DMPath   string `json:"dm_path"`
	Agents   string `json:"agents"`
	Tasks    string `json:"tasks"`
}

// OutputConfig selects where and how assignments are written.
type OutputConfig struct {
	Format string `json:"format"`
	// Path is the output file; empty or "-" writes to stdout.
	Path string `json:"path"`
}

// SetDefaults selects JSON output.
func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = string(export.FormatJSON)
	}
}

// Validate checks the output format.
func (c OutputConfig) Validate() error {
	_, err := export.ParseFormat(c.Format)
	return err
}
