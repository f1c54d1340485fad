package main

import (
	"os"
	"time"

	"github.com/kilianp07/cmapd/cmd"
	coremon "github.com/kilianp07/cmapd/core/monitoring"
	"github.com/kilianp07/cmapd/infra/logger"
)

func main() {
	defer coremon.Recover()
	if err := cmd.Execute(); err != nil {
		coremon.CaptureException(err, coremon.Tags("module", "cli"))
		coremon.Flush(2 * time.Second)
		logger.New("main").Errorf("%v", err)
		os.Exit(1)
	}
}
