package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cmapd/core/journal"
)

var histFlags struct {
	status string
	since  time.Duration
	runID  string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List planning runs recorded in the journal",
	RunE:  history,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&histFlags.status, "status", "", "filter by status: feasible, exhausted or failed")
	f.DurationVar(&histFlags.since, "since", 0, "only runs newer than this duration")
	f.StringVar(&histFlags.runID, "run", "", "filter by run id")
	rootCmd.AddCommand(historyCmd)
}

func history(cmd *cobra.Command, args []string) error {
	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return err
	}
	defer store.Close()

	q := journal.Query{Status: journal.Status(histFlags.status), RunID: histFlags.runID}
	if histFlags.since > 0 {
		q.Start = time.Now().Add(-histFlags.since)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tTIME\tSTATUS\tROBOTS\tTASKS\tCAPACITY\tMAKESPAN\tATTEMPTS\tDURATION")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.RunID, r.Timestamp.Format(time.RFC3339), r.Status, r.Robots, r.Tasks,
			r.Capacity, r.Makespan, r.Attempts, r.Duration)
	}
	return w.Flush()
}
