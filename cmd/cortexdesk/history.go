package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fentz26/cortexdesk/internal/store"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the local journal of decisions and uploads",
	RunE:  runHistory,
}

var (
	historyAction  string
	historySubject string
	historyLimit   int
	historyPrune   time.Duration
)

func init() {
	historyCmd.Flags().StringVar(&historyAction, "action", "", "Only show this action (e.g. task.approve)")
	historyCmd.Flags().StringVar(&historySubject, "subject", "", "Only show entries for this subject")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "Maximum entries to show")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "Delete entries older than this duration (e.g. 720h)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	if e.store == nil {
		return fmt.Errorf("journal disabled (journal_path is empty)")
	}
	out := cmd.OutOrStdout()

	if historyPrune > 0 {
		n, err := e.store.PruneJournal(time.Now().Add(-historyPrune))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pruned %d entries\n", n)
		return nil
	}

	entries, err := e.store.ListJournal(store.JournalFilter{
		Action:  historyAction,
		Subject: historySubject,
		Limit:   historyLimit,
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No journal entries")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tSUBJECT\tOUTCOME\tDETAILS")
	for _, en := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(en.Timestamp), en.Action, en.Subject, en.Outcome, truncate(en.Details, 60))
	}
	return w.Flush()
}
