package cmd

import (
	"fmt"
	"os"

	"bucketcrop/journal"
	"bucketcrop/utils"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		journalPath string
		limit       int
		showErrors  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded export runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := utils.ResolveJournalPath(journalPath, opts.cfg.JournalPath)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return fmt.Errorf("journal does not exist: %s. Run export first", path)
			}

			db, err := journal.OpenDatabase(path)
			if err != nil {
				return fmt.Errorf("error opening journal: %w", err)
			}
			defer db.Close()

			runs, err := journal.ListRuns(db, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No export runs recorded.")
				return nil
			}

			for _, run := range runs {
				fmt.Fprintln(out, journal.FormatRun(run))
				if !showErrors || run.Failed == 0 {
					continue
				}
				failed, err := journal.FailedItems(db, run.ID)
				if err != nil {
					return err
				}
				for _, line := range failed {
					fmt.Fprintf(out, "    %s\n", line)
				}
			}

			stats, err := journal.GetRunStats(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nSummary:\n")
			fmt.Fprintf(out, "- Runs: %d\n", stats.Runs)
			fmt.Fprintf(out, "- Images exported: %d of %d (%d failed, %d skipped)\n",
				stats.Exported, stats.TotalImages, stats.Failed, stats.Skipped)
			fmt.Fprintf(out, "- Distinct source files exported: %d\n", stats.DistinctFiles)
			fmt.Fprintf(out, "- Companion files copied: %d\n", stats.Companions)
			return nil
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "Export journal database (default next to the executable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&showErrors, "errors", false, "List failed images of each run")

	return cmd
}
