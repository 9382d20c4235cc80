package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	"bucketcrop/exporter"
	"bucketcrop/imageprocessor"
	"bucketcrop/journal"
	"bucketcrop/logging"
	"bucketcrop/session"
	"bucketcrop/types"
	"bucketcrop/utils"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		sessionPath  string
		outputDir    string
		noCompanions bool
		workers      int
		engineName   string
		journalPath  string
		noJournal    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Crop and resize every committed image of a session into a folder",
		Long: `Reads a session file and writes each image that has a committed crop
(cropped: true with crop_params) to the output folder under its original name,
cropped and resized to its bucket size. Images without a committed crop are
skipped. Sidecar files (.txt .json .caption .tags) are copied next to each
exported image unless --no-companions is set.

Per-image failures are reported and never stop the batch. Every run is
recorded in the export journal; see "bucketcrop history".`,
		Example: `  bucketcrop export --session run1.yaml --output ./dataset
  bucketcrop export --session run1.yaml --output ./dataset --workers 0 --engine imaging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if engineName != "" {
				cfg.Engine = engineName
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			sess, err := session.Load(sessionPath)
			if err != nil {
				return err
			}
			for _, change := range sess.SnapBuckets(cfg.Quantum) {
				logging.LogWarning("Session %s: %s", sessionPath, change)
			}

			engine, err := imageprocessor.NewEngine(cfg)
			if err != nil {
				return err
			}

			e := exporter.NewExporter(cfg, engine)
			e.Workers = workers
			if workers <= 0 {
				e.Workers = exporter.DefaultWorkers()
			}

			var rec *journal.Recorder
			if !noJournal {
				db, err := openJournal(utils.ResolveJournalPath(journalPath, cfg.JournalPath))
				if err != nil {
					logging.LogWarning("Export journal disabled: %v", err)
				} else {
					defer db.Close()
					rec, err = journal.StartRun(db, journal.RunInfo{
						SessionPath:  sessionPath,
						SourceFolder: sess.Folder,
						OutputDir:    outputDir,
						Engine:       engine.Name(),
						Total:        len(sess.Images),
					})
					if err != nil {
						logging.LogWarning("Export journal disabled: %v", err)
						rec = nil
					}
				}
			}

			progress := newExportProgress(cmd.ErrOrStderr(), len(sess.Images))
			e.OnItem = func(item types.ItemResult) {
				progress.update(item)
				if rec != nil {
					if err := rec.Record(item); err != nil {
						logging.LogWarning("%v", err)
					}
				}
			}

			outcome, exportErr := e.Export(cmd.Context(), sess.Images, sess.Dimensions(), outputDir, !noCompanions)
			elapsed := progress.finish()

			if rec != nil {
				if err := rec.Finish(outcome, exportErr); err != nil {
					logging.LogWarning("%v", err)
				}
			}

			printOutcome(cmd.OutOrStdout(), outcome, elapsed)
			return exportErr
		},
	}

	cmd.Flags().StringVarP(&sessionPath, "session", "s", "", "Session file written by scan (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output folder (required)")
	cmd.Flags().BoolVar(&noCompanions, "no-companions", false, "Do not copy sidecar files")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Images processed in parallel (0 picks from the CPU count)")
	cmd.Flags().StringVar(&engineName, "engine", "", "Image engine: opencv or imaging (default from config)")
	cmd.Flags().StringVar(&journalPath, "journal", "", "Export journal database (default next to the executable)")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Do not record this run in the journal")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// openJournal initializes the journal, retrying while the file is locked by another run
func openJournal(path string) (*sql.DB, error) {
	const maxRetries = 3

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		db, err := journal.InitDatabase(path)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if i < maxRetries-1 {
			logging.DebugLog("Error initializing journal (attempt %d/%d): %v - retrying...", i+1, maxRetries, err)
			time.Sleep(time.Duration(i+1) * 200 * time.Millisecond)
		}
	}
	return nil, fmt.Errorf("cannot open journal %s after %d attempts: %w", path, maxRetries, lastErr)
}

func printOutcome(out io.Writer, outcome types.ExportOutcome, elapsed time.Duration) {
	fmt.Fprintf(out, "Exported %d/%d images to %s in %v (%d failed, %d skipped)\n",
		outcome.Success, outcome.Total, outcome.OutputDir, elapsed.Round(time.Millisecond), outcome.Failed, outcome.Skipped)
	for _, msg := range outcome.Errors {
		fmt.Fprintf(out, "  - %s\n", msg)
	}
}
