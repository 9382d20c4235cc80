package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"bucketcrop/imageprocessor"
	"bucketcrop/scanner"
	"bucketcrop/session"
	"bucketcrop/types"
	"bucketcrop/utils"

	"github.com/spf13/cobra"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		folder         string
		sessionPath    string
		acceptDefaults bool
		workers        int
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a folder, size the buckets and write a session file",
		Long: `Walks the folder recursively, reads the size of every supported image
(.jpg .jpeg .png .webp .bmp .tiff .gif), classifies each image and sizes the
landscape (A), square (B) and portrait (C) buckets. Every image gets a centred
default crop for its bucket. Unreadable files are skipped with a warning.

The session file can be edited before export: set cropped: true and adjust
crop_params per image, or change bucket sizes.`,
		Example: `  # Scan and review the suggested crops before exporting
  bucketcrop scan --folder ./raw

  # Scan and accept every suggested crop right away
  bucketcrop scan --folder ./raw --session run1.yaml --accept-defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := imageprocessor.NewProberRegistry(opts.cfg.Extensions)
			defer registry.Close()

			s := scanner.NewScanner(opts.cfg, registry)
			result, err := s.Scan(cmd.Context(), scanner.ScanOptions{
				FolderPath: folder,
				MaxWorkers: workers,
				Progress:   cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			sess := session.New(result.Folder, result.Images, result.Buckets)
			if acceptDefaults {
				sess.AcceptDefaults()
			}

			path := utils.ResolveSessionPath(sessionPath, result.Folder)
			if err := session.Save(path, sess); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d images in %s", len(result.Images), result.Folder)
			if len(result.Skipped) > 0 {
				fmt.Fprintf(out, " (%d unreadable files skipped)", len(result.Skipped))
			}
			fmt.Fprintln(out)
			printBuckets(out, result.Buckets)
			fmt.Fprintf(out, "%d of %d crops committed\n", sess.CroppedCount(), len(sess.Images))
			fmt.Fprintf(out, "Session: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Folder to scan (required)")
	cmd.Flags().StringVarP(&sessionPath, "session", "s", "", "Session file to write (default: "+utils.DefaultSessionFile+" in the folder)")
	cmd.Flags().BoolVar(&acceptDefaults, "accept-defaults", false, "Commit the suggested crop of every image")
	cmd.Flags().IntVar(&workers, "workers", 0, "Files probed in parallel (default 8)")
	_ = cmd.MarkFlagRequired("folder")

	return cmd
}

func printBuckets(out io.Writer, buckets types.BucketSet) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BUCKET\tCLASS\tSIZE\tRATIO\tIMAGES")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%.4f\t%d\n", b.ID, b.Name, b.Width, b.Height, b.AspectRatio, b.ImageCount)
	}
	tw.Flush()
}
