package cmd

import (
	"fmt"

	"bucketcrop/bucket"

	"github.com/spf13/cobra"
)

func newValidateBucketCmd(opts *rootOptions) *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "validate-bucket",
		Short: "Snap a bucket size to the 64px grid",
		Example: `  bucketcrop validate-bucket --width 900 --height 900
  # 896x896 (adjusted from 900x900)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, h, modified := bucket.ValidateSize(width, height, opts.cfg.Quantum)
			if modified {
				fmt.Fprintf(cmd.OutOrStdout(), "%dx%d (adjusted from %dx%d)\n", w, h, width, height)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%dx%d\n", w, h)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "Bucket width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "Bucket height in pixels")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}
