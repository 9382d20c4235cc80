package cmd

import (
	"fmt"

	"bucketcrop/config"
	"bucketcrop/logging"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags and the configuration they produce
type rootOptions struct {
	configPath string
	debug      bool
	logPath    string
	cfg        config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bucketcrop",
		Short: "Group images into 64px-aligned orientation buckets and export training crops",
		Long: `bucketcrop prepares a folder of mixed-size images for model training.

A scan classifies every image as landscape, square or portrait, sizes one
bucket per class from the median image size snapped to a 64px grid, and
suggests a centred crop for each image. The result is saved as an editable
session file. Export then crops and resizes every image with a committed
crop to its bucket size and copies caption and tag sidecar files along.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetDebug(opts.debug)
			if opts.logPath != "" {
				if err := logging.SetupLogger(opts.logPath); err != nil {
					return err
				}
			}

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			opts.cfg = cfg
			logging.DebugLog("Configuration: quantum=%d engine=%s resample=%s", cfg.Quantum, cfg.Engine, cfg.Resample)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.CloseLogger()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.logPath, "logfile", "", "Write logs to this file instead of stderr")

	cmd.AddCommand(newScanCmd(opts))
	cmd.AddCommand(newValidateBucketCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))

	return cmd
}
