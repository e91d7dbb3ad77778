package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crustalyst/internal/common/logger"
	"crustalyst/internal/config"
)

type options struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "crustalyst",
		Short:         "Restaurant self-ordering kiosk: API, workers and kiosk client",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := logger.Setup(logger.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cfg.Log.Output,
			}); err != nil {
				return fmt.Errorf("logger setup: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default ./config.yaml if present)")

	root.AddCommand(
		newAPICmd(opts),
		newHousekeepingCmd(opts),
		newNotifierCmd(opts),
		newMigrateCmd(opts),
		newTablesCmd(opts),
		newTabletCmd(opts),
	)
	return root
}
