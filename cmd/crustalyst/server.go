package main

import (
	"github.com/spf13/cobra"

	"crustalyst/internal/app/api"
	"crustalyst/internal/app/housekeeping"
	"crustalyst/internal/app/notify"
	"crustalyst/internal/connections/database"
)

func newAPICmd(opts *options) *cobra.Command {
	var (
		sweeper bool
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the HTTP API and the realtime endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.cfg.Validate(); err != nil {
				return err
			}
			if migrate {
				if err := migrateUp(cmd, opts); err != nil {
					return err
				}
			}
			return api.Run(cmd.Context(), opts.cfg, api.Options{EmbeddedSweeper: sweeper})
		},
	}
	cmd.Flags().BoolVar(&sweeper, "sweeper", true, "run the cleaning sweeper inside the API process")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newHousekeepingCmd(opts *options) *cobra.Command {
	var workerName string
	cmd := &cobra.Command{
		Use:   "housekeeping",
		Short: "Revert tables whose cleaning window has elapsed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.cfg.Validate(); err != nil {
				return err
			}
			return housekeeping.Run(cmd.Context(), opts.cfg, housekeeping.Config{WorkerName: workerName})
		},
	}
	cmd.Flags().StringVar(&workerName, "worker-name", "", "sweeper name used in logs (default housekeeping-<host>)")
	return cmd
}

func newNotifierCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "notifier",
		Short: "Page staff on assistance requests from the change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.cfg.Validate(); err != nil {
				return err
			}
			return notify.Run(cmd.Context(), opts.cfg)
		},
	}
}

func migrateUp(cmd *cobra.Command, opts *options) error {
	return withMigrator(cmd, opts, func(m *database.Migrator) error { return m.Up() })
}
