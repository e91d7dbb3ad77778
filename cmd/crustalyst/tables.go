package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"crustalyst/internal/domain"
	"crustalyst/internal/kiosk"
)

func newTablesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Print the table board as a kiosk sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board, err := newBoard(opts)
			if err != nil {
				return err
			}
			board.Refresh(cmd.Context())
			if err := board.Err(); err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), board.Available(), board.Others())
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Keep the board in sync through realtime with polling fallback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board, err := newBoard(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			board.OnUpdate(func([]domain.Table) {
				fmt.Fprintln(out, "---")
				printBoard(out, board.Available(), board.Others())
			})
			return board.Run(cmd.Context())
		},
	})
	return cmd
}

func newBoard(opts *options) (*kiosk.TableBoard, error) {
	cfg := kiosk.ConfigFrom(opts.cfg.Kiosk)
	client, err := kiosk.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return kiosk.NewTableBoard(client, cfg), nil
}

func printBoard(w io.Writer, available, others []domain.Table) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tSEATS\tSTATUS")
	for _, group := range [][]domain.Table{available, others} {
		for _, t := range group {
			fmt.Fprintf(tw, "%d\t%d\t%s\n", t.Number, t.Capacity, t.DisplayStatus)
		}
	}
	_ = tw.Flush()
}
