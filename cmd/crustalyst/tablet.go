package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"crustalyst/internal/domain"
	"crustalyst/internal/kiosk"
)

// newTabletCmd drives the ordering surface of one claimed table.
func newTabletCmd(opts *options) *cobra.Command {
	var tableID int
	cmd := &cobra.Command{
		Use:   "tablet",
		Short: "Order, call staff, see the bill or leave a table",
	}
	cmd.PersistentFlags().IntVar(&tableID, "table", 0, "table id")
	_ = cmd.MarkPersistentFlagRequired("table")

	load := func(cmd *cobra.Command) (*kiosk.Tablet, error) {
		client, err := kiosk.NewClient(kiosk.ConfigFrom(opts.cfg.Kiosk))
		if err != nil {
			return nil, err
		}
		tab := kiosk.NewTablet(client, tableID)
		if err := tab.Load(cmd.Context()); err != nil {
			return nil, fmt.Errorf("table %d: %w", tableID, err)
		}
		return tab, nil
	}

	var category string
	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the menu, optionally for one category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tab, err := load(cmd)
			if err != nil {
				return err
			}
			tab.SetCategory(category)
			printMenu(cmd.OutOrStdout(), tab.VisibleMenu())
			return nil
		},
	}
	menuCmd.Flags().StringVar(&category, "category", domain.MenuCategoryAll, "category filter")

	var notes string
	orderCmd := &cobra.Command{
		Use:   "order ITEM[:QTY]...",
		Short: "Send an order of menu item ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := load(cmd)
			if err != nil {
				return err
			}
			if err := fillCart(tab, args); err != nil {
				return err
			}
			resp, _, err := tab.SendOrder(cmd.Context(), notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %d %s: %s (session %s)\n",
				resp.OrderID, resp.Status, resp.TotalAmount.StringFixed(2), resp.SessionTotal.StringFixed(2))
			return nil
		},
	}
	orderCmd.Flags().StringVar(&notes, "notes", "", "notes for the kitchen")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print ongoing and finished items with the session total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tab, err := load(cmd)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), tab.History())
			return nil
		},
	}

	var message string
	callCmd := &cobra.Command{
		Use:   "call-staff",
		Short: "Ask staff to come to the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tab, err := load(cmd)
			if err != nil {
				return err
			}
			n, err := tab.CallStaff(cmd.Context(), message)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "notification %d: %s\n", n.ID, n.Message)
			return nil
		},
	}
	callCmd.Flags().StringVar(&message, "message", "", "what the table needs")

	billCmd := &cobra.Command{
		Use:   "bill",
		Short: "Print the bill of the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tab, err := load(cmd)
			if err != nil {
				return err
			}
			b, err := tab.Bill(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "orders %d total %s paid %s outstanding %s\n",
				b.Orders, b.SessionTotal.StringFixed(2), b.Paid.StringFixed(2), b.Outstanding.StringFixed(2))
			return nil
		},
	}

	var password string
	exitCmd := &cobra.Command{
		Use:   "exit",
		Short: "Clear the table session with the staff password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = opts.cfg.Auth.StaffPassword
			}
			tab, err := load(cmd)
			if err != nil {
				return err
			}
			r, err := tab.Exit(cmd.Context(), password)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "table %d cleared: %d orders, %d items, session %s\n",
				r.TableID, r.OrdersDeleted, r.ItemsDeleted, r.SessionTotal.StringFixed(2))
			for _, w := range r.Warnings {
				fmt.Fprintln(out, "warning:", w)
			}
			return nil
		},
	}
	exitCmd.Flags().StringVar(&password, "password", "", "staff password (default auth.staff_password)")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprint the history whenever the table's orders change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tab, err := load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printHistory(out, tab.History())
			tab.OnHistory(func(h domain.History) {
				fmt.Fprintln(out, "---")
				printHistory(out, h)
			})
			return tab.Watch(cmd.Context())
		},
	}

	cmd.AddCommand(menuCmd, orderCmd, historyCmd, callCmd, billCmd, exitCmd, watchCmd)
	return cmd
}

// fillCart adds "ID" or "ID:QTY" arguments to the tablet's cart. Ids must be
// on the loaded menu.
func fillCart(tab *kiosk.Tablet, args []string) error {
	tab.SetCategory(domain.MenuCategoryAll)
	byID := make(map[int]domain.MenuItem)
	for _, it := range tab.VisibleMenu() {
		byID[it.ID] = it
	}
	for _, arg := range args {
		idPart, qtyPart, hasQty := strings.Cut(arg, ":")
		id, err := strconv.Atoi(idPart)
		if err != nil {
			return fmt.Errorf("bad item %q", arg)
		}
		qty := 1
		if hasQty {
			if qty, err = strconv.Atoi(qtyPart); err != nil || qty < 1 {
				return fmt.Errorf("bad quantity in %q", arg)
			}
		}
		item, ok := byID[id]
		if !ok {
			return fmt.Errorf("menu item %d is not on the menu", id)
		}
		tab.Cart().Add(item)
		tab.Cart().SetQuantity(id, cartQuantity(tab.Cart(), id)+qty-1)
	}
	return nil
}

func cartQuantity(c *kiosk.Cart, id int) int {
	for _, l := range c.Lines() {
		if l.Item.ID == id {
			return l.Quantity
		}
	}
	return 0
}

func printMenu(w io.Writer, items []domain.MenuItem) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", it.ID, it.Name, it.Category, it.Price.StringFixed(2))
	}
	_ = tw.Flush()
}

func printHistory(w io.Writer, h domain.History) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tITEM\tQTY\tSTATUS")
	for _, group := range [][]domain.HistoryItem{h.Ongoing, h.Finished} {
		for _, it := range group {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", it.OrderID, it.Name, it.Quantity, it.Status)
		}
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "session total %s\n", h.SessionTotal.StringFixed(2))
}
