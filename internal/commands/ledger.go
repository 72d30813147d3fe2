package commands

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pocketbook-dev/pocketbook/internal/model"
	"github.com/pocketbook-dev/pocketbook/internal/session"
)

func newListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the ledger",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				snap := s.Ledger()
				out := cmd.OutOrStdout()
				if snap.Len() == 0 {
					fmt.Fprintln(out, "No records.")
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(tw, "#\tDate\tDescription\tAmount\t")
				for i, r := range snap.Records() {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", i+1, r.Date.Format(model.DateLayout), r.Description, r.Amount.StringFixed(2))
				}
				fmt.Fprintf(tw, "\t\tTotal\t%s\t\n", snap.Total().StringFixed(2))
				return tw.Flush()
			})
		},
	}
}

func newAddCommand(g *globals) *cobra.Command {
	var at int

	cmd := &cobra.Command{
		Use:   "add <date> <description> <amount>",
		Short: "Add a record (appended unless --at is given)",
		Example: `  pocketbook add 2024-01-01 Salary 1000
  pocketbook add 2024-01-02 Coffee -- -4.50`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := model.ParseRecord(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				if at > 0 {
					err = s.Insert(ctx, at-1, r)
				} else {
					err = s.Add(ctx, r)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q %s\n", r.Date.Format(model.DateLayout), r.Description, r.Amount.StringFixed(2))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&at, "at", 0, "insert at this row (1-based)")
	return cmd
}

func newEditCommand(g *globals) *cobra.Command {
	var date, description, amount string

	cmd := &cobra.Command{
		Use:   "edit <row>",
		Short: "Change fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("date") && !flags.Changed("description") && !flags.Changed("amount") {
				return fmt.Errorf("nothing to change: pass --date, --description or --amount")
			}
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				snap := s.Ledger()
				if row < 0 || row >= snap.Len() {
					return fmt.Errorf("row %d: ledger has %d records", row+1, snap.Len())
				}
				r := snap.At(row)
				if flags.Changed("date") {
					if r.Date, err = model.ParseDate(date); err != nil {
						return err
					}
				}
				if flags.Changed("description") {
					r.Description = description
				}
				if flags.Changed("amount") {
					if r.Amount, err = model.ParseAmount(amount); err != nil {
						return err
					}
				}
				if err := s.Edit(ctx, row, r); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated row %d\n", row+1)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	return cmd
}

func newDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <row>",
		Aliases: []string{"rm"},
		Short:   "Delete a record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				if err := s.Delete(ctx, row); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted row %d\n", row+1)
				return nil
			})
		},
	}
}

func newMoveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a record to another row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseRow(args[0])
			if err != nil {
				return err
			}
			to, err := parseRow(args[1])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				if err := s.Move(ctx, from, to); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved row %d to %d\n", from+1, to+1)
				return nil
			})
		},
	}
}

// parseRow converts a 1-based row argument to a 0-based position.
func parseRow(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid row %q: want a number from 1", arg)
	}
	return n - 1, nil
}
