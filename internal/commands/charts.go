package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pocketbook-dev/pocketbook/internal/model"
	"github.com/pocketbook-dev/pocketbook/internal/session"
)

func newChartsCommand(g *globals) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Show totals per description and the balance over time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				c := s.Charts(top)
				out := cmd.OutOrStdout()
				if c.Summary.Records == 0 {
					fmt.Fprintln(out, "No records.")
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(tw, "Description\tRecords\tTotal\t")
				for _, sl := range c.Pie {
					fmt.Fprintf(tw, "%s\t%d\t%s\t\n", sl.Description, sl.Count, sl.Total.StringFixed(2))
				}
				fmt.Fprintln(tw, "\t\t\t")
				fmt.Fprintln(tw, "Date\tChange\tBalance\t")
				for _, p := range c.Line {
					fmt.Fprintf(tw, "%s\t%s\t%s\t\n", p.Date.Format(model.DateLayout), p.Delta.StringFixed(2), p.Balance.StringFixed(2))
				}
				if err := tw.Flush(); err != nil {
					return err
				}

				sum := c.Summary
				fmt.Fprintf(out, "\nIncome %s  Expenses %s  Net %s\n",
					sum.Income.StringFixed(2), sum.Expenses.StringFixed(2), sum.Net.StringFixed(2))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "largest descriptions to show (0 = all)")
	return cmd
}
