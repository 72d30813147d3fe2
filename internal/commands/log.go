package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketbook-dev/pocketbook/internal/session"
)

func newLogCommand(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the workspace activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				entries, err := s.Activity()
				if err != nil {
					return err
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[len(entries)-limit:]
				}
				for _, e := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s %s\n",
						e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.Details)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the most recent entries")
	return cmd
}
