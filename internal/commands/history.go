package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketbook-dev/pocketbook/internal/history"
	"github.com/pocketbook-dev/pocketbook/internal/session"
)

func newUndoCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				return step(cmd, "Undid", func() (string, error) { return s.Undo(ctx) })
			})
		},
	}
}

func newRedoCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Re-apply the last undone change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				return step(cmd, "Redid", func() (string, error) { return s.Redo(ctx) })
			})
		},
	}
}

// step runs an undo or redo. An empty history is a notice, not a failure.
func step(cmd *cobra.Command, verb string, fn func() (string, error)) error {
	label, err := fn()
	var empty *history.HistoryEmptyError
	if errors.As(err, &empty) {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to %s.\n", empty.Op)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", verb, label)
	return nil
}

func newHistoryCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the undo/redo timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				out := cmd.OutOrStdout()
				for _, e := range s.History() {
					marker := " "
					switch {
					case e.Current:
						marker = ">"
					case e.Undone:
						marker = "-"
					}
					fmt.Fprintf(out, "%s %s  %-28s %d records\n",
						marker, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Label, e.Ledger.Len())
				}
				return nil
			})
		},
	}
}
