package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pocketbook-dev/pocketbook/internal/config"
	"github.com/pocketbook-dev/pocketbook/internal/session"
)

func newInitCommand(g *globals) *cobra.Command {
	var title string
	var depth int

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new pocketbook workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := g.workspace
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default()
			if title != "" {
				cfg.Title = title
			}
			if depth > 0 {
				cfg.History.Depth = depth
			}
			if err := session.Init(cmd.Context(), absDir, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized pocketbook workspace at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "report title")
	cmd.Flags().IntVar(&depth, "history-depth", 0, "maximum undo steps (default 50)")

	return cmd
}
