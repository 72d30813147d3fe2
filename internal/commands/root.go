package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pocketbook-dev/pocketbook/internal/buildinfo"
	"github.com/pocketbook-dev/pocketbook/internal/config"
	"github.com/pocketbook-dev/pocketbook/internal/logging"
	"github.com/pocketbook-dev/pocketbook/internal/session"
	"github.com/pocketbook-dev/pocketbook/internal/workspace"
)

// globals holds flags shared by every command.
type globals struct {
	workspace string
	logLevel  string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "pocketbook",
		Short:   "Personal finance tracker",
		Long:    "Keep a ledger of dated, described amounts; chart it, undo and redo edits, and export it to CSV or PDF.",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				printStatus(cmd.OutOrStdout(), s.Status())
				return nil
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.workspace, "workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(g),
		newImportCommand(g),
		newListCommand(g),
		newAddCommand(g),
		newEditCommand(g),
		newDeleteCommand(g),
		newMoveCommand(g),
		newUndoCommand(g),
		newRedoCommand(g),
		newHistoryCommand(g),
		newSaveCommand(g),
		newSaveAsCommand(g),
		newChartsCommand(g),
		newExportPDFCommand(g),
		newLogCommand(g),
	)

	return rootCmd
}

// root resolves the workspace flag to an absolute path.
func (g *globals) root() (string, error) {
	abs, err := filepath.Abs(g.workspace)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

// run opens the workspace session, calls fn and closes the session.
func (g *globals) run(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session) error) error {
	root, err := g.root()
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(root, workspace.DBFile)); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s is not a pocketbook workspace (run 'pocketbook init' first)", root)
	}

	cfg, err := config.LoadWorkspace(root)
	if err != nil {
		return err
	}
	levelName := cfg.Log.Level
	if g.logLevel != "" {
		levelName = g.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:       level,
		Output:      cmd.ErrOrStderr(),
		Development: level == slog.LevelDebug,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := session.Open(ctx, root, session.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, s)
}

func printStatus(w io.Writer, st session.Status) {
	fmt.Fprintf(w, "Workspace: %s\n", st.Root)
	fmt.Fprintf(w, "Records:   %d\n", st.Records)
	fmt.Fprintf(w, "Balance:   %s\n", st.Total)
	file := st.CurrentFile
	if file == "" {
		file = "(none; use save-as)"
	}
	fmt.Fprintf(w, "File:      %s\n", file)
	if st.Dirty {
		fmt.Fprintln(w, "Unsaved changes.")
	}
}
