package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pocketbook-dev/pocketbook/internal/session"
)

func newImportCommand(g *globals) *cobra.Command {
	var format string
	var appendRows bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a CSV file, or every CSV in the workspace import/ inbox",
		Long: `Import a CSV file into the ledger as one undoable change.

Without a file argument, every CSV in <workspace>/import/ is appended to the
ledger and moved to import/processed/.

Rows that cannot be read are skipped and listed; the rest are imported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				out := cmd.OutOrStdout()
				if len(args) == 0 {
					results, err := s.ImportInbox(ctx)
					if len(results) == 0 && err == nil {
						fmt.Fprintln(out, "No files in import/.")
						return nil
					}
					for _, res := range results {
						printImport(out, res)
					}
					return err
				}

				res, err := s.Import(ctx, args[0], session.ImportOptions{Format: format, Append: appendRows})
				if err != nil && !errors.Is(err, session.ErrNothingImported) {
					return err
				}
				printImport(out, res)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "input format: standard or chase (default: detect from header)")
	cmd.Flags().BoolVar(&appendRows, "append", false, "add to the ledger instead of replacing it")
	return cmd
}

func printImport(w io.Writer, res session.ImportResult) {
	fmt.Fprintf(w, "%s: %d records imported", res.Path, res.Imported)
	if res.Format != "" {
		fmt.Fprintf(w, " (%s)", res.Format)
	}
	fmt.Fprintln(w)
	if len(res.Rejected) > 0 {
		fmt.Fprintf(w, "  %d rows skipped:\n", len(res.Rejected))
		for _, pe := range res.Rejected {
			fmt.Fprintf(w, "    %v\n", pe)
		}
	}
}

func newSaveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the ledger to its CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				path, err := s.QuickSave(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d records to %s\n", s.Ledger().Len(), path)
				return nil
			})
		},
	}
}

func newSaveAsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "save-as <file>",
		Short: "Save the ledger to a new CSV file and use it for later saves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				if err := s.SaveAs(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d records to %s\n", s.Ledger().Len(), s.CurrentFile())
				return nil
			})
		},
	}
}

func newExportPDFCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "export-pdf <file>",
		Short: "Export the ledger with its charts to PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session.Session) error {
				if err := s.ExportPDF(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", args[0])
				return nil
			})
		},
	}
}
