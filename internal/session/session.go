// Package session is the controller a user interface drives. A Session owns
// one workspace: its ledger, the undo/redo history, the designated quick-save
// file and the import and export adapters. Every operation that changes the
// ledger or the history is persisted before it returns, so the next
// invocation picks up exactly where this one stopped.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pocketbook-dev/pocketbook/internal/activity"
	"github.com/pocketbook-dev/pocketbook/internal/config"
	"github.com/pocketbook-dev/pocketbook/internal/csvio"
	"github.com/pocketbook-dev/pocketbook/internal/derive"
	"github.com/pocketbook-dev/pocketbook/internal/history"
	"github.com/pocketbook-dev/pocketbook/internal/importer"
	"github.com/pocketbook-dev/pocketbook/internal/ledger"
	"github.com/pocketbook-dev/pocketbook/internal/logging"
	"github.com/pocketbook-dev/pocketbook/internal/model"
	"github.com/pocketbook-dev/pocketbook/internal/report"
	"github.com/pocketbook-dev/pocketbook/internal/workspace"
)

// ErrNoSaveTarget is returned by QuickSave before any file was designated
// by Import or SaveAs.
var ErrNoSaveTarget = errors.New("no file to save to; use save-as first")

// ErrNothingImported is returned when every row of an import was rejected.
var ErrNothingImported = errors.New("no valid rows to import")

// Activity log actions.
const (
	ActionInit   = "init"
	ActionImport = "import"
	ActionAdd    = "add"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionMove   = "move"
	ActionUndo   = "undo"
	ActionRedo   = "redo"
	ActionSave   = "save"
	ActionSaveAs = "save_as"
	ActionExport = "export_pdf"
)

// Options customizes Open. Zero values pick the workspace config, a
// warn-level stderr logger, the wall clock and the fpdf renderer.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Now      func() time.Time
	Renderer report.Renderer
}

// Session is an open workspace.
type Session struct {
	root        string
	cfg         *config.Config
	db          *workspace.Store
	store       *ledger.Store
	hist        *history.Manager
	imports     *importer.Registry
	exporter    *report.Exporter
	activity    *activity.Log
	currentFile string
	logger      *slog.Logger
	importLog   *slog.Logger
	reportLog   *slog.Logger
	now         func() time.Time
}

// Init lays out a new workspace at root: config file, inbox directories,
// logs directory and a migrated session database. An existing config file
// is left alone.
func Init(ctx context.Context, root string, cfg *config.Config) error {
	dirs := []string{
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(root, config.FileName)
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		if cfg == nil {
			cfg = config.Default()
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
	}

	db, err := workspace.Open(ctx, filepath.Join(root, workspace.DBFile), logging.Discard())
	if err != nil {
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing session database: %w", err)
	}
	return activity.New(root).Record(ActionInit, root)
}

// Open opens the workspace at root, restoring the ledger and history saved
// by the previous invocation.
func Open(ctx context.Context, root string, opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.LoadWorkspace(root); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = &report.FPDFRenderer{PageSize: cfg.PageSizeName()}
	}

	db, err := workspace.Open(ctx, filepath.Join(root, workspace.DBFile), logging.Component(logger, logging.ComponentWorkspace))
	if err != nil {
		return nil, err
	}

	hist, err := restoreHistory(ctx, db, cfg.History.Depth, now)
	if err != nil {
		db.Close()
		return nil, err
	}
	current, err := db.Setting(ctx, workspace.SettingCurrentFile)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Session{
		root:        root,
		cfg:         cfg,
		db:          db,
		hist:        hist,
		imports:     importer.DefaultRegistry(csvOptions(cfg)),
		exporter:    report.NewExporter(renderer),
		activity:    activity.New(root),
		currentFile: current,
		logger:      logging.Component(logger, logging.ComponentSession),
		importLog:   logging.Component(logger, logging.ComponentImport),
		reportLog:   logging.Component(logger, logging.ComponentReport),
		now:         now,
	}
	s.store = ledger.NewStore(hist.Current(), hist)
	s.logger.Debug("session opened",
		logging.FieldRecords, s.store.Len(),
		logging.FieldVersion, hist.CurrentVersion().ID)
	return s, nil
}

func restoreHistory(ctx context.Context, db *workspace.Store, depth int, now func() time.Time) (*history.Manager, error) {
	st, ok, err := db.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return history.New(ledger.Snapshot{}, depth, history.WithClock(now)), nil
	}
	hist, err := history.Restore(st, depth, history.WithClock(now))
	if err != nil {
		return nil, fmt.Errorf("restoring history: %w", err)
	}
	return hist, nil
}

func csvOptions(cfg *config.Config) csvio.Options {
	return csvio.Options{DateLayouts: cfg.CSV.DateLayouts}
}

// Close releases the session database.
func (s *Session) Close() error {
	return s.db.Close()
}

// Root returns the workspace directory.
func (s *Session) Root() string { return s.root }

// Config returns the effective configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Ledger returns the current ledger.
func (s *Session) Ledger() ledger.Snapshot { return s.store.Snapshot() }

// CurrentFile returns the designated quick-save file, or "".
func (s *Session) CurrentFile() string { return s.currentFile }

// persist writes history and settings so the next invocation sees them.
func (s *Session) persist(ctx context.Context) error {
	if err := s.db.SaveHistory(ctx, s.hist.State()); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if err := s.db.SetSetting(ctx, workspace.SettingCurrentFile, s.currentFile); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// record appends to the activity log. A failure there never fails the
// operation that already succeeded.
func (s *Session) record(action, details string) {
	if err := s.activity.Record(action, details); err != nil {
		s.logger.Warn("activity log append failed", logging.FieldOperation, action, logging.FieldError, err)
	}
}

// Status summarizes the workspace.
type Status struct {
	Root        string
	Records     int
	Total       string
	Dirty       bool
	CurrentFile string
	CanUndo     bool
	CanRedo     bool
	Depth       int
}

// Status reports the current state of the workspace.
func (s *Session) Status() Status {
	snap := s.store.Snapshot()
	return Status{
		Root:        s.root,
		Records:     snap.Len(),
		Total:       snap.Total().StringFixed(2),
		Dirty:       s.hist.Dirty(),
		CurrentFile: s.currentFile,
		CanUndo:     s.hist.CanUndo(),
		CanRedo:     s.hist.CanRedo(),
		Depth:       s.hist.Depth(),
	}
}

// History returns the undo/redo timeline, oldest first.
func (s *Session) History() []history.Entry {
	return s.hist.Entries()
}

// Activity returns the workspace activity log.
func (s *Session) Activity() ([]activity.Entry, error) {
	return s.activity.Entries()
}

// Charts holds the derived views of the ledger.
type Charts struct {
	Pie     []derive.Slice
	Line    []derive.Point
	Summary derive.Summary
}

// Charts derives pie, line and summary data from the current ledger. topN
// limits the pie to the largest descriptions; topN <= 0 keeps them all.
func (s *Session) Charts(topN int) Charts {
	snap := s.store.Snapshot()
	return Charts{
		Pie:     derive.TopSlices(derive.PieData(snap), topN),
		Line:    derive.LineData(snap),
		Summary: derive.Summarize(snap),
	}
}

// Add appends r to the ledger.
func (s *Session) Add(ctx context.Context, r model.Record) error {
	return s.mutate(ctx, ActionAdd, func() (ledger.Snapshot, error) {
		return s.store.Insert(s.store.Len(), r)
	})
}

// Insert places r at row pos (0-based).
func (s *Session) Insert(ctx context.Context, pos int, r model.Record) error {
	return s.mutate(ctx, ActionAdd, func() (ledger.Snapshot, error) {
		return s.store.Insert(pos, r)
	})
}

// Edit replaces the record at row pos (0-based).
func (s *Session) Edit(ctx context.Context, pos int, r model.Record) error {
	return s.mutate(ctx, ActionEdit, func() (ledger.Snapshot, error) {
		return s.store.Update(pos, r)
	})
}

// Delete removes the record at row pos (0-based).
func (s *Session) Delete(ctx context.Context, pos int) error {
	return s.mutate(ctx, ActionDelete, func() (ledger.Snapshot, error) {
		return s.store.Delete(pos)
	})
}

// Move relocates the record at row from to row to (both 0-based).
func (s *Session) Move(ctx context.Context, from, to int) error {
	return s.mutate(ctx, ActionMove, func() (ledger.Snapshot, error) {
		return s.store.Move(from, to)
	})
}

func (s *Session) mutate(ctx context.Context, action string, op func() (ledger.Snapshot, error)) error {
	before := s.hist.CurrentVersion().ID
	if _, err := op(); err != nil {
		return err
	}
	v := s.hist.CurrentVersion()
	if v.ID == before {
		return nil
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	s.record(action, v.Label)
	return nil
}

// Undo steps back one version and returns the label of the change it
// reverted. An empty history yields *history.HistoryEmptyError and changes
// nothing.
func (s *Session) Undo(ctx context.Context) (string, error) {
	label := s.hist.CurrentVersion().Label
	snap, err := s.hist.Undo()
	if err != nil {
		return "", err
	}
	s.store.Restore(snap)
	if err := s.persist(ctx); err != nil {
		return "", err
	}
	s.record(ActionUndo, label)
	return label, nil
}

// Redo re-applies the last undone change and returns its label.
func (s *Session) Redo(ctx context.Context) (string, error) {
	snap, err := s.hist.Redo()
	if err != nil {
		return "", err
	}
	s.store.Restore(snap)
	label := s.hist.CurrentVersion().Label
	if err := s.persist(ctx); err != nil {
		return "", err
	}
	s.record(ActionRedo, label)
	return label, nil
}

// ImportOptions controls Import.
type ImportOptions struct {
	Format string // empty detects the format from the header
	Append bool   // keep the existing records and add the imported ones after them
}

// ImportResult reports what an import did.
type ImportResult struct {
	Path     string
	Format   string
	Imported int
	Rejected []*model.ParseError
}

// Import reads the CSV at path and loads its valid rows as one undoable
// change. Rejected rows are reported, not fatal. A file in the canonical
// format without a type column, replacing the ledger, becomes the quick-save
// target and counts as saved when every row was read.
func (s *Session) Import(ctx context.Context, path string, opts ImportOptions) (ImportResult, error) {
	imp, res, err := s.parse(path, opts.Format)
	if err != nil {
		return res, err
	}
	if err := s.commit(path, res.Format, imp, opts.Append); err != nil {
		return res, err
	}
	// Quick save writes the canonical layout, so only a canonical file may
	// become its target.
	if res.Format == "standard" && !imp.Typed && !opts.Append {
		if abs, err := filepath.Abs(path); err == nil {
			s.currentFile = abs
			if len(res.Rejected) == 0 {
				s.hist.MarkClean()
			}
		}
	}
	if err := s.persist(ctx); err != nil {
		return res, err
	}
	s.record(ActionImport, fmt.Sprintf("%s (%s): %d imported, %d rejected",
		filepath.Base(path), res.Format, res.Imported, len(res.Rejected)))
	return res, nil
}

// parse reads path without touching the ledger.
func (s *Session) parse(path, format string) (csvio.Import, ImportResult, error) {
	imp, format, err := s.imports.ParseFile(path, format)
	res := ImportResult{Path: path, Format: format, Imported: len(imp.Records), Rejected: imp.Rejected}
	if err != nil {
		return imp, res, err
	}
	for _, pe := range imp.Rejected {
		s.importLog.Warn("row rejected", logging.FieldPath, path, logging.FieldError, pe)
	}
	if len(imp.Records) == 0 && len(imp.Rejected) > 0 {
		return imp, res, fmt.Errorf("%s: %w", path, ErrNothingImported)
	}
	return imp, res, nil
}

// commit loads parsed records as one undoable change.
func (s *Session) commit(path, format string, imp csvio.Import, appendRows bool) error {
	records := imp.Records
	if appendRows {
		records = append(s.store.Snapshot().Records(), records...)
	}
	if _, err := s.store.Load("import "+filepath.Base(path), records); err != nil {
		return err
	}
	s.importLog.Info("imported",
		logging.FieldPath, path,
		logging.FieldFormat, format,
		logging.FieldRecords, len(imp.Records),
		logging.FieldRejected, len(imp.Rejected))
	return nil
}

// ImportInbox appends every CSV waiting in <root>/import/ to the ledger, one
// undoable change per file, and moves each imported file to
// import/processed/. A file is moved before its rows are committed, so a
// file left in the inbox has never been imported.
func (s *Session) ImportInbox(ctx context.Context) ([]ImportResult, error) {
	files, err := importer.Scan(s.root)
	if err != nil {
		return nil, err
	}
	var results []ImportResult
	var errs []error
	committed := false
	for _, f := range files {
		imp, res, err := s.parse(f.Path, "")
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := importer.MarkProcessed(s.root, f.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.commit(f.Path, res.Format, imp, true); err != nil {
			errs = append(errs, err)
			continue
		}
		committed = true
		s.record(ActionImport, fmt.Sprintf("%s (%s): %d imported, %d rejected",
			f.Name, res.Format, res.Imported, len(res.Rejected)))
	}
	if committed {
		if err := s.persist(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// SaveAs writes the ledger to path in the canonical CSV format and makes
// path the quick-save target.
func (s *Session) SaveAs(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := csvio.ExportFile(abs, s.store.Snapshot().Records(), csvOptions(s.cfg)); err != nil {
		return err
	}
	s.hist.MarkClean()
	s.currentFile = abs
	if err := s.persist(ctx); err != nil {
		return err
	}
	s.record(ActionSaveAs, abs)
	return nil
}

// QuickSave writes the ledger to the designated file without touching the
// undo and redo stacks.
func (s *Session) QuickSave(ctx context.Context) (string, error) {
	if s.currentFile == "" {
		return "", ErrNoSaveTarget
	}
	path := s.currentFile
	err := s.hist.QuickSave(history.SaverFunc(func(snap ledger.Snapshot) error {
		return csvio.ExportFile(path, snap.Records(), csvOptions(s.cfg))
	}))
	if err != nil {
		return "", err
	}
	if err := s.persist(ctx); err != nil {
		return "", err
	}
	s.record(ActionSave, path)
	return path, nil
}

// ExportPDF renders the ledger, its pie chart and its balance line to a PDF
// at path. An empty ledger fails with report.ErrEmpty.
func (s *Session) ExportPDF(path string) error {
	doc := report.Build(s.cfg.Title, s.store.Snapshot(), s.cfg.Report.TopSlices, s.now())
	if err := s.exporter.Export(path, doc); err != nil {
		return err
	}
	s.reportLog.Info("pdf exported", logging.FieldPath, path, logging.FieldRecords, len(doc.Rows))
	s.record(ActionExport, path)
	return nil
}
