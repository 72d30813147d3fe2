// Package workspace persists the ledger session (every history version plus
// the undo and redo stacks) in a SQLite database, so that undo and redo work
// across separate pocketbook invocations.
package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pocketbook-dev/pocketbook/internal/history"
	"github.com/pocketbook-dev/pocketbook/internal/ledger"
	"github.com/pocketbook-dev/pocketbook/internal/model"

	_ "modernc.org/sqlite"
)

// DBFile is the session database file name inside a workspace.
const DBFile = "pocketbook.db"

// Setting keys.
const (
	SettingCurrentFile = "current_file"
)

const (
	stackUndo    = "undo"
	stackRedo    = "redo"
	stackCurrent = "current"
	stackClean   = "clean"
)

// Store is an open session database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating and migrating if needed) the session database at
// dbPath.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadHistory reads the persisted history. ok is false for a fresh
// workspace with nothing saved yet.
func (s *Store) LoadHistory(ctx context.Context) (st history.State, ok bool, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, created_at FROM versions ORDER BY created_at, id`)
	if err != nil {
		return st, false, fmt.Errorf("query versions: %w", err)
	}
	index := make(map[string]int)
	for rows.Next() {
		var v history.Version
		var created string
		if err := rows.Scan(&v.ID, &v.Label, &created); err != nil {
			rows.Close()
			return st, false, fmt.Errorf("scan version: %w", err)
		}
		if v.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			rows.Close()
			return st, false, fmt.Errorf("version %s created_at %q: %w", v.ID, created, err)
		}
		index[v.ID] = len(st.Versions)
		st.Versions = append(st.Versions, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return st, false, fmt.Errorf("query versions: %w", err)
	}
	if len(st.Versions) == 0 {
		return history.State{}, false, nil
	}

	if err := s.loadRecords(ctx, st.Versions, index); err != nil {
		return st, false, err
	}

	st.Current, st.Clean = -1, -1
	items, err := s.db.QueryContext(ctx, `SELECT stack, version_id FROM stack_items ORDER BY stack, position`)
	if err != nil {
		return st, false, fmt.Errorf("query stacks: %w", err)
	}
	defer items.Close()
	for items.Next() {
		var stack, id string
		if err := items.Scan(&stack, &id); err != nil {
			return st, false, fmt.Errorf("scan stack item: %w", err)
		}
		i, known := index[id]
		if !known {
			return st, false, fmt.Errorf("stack %s references unknown version %s", stack, id)
		}
		switch stack {
		case stackUndo:
			st.Undo = append(st.Undo, i)
		case stackRedo:
			st.Redo = append(st.Redo, i)
		case stackCurrent:
			st.Current = i
		case stackClean:
			st.Clean = i
		}
	}
	if err := items.Err(); err != nil {
		return st, false, fmt.Errorf("query stacks: %w", err)
	}
	if st.Current < 0 {
		return st, false, errors.New("workspace has versions but no current version")
	}
	return st, true, nil
}

func (s *Store) loadRecords(ctx context.Context, versions []history.Version, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version_id, date, description, amount FROM version_records ORDER BY version_id, position`)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	byVersion := make(map[int][]model.Record)
	for rows.Next() {
		var id, date, desc, amount string
		if err := rows.Scan(&id, &date, &desc, &amount); err != nil {
			return fmt.Errorf("scan record: %w", err)
		}
		i, known := index[id]
		if !known {
			continue
		}
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return fmt.Errorf("version %s: date %q: %w", id, date, err)
		}
		a, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("version %s: amount %q: %w", id, amount, err)
		}
		byVersion[i] = append(byVersion[i], model.Record{Date: d, Description: desc, Amount: a})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	for i := range versions {
		versions[i].Ledger = ledger.NewSnapshot(byVersion[i])
	}
	return nil
}

// SaveHistory writes st in one transaction. Versions are immutable, so only
// versions not yet stored are inserted; stored versions st no longer holds
// are deleted.
func (s *Store) SaveHistory(ctx context.Context, st history.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stored := make(map[string]bool)
	rows, err := tx.QueryContext(ctx, `SELECT id FROM versions`)
	if err != nil {
		return fmt.Errorf("query versions: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan version: %w", err)
		}
		stored[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query versions: %w", err)
	}

	keep := make(map[string]bool, len(st.Versions))
	inserted := 0
	for _, v := range st.Versions {
		keep[v.ID] = true
		if stored[v.ID] {
			continue
		}
		if err := insertVersion(ctx, tx, v); err != nil {
			return err
		}
		inserted++
	}

	deleted := 0
	for id := range stored {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM version_records WHERE version_id = ?`, id); err != nil {
			return fmt.Errorf("delete records of %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM versions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete version %s: %w", id, err)
		}
		deleted++
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM stack_items`); err != nil {
		return fmt.Errorf("clear stacks: %w", err)
	}
	put := func(stack string, pos, i int) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stack_items (stack, position, version_id) VALUES (?, ?, ?)`,
			stack, pos, st.Versions[i].ID)
		if err != nil {
			return fmt.Errorf("insert %s item: %w", stack, err)
		}
		return nil
	}
	for pos, i := range st.Undo {
		if err := put(stackUndo, pos, i); err != nil {
			return err
		}
	}
	for pos, i := range st.Redo {
		if err := put(stackRedo, pos, i); err != nil {
			return err
		}
	}
	if err := put(stackCurrent, 0, st.Current); err != nil {
		return err
	}
	if st.Clean >= 0 {
		if err := put(stackClean, 0, st.Clean); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.DebugContext(ctx, "history saved",
		"versions", len(st.Versions), "inserted", inserted, "deleted", deleted)
	return nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, v history.Version) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO versions (id, label, created_at) VALUES (?, ?, ?)`,
		v.ID, v.Label, v.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert version %s: %w", v.ID, err)
	}
	for pos, r := range v.Ledger.Records() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO version_records (version_id, position, date, description, amount) VALUES (?, ?, ?, ?, ?)`,
			v.ID, pos, r.Date.Format(model.DateLayout), r.Description, r.Amount.String()); err != nil {
			return fmt.Errorf("insert record %d of %s: %w", pos, v.ID, err)
		}
	}
	return nil
}

// Setting returns a stored setting, or "" if unset.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a setting; an empty value deletes it.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	var err error
	if value == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value)
	}
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}
