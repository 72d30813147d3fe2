// Package ledger holds the record store: the single owner of the current
// ledger and the only place records are mutated.
package ledger

import (
	"errors"
	"fmt"

	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// ErrPosition is returned for a row position outside the ledger.
var ErrPosition = errors.New("row position out of range")

// Observer is told about every committed mutation.
type Observer interface {
	Commit(label string, s Snapshot)
}

// Store owns the current ledger.
type Store struct {
	current  Snapshot
	observer Observer
}

// NewStore creates a Store holding initial. observer may be nil.
func NewStore(initial Snapshot, observer Observer) *Store {
	return &Store{current: initial, observer: observer}
}

// Snapshot returns the current ledger.
func (s *Store) Snapshot() Snapshot { return s.current }

// Len returns the number of rows.
func (s *Store) Len() int { return s.current.Len() }

// Restore replaces the ledger without notifying the observer.
func (s *Store) Restore(snap Snapshot) { s.current = snap }

// Load replaces the ledger wholesale. Every record must be valid.
func (s *Store) Load(label string, records []model.Record) (Snapshot, error) {
	for i, r := range records {
		if err := validateRow(r, i); err != nil {
			return s.current, err
		}
	}
	return s.commit(label, NewSnapshot(records)), nil
}

// Insert places r at row pos, shifting later rows down. pos == Len appends.
func (s *Store) Insert(pos int, r model.Record) (Snapshot, error) {
	if pos < 0 || pos > s.current.Len() {
		return s.current, fmt.Errorf("insert at %d of %d: %w", pos, s.current.Len(), ErrPosition)
	}
	if err := validateRow(r, pos); err != nil {
		return s.current, err
	}
	return s.commit(fmt.Sprintf("insert row %d", pos+1), s.current.with(pos, pos, r)), nil
}

// Update replaces the record at row pos.
func (s *Store) Update(pos int, r model.Record) (Snapshot, error) {
	if err := s.checkRow("update", pos); err != nil {
		return s.current, err
	}
	if err := validateRow(r, pos); err != nil {
		return s.current, err
	}
	return s.commit(fmt.Sprintf("edit row %d", pos+1), s.current.with(pos, pos+1, r)), nil
}

// Delete removes the record at row pos.
func (s *Store) Delete(pos int) (Snapshot, error) {
	if err := s.checkRow("delete", pos); err != nil {
		return s.current, err
	}
	return s.commit(fmt.Sprintf("delete row %d", pos+1), s.current.with(pos, pos+1)), nil
}

// Move relocates the record at row from so that it ends up at row to.
func (s *Store) Move(from, to int) (Snapshot, error) {
	if err := s.checkRow("move", from); err != nil {
		return s.current, err
	}
	if err := s.checkRow("move", to); err != nil {
		return s.current, err
	}
	if from == to {
		return s.current, nil
	}
	r := s.current.At(from)
	without := s.current.with(from, from+1)
	next := without.with(to, to, r)
	return s.commit(fmt.Sprintf("move row %d to %d", from+1, to+1), next), nil
}

func (s *Store) checkRow(op string, pos int) error {
	if pos < 0 || pos >= s.current.Len() {
		return fmt.Errorf("%s row %d of %d: %w", op, pos+1, s.current.Len(), ErrPosition)
	}
	return nil
}

func (s *Store) commit(label string, next Snapshot) Snapshot {
	s.current = next
	if s.observer != nil {
		s.observer.Commit(label, next)
	}
	return next
}

func validateRow(r model.Record, pos int) error {
	err := r.Validate()
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		ve.Row = pos + 1
	}
	return err
}
