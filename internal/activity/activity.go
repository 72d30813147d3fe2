// Package activity keeps an append-only audit trail of user actions in
// <workspace>/logs/activity.csv.
package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	Action    string
	Details   string
}

// Header is the CSV header for activity.csv.
const Header = "timestamp,action,details"

const (
	numFields    = 3
	logDir       = "logs"
	logFile      = "logs/activity.csv"
	colTimestamp = 0
	colAction    = 1
	colDetails   = 2
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colAction] = e.Action
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	return Entry{
		Timestamp: ts,
		Action:    record[colAction],
		Details:   record[colDetails],
	}, nil
}

// Log appends entries to one workspace's activity file.
type Log struct {
	root string
	now  func() time.Time
}

// New returns the activity log of the workspace at root.
func New(root string) *Log {
	return &Log{root: root, now: time.Now}
}

// Record appends a single entry stamped with the current time.
func (l *Log) Record(action, details string) error {
	return Append(l.root, []Entry{{Timestamp: l.now(), Action: action, Details: details}})
}

// Entries returns every recorded entry, oldest first.
func (l *Log) Entries() ([]Entry, error) {
	return Read(l.root)
}

// Append writes entries to <root>/logs/activity.csv, creating the file and
// header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/activity.csv. A missing file
// yields no entries.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
