package activity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Action:    "import",
		Details:   "statement.csv: 12 records, 1 rejected",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "import", entries[0].Action)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Action = "undo"
	e2.Details = "edit row 2"
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "import", entries[0].Action)
	assert.Equal(t, "undo", entries[1].Action)
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	original.Details = `quoted "details", with comma`
	require.NoError(t, Append(dir, []Entry{original}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.Action, got.Action)
	assert.Equal(t, original.Details, got.Details)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "activity.csv"), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_BadFieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.ErrorContains(t, err, "expected 3 fields")
}

func TestTimestampFormat(t *testing.T) {
	e := testEntry()
	e.Timestamp = testTime.In(time.FixedZone("CET", 3600))
	assert.Equal(t, "2025-01-15T10:30:00Z", MarshalEntry(e)[0])
}

func TestLog_Record(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	l.now = func() time.Time { return testTime }

	require.NoError(t, l.Record("save", "ledger.csv"))
	require.NoError(t, l.Record("redo", "insert row 1"))

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Timestamp: testTime, Action: "save", Details: "ledger.csv"}, entries[0])
	assert.Equal(t, "redo", entries[1].Action)
}
