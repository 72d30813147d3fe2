package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketbook-dev/pocketbook/internal/model"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	err := WriteAtomic(path, func(f *os.File) error {
		_, err := f.WriteString("hello")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file cleaned up")
}

func TestWriteAtomic_KeepsOldFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	boom := errors.New("boom")
	err := WriteAtomic(path, func(*os.File) error { return boom })
	assert.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.txt")
	err := WriteAtomic(path, func(*os.File) error { return nil })

	var ioe *model.IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "write", ioe.Op)
	assert.Equal(t, path, ioe.Path)
}
