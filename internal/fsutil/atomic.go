// Package fsutil has small file helpers shared by the exporters.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// WriteAtomic writes path through a temp file in the same directory and
// renames it into place, so a failed write never truncates an existing file.
// Failures are reported as *model.IOError.
func WriteAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
