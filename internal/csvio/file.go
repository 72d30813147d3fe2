package csvio

import (
	"fmt"
	"os"

	"github.com/pocketbook-dev/pocketbook/internal/fsutil"
	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// ImportFile reads a ledger CSV from path.
func ImportFile(path string, opts Options) (Import, error) {
	f, err := os.Open(path)
	if err != nil {
		return Import{}, &model.IOError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()

	imp, err := ReadRecords(f, opts)
	if err != nil {
		return imp, fmt.Errorf("importing %s: %w", path, err)
	}
	return imp, nil
}

// ExportFile writes records to path, replacing it atomically.
func ExportFile(path string, records []model.Record, opts Options) error {
	return fsutil.WriteAtomic(path, func(f *os.File) error {
		return WriteRecords(f, records, opts)
	})
}
