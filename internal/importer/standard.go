package importer

import (
	"io"

	"github.com/pocketbook-dev/pocketbook/internal/csvio"
	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// StandardParser reads pocketbook's own CSV format, including files with a
// type column.
type StandardParser struct {
	Options csvio.Options
}

// Format returns the parser name.
func (p *StandardParser) Format() string { return "standard" }

// Accepts reports whether header names date, description and amount columns.
func (p *StandardParser) Accepts(header []string) bool {
	seen := make(map[string]bool)
	for _, h := range header {
		seen[csvio.NormalizeHeader(h)] = true
	}
	return seen[model.FieldDate] && seen[model.FieldDescription] && seen[model.FieldAmount]
}

// Parse reads records with csvio.
func (p *StandardParser) Parse(r io.Reader) (csvio.Import, error) {
	return csvio.ReadRecords(r, p.Options)
}
