// Package report exports the current ledger view as a PDF: the records
// table, a per-description pie chart and a balance-over-time line chart.
package report

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/pocketbook-dev/pocketbook/internal/derive"
	"github.com/pocketbook-dev/pocketbook/internal/fsutil"
	"github.com/pocketbook-dev/pocketbook/internal/ledger"
	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("no data to export")

// Document is everything a renderer needs to lay out a report.
type Document struct {
	Title       string
	GeneratedAt time.Time
	Rows        []model.Record
	Pie         []derive.Slice // already ordered and limited
	PieLimit    int
	Line        []derive.Point
	Summary     derive.Summary
}

// Renderer lays out a Document and writes it to w.
type Renderer interface {
	Render(w io.Writer, doc Document) error
}

// Build derives a Document from a ledger snapshot. topN limits the pie chart
// to the largest descriptions; topN <= 0 keeps them all.
func Build(title string, s ledger.Snapshot, topN int, now time.Time) Document {
	return Document{
		Title:       title,
		GeneratedAt: now,
		Rows:        s.Records(),
		Pie:         derive.TopSlices(derive.PieData(s), topN),
		PieLimit:    topN,
		Line:        derive.LineData(s),
		Summary:     derive.Summarize(s),
	}
}

// Exporter writes rendered documents to files.
type Exporter struct {
	Renderer Renderer
}

// NewExporter creates an Exporter using r.
func NewExporter(r Renderer) *Exporter {
	return &Exporter{Renderer: r}
}

// Export renders doc to path. An empty document fails with ErrEmpty; an
// unwritable path fails with *model.IOError.
func (e *Exporter) Export(path string, doc Document) error {
	if len(doc.Rows) == 0 {
		return ErrEmpty
	}
	return fsutil.WriteAtomic(path, func(f *os.File) error {
		return e.Renderer.Render(f, doc)
	})
}
