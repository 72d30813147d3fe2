// Package csvio reads and writes ledgers as CSV.
//
// Format: a header row naming the columns date, description and amount (any
// order, any case), then one record per row. Dates are YYYY-MM-DD unless other
// layouts are configured. Amounts are signed decimals with a '.' separator and
// at most two decimal places. An optional type column marks rows as income or
// expense; when present the amount is taken as a magnitude and signed by type.
//
// Rows that fail to parse are skipped and reported; the rest still import.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// Header is the canonical CSV header.
var Header = []string{model.FieldDate, model.FieldDescription, model.FieldAmount}

const (
	colDate   = 0
	colDesc   = 1
	colAmount = 2
	numFields = 3
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Options controls parsing.
type Options struct {
	// DateLayouts are tried in order when parsing dates. The first layout is
	// also used when writing. Empty means model.DateLayout only.
	DateLayouts []string
}

func (o Options) layouts() []string {
	if len(o.DateLayouts) == 0 {
		return []string{model.DateLayout}
	}
	return o.DateLayouts
}

// Import is the outcome of reading a CSV: the rows that parsed, in file
// order, and one ParseError per rejected row.
type Import struct {
	Records  []model.Record
	Rejected []*model.ParseError
	Typed    bool // the file carries a type column, which WriteRecords does not write
}

// columns maps record fields to positions in a row.
type columns struct {
	date, desc, amount int
	kind               int // -1 when the file has no type column
}

// ReadRecords reads a ledger CSV. A malformed header or unreadable CSV
// fails the whole read; bad rows are collected in Import.Rejected.
func ReadRecords(r io.Reader, opts Options) (Import, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Import{}, nil
	}
	if err != nil {
		return Import{}, fmt.Errorf("reading header: %w", err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return Import{}, err
	}

	out := Import{Typed: cols.kind >= 0}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return out, fmt.Errorf("reading CSV: %w", err)
			}
			out.Rejected = append(out.Rejected, &model.ParseError{Line: pe.StartLine, Err: pe.Err})
			continue
		}
		if blank(rec) {
			continue
		}
		record, perr := cols.parse(rec, opts)
		if perr != nil {
			perr.Line, _ = cr.FieldPos(0)
			out.Rejected = append(out.Rejected, perr)
			continue
		}
		out.Records = append(out.Records, record)
	}
	return out, nil
}

// WriteRecords writes records with the canonical header, in order.
func WriteRecords(w io.Writer, records []model.Record, opts Options) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	layout := opts.layouts()[0]
	for i, r := range records {
		if err := cw.Write(MarshalRecord(r, layout)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRecord converts a Record to a canonical CSV row.
func MarshalRecord(r model.Record, layout string) []string {
	row := make([]string, numFields)
	row[colDate] = r.Date.Format(layout)
	row[colDesc] = r.Description
	row[colAmount] = r.Amount.StringFixed(2)
	return row
}

func mapHeader(header []string) (columns, error) {
	cols := columns{date: -1, desc: -1, amount: -1, kind: -1}
	for i, name := range header {
		switch NormalizeHeader(name) {
		case model.FieldDate:
			cols.date = i
		case model.FieldDescription:
			cols.desc = i
		case model.FieldAmount:
			cols.amount = i
		case model.FieldType:
			cols.kind = i
		}
	}
	var missing []string
	if cols.date < 0 {
		missing = append(missing, model.FieldDate)
	}
	if cols.desc < 0 {
		missing = append(missing, model.FieldDescription)
	}
	if cols.amount < 0 {
		missing = append(missing, model.FieldAmount)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

// NormalizeHeader lowercases and trims a header cell, dropping a UTF-8 BOM.
func NormalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

func (c columns) parse(rec []string, opts Options) (model.Record, *model.ParseError) {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := parseDate(field(c.date), opts.layouts())
	if err != nil {
		return model.Record{}, &model.ParseError{Column: model.FieldDate, Err: err}
	}
	amount, err := model.ParseAmount(field(c.amount))
	if err != nil {
		return model.Record{}, &model.ParseError{Column: model.FieldAmount, Err: err}
	}
	if c.kind >= 0 {
		amount = amount.Abs()
		if !strings.EqualFold(field(c.kind), "income") {
			amount = amount.Neg()
		}
	}

	r := model.NewRecord(date, field(c.desc), amount)
	if err := r.Validate(); err != nil {
		var ve *model.ValidationError
		col := ""
		if errors.As(err, &ve) {
			col = ve.Field
		}
		return model.Record{}, &model.ParseError{Column: col, Err: err}
	}
	return r, nil
}

func parseDate(s string, layouts []string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &model.ValidationError{Field: model.FieldDate, Reason: "missing date"}
	}
	for _, layout := range layouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, &model.ValidationError{
		Field:  model.FieldDate,
		Value:  s,
		Reason: "does not match " + strings.Join(layouts, " or "),
	}
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
