package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pocketbook-dev/pocketbook/internal/csvio"
	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Accepts matches the Chase checking export header.
func (p *ChaseParser) Accepts(header []string) bool {
	return len(header) == chaseNumFields &&
		strings.EqualFold(strings.TrimSpace(header[0]), "Details") &&
		strings.EqualFold(strings.TrimSpace(header[chaseColDate]), "Posting Date")
}

// Parse reads a Chase CSV. Rows that fail to parse are rejected, not fatal.
func (p *ChaseParser) Parse(r io.Reader) (csvio.Import, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return csvio.Import{}, nil
		}
		return csvio.Import{}, fmt.Errorf("reading chase header: %w", err)
	}

	var out csvio.Import
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return out, fmt.Errorf("reading chase CSV: %w", err)
			}
			out.Rejected = append(out.Rejected, &model.ParseError{Line: pe.StartLine, Err: pe.Err})
			continue
		}
		line, _ := cr.FieldPos(0)
		record, perr := parseChaseRow(rec)
		if perr != nil {
			perr.Line = line
			out.Rejected = append(out.Rejected, perr)
			continue
		}
		out.Records = append(out.Records, record)
	}
	return out, nil
}

func parseChaseRow(rec []string) (model.Record, *model.ParseError) {
	date, err := time.Parse(chaseDateFormat, strings.TrimSpace(rec[chaseColDate]))
	if err != nil {
		return model.Record{}, &model.ParseError{
			Column: model.FieldDate,
			Err:    fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err),
		}
	}

	amount, err := model.ParseAmount(rec[chaseColAmount])
	if err != nil {
		return model.Record{}, &model.ParseError{
			Column: model.FieldAmount,
			Err:    fmt.Errorf("parsing amount: %w", err),
		}
	}

	r := model.NewRecord(date, strings.TrimSpace(rec[chaseColDesc]), amount)
	if err := r.Validate(); err != nil {
		return model.Record{}, &model.ParseError{Column: model.FieldAmount, Err: err}
	}
	return r, nil
}
