package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar date format for records.
const DateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// Record is one dated, described, signed-amount ledger entry.
// Positive amounts are income, negative amounts are expenses.
type Record struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// NewRecord builds a Record with the date truncated to a UTC calendar day.
func NewRecord(date time.Time, description string, amount decimal.Decimal) Record {
	return Record{
		Date:        Day(date),
		Description: description,
		Amount:      amount,
	}
}

// ParseRecord builds a Record from raw field text, as typed by a user.
func ParseRecord(date, description, amount string) (Record, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Record{}, err
	}
	a, err := ParseAmount(amount)
	if err != nil {
		return Record{}, err
	}
	r := NewRecord(d, description, a)
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// ParseDate parses a canonical YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: FieldDate, Reason: "missing date"}
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: FieldDate, Value: s, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

// ParseAmount parses a signed decimal amount with a '.' separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: FieldAmount, Reason: "missing amount"}
	}
	a, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: FieldAmount, Value: s, Reason: "not a number"}
	}
	return a, nil
}

// Validate reports the first field that keeps the record from being saved.
func (r Record) Validate() error {
	if r.Date.IsZero() {
		return &ValidationError{Field: FieldDate, Reason: "missing date"}
	}
	// Exact cents: no more than 2 decimal places.
	if !r.Amount.Mul(hundred).Equal(r.Amount.Mul(hundred).Floor()) {
		return &ValidationError{Field: FieldAmount, Value: r.Amount.String(), Reason: "more than 2 decimal places"}
	}
	return nil
}

// Equal reports whether two records hold the same values.
func (r Record) Equal(o Record) bool {
	return r.Date.Equal(o.Date) && r.Description == o.Description && r.Amount.Equal(o.Amount)
}

// Income reports whether the record adds money.
func (r Record) Income() bool {
	return r.Amount.IsPositive()
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
