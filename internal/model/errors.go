package model

import "fmt"

// Record field names, as they appear in CSV headers and error messages.
const (
	FieldDate        = "date"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldType        = "type"
)

// ValidationError describes a record field that cannot be saved.
type ValidationError struct {
	Row    int // 0 = not tied to a ledger row
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := e.Field + ": " + e.Reason
	if e.Value != "" {
		msg = fmt.Sprintf("%s: %q %s", e.Field, e.Value, e.Reason)
	}
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	return msg
}

// ParseError describes a malformed CSV row that was skipped during import.
type ParseError struct {
	Line   int // 1-based line in the file, header is line 1
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError describes a file that could not be read or written.
type IOError struct {
	Op   string // "read", "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
