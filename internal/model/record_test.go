package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	r, err := ParseRecord("2024-01-02", "Coffee", "-5.50")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, "Coffee", r.Description)
	assert.Equal(t, "-5.50", r.Amount.StringFixed(2))
	assert.False(t, r.Income())
}

func TestParseRecord_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		amount string
		field  string
	}{
		{"missing date", "", "1.00", FieldDate},
		{"bad date", "01/02/2024", "1.00", FieldDate},
		{"missing amount", "2024-01-02", "", FieldAmount},
		{"non-numeric amount", "2024-01-02", "ten", FieldAmount},
		{"too precise", "2024-01-02", "1.005", FieldAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.date, "x", tt.amount)
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "want ValidationError, got %T", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestRecordValidate_ZeroDate(t *testing.T) {
	err := Record{Description: "x", Amount: decimal.NewFromInt(1)}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing date")
}

func TestNewRecord_TruncatesToDay(t *testing.T) {
	loc := time.FixedZone("X", 5*3600)
	r := NewRecord(time.Date(2024, 3, 9, 23, 30, 0, 0, loc), "x", decimal.Zero)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), r.Date)
}

func TestRecordEqual(t *testing.T) {
	a, err := ParseRecord("2024-01-01", "Salary", "1000")
	require.NoError(t, err)
	b, err := ParseRecord("2024-01-01", "Salary", "1000.00")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	b.Description = "Bonus"
	assert.False(t, a.Equal(b))
}

func TestErrorMessages(t *testing.T) {
	ve := &ValidationError{Row: 3, Field: FieldAmount, Value: "ten", Reason: "not a number"}
	assert.Equal(t, `row 3: amount: "ten" not a number`, ve.Error())

	pe := &ParseError{Line: 4, Column: FieldDate, Err: errors.New("bad")}
	assert.Equal(t, "line 4, column date: bad", pe.Error())

	inner := errors.New("denied")
	ioe := &IOError{Op: "write", Path: "/x.csv", Err: inner}
	assert.ErrorIs(t, ioe, inner)
}
