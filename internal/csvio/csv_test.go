package csvio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketbook-dev/pocketbook/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundTrip(t *testing.T) {
	records := []model.Record{
		{Date: date(2024, 1, 2), Description: "Coffee", Amount: dec("-5")},
		{Date: date(2024, 1, 1), Description: "Salary", Amount: dec("1000")},
		{Date: date(2024, 1, 3), Description: `Dinner, "Luigi's"`, Amount: dec("-42.10")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, records, Options{}))
	assert.True(t, strings.HasPrefix(buf.String(), "date,description,amount\n"))

	got, err := ReadRecords(&buf, Options{})
	require.NoError(t, err)
	assert.Empty(t, got.Rejected)
	require.Len(t, got.Records, len(records))
	for i := range records {
		assert.True(t, records[i].Equal(got.Records[i]), "row %d: %+v != %+v", i, records[i], got.Records[i])
	}
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/ledger.csv")
	require.NoError(t, err)
	defer f.Close()

	got, err := ReadRecords(f, Options{})
	require.NoError(t, err)
	assert.Empty(t, got.Rejected)
	require.Len(t, got.Records, 8)
	assert.Equal(t, "Salary", got.Records[0].Description)
	assert.Equal(t, "-82.17", got.Records[3].Amount.StringFixed(2))
}

func TestFileRoundTripIsByteIdentical(t *testing.T) {
	src := "../../testdata/ledger.csv"
	imp, err := ImportFile(src, Options{})
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, ExportFile(dst, imp.Records, Options{}))

	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestTypedColumn(t *testing.T) {
	imp, err := ImportFile("../../testdata/typed.csv", Options{})
	require.NoError(t, err)
	assert.Empty(t, imp.Rejected)
	require.Len(t, imp.Records, 4)

	want := []string{"2500.00", "-900.00", "-4.50", "12.00"}
	for i, w := range want {
		assert.Equal(t, w, imp.Records[i].Amount.StringFixed(2), "row %d", i)
	}
	assert.True(t, imp.Records[0].Date.Equal(date(2024, 2, 1)))
	assert.True(t, imp.Typed)

	canonical, err := ImportFile("../../testdata/ledger.csv", Options{})
	require.NoError(t, err)
	assert.False(t, canonical.Typed)
}

func TestBadRowsAreSkipped(t *testing.T) {
	in := strings.Join([]string{
		"date,description,amount",
		"2024-01-01,Salary,1000",
		"not-a-date,Broken,1",
		"2024-01-02,Coffee,lots",
		"2024-01-03,Tea",
		"2024-01-04,Precise,1.234",
		",,",
		"2024-01-05,Lunch,-12.5",
	}, "\n")

	got, err := ReadRecords(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "Salary", got.Records[0].Description)
	assert.Equal(t, "Lunch", got.Records[1].Description)

	require.Len(t, got.Rejected, 4)
	lines := []int{3, 4, 5, 6}
	cols := []string{model.FieldDate, model.FieldAmount, model.FieldAmount, model.FieldAmount}
	for i, pe := range got.Rejected {
		assert.Equal(t, lines[i], pe.Line, "rejected %d", i)
		assert.Equal(t, cols[i], pe.Column, "rejected %d", i)
		var ve *model.ValidationError
		assert.True(t, errors.As(pe, &ve), "rejected %d wraps a ValidationError", i)
	}
}

func TestHeaderAnyOrderAndCase(t *testing.T) {
	in := "Amount, DESCRIPTION ,Date\n-3.00,Bus,2024-05-06\n"
	got, err := ReadRecords(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "Bus", got.Records[0].Description)
	assert.Equal(t, "-3.00", got.Records[0].Amount.StringFixed(2))
}

func TestMissingColumn(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("date,amount\n2024-01-01,1\n"), Options{})
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "description")
}

func TestEmptyInput(t *testing.T) {
	got, err := ReadRecords(strings.NewReader(""), Options{})
	require.NoError(t, err)
	assert.Empty(t, got.Records)

	got, err = ReadRecords(strings.NewReader("date,description,amount\n"), Options{})
	require.NoError(t, err)
	assert.Empty(t, got.Records)
}

func TestAlternateDateLayouts(t *testing.T) {
	opts := Options{DateLayouts: []string{"02/01/2006", model.DateLayout}}
	in := "date,description,amount\n31/12/2024,A,1\n2024-12-30,B,2\n"
	got, err := ReadRecords(strings.NewReader(in), opts)
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	assert.True(t, got.Records[0].Date.Equal(date(2024, 12, 31)))

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, got.Records, opts))
	assert.Contains(t, buf.String(), "30/12/2024,B,2.00")
}

func TestMarshalRecordFixesTwoDecimals(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"4", "4.00"},
		{"127.5", "127.50"},
		{"-0.1", "-0.10"},
		{"0", "0.00"},
	}
	for _, tt := range tests {
		row := MarshalRecord(model.Record{Date: date(2024, 1, 1), Amount: dec(tt.input)}, model.DateLayout)
		assert.Equal(t, tt.want, row[colAmount], "input %q", tt.input)
	}
}

func TestImportFile_Missing(t *testing.T) {
	_, err := ImportFile(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	var ioe *model.IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "read", ioe.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExportFile_Unwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.csv")
	err := ExportFile(path, nil, Options{})
	var ioe *model.IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "write", ioe.Op)
	assert.Equal(t, path, ioe.Path)
}
