package derive

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketbook-dev/pocketbook/internal/ledger"
	"github.com/pocketbook-dev/pocketbook/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func snapshot(records ...model.Record) ledger.Snapshot {
	return ledger.NewSnapshot(records)
}

func TestSalaryCoffeeScenario(t *testing.T) {
	s := snapshot(
		model.Record{Date: date(2024, 1, 1), Description: "Salary", Amount: dec("1000")},
		model.Record{Date: date(2024, 1, 2), Description: "Coffee", Amount: dec("-5")},
	)

	pie := PieData(s)
	require.Len(t, pie, 2)
	assert.Equal(t, "Salary", pie[0].Description)
	assert.True(t, pie[0].Total.Equal(dec("1000")))
	assert.Equal(t, "Coffee", pie[1].Description)
	assert.True(t, pie[1].Total.Equal(dec("-5")))

	line := LineData(s)
	require.Len(t, line, 2)
	assert.True(t, line[0].Date.Equal(date(2024, 1, 1)))
	assert.True(t, line[0].Balance.Equal(dec("1000")))
	assert.True(t, line[1].Date.Equal(date(2024, 1, 2)))
	assert.True(t, line[1].Balance.Equal(dec("995")))
}

func TestPieData_FirstOccurrenceOrder(t *testing.T) {
	s := snapshot(
		model.Record{Date: date(2024, 1, 3), Description: "Rent", Amount: dec("-500")},
		model.Record{Date: date(2024, 1, 1), Description: "Food", Amount: dec("-20")},
		model.Record{Date: date(2024, 1, 2), Description: "Rent", Amount: dec("-500")},
		model.Record{Date: date(2024, 1, 4), Description: "Food", Amount: dec("-12.50")},
	)
	pie := PieData(s)
	require.Len(t, pie, 2)
	assert.Equal(t, "Rent", pie[0].Description)
	assert.Equal(t, 2, pie[0].Count)
	assert.Equal(t, "-1000.00", pie[0].Total.StringFixed(2))
	assert.Equal(t, "Food", pie[1].Description)
	assert.Equal(t, "-32.50", pie[1].Total.StringFixed(2))
}

func TestPieData_Empty(t *testing.T) {
	assert.Empty(t, PieData(ledger.Snapshot{}))
	assert.Empty(t, LineData(ledger.Snapshot{}))
}

func TestTopSlices(t *testing.T) {
	slices := []Slice{
		{Description: "a", Total: dec("5")},
		{Description: "b", Total: dec("50")},
		{Description: "c", Total: dec("5")},
		{Description: "d", Total: dec("-3")},
	}
	top := TopSlices(slices, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].Description)
	assert.Equal(t, "a", top[1].Description, "ties keep first-occurrence order")
	assert.Equal(t, "c", top[2].Description)

	assert.Equal(t, "a", slices[0].Description, "input untouched")
	assert.Len(t, TopSlices(slices, 0), 4)
}

func TestLineData_CollapsesEqualDates(t *testing.T) {
	s := snapshot(
		model.Record{Date: date(2024, 2, 1), Description: "x", Amount: dec("10")},
		model.Record{Date: date(2024, 1, 15), Description: "y", Amount: dec("100")},
		model.Record{Date: date(2024, 2, 1), Description: "z", Amount: dec("-30")},
	)
	line := LineData(s)
	require.Len(t, line, 2)
	assert.True(t, line[0].Date.Equal(date(2024, 1, 15)))
	assert.Equal(t, "100", line[0].Balance.String())
	assert.True(t, line[1].Date.Equal(date(2024, 2, 1)))
	assert.Equal(t, "-20", line[1].Delta.String())
	assert.Equal(t, "80", line[1].Balance.String())
}

func TestSummarize(t *testing.T) {
	s := snapshot(
		model.Record{Date: date(2024, 3, 2), Description: "Salary", Amount: dec("1000")},
		model.Record{Date: date(2024, 3, 1), Description: "Rent", Amount: dec("-400")},
		model.Record{Date: date(2024, 3, 5), Description: "Food", Amount: dec("-25.25")},
	)
	sum := Summarize(s)
	assert.Equal(t, 3, sum.Records)
	assert.Equal(t, "1000.00", sum.Income.StringFixed(2))
	assert.Equal(t, "-425.25", sum.Expenses.StringFixed(2))
	assert.Equal(t, "574.75", sum.Net.StringFixed(2))
	assert.True(t, sum.First.Equal(date(2024, 3, 1)))
	assert.True(t, sum.Last.Equal(date(2024, 3, 5)))
}

// Totals must agree with a direct sum for arbitrary ledgers.
func TestAggregatesMatchGrandTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	descs := []string{"Salary", "Rent", "Food", "Fuel", ""}

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(30)
		records := make([]model.Record, n)
		for i := range records {
			records[i] = model.Record{
				Date:        date(2024, 1+rng.Intn(12), 1+rng.Intn(28)),
				Description: descs[rng.Intn(len(descs))],
				Amount:      decimal.New(rng.Int63n(200000)-100000, -2),
			}
		}
		s := ledger.NewSnapshot(records)
		grand := s.Total()

		pieTotal := decimal.Zero
		for _, sl := range PieData(s) {
			pieTotal = pieTotal.Add(sl.Total)
		}
		assert.True(t, grand.Equal(pieTotal), "iter %d: pie %s != %s", iter, pieTotal, grand)

		line := LineData(s)
		if n == 0 {
			assert.Empty(t, line)
			continue
		}
		final := line[len(line)-1].Balance
		assert.True(t, grand.Equal(final), "iter %d: line %s != %s", iter, final, grand)
		for i := 1; i < len(line); i++ {
			assert.True(t, line[i-1].Date.Before(line[i].Date), "iter %d: dates strictly ascending", iter)
		}
	}
}
