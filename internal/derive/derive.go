// Package derive computes chart aggregates from a ledger snapshot.
// Everything here is a pure function of its input.
package derive

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pocketbook-dev/pocketbook/internal/ledger"
)

// Slice is one pie wedge: the total of all records sharing a description.
type Slice struct {
	Description string
	Total       decimal.Decimal
	Count       int
}

// Point is one line-chart sample: the balance at the end of a date.
type Point struct {
	Date    time.Time
	Delta   decimal.Decimal // sum of amounts on Date
	Balance decimal.Decimal // running total through Date
}

// Summary is a headline view of the ledger.
type Summary struct {
	Records  int
	Income   decimal.Decimal // sum of positive amounts
	Expenses decimal.Decimal // sum of negative amounts (<= 0)
	Net      decimal.Decimal
	First    time.Time
	Last     time.Time
}

// PieData totals amounts per description, in order of first occurrence.
func PieData(s ledger.Snapshot) []Slice {
	var slices []Slice
	index := make(map[string]int)
	for i := 0; i < s.Len(); i++ {
		r := s.At(i)
		j, ok := index[r.Description]
		if !ok {
			j = len(slices)
			index[r.Description] = j
			slices = append(slices, Slice{Description: r.Description, Total: decimal.Zero})
		}
		slices[j].Total = slices[j].Total.Add(r.Amount)
		slices[j].Count++
	}
	return slices
}

// TopSlices returns at most n slices ordered by total, largest first.
// Equal totals keep their first-occurrence order. n <= 0 means no limit.
func TopSlices(slices []Slice, n int) []Slice {
	out := make([]Slice, len(slices))
	copy(out, slices)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// LineData returns the running balance by date, ascending. Records sharing a
// date collapse into one point.
func LineData(s ledger.Snapshot) []Point {
	records := s.Records()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	var points []Point
	balance := decimal.Zero
	for _, r := range records {
		balance = balance.Add(r.Amount)
		if n := len(points); n > 0 && points[n-1].Date.Equal(r.Date) {
			points[n-1].Delta = points[n-1].Delta.Add(r.Amount)
			points[n-1].Balance = balance
			continue
		}
		points = append(points, Point{Date: r.Date, Delta: r.Amount, Balance: balance})
	}
	return points
}

// Summarize computes income, expense and net totals.
func Summarize(s ledger.Snapshot) Summary {
	sum := Summary{
		Records:  s.Len(),
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
	}
	for i := 0; i < s.Len(); i++ {
		r := s.At(i)
		if r.Amount.IsPositive() {
			sum.Income = sum.Income.Add(r.Amount)
		} else {
			sum.Expenses = sum.Expenses.Add(r.Amount)
		}
		if sum.First.IsZero() || r.Date.Before(sum.First) {
			sum.First = r.Date
		}
		if r.Date.After(sum.Last) {
			sum.Last = r.Date
		}
	}
	sum.Net = sum.Income.Add(sum.Expenses)
	return sum
}
