package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// Snapshot is an immutable ledger: an ordered sequence of records.
// Snapshots may share backing arrays; nothing ever writes into one after
// construction, so copies of a Snapshot are cheap.
type Snapshot struct {
	records []model.Record
}

// NewSnapshot copies records into a new Snapshot.
func NewSnapshot(records []model.Record) Snapshot {
	if len(records) == 0 {
		return Snapshot{}
	}
	cp := make([]model.Record, len(records))
	copy(cp, records)
	return Snapshot{records: cp}
}

// Len returns the number of records.
func (s Snapshot) Len() int { return len(s.records) }

// At returns the record at row i.
func (s Snapshot) At(i int) model.Record { return s.records[i] }

// Records returns a copy of the records in row order.
func (s Snapshot) Records() []model.Record {
	if len(s.records) == 0 {
		return nil
	}
	cp := make([]model.Record, len(s.records))
	copy(cp, s.records)
	return cp
}

// Total sums all amounts.
func (s Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.records {
		total = total.Add(r.Amount)
	}
	return total
}

// Equal reports whether both snapshots hold equal records in the same order.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.records) != len(o.records) {
		return false
	}
	for i := range s.records {
		if !s.records[i].Equal(o.records[i]) {
			return false
		}
	}
	return true
}

// with returns a new Snapshot built by splicing: rows [0,i) of s, then add,
// then rows [j,len) of s.
func (s Snapshot) with(i, j int, add ...model.Record) Snapshot {
	out := make([]model.Record, 0, len(s.records)-(j-i)+len(add))
	out = append(out, s.records[:i]...)
	out = append(out, add...)
	out = append(out, s.records[j:]...)
	return Snapshot{records: out}
}
