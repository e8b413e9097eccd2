package query

import (
	"context"
	"fmt"
	"math"

	"github.com/ssargent/wpilogviewer/pkg/index"
	"github.com/ssargent/wpilogviewer/pkg/value"
)

// checkEvery is how many records are scanned between context checks.
const checkEvery = 4096

// SimpleEngine answers queries by scanning an incarnation's value history.
type SimpleEngine struct{}

// NewSimpleEngine creates a new query engine
func NewSimpleEngine() *SimpleEngine {
	return &SimpleEngine{}
}

var _ Engine = (*SimpleEngine)(nil)

// Execute returns the records of entry within [q.From, q.To] that satisfy
// q.Condition. Records the extractor cannot read never match a condition.
func (qe *SimpleEngine) Execute(ctx context.Context, entry *index.Entry, q Query) (Iterator, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	records := entry.RecordsBetween(q.From, q.To)
	if q.Condition == nil {
		return &sliceIterator{records: records}, nil
	}

	extractor := q.extractor()
	results := make([]value.Record, 0, len(records))
	for i, r := range records {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		x, err := extractor.Extract(r.Value)
		if err != nil {
			continue
		}
		if q.Condition.Match(x) {
			results = append(results, r)
		}
	}
	return &sliceIterator{records: results}, nil
}

// Stats aggregates the numeric readings of the records Execute would return.
// NaN and infinite readings are counted as skipped.
func (qe *SimpleEngine) Stats(ctx context.Context, entry *index.Entry, q Query) (Stats, error) {
	it, err := qe.Execute(ctx, entry, q)
	if err != nil {
		return Stats{}, err
	}
	defer it.Close()

	extractor := q.extractor()
	stats := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for it.Next() {
		r := it.Record()
		x, err := extractor.Extract(r.Value)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			stats.Skipped++
			continue
		}
		if stats.Count == 0 {
			stats.First = r.Timestamp
		}
		stats.Last = r.Timestamp
		stats.Count++
		sum += x
		stats.Min = math.Min(stats.Min, x)
		stats.Max = math.Max(stats.Max, x)
	}

	if stats.Count == 0 {
		stats.Min, stats.Max = 0, 0
		return stats, nil
	}
	stats.Mean = sum / float64(stats.Count)
	return stats, nil
}

func (q Query) validate() error {
	if q.From > q.To {
		return fmt.Errorf("invalid range: from %d is after to %d", q.From, q.To)
	}
	if q.Condition != nil {
		if err := q.Condition.Validate(); err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
	}
	return nil
}

func (q Query) extractor() Extractor {
	if q.Extractor == nil {
		return ScalarExtractor{}
	}
	return q.Extractor
}

// sliceIterator implements Iterator over materialised results
type sliceIterator struct {
	records []value.Record
	index   int
}

func (it *sliceIterator) Next() bool {
	if it.index < len(it.records) {
		it.index++
		return true
	}
	return false
}

func (it *sliceIterator) Record() value.Record {
	if it.index > 0 && it.index <= len(it.records) {
		return it.records[it.index-1]
	}
	return value.Record{}
}

func (it *sliceIterator) Close() error {
	it.records = nil
	return nil
}

// Collect drains it into a slice and closes it.
func Collect(it Iterator) ([]value.Record, error) {
	var out []value.Record
	for it.Next() {
		out = append(out, it.Record())
	}
	return out, it.Close()
}
