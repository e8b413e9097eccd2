package index

import (
	"github.com/ssargent/wpilogviewer/pkg/bptree"
	"github.com/ssargent/wpilogviewer/pkg/value"
)

// Entry is one incarnation of a channel: the span between a Start and the
// matching Finish (or the next Start) for an ID. Its identity is the pair
// (ID, Start). An Entry is mutated only while its Index is loading.
type Entry struct {
	ID    uint32
	Name  string
	Type  string
	Start uint64

	end    uint64
	closed bool

	metadata *bptree.BPlusTree[uint64, string]
	records  *bptree.BPlusTree[uint64, value.Record]
}

// MetadataChange is one entry of an incarnation's metadata history.
type MetadataChange struct {
	Timestamp uint64
	Metadata  string
}

func newEntry(id uint32, name, typ, metadata string, start uint64, order int) *Entry {
	e := &Entry{
		ID:       id,
		Name:     name,
		Type:     typ,
		Start:    start,
		metadata: bptree.NewBPlusTree[uint64, string](order),
		records:  bptree.NewBPlusTree[uint64, value.Record](order),
	}
	e.metadata.Insert(start, metadata)
	return e
}

// End returns the closing timestamp and whether the incarnation was closed.
func (e *Entry) End() (uint64, bool) {
	return e.end, e.closed
}

// Closed reports whether a Finish (or a reopen) closed the incarnation.
func (e *Entry) Closed() bool {
	return e.closed
}

// ActiveAt reports whether the incarnation is live at t. The closing
// timestamp itself still counts as live.
func (e *Entry) ActiveAt(t uint64) bool {
	if t < e.Start {
		return false
	}
	return !e.closed || t <= e.end
}

// IsExpiredAt reports whether t is at or after the closing timestamp.
func (e *Entry) IsExpiredAt(t uint64) bool {
	return e.closed && t >= e.end
}

// MetadataAt returns the metadata in effect at t.
func (e *Entry) MetadataAt(t uint64) (string, bool) {
	_, m, ok := e.metadata.Floor(t)
	return m, ok
}

// Metadata returns the full metadata history in timestamp order.
func (e *Entry) Metadata() []MetadataChange {
	changes := make([]MetadataChange, 0, e.metadata.Len())
	e.metadata.Scan(func(ts uint64, m string) bool {
		changes = append(changes, MetadataChange{Timestamp: ts, Metadata: m})
		return true
	})
	return changes
}

// RecordAt returns the latest record with timestamp at or before t.
func (e *Entry) RecordAt(t uint64) (value.Record, bool) {
	_, r, ok := e.records.Floor(t)
	return r, ok
}

// Records returns every stored record in timestamp order.
func (e *Entry) Records() []value.Record {
	records := make([]value.Record, 0, e.records.Len())
	e.records.Scan(func(_ uint64, r value.Record) bool {
		records = append(records, r)
		return true
	})
	return records
}

// RecordsBetween returns the records with from <= timestamp <= to.
func (e *Entry) RecordsBetween(from, to uint64) []value.Record {
	var records []value.Record
	e.records.Ascend(from, func(ts uint64, r value.Record) bool {
		if ts > to {
			return false
		}
		records = append(records, r)
		return true
	})
	return records
}

// RecordCount returns the number of stored records.
func (e *Entry) RecordCount() int {
	return e.records.Len()
}

func (e *Entry) finish(t uint64) {
	e.end = t
	e.closed = true
}

func (e *Entry) setMetadata(t uint64, metadata string) {
	e.metadata.Insert(t, metadata)
}

func (e *Entry) addRecord(r value.Record) {
	e.records.Insert(r.Timestamp, r)
}
