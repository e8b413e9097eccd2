// Package storage persists decoded logs as snapshots in a pebble database.
// Every export is a run keyed by a KSUID, so runs sort by creation time.
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/wpilogviewer/pkg/index"
	"github.com/ssargent/wpilogviewer/pkg/value"
	"github.com/ssargent/wpilogviewer/pkg/wpilog"
)

// ErrRunNotFound is returned when a run ID has no stored snapshot.
var ErrRunNotFound = errors.New("storage: run not found")

const (
	runPrefix     = "run/"
	infoSuffix    = "/info"
	entryInfix    = "/entry/"
	valueInfix    = "/value/"
	batchMaxBytes = 4 << 20

	ksuidStringLen = 27

	infoKeyLen = len(runPrefix) + ksuidStringLen + len(infoSuffix)
)

// RunInfo describes one exported log.
type RunInfo struct {
	ID           ksuid.KSUID `json:"id"`
	Source       string      `json:"source"`
	Version      string      `json:"version"`
	ExtraHeader  string      `json:"extra_header"`
	Bytes        int64       `json:"bytes"`
	Digest       string      `json:"digest"`
	Incarnations int         `json:"incarnations"`
	Values       int         `json:"values"`
	CreatedAt    time.Time   `json:"created_at"`
}

// EntrySummary is the stored form of an index.Entry without its values.
type EntrySummary struct {
	ID       uint32                 `json:"id"`
	Name     string                 `json:"name"`
	Type     string                 `json:"type"`
	Start    uint64                 `json:"start"`
	End      *uint64                `json:"end,omitempty"`
	Metadata []index.MetadataChange `json:"metadata"`
	Records  int                    `json:"records"`
}

// StoredRecord is the stored form of a value.Record.
type StoredRecord struct {
	Timestamp uint64 `json:"timestamp"`
	Kind      string `json:"kind"`
	Value     any    `json:"value"`
}

// Storage is a pebble-backed snapshot store.
type Storage struct {
	db *pebble.DB
}

// Open opens or creates a snapshot store in dir.
func Open(dir string) (*Storage, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store %s: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// ExportRun writes every incarnation of idx and its values as a new run.
func (s *Storage) ExportRun(idx *index.Index, summary wpilog.Summary, source string) (RunInfo, error) {
	id := ksuid.New()
	h := idx.Header()
	info := RunInfo{
		ID:          id,
		Source:      source,
		Version:     h.Version(),
		ExtraHeader: string(h.Extra),
		Bytes:       summary.Bytes,
		Digest:      fmt.Sprintf("%016x", summary.Digest),
		CreatedAt:   id.Time().UTC(),
	}

	batch := s.db.NewBatch()
	defer func() { batch.Close() }()

	flush := func(force bool) error {
		if !force && batch.Len() < batchMaxBytes {
			return nil
		}
		if err := batch.Commit(pebble.Sync); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}
		batch.Close()
		batch = s.db.NewBatch()
		return nil
	}

	for _, e := range idx.Entries() {
		es := EntrySummary{
			ID:       e.ID,
			Name:     e.Name,
			Type:     e.Type,
			Start:    e.Start,
			Metadata: e.Metadata(),
			Records:  e.RecordCount(),
		}
		if end, ok := e.End(); ok {
			es.End = &end
		}
		if err := setJSON(batch, entryKey(id, e.ID, e.Start), es); err != nil {
			return RunInfo{}, err
		}
		info.Incarnations++

		for _, r := range e.Records() {
			stored := StoredRecord{
				Timestamp: r.Timestamp,
				Kind:      r.Kind().String(),
				Value:     value.JSON(r.Value),
			}
			if err := setJSON(batch, valueKey(id, e.ID, e.Start, r.Timestamp), stored); err != nil {
				return RunInfo{}, err
			}
			info.Values++
			if err := flush(false); err != nil {
				return RunInfo{}, err
			}
		}
	}

	// The info key goes last so a partially written run is never listed.
	if err := setJSON(batch, infoKey(id), info); err != nil {
		return RunInfo{}, err
	}
	if err := flush(true); err != nil {
		return RunInfo{}, err
	}
	return info, nil
}

// Runs lists every complete run, oldest first.
func (s *Storage) Runs() ([]RunInfo, error) {
	var runs []RunInfo
	err := s.scan([]byte(runPrefix), func(key, val []byte) error {
		if len(key) != infoKeyLen || !bytes.HasSuffix(key, []byte(infoSuffix)) {
			return nil
		}
		var info RunInfo
		if err := json.Unmarshal(val, &info); err != nil {
			return fmt.Errorf("failed to decode run info %q: %w", key, err)
		}
		runs = append(runs, info)
		return nil
	})
	return runs, err
}

// ReadRun returns a run's info and its incarnations ordered by ID and start.
func (s *Storage) ReadRun(id ksuid.KSUID) (RunInfo, []EntrySummary, error) {
	var info RunInfo
	val, closer, err := s.db.Get(infoKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return info, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return info, nil, err
	}
	err = json.Unmarshal(val, &info)
	closer.Close()
	if err != nil {
		return info, nil, fmt.Errorf("failed to decode run info: %w", err)
	}

	var entries []EntrySummary
	err = s.scan(runKey(id, entryInfix), func(_, val []byte) error {
		var e EntrySummary
		if err := json.Unmarshal(val, &e); err != nil {
			return fmt.Errorf("failed to decode entry: %w", err)
		}
		entries = append(entries, e)
		return nil
	})
	return info, entries, err
}

// ReadValues returns the stored values of one incarnation in timestamp order.
func (s *Storage) ReadValues(id ksuid.KSUID, channel uint32, start uint64) ([]StoredRecord, error) {
	prefix := binary.BigEndian.AppendUint32(runKey(id, valueInfix), channel)
	prefix = binary.BigEndian.AppendUint64(prefix, start)

	var records []StoredRecord
	err := s.scan(prefix, func(_, val []byte) error {
		var r StoredRecord
		if err := json.Unmarshal(val, &r); err != nil {
			return fmt.Errorf("failed to decode value: %w", err)
		}
		records = append(records, r)
		return nil
	})
	return records, err
}

// DeleteRun removes every key of a run.
func (s *Storage) DeleteRun(id ksuid.KSUID) error {
	prefix := runKey(id, "")
	return s.db.DeleteRange(prefix, prefixEnd(prefix), pebble.Sync)
}

func (s *Storage) scan(prefix []byte, fn func(key, val []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			iter.Close()
			return err
		}
	}
	return iter.Close()
}

func setJSON(batch *pebble.Batch, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}
	return batch.Set(key, data, nil)
}

func runKey(id ksuid.KSUID, infix string) []byte {
	key := make([]byte, 0, len(runPrefix)+ksuidStringLen+len(infix)+20)
	key = append(key, runPrefix...)
	key = append(key, id.String()...)
	return append(key, infix...)
}

func infoKey(id ksuid.KSUID) []byte {
	return runKey(id, infoSuffix)
}

// entryKey is run/<ksuid>/entry/<id BE32><start BE64>.
func entryKey(id ksuid.KSUID, channel uint32, start uint64) []byte {
	key := binary.BigEndian.AppendUint32(runKey(id, entryInfix), channel)
	return binary.BigEndian.AppendUint64(key, start)
}

// valueKey is run/<ksuid>/value/<id BE32><start BE64><ts BE64>.
func valueKey(id ksuid.KSUID, channel uint32, start, ts uint64) []byte {
	key := binary.BigEndian.AppendUint32(runKey(id, valueInfix), channel)
	key = binary.BigEndian.AppendUint64(key, start)
	return binary.BigEndian.AppendUint64(key, ts)
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
