package index

import (
	"errors"
	"slices"
	"sync"

	"github.com/ssargent/wpilogviewer/pkg/bptree"
	"github.com/ssargent/wpilogviewer/pkg/codec"
	"github.com/ssargent/wpilogviewer/pkg/logging"
	"github.com/ssargent/wpilogviewer/pkg/value"
	"github.com/ssargent/wpilogviewer/pkg/wpilog"
)

// DefaultProgressInterval is how many values are processed between progress
// log lines.
const DefaultProgressInterval = 10_000

// DefaultOrder is the B+tree order used for incarnation and history trees.
const DefaultOrder = 32

// Anomaly names reported to a Recorder.
const (
	AnomalyMissingEntry   = "missing_entry"
	AnomalyInvalidPayload = "invalid_payload"
	AnomalyTrailingBytes  = "trailing_bytes"
	AnomalyAfterFinish    = "after_finish"
	AnomalyOverride       = "override"
)

// Recorder receives counters while an Index is loading.
type Recorder interface {
	Incarnation()
	Value(typ string)
	Anomaly(kind string)
}

type nopRecorder struct{}

func (nopRecorder) Incarnation()   {}
func (nopRecorder) Value(string)   {}
func (nopRecorder) Anomaly(string) {}

// Options configures an Index.
type Options struct {
	Logger           logging.Logger
	Recorder         Recorder
	UTF8Policy       codec.UTF8Policy
	ProgressInterval uint64
	Order            int
}

// Index reconstructs every channel incarnation of a log and answers
// "which incarnation of id was live at t" queries. It implements
// wpilog.Sink; after loading it is safe for concurrent readers.
type Index struct {
	entries    map[uint32]*bptree.BPlusTree[uint64, *Entry]
	header     codec.Header
	decoder    *value.Decoder
	logger     logging.Logger
	recorder   Recorder
	progress   uint64
	order      int
	valueCount uint64
	mutex      sync.RWMutex
}

var _ wpilog.Sink = (*Index)(nil)
var _ wpilog.HeaderSink = (*Index)(nil)

// New creates an empty index.
func New(opts Options) *Index {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.ProgressInterval == 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.Order < 3 {
		opts.Order = DefaultOrder
	}

	return &Index{
		entries:  make(map[uint32]*bptree.BPlusTree[uint64, *Entry]),
		decoder:  value.NewDecoder(opts.UTF8Policy),
		logger:   opts.Logger,
		recorder: opts.Recorder,
		progress: opts.ProgressInterval,
		order:    opts.Order,
	}
}

// OnHeader keeps the file header for later inspection.
func (idx *Index) OnHeader(h codec.Header) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.header = h
	return nil
}

// Header returns the header of the loaded log.
func (idx *Index) Header() codec.Header {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return idx.header
}

// OnStart opens a new incarnation of id at ts.
func (idx *Index) OnStart(id uint32, name, typ, metadata string, ts uint64) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.logger.Debug("log start", "id", id, "name", name)

	starts, ok := idx.entries[id]
	if !ok {
		starts = bptree.NewBPlusTree[uint64, *Entry](idx.order)
		idx.entries[id] = starts
	}

	if _, prev, ok := starts.Floor(ts); ok && !prev.Closed() {
		idx.logger.Warn("overriding existing entry", "id", prev.ID, "name", prev.Name, "timestamp", ts)
		idx.recorder.Anomaly(AnomalyOverride)
		prev.finish(ts)
	}

	starts.Insert(ts, newEntry(id, name, typ, metadata, ts, idx.order))
	idx.recorder.Incarnation()
	return nil
}

// OnFinish closes the incarnation of id live at ts.
func (idx *Index) OnFinish(id uint32, ts uint64) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.logger.Debug("log finish", "id", id)

	e := idx.resolve(id, ts)
	if e == nil {
		idx.logger.Error("could not end non-existent entry", "id", id, "timestamp", ts)
		idx.recorder.Anomaly(AnomalyMissingEntry)
		return nil
	}
	e.finish(ts)
	return nil
}

// OnSetMetadata records a metadata change on the incarnation of id live at ts.
func (idx *Index) OnSetMetadata(id uint32, ts uint64, metadata string) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.logger.Debug("log set metadata", "id", id)

	e := idx.resolve(id, ts)
	if e == nil {
		idx.logger.Error("could not set metadata of non-existent entry", "id", id, "timestamp", ts)
		idx.recorder.Anomaly(AnomalyMissingEntry)
		return nil
	}
	idx.checkExpired(e, ts)
	e.setMetadata(ts, metadata)
	return nil
}

// OnValue decodes payload with the incarnation's type and stores it.
// Anomalies are logged and the value dropped; only stream errors are returned.
func (idx *Index) OnValue(id uint32, ts uint64, payload *wpilog.Payload) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.logger.Debug("log value", "id", id)
	if idx.valueCount%idx.progress == 0 {
		idx.logger.Info("processing value", "count", idx.valueCount)
	}
	idx.valueCount++

	e := idx.resolve(id, ts)
	if e == nil {
		idx.logger.Error("cannot log to non-existent entry", "id", id, "timestamp", ts)
		idx.recorder.Anomaly(AnomalyMissingEntry)
		return payload.Discard()
	}

	data, err := payload.Bytes()
	if err != nil {
		return err
	}

	v, err := idx.decoder.Decode(e.Type, data)
	var trailing *value.TrailingBytesError
	switch {
	case errors.As(err, &trailing):
		idx.logger.Warn("string array did not consume whole payload", "id", id, "remaining", trailing.Remaining)
		idx.recorder.Anomaly(AnomalyTrailingBytes)
	case err != nil:
		idx.logger.Warn("got invalid payload", "id", id, "type", e.Type, "size", len(data), "error", err)
		idx.recorder.Anomaly(AnomalyInvalidPayload)
		return nil
	}

	idx.checkExpired(e, ts)
	e.addRecord(value.NewRecord(ts, v))
	idx.recorder.Value(e.Type)
	return nil
}

func (idx *Index) checkExpired(e *Entry, ts uint64) {
	if e.IsExpiredAt(ts) {
		end, _ := e.End()
		idx.logger.Warn("entry is expired", "id", e.ID, "name", e.Name, "timestamp", ts, "end", end)
		idx.recorder.Anomaly(AnomalyAfterFinish)
	}
}

// resolve applies the floor rule. Caller holds idx.mutex.
func (idx *Index) resolve(id uint32, ts uint64) *Entry {
	starts, ok := idx.entries[id]
	if !ok {
		return nil
	}
	_, e, ok := starts.Floor(ts)
	if !ok || !e.ActiveAt(ts) {
		return nil
	}
	return e
}

// EntryAt returns the incarnation of id live at ts: the one with the latest
// start at or before ts, unless it was closed before ts.
func (idx *Index) EntryAt(id uint32, ts uint64) (*Entry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	e := idx.resolve(id, ts)
	return e, e != nil
}

// IDs returns every channel ID seen, ascending.
func (idx *Index) IDs() []uint32 {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	ids := make([]uint32, 0, len(idx.entries))
	for id := range idx.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// StartTimestamps returns the start timestamps of every incarnation of id.
func (idx *Index) StartTimestamps(id uint32) []uint64 {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	starts, ok := idx.entries[id]
	if !ok {
		return nil
	}
	return starts.Keys()
}

// Entries returns every incarnation ordered by ID, then start.
func (idx *Index) Entries() []*Entry {
	var entries []*Entry
	for _, id := range idx.IDs() {
		idx.mutex.RLock()
		idx.entries[id].Scan(func(_ uint64, e *Entry) bool {
			entries = append(entries, e)
			return true
		})
		idx.mutex.RUnlock()
	}
	return entries
}

// ActiveAt returns the incarnations live at ts, one per ID at most.
func (idx *Index) ActiveAt(ts uint64) []*Entry {
	var entries []*Entry
	for _, id := range idx.IDs() {
		if e, ok := idx.EntryAt(id, ts); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Len returns the number of incarnations.
func (idx *Index) Len() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	n := 0
	for _, starts := range idx.entries {
		n += starts.Len()
	}
	return n
}

// ValueCount returns the number of value records processed, stored or not.
func (idx *Index) ValueCount() uint64 {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return idx.valueCount
}
