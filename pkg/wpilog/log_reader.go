package wpilog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/ssargent/wpilogviewer/pkg/codec"
	"github.com/ssargent/wpilogviewer/pkg/logging"
)

// LogReader decodes a WPILOG stream front to back, once. It keeps no channel
// state of its own: every record is handed to a Sink.
type LogReader struct {
	reader    *bufio.Reader
	digest    *xxhash.Digest
	offset    int64
	config    LogReaderConfig
	logger    logging.Logger
	header    codec.Header
	hasHeader bool
	scratch   [16]byte
}

// NewLogReader creates a log reader over r.
func NewLogReader(r io.Reader, config LogReaderConfig) *LogReader {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	digest := xxhash.New()
	return &LogReader{
		reader: bufio.NewReaderSize(io.TeeReader(r, digest), config.BufferSize),
		digest: digest,
		config: config,
		logger: logger,
	}
}

// Process decodes a whole stream into sink.
func Process(ctx context.Context, r io.Reader, sink Sink, config LogReaderConfig) (Summary, error) {
	return NewLogReader(r, config).Process(ctx, sink)
}

// Offset returns the number of bytes consumed so far.
func (r *LogReader) Offset() int64 {
	return r.offset
}

// ReadHeader reads and validates the file header. It is called by Process
// when needed and may be called earlier to inspect the version.
func (r *LogReader) ReadHeader() (codec.Header, error) {
	if r.hasHeader {
		return r.header, nil
	}

	fixed := r.scratch[:codec.HeaderSize]
	n, err := io.ReadFull(r.reader, fixed)
	r.offset += int64(n)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return codec.Header{}, err
	}

	h, extraLen, err := codec.ParseHeader(fixed[:n])
	if err != nil {
		if n < codec.HeaderSize && n >= len(codec.Magic) && string(fixed[:len(codec.Magic)]) == codec.Magic {
			err = ErrTruncated
		}
		return codec.Header{}, &FormatError{Offset: 0, Err: err}
	}

	extra, err := io.ReadAll(io.LimitReader(r.reader, int64(extraLen)))
	r.offset += int64(len(extra))
	if err != nil {
		return codec.Header{}, err
	}
	if len(extra) < int(extraLen) {
		return codec.Header{}, &FormatError{Offset: int64(codec.HeaderSize), Err: ErrTruncated}
	}
	h.Extra = extra

	r.header = h
	r.hasHeader = true
	r.logger.Info("read header", "version", h.Version(), "extra_header", string(h.Extra))
	return h, nil
}

// Process reads the header, if not yet read, and then every record until
// end of stream, dispatching each to sink. A clean end of stream at a record
// boundary returns a nil error; anything else stops decoding immediately.
func (r *LogReader) Process(ctx context.Context, sink Sink) (Summary, error) {
	var sum Summary

	h, err := r.ReadHeader()
	if err != nil {
		return sum, err
	}
	sum.Header = h
	if hs, ok := sink.(HeaderSink); ok {
		if err := hs.OnHeader(h); err != nil {
			return sum, err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return r.finish(sum), err
		}

		control, err := r.next(sink)
		if errors.Is(err, io.EOF) {
			r.logger.Debug("reached end of stream", "offset", r.offset)
			return r.finish(sum), nil
		}
		if err != nil {
			return r.finish(sum), err
		}

		if control {
			sum.ControlRecords++
		} else {
			sum.ValueRecords++
		}
	}
}

func (r *LogReader) finish(sum Summary) Summary {
	sum.Bytes = r.offset
	sum.Digest = r.digest.Sum64()
	return sum
}

// next decodes one record. It returns io.EOF only when the stream ends
// exactly at a record boundary.
func (r *LogReader) next(sink Sink) (bool, error) {
	start := r.offset

	fb, err := r.reader.ReadByte()
	if err != nil {
		return false, err
	}
	r.offset++

	framing, err := codec.ParseFraming(fb)
	if err != nil {
		return false, &FormatError{Offset: start, Err: err}
	}

	fields := r.scratch[:framing.FieldsSize()]
	if err := r.readFull(fields, start); err != nil {
		return false, err
	}

	id, _ := codec.ReadUint(fields, framing.IDLength)
	fields = fields[framing.IDLength:]
	size, _ := codec.ReadUint(fields, framing.SizeLength)
	fields = fields[framing.SizeLength:]
	ts, _ := codec.ReadUint(fields, framing.TimestampLength)

	if id == 0 {
		return true, r.readControl(sink, int(size), ts, start)
	}

	payload := newPayload(r, int(size), start)
	if err := sink.OnValue(uint32(id), ts, payload); err != nil {
		return false, err
	}
	return false, payload.Discard()
}

// readControl decodes a control record whose payload is size bytes long.
// Fields are read directly; any declared bytes beyond them are skipped.
func (r *LogReader) readControl(sink Sink, size int, ts uint64, start int64) error {
	before := r.offset

	kind, err := r.readUint(1, start)
	if err != nil {
		return err
	}
	switch byte(kind) {
	case codec.ControlStart, codec.ControlFinish, codec.ControlSetMetadata:
	default:
		return &FormatError{Offset: start, Err: fmt.Errorf("%w: %d", ErrUnknownControl, kind)}
	}

	id, err := r.readUint(4, start)
	if err != nil {
		return err
	}

	switch byte(kind) {
	case codec.ControlStart:
		name, err := r.readString(start)
		if err != nil {
			return err
		}
		typ, err := r.readString(start)
		if err != nil {
			return err
		}
		metadata, err := r.readString(start)
		if err != nil {
			return err
		}
		r.logger.Debug("start record", "id", id, "name", name, "type", typ, "timestamp", ts)
		err = sink.OnStart(uint32(id), name, typ, metadata, ts)
		if err != nil {
			return err
		}

	case codec.ControlFinish:
		r.logger.Debug("finish record", "id", id, "timestamp", ts)
		if err := sink.OnFinish(uint32(id), ts); err != nil {
			return err
		}

	case codec.ControlSetMetadata:
		metadata, err := r.readString(start)
		if err != nil {
			return err
		}
		r.logger.Debug("set metadata record", "id", id, "timestamp", ts)
		if err := sink.OnSetMetadata(uint32(id), ts, metadata); err != nil {
			return err
		}
	}

	if rest := int64(size) - (r.offset - before); rest > 0 {
		n, err := r.reader.Discard(int(rest))
		r.offset += int64(n)
		if err != nil {
			return r.truncated(start, err)
		}
	}
	return nil
}

func (r *LogReader) readFull(buf []byte, start int64) error {
	n, err := io.ReadFull(r.reader, buf)
	r.offset += int64(n)
	if err != nil {
		return r.truncated(start, err)
	}
	return nil
}

func (r *LogReader) readUint(length int, start int64) (uint64, error) {
	buf := r.scratch[:length]
	if err := r.readFull(buf, start); err != nil {
		return 0, err
	}
	return codec.ReadUint(buf, length)
}

// readString reads a u32 length-prefixed UTF-8 string.
func (r *LogReader) readString(start int64) (string, error) {
	n, err := r.readUint(4, start)
	if err != nil {
		return "", err
	}

	var buf []byte
	if n <= directReadLimit {
		buf = make([]byte, n)
		err = r.readFull(buf, start)
	} else {
		buf, err = io.ReadAll(io.LimitReader(r.reader, int64(n)))
		r.offset += int64(len(buf))
		if err == nil && uint64(len(buf)) < n {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			err = r.truncated(start, err)
		}
	}
	if err != nil {
		return "", err
	}

	s, err := codec.ReadUTF8(buf, r.config.UTF8Policy)
	if err != nil {
		return "", &FormatError{Offset: start, Err: err}
	}
	return s, nil
}
