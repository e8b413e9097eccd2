package wpilog

import (
	"errors"
	"fmt"

	"github.com/ssargent/wpilogviewer/pkg/codec"
	"github.com/ssargent/wpilogviewer/pkg/logging"
)

// DefaultBufferSize is the read buffer used when LogReaderConfig.BufferSize is zero.
const DefaultBufferSize = 64 * 1024

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	UTF8Policy codec.UTF8Policy // How invalid UTF-8 in control strings is handled
	BufferSize int              // Read buffer size
	Logger     logging.Logger   // Receives header and tracing output; nil discards
}

// Sink receives decoded records in stream order. A non-nil error from any
// method stops decoding and is returned by LogReader.Process.
type Sink interface {
	OnStart(id uint32, name, typ, metadata string, ts uint64) error
	OnFinish(id uint32, ts uint64) error
	OnSetMetadata(id uint32, ts uint64, metadata string) error
	// OnValue receives the payload unread. The sink may call Bytes or
	// Discard; whatever it leaves untouched is skipped once it returns.
	OnValue(id uint32, ts uint64, payload *Payload) error
}

// HeaderSink is implemented by sinks that want the file header before the
// first record.
type HeaderSink interface {
	OnHeader(h codec.Header) error
}

// Summary describes a completed decoding pass.
type Summary struct {
	Header         codec.Header
	ControlRecords uint64
	ValueRecords   uint64
	Bytes          int64  // Bytes consumed from the stream
	Digest         uint64 // xxHash64 of every byte read from the underlying reader
}

// Records returns the total number of records decoded.
func (s Summary) Records() uint64 {
	return s.ControlRecords + s.ValueRecords
}

// Errors
var (
	ErrBadMagic       = codec.ErrBadMagic
	ErrInvalidFraming = codec.ErrInvalidFraming
	ErrUnknownControl = errors.New("wpilog: unknown control record type")
	ErrTruncated      = errors.New("wpilog: truncated record")
	ErrPayloadState   = errors.New("wpilog: payload already discarded")
)

// FormatError is a fatal decoding error. Offset is the byte offset of the
// header or record in which the problem was found.
type FormatError struct {
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("wpilog: format error at offset %d: %v", e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
