package wpilog

import (
	"errors"
	"io"
)

// Payloads up to this size are read into an exactly sized buffer; larger
// ones grow as bytes arrive so a corrupt size cannot force a huge allocation.
const directReadLimit = 64 * 1024

type payloadState uint8

const (
	payloadPending payloadState = iota
	payloadRead
	payloadSkipped
)

// Payload is the deferred body of a value record. It starts pending and is
// resolved exactly once, either by reading it (Bytes) or skipping it
// (Discard). Both calls are idempotent.
type Payload struct {
	r      *LogReader
	size   int
	offset int64
	state  payloadState
	data   []byte
	err    error
}

func newPayload(r *LogReader, size int, offset int64) *Payload {
	return &Payload{r: r, size: size, offset: offset}
}

// Len returns the declared payload size.
func (p *Payload) Len() int {
	return p.size
}

// Bytes reads the payload on first use and returns the cached bytes after.
// It fails with ErrPayloadState if the payload was discarded.
func (p *Payload) Bytes() ([]byte, error) {
	switch p.state {
	case payloadRead:
		return p.data, p.err
	case payloadSkipped:
		return nil, ErrPayloadState
	}

	p.state = payloadRead
	if p.size <= directReadLimit {
		p.data = make([]byte, p.size)
		_, p.err = io.ReadFull(p.r.reader, p.data)
	} else {
		p.data, p.err = io.ReadAll(io.LimitReader(p.r.reader, int64(p.size)))
		if p.err == nil && len(p.data) < p.size {
			p.err = io.ErrUnexpectedEOF
		}
	}
	p.r.offset += int64(len(p.data))

	if p.err != nil {
		p.data = nil
		p.err = p.r.truncated(p.offset, p.err)
	}
	return p.data, p.err
}

// Discard skips the payload if it was never read. It is a no-op after Bytes.
func (p *Payload) Discard() error {
	switch p.state {
	case payloadRead:
		return p.err
	case payloadSkipped:
		return p.err
	}

	p.state = payloadSkipped
	n, err := p.r.reader.Discard(p.size)
	p.r.offset += int64(n)
	if err != nil {
		p.err = p.r.truncated(p.offset, err)
	}
	return p.err
}

func (r *LogReader) truncated(offset int64, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &FormatError{Offset: offset, Err: ErrTruncated}
	}
	return err
}
