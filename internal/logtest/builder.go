// Package logtest encodes WPILOG streams for tests.
package logtest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/ssargent/wpilogviewer/pkg/codec"
)

// Builder appends header and records to an in-memory WPILOG stream. Field
// widths default to the smallest that fit; Widths overrides them.
type Builder struct {
	buf    bytes.Buffer
	widths *codec.Framing
}

// New starts a version 1.0 stream with an empty extra header.
func New() *Builder {
	return NewWithHeader(0, 1, "")
}

// NewWithHeader starts a stream with the given version and extra header.
func NewWithHeader(minor, major uint8, extra string) *Builder {
	b := &Builder{}
	b.buf.WriteString(codec.Magic)
	b.buf.WriteByte(minor)
	b.buf.WriteByte(major)
	b.buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(extra))))
	b.buf.WriteString(extra)
	return b
}

// Widths fixes the field widths for subsequent records. A zero Framing
// restores automatic widths.
func (b *Builder) Widths(f codec.Framing) *Builder {
	if f == (codec.Framing{}) {
		b.widths = nil
		return b
	}
	b.widths = &f
	return b
}

// Start appends a Start control record.
func (b *Builder) Start(id uint32, name, typ, metadata string, ts uint64) *Builder {
	p := []byte{codec.ControlStart}
	p = binary.LittleEndian.AppendUint32(p, id)
	p = appendString(p, name)
	p = appendString(p, typ)
	p = appendString(p, metadata)
	return b.Record(0, ts, p)
}

// Finish appends a Finish control record.
func (b *Builder) Finish(id uint32, ts uint64) *Builder {
	p := []byte{codec.ControlFinish}
	p = binary.LittleEndian.AppendUint32(p, id)
	return b.Record(0, ts, p)
}

// SetMetadata appends a SetMetadata control record.
func (b *Builder) SetMetadata(id uint32, ts uint64, metadata string) *Builder {
	p := []byte{codec.ControlSetMetadata}
	p = binary.LittleEndian.AppendUint32(p, id)
	p = appendString(p, metadata)
	return b.Record(0, ts, p)
}

// Value appends a value record.
func (b *Builder) Value(id uint32, ts uint64, payload []byte) *Builder {
	return b.Record(id, ts, payload)
}

// Record appends a record with the payload size taken from payload.
func (b *Builder) Record(id uint32, ts uint64, payload []byte) *Builder {
	f := codec.Framing{
		IDLength:        width(uint64(id), 4),
		SizeLength:      width(uint64(len(payload)), 4),
		TimestampLength: width(ts, 8),
	}
	if b.widths != nil {
		f = *b.widths
	}
	b.buf.WriteByte(f.Byte())
	b.buf.Write(appendUint(nil, uint64(id), f.IDLength))
	b.buf.Write(appendUint(nil, uint64(len(payload)), f.SizeLength))
	b.buf.Write(appendUint(nil, ts, f.TimestampLength))
	b.buf.Write(payload)
	return b
}

// Raw appends bytes verbatim.
func (b *Builder) Raw(p ...byte) *Builder {
	b.buf.Write(p)
	return b
}

// Bytes returns a copy of the stream built so far.
func (b *Builder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// Len returns the stream length so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

func width(v uint64, max int) int {
	n := 1
	for n < max && v>>(8*n) != 0 {
		n++
	}
	return n
}

func appendUint(b []byte, v uint64, n int) []byte {
	for i := 0; i < n; i++ {
		b = append(b, byte(v>>(8*i)))
	}
	return b
}

func appendString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

// Bool encodes a boolean payload.
func Bool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// Int64 encodes an int64 payload.
func Int64(v int64) []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(v))
}

// Float encodes a float payload.
func Float(v float32) []byte {
	return binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))
}

// Double encodes a double payload.
func Double(v float64) []byte {
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
}

// Int64s encodes an int64[] payload.
func Int64s(vs ...int64) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint64(b, uint64(v))
	}
	return b
}

// Doubles encodes a double[] payload.
func Doubles(vs ...float64) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b
}

// Floats encodes a float[] payload.
func Floats(vs ...float32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// Bools encodes a boolean[] payload.
func Bools(vs ...bool) []byte {
	var b []byte
	for _, v := range vs {
		b = append(b, Bool(v)...)
	}
	return b
}

// Strings encodes a string[] payload.
func Strings(vs ...string) []byte {
	b := binary.LittleEndian.AppendUint32(nil, uint32(len(vs)))
	for _, v := range vs {
		b = appendString(b, v)
	}
	return b
}
