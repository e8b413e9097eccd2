package wpilog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/wpilogviewer/internal/logtest"
	"github.com/ssargent/wpilogviewer/pkg/codec"
)

// recordingSink captures every callback as a line of text.
type recordingSink struct {
	events  []string
	header  *codec.Header
	read    bool // read value payloads instead of skipping them
	failOn  string
	payload []*Payload
}

func (s *recordingSink) OnHeader(h codec.Header) error {
	s.header = &h
	return nil
}

func (s *recordingSink) OnStart(id uint32, name, typ, metadata string, ts uint64) error {
	s.events = append(s.events, fmt.Sprintf("start %d %s %s %q @%d", id, name, typ, metadata, ts))
	return s.fail("start")
}

func (s *recordingSink) OnFinish(id uint32, ts uint64) error {
	s.events = append(s.events, fmt.Sprintf("finish %d @%d", id, ts))
	return s.fail("finish")
}

func (s *recordingSink) OnSetMetadata(id uint32, ts uint64, metadata string) error {
	s.events = append(s.events, fmt.Sprintf("metadata %d %q @%d", id, metadata, ts))
	return s.fail("metadata")
}

func (s *recordingSink) OnValue(id uint32, ts uint64, payload *Payload) error {
	s.payload = append(s.payload, payload)
	if !s.read {
		s.events = append(s.events, fmt.Sprintf("value %d len=%d @%d", id, payload.Len(), ts))
		return s.fail("value")
	}
	data, err := payload.Bytes()
	if err != nil {
		return err
	}
	s.events = append(s.events, fmt.Sprintf("value %d %x @%d", id, data, ts))
	return s.fail("value")
}

func (s *recordingSink) fail(kind string) error {
	if s.failOn == kind {
		return errors.New("sink failure")
	}
	return nil
}

func process(t *testing.T, data []byte, sink Sink) (Summary, error) {
	t.Helper()
	return Process(context.Background(), bytes.NewReader(data), sink, LogReaderConfig{})
}

func TestProcess_RoundTrip(t *testing.T) {
	data := logtest.NewWithHeader(0, 1, "team 1234").
		Start(1, "/drive/speed", "double", "{}", 100).
		Value(1, 150, logtest.Double(3.5)).
		SetMetadata(1, 160, "units=m/s").
		Finish(1, 200).
		Bytes()

	sink := &recordingSink{read: true}
	sum, err := process(t, data, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`start 1 /drive/speed double "{}" @100`,
		"value 1 0000000000000c40 @150",
		`metadata 1 "units=m/s" @160`,
		"finish 1 @200",
	}, sink.events)

	require.NotNil(t, sink.header)
	assert.Equal(t, "1.0", sink.header.Version())
	assert.Equal(t, "team 1234", string(sink.header.Extra))

	assert.Equal(t, uint64(3), sum.ControlRecords)
	assert.Equal(t, uint64(1), sum.ValueRecords)
	assert.Equal(t, uint64(4), sum.Records())
	assert.Equal(t, int64(len(data)), sum.Bytes)
	assert.Equal(t, xxhash.Sum64(data), sum.Digest)
}

func TestProcess_EmptyStream(t *testing.T) {
	data := logtest.New().Bytes()

	sink := &recordingSink{}
	sum, err := process(t, data, sink)
	require.NoError(t, err)
	assert.Empty(t, sink.events)
	assert.Zero(t, sum.Records())
	assert.Empty(t, sum.Header.Extra)
}

func TestProcess_FieldWidths(t *testing.T) {
	widths := []codec.Framing{
		{IDLength: 1, SizeLength: 1, TimestampLength: 1},
		{IDLength: 4, SizeLength: 4, TimestampLength: 8},
		{IDLength: 2, SizeLength: 3, TimestampLength: 5},
	}

	for _, w := range widths {
		t.Run(fmt.Sprintf("%d-%d-%d", w.IDLength, w.SizeLength, w.TimestampLength), func(t *testing.T) {
			data := logtest.New().
				Widths(w).
				Start(7, "a", "int64", "", 10).
				Value(7, 20, logtest.Int64(-1)).
				Bytes()

			sink := &recordingSink{read: true}
			_, err := process(t, data, sink)
			require.NoError(t, err)
			assert.Equal(t, []string{
				`start 7 a int64 "" @10`,
				"value 7 ffffffffffffffff @20",
			}, sink.events)
		})
	}
}

func TestProcess_LargeTimestamp(t *testing.T) {
	const ts = uint64(1) << 63
	data := logtest.New().Start(1, "a", "raw", "", ts).Bytes()

	sink := &recordingSink{}
	_, err := process(t, data, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{fmt.Sprintf(`start 1 a raw "" @%d`, ts)}, sink.events)
}

func TestProcess_BadMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"wrong magic", []byte("WPILOX\x00\x01\x00\x00\x00\x00"), ErrBadMagic},
		{"empty", nil, ErrBadMagic},
		{"short garbage", []byte("abc"), ErrBadMagic},
		{"magic only", []byte("WPILOG\x00"), ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			_, err := process(t, tt.data, sink)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, int64(0), fe.Offset)
			assert.Nil(t, sink.header)
			assert.Empty(t, sink.events)
		})
	}
}

func TestProcess_TruncatedExtraHeader(t *testing.T) {
	data := logtest.NewWithHeader(0, 1, "abcdef").Bytes()
	data = data[:len(data)-2]

	_, err := process(t, data, &recordingSink{})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestProcess_ReservedFramingBit(t *testing.T) {
	b := logtest.New().Start(1, "a", "double", "", 1)
	offset := int64(b.Len())
	data := b.Raw(0x80).Bytes()

	sink := &recordingSink{}
	_, err := process(t, data, sink)
	require.ErrorIs(t, err, ErrInvalidFraming)

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, offset, fe.Offset)
	assert.Len(t, sink.events, 1)
}

func TestProcess_UnknownControl(t *testing.T) {
	data := logtest.New().
		Record(0, 5, []byte{3, 1, 0, 0, 0}).
		Bytes()

	_, err := process(t, data, &recordingSink{})
	assert.ErrorIs(t, err, ErrUnknownControl)
}

func TestProcess_Truncated(t *testing.T) {
	full := logtest.New().
		Start(1, "name", "double", "", 100).
		Value(1, 150, logtest.Double(1)).
		Bytes()
	headerLen := logtest.New().Len()

	// Every cut after the header that is not a record boundary must fail.
	boundaries := map[int]bool{headerLen: true, len(full): true}
	startLen := len(logtest.New().Start(1, "name", "double", "", 100).Bytes())
	boundaries[startLen] = true

	for cut := headerLen; cut <= len(full); cut++ {
		for _, read := range []bool{false, true} {
			sink := &recordingSink{read: read}
			_, err := process(t, full[:cut], sink)
			if boundaries[cut] {
				assert.NoError(t, err, "cut at %d", cut)
				continue
			}
			assert.ErrorIs(t, err, ErrTruncated, "cut at %d", cut)
		}
	}
}

func TestProcess_PayloadSkippedWhenUntouched(t *testing.T) {
	data := logtest.New().
		Start(1, "a", "raw", "", 1).
		Value(1, 2, bytes.Repeat([]byte{0xAB}, 1000)).
		Value(1, 3, []byte{1, 2, 3}).
		Bytes()

	sink := &recordingSink{}
	_, err := process(t, data, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`start 1 a raw "" @1`,
		"value 1 len=1000 @2",
		"value 1 len=3 @3",
	}, sink.events)
}

func TestPayload_ResolveOnce(t *testing.T) {
	data := logtest.New().
		Start(1, "a", "raw", "", 1).
		Value(1, 2, []byte{9, 8, 7}).
		Bytes()

	t.Run("bytes then discard", func(t *testing.T) {
		sink := &recordingSink{read: true}
		_, err := process(t, data, sink)
		require.NoError(t, err)
		require.Len(t, sink.payload, 1)

		p := sink.payload[0]
		got, err := p.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{9, 8, 7}, got)
		assert.NoError(t, p.Discard())

		again, err := p.Bytes()
		require.NoError(t, err)
		assert.Equal(t, got, again)
	})

	t.Run("discard then bytes", func(t *testing.T) {
		sink := &recordingSink{}
		_, err := process(t, data, sink)
		require.NoError(t, err)
		require.Len(t, sink.payload, 1)

		p := sink.payload[0]
		assert.NoError(t, p.Discard())
		assert.NoError(t, p.Discard())
		_, err = p.Bytes()
		assert.ErrorIs(t, err, ErrPayloadState)
	})
}

func TestPayload_LargeRead(t *testing.T) {
	big := bytes.Repeat([]byte{1, 2, 3, 4}, directReadLimit)
	data := logtest.New().
		Start(1, "a", "raw", "", 1).
		Value(1, 2, big).
		Bytes()

	var got []byte
	sink := &funcSink{onValue: func(_ uint32, _ uint64, p *Payload) error {
		b, err := p.Bytes()
		got = b
		return err
	}}
	_, err := process(t, data, sink)
	require.NoError(t, err)
	assert.Equal(t, big, got)

	_, err = process(t, data[:len(data)-1], sink)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestProcess_ControlPadding(t *testing.T) {
	p := []byte{codec.ControlFinish, 1, 0, 0, 0, 0xEE, 0xEE}
	data := logtest.New().
		Record(0, 5, p).
		Value(1, 6, []byte{1}).
		Bytes()

	sink := &recordingSink{}
	_, err := process(t, data, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"finish 1 @5", "value 1 len=1 @6"}, sink.events)
}

func TestProcess_InvalidUTF8(t *testing.T) {
	data := logtest.New().Start(1, "bad\xff", "raw", "", 1).Bytes()

	t.Run("lenient", func(t *testing.T) {
		sink := &recordingSink{}
		_, err := process(t, data, sink)
		require.NoError(t, err)
		assert.Equal(t, []string{"start 1 bad� raw \"\" @1"}, sink.events)
	})

	t.Run("strict", func(t *testing.T) {
		sink := &recordingSink{}
		_, err := Process(context.Background(), bytes.NewReader(data), sink, LogReaderConfig{
			UTF8Policy: codec.UTF8Strict,
		})
		assert.ErrorIs(t, err, codec.ErrInvalidUTF8)
		assert.Empty(t, sink.events)
	})
}

func TestProcess_SinkError(t *testing.T) {
	data := logtest.New().
		Start(1, "a", "raw", "", 1).
		Value(1, 2, []byte{1}).
		Finish(1, 3).
		Bytes()

	sink := &recordingSink{failOn: "value"}
	sum, err := process(t, data, sink)
	require.EqualError(t, err, "sink failure")
	assert.Len(t, sink.events, 2)
	assert.Equal(t, uint64(1), sum.ControlRecords)
	assert.Zero(t, sum.ValueRecords)
}

func TestProcess_ContextCancelled(t *testing.T) {
	data := logtest.New().Start(1, "a", "raw", "", 1).Bytes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	_, err := Process(ctx, bytes.NewReader(data), sink, LogReaderConfig{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.events)
}

func TestProcess_ReadError(t *testing.T) {
	data := logtest.New().Start(1, "a", "raw", "", 1).Bytes()
	boom := errors.New("disk on fire")
	r := io.MultiReader(bytes.NewReader(data), &errReader{err: boom})

	_, err := Process(context.Background(), r, &recordingSink{}, LogReaderConfig{})
	assert.ErrorIs(t, err, boom)
}

func TestLogReader_ReadHeaderTwice(t *testing.T) {
	data := logtest.NewWithHeader(3, 2, "x").Start(1, "a", "raw", "", 1).Bytes()

	r := NewLogReader(bytes.NewReader(data), LogReaderConfig{BufferSize: 16})
	h1, err := r.ReadHeader()
	require.NoError(t, err)
	h2, err := r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, "2.3", h1.Version())
	assert.Equal(t, int64(codec.HeaderSize+1), r.Offset())

	sink := &recordingSink{}
	sum, err := r.Process(context.Background(), sink)
	require.NoError(t, err)
	assert.Len(t, sink.events, 1)
	assert.Equal(t, int64(len(data)), sum.Bytes)
}

type funcSink struct {
	onValue func(id uint32, ts uint64, p *Payload) error
}

func (funcSink) OnStart(uint32, string, string, string, uint64) error { return nil }
func (funcSink) OnFinish(uint32, uint64) error                        { return nil }
func (funcSink) OnSetMetadata(uint32, uint64, string) error           { return nil }
func (s *funcSink) OnValue(id uint32, ts uint64, p *Payload) error    { return s.onValue(id, ts, p) }

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }
