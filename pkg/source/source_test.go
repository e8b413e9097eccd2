package source

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/wpilogviewer/internal/logtest"
)

func fixture() []byte {
	return logtest.New().
		Start(1, "speed", "double", "", 100).
		Value(1, 150, logtest.Double(1.5)).
		Finish(1, 200).
		Bytes()
}

func compress(t *testing.T, c Compression, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	switch c {
	case None:
		return data
	case Gzip:
		w = gzip.NewWriter(&buf)
	case Zstd:
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		w = zw
	case LZ4:
		w = lz4.NewWriter(&buf)
	case S2:
		w = s2.NewWriter(&buf)
	default:
		t.Fatalf("unsupported compression %v", c)
	}
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestNewReader(t *testing.T) {
	data := fixture()

	for _, c := range []Compression{None, Gzip, Zstd, LZ4, S2} {
		t.Run(c.String(), func(t *testing.T) {
			r, got, err := NewReader(bytes.NewReader(compress(t, c, data)))
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, c, got)
			out, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestNewReader_ShortInput(t *testing.T) {
	r, c, err := NewReader(bytes.NewReader([]byte("WPI")))
	require.NoError(t, err)
	assert.Equal(t, None, c)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("WPI"), out)
}

func TestNewReader_CorruptGzip(t *testing.T) {
	_, c, err := NewReader(bytes.NewReader([]byte{0x1f, 0x8b, 0x00}))
	assert.Error(t, err)
	assert.Equal(t, Gzip, c)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   Compression
	}{
		{"empty", nil, None},
		{"wpilog", []byte("WPILOG"), None},
		{"gzip", []byte{0x1f, 0x8b, 0x08}, Gzip},
		{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}, Zstd},
		{"lz4", []byte{0x04, 0x22, 0x4d, 0x18}, LZ4},
		{"s2", []byte("\xff\x06\x00\x00S2sTwO"), S2},
		{"snappy", []byte("\xff\x06\x00\x00sNaPpY"), S2},
		{"partial zstd", []byte{0x28, 0xb5}, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.prefix))
		})
	}
}

func TestOpen(t *testing.T) {
	data := fixture()
	path := filepath.Join(t.TempDir(), "run.wpilog.zst")
	require.NoError(t, os.WriteFile(path, compress(t, Zstd, data), 0o600))

	r, c, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, Zstd, c)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.NoError(t, r.Close())
}

func TestOpen_Stdin(t *testing.T) {
	data := fixture()

	r, c, err := Open(Stdin, bytes.NewReader(compress(t, Gzip, data)))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, Gzip, c)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestOpen_Missing(t *testing.T) {
	_, _, err := Open(filepath.Join(t.TempDir(), "missing.wpilog"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompressionString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "lz4", LZ4.String())
	assert.Equal(t, "Compression(9)", Compression(9).String())
}
