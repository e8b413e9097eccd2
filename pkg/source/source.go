// Package source opens log inputs. Files may be compressed; the format is
// recognised from its leading magic bytes, not the file name.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Compression identifies an input container format.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
	S2
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
	// Framed snappy and s2 streams both start with a stream identifier chunk.
	s2Magic     = []byte("\xff\x06\x00\x00S2sTwO")
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

const peekSize = 10

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case S2:
		return "s2"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// Detect identifies the container format from the first bytes of a stream.
func Detect(prefix []byte) Compression {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return Zstd
	case bytes.HasPrefix(prefix, gzipMagic):
		return Gzip
	case bytes.HasPrefix(prefix, lz4Magic):
		return LZ4
	case bytes.HasPrefix(prefix, s2Magic), bytes.HasPrefix(prefix, snappyMagic):
		return S2
	default:
		return None
	}
}

// NewReader returns a reader that yields the decompressed contents of r.
// Closing it releases the decompressor but not r.
func NewReader(r io.Reader) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(r)
	prefix, err := br.Peek(peekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, None, err
	}

	c := Detect(prefix)
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, c, nil
	case Zstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, c, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return zr.IOReadCloser(), c, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(br)), c, nil
	case S2:
		return io.NopCloser(s2.NewReader(br)), c, nil
	default:
		return io.NopCloser(br), c, nil
	}
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var errs []error
	for _, c := range rc.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Open opens path, or stdin when path is "-", and unwraps any compression.
func Open(path string, stdin io.Reader) (io.ReadCloser, Compression, error) {
	var (
		raw    io.Reader
		closer io.Closer = io.NopCloser(nil)
	)
	if path == Stdin {
		raw = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, None, fmt.Errorf("failed to open %s: %w", path, err)
		}
		raw, closer = f, f
	}

	r, c, err := NewReader(raw)
	if err != nil {
		closer.Close()
		return nil, c, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &readCloser{Reader: r, closers: []io.Closer{r, closer}}, c, nil
}
