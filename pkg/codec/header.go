package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is the ASCII literal every WPILOG stream starts with.
const Magic = "WPILOG"

// HeaderSize is the size of the fixed part of the file header:
// magic, minor version, major version and the extra header length.
const HeaderSize = len(Magic) + 1 + 1 + 4

var ErrBadMagic = errors.New("codec: stream does not start with WPILOG")

// Header is the decoded file header.
type Header struct {
	Minor uint8  // Minor format version
	Major uint8  // Major format version
	Extra []byte // Extra header blob, possibly empty
}

// Version returns the format version as "major.minor".
func (h Header) Version() string {
	return fmt.Sprintf("%d.%d", h.Major, h.Minor)
}

// ParseHeader decodes the fixed part of the file header and returns the
// length of the extra header blob that follows it.
func ParseHeader(data []byte) (Header, uint32, error) {
	if len(data) < HeaderSize || !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		return Header{}, 0, ErrBadMagic
	}

	h := Header{
		Minor: data[6],
		Major: data[7],
	}
	return h, binary.LittleEndian.Uint32(data[8:12]), nil
}
