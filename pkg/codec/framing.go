package codec

import (
	"errors"
	"fmt"
)

const (
	idLengthMask        = 0b0000_0011
	sizeLengthMask      = 0b0000_1100
	timestampLengthMask = 0b0111_0000
	reservedMask        = 0b1000_0000

	sizeLengthShift      = 2
	timestampLengthShift = 4
)

// Control record kinds, stored in the first payload byte of entry 0.
const (
	ControlStart       byte = 0
	ControlFinish      byte = 1
	ControlSetMetadata byte = 2
)

var ErrInvalidFraming = errors.New("codec: invalid framing byte")

// Framing holds the field widths packed into a record's framing byte.
type Framing struct {
	IDLength        int // 1-4
	SizeLength      int // 1-4
	TimestampLength int // 1-8
}

// ParseFraming unpacks a framing byte. The reserved high bit must be clear.
func ParseFraming(b byte) (Framing, error) {
	if b&reservedMask != 0 {
		return Framing{}, fmt.Errorf("%w: 0x%02x", ErrInvalidFraming, b)
	}

	return Framing{
		IDLength:        1 + int(b&idLengthMask),
		SizeLength:      1 + int(b&sizeLengthMask)>>sizeLengthShift,
		TimestampLength: 1 + int(b&timestampLengthMask)>>timestampLengthShift,
	}, nil
}

// FieldsSize returns the number of bytes that follow the framing byte
// before the payload starts.
func (f Framing) FieldsSize() int {
	return f.IDLength + f.SizeLength + f.TimestampLength
}

// Byte packs the framing back into its wire form.
func (f Framing) Byte() byte {
	return byte(f.IDLength-1) |
		byte(f.SizeLength-1)<<sizeLengthShift |
		byte(f.TimestampLength-1)<<timestampLengthShift
}
