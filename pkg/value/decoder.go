package value

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ssargent/wpilogviewer/pkg/codec"
)

// Type tags understood by the decoder.
const (
	TypeRaw         = "raw"
	TypeRawBytes    = "rawBytes"
	TypeBoolean     = "boolean"
	TypeInt64       = "int64"
	TypeFloat       = "float"
	TypeDouble      = "double"
	TypeString      = "string"
	TypeJSON        = "json"
	TypeBoolArray   = "boolean[]"
	TypeInt64Array  = "int64[]"
	TypeFloatArray  = "float[]"
	TypeDoubleArray = "double[]"
	TypeStringArray = "string[]"
)

var (
	ErrInvalidPayload = errors.New("value: invalid payload")
	ErrTrailingBytes  = errors.New("value: trailing bytes")
)

// InvalidPayloadError reports a payload that does not match its type tag.
type InvalidPayloadError struct {
	Type   string
	Size   int
	Reason string
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("invalid payload for %s of size %d: %s", e.Type, e.Size, e.Reason)
}

func (e *InvalidPayloadError) Unwrap() error { return ErrInvalidPayload }

// TrailingBytesError is returned together with a decoded value when a
// string[] payload has bytes left over after its last element.
type TrailingBytesError struct {
	Remaining int
}

func (e *TrailingBytesError) Error() string {
	return fmt.Sprintf("string array did not consume last %d bytes of the payload", e.Remaining)
}

func (e *TrailingBytesError) Unwrap() error { return ErrTrailingBytes }

// Decoder turns raw payloads into Values.
type Decoder struct {
	policy codec.UTF8Policy
}

// NewDecoder creates a decoder that decodes strings under policy.
func NewDecoder(policy codec.UTF8Policy) *Decoder {
	return &Decoder{policy: policy}
}

// Known reports whether typ is a type tag with a dedicated decoding.
func Known(typ string) bool {
	switch typ {
	case TypeRaw, TypeRawBytes, TypeBoolean, TypeInt64, TypeFloat, TypeDouble,
		TypeString, TypeJSON, TypeBoolArray, TypeInt64Array, TypeFloatArray,
		TypeDoubleArray, TypeStringArray:
		return true
	}
	return false
}

// Decode decodes payload according to the type tag typ.
//
// On validation failure it returns a nil Value and an *InvalidPayloadError.
// A string[] payload with leftover bytes yields both the decoded Value and a
// *TrailingBytesError; callers should keep the value and report the error.
// The returned Value may alias payload for raw and unknown types.
func (d *Decoder) Decode(typ string, payload []byte) (Value, error) {
	switch typ {
	case TypeRaw, TypeRawBytes:
		return Raw(payload), nil

	case TypeBoolean:
		if len(payload) != 1 {
			return nil, invalid(typ, payload, "expected 1 byte")
		}
		if payload[0] > 1 {
			return nil, invalid(typ, payload, fmt.Sprintf("byte value %d is not 0 or 1", payload[0]))
		}
		return Bool(payload[0] == 1), nil

	case TypeInt64:
		if len(payload) != 8 {
			return nil, invalid(typ, payload, "expected 8 bytes")
		}
		return Int64(binary.LittleEndian.Uint64(payload)), nil

	case TypeFloat:
		if len(payload) != 4 {
			return nil, invalid(typ, payload, "expected 4 bytes")
		}
		return Float(math.Float32frombits(binary.LittleEndian.Uint32(payload))), nil

	case TypeDouble:
		if len(payload) != 8 {
			return nil, invalid(typ, payload, "expected 8 bytes")
		}
		return Double(math.Float64frombits(binary.LittleEndian.Uint64(payload))), nil

	case TypeString, TypeJSON:
		s, err := codec.ReadUTF8(payload, d.policy)
		if err != nil {
			return nil, invalid(typ, payload, err.Error())
		}
		return String(s), nil

	case TypeBoolArray:
		out := make(BoolArray, len(payload))
		for i, b := range payload {
			if b > 1 {
				return nil, invalid(typ, payload, fmt.Sprintf("byte %d has value %d", i, b))
			}
			out[i] = b == 1
		}
		return out, nil

	case TypeInt64Array:
		if len(payload)%8 != 0 {
			return nil, invalid(typ, payload, "size is not a multiple of 8")
		}
		out := make(Int64Array, len(payload)/8)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(payload[8*i:]))
		}
		return out, nil

	case TypeFloatArray:
		if len(payload)%4 != 0 {
			return nil, invalid(typ, payload, "size is not a multiple of 4")
		}
		out := make(FloatArray, len(payload)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
		}
		return out, nil

	case TypeDoubleArray:
		if len(payload)%8 != 0 {
			return nil, invalid(typ, payload, "size is not a multiple of 8")
		}
		out := make(DoubleArray, len(payload)/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[8*i:]))
		}
		return out, nil

	case TypeStringArray:
		return d.decodeStringArray(payload)

	default:
		return Unknown{Type: typ, Data: payload}, nil
	}
}

// decodeStringArray decodes [Count(4)] followed by Count x [Len(4)][Bytes].
func (d *Decoder) decodeStringArray(payload []byte) (Value, error) {
	if len(payload) < 4 {
		return nil, invalid(TypeStringArray, payload, "missing element count")
	}
	count := binary.LittleEndian.Uint32(payload)

	// Every element needs at least its 4-byte length prefix.
	if uint64(count)*4 > uint64(len(payload)-4) {
		return nil, invalid(TypeStringArray, payload, fmt.Sprintf("element count %d overruns payload", count))
	}

	out := make(StringArray, count)
	pos := 4
	for i := range out {
		if len(payload)-pos < 4 {
			return nil, invalid(TypeStringArray, payload, fmt.Sprintf("element %d length overruns payload", i))
		}
		n := binary.LittleEndian.Uint32(payload[pos:])
		pos += 4
		if uint64(n) > uint64(len(payload)-pos) {
			return nil, invalid(TypeStringArray, payload, fmt.Sprintf("element %d of %d bytes overruns payload", i, n))
		}
		s, err := codec.ReadUTF8(payload[pos:pos+int(n)], d.policy)
		if err != nil {
			return nil, invalid(TypeStringArray, payload, fmt.Sprintf("element %d: %v", i, err))
		}
		out[i] = s
		pos += int(n)
	}

	if pos != len(payload) {
		return out, &TrailingBytesError{Remaining: len(payload) - pos}
	}
	return out, nil
}

func invalid(typ string, payload []byte, reason string) error {
	return &InvalidPayloadError{Type: typ, Size: len(payload), Reason: reason}
}
