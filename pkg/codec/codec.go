package codec

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrIntegerTooWide = errors.New("codec: integer wider than 8 bytes")
	ErrInvalidUTF8    = errors.New("codec: invalid UTF-8")
	ErrUnknownPolicy  = errors.New("codec: unknown UTF-8 policy")
)

// UTF8Policy selects how invalid UTF-8 in string fields is handled.
type UTF8Policy uint8

const (
	// UTF8Lenient replaces invalid sequences with utf8.RuneError.
	UTF8Lenient UTF8Policy = iota
	// UTF8Strict rejects invalid sequences with ErrInvalidUTF8.
	UTF8Strict
)

// String returns the configuration name of the policy.
func (p UTF8Policy) String() string {
	switch p {
	case UTF8Lenient:
		return "lenient"
	case UTF8Strict:
		return "strict"
	default:
		return fmt.Sprintf("UTF8Policy(%d)", uint8(p))
	}
}

// ParseUTF8Policy maps a configuration name to a policy. The empty string
// selects UTF8Lenient.
func ParseUTF8Policy(name string) (UTF8Policy, error) {
	switch strings.ToLower(name) {
	case "", "lenient":
		return UTF8Lenient, nil
	case "strict":
		return UTF8Strict, nil
	default:
		return UTF8Lenient, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// ReadUint interprets up to length bytes of b as a little-endian unsigned
// integer. A length above 8 fails with ErrIntegerTooWide. When b holds fewer
// than length bytes only the available bytes are decoded.
func ReadUint(b []byte, length int) (uint64, error) {
	if length > 8 {
		return 0, fmt.Errorf("%w: %d", ErrIntegerTooWide, length)
	}
	if length > len(b) {
		length = len(b)
	}

	var v uint64
	for i := length - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

// ReadUTF8 decodes b as a UTF-8 string under the given policy.
func ReadUTF8(b []byte, policy UTF8Policy) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	if policy == UTF8Strict {
		return "", ErrInvalidUTF8
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError)), nil
}

// ReadUTF8At decodes length bytes of b starting at start. The range is
// clamped to the end of b.
func ReadUTF8At(b []byte, start, length int, policy UTF8Policy) (string, error) {
	if start > len(b) {
		start = len(b)
	}
	end := start + length
	if end > len(b) || end < start {
		end = len(b)
	}
	return ReadUTF8(b[start:end], policy)
}
