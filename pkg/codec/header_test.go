package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	data := []byte{'W', 'P', 'I', 'L', 'O', 'G', 0x00, 0x01, 0x03, 0x00, 0x00, 0x00}

	h, extraLen, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), h.Minor)
	assert.Equal(t, uint8(1), h.Major)
	assert.Equal(t, "1.0", h.Version())
	assert.Equal(t, uint32(3), extraLen)
}

func TestParseHeader_BadMagic(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"wrong magic", []byte{'W', 'P', 'I', 'L', 'O', 'X', 0, 1, 0, 0, 0, 0}},
		{"lowercase magic", []byte{'w', 'p', 'i', 'l', 'o', 'g', 0, 1, 0, 0, 0, 0}},
		{"too short", []byte("WPILOG")},
		{"empty", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseHeader(tc.data)
			assert.ErrorIs(t, err, ErrBadMagic)
		})
	}
}
