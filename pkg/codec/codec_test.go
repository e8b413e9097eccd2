package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUint(t *testing.T) {
	testCases := []struct {
		name   string
		data   []byte
		length int
		want   uint64
	}{
		{"single byte", []byte{0x7f}, 1, 0x7f},
		{"two bytes little endian", []byte{0x34, 0x12}, 2, 0x1234},
		{"three bytes", []byte{0x01, 0x02, 0x03}, 3, 0x030201},
		{"four bytes", []byte{0xff, 0xff, 0xff, 0xff}, 4, 0xffffffff},
		{"eight bytes", []byte{1, 0, 0, 0, 0, 0, 0, 0x80}, 8, 0x8000000000000001},
		{"length shorter than data", []byte{0x01, 0x02, 0x03}, 1, 0x01},
		{"fewer bytes than requested", []byte{0x01, 0x02}, 4, 0x0201},
		{"no bytes", nil, 4, 0},
		{"zero length", []byte{0xaa}, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadUint(tc.data, tc.length)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReadUint_TooWide(t *testing.T) {
	_, err := ReadUint(make([]byte, 9), 9)
	assert.ErrorIs(t, err, ErrIntegerTooWide)
}

func TestReadUTF8(t *testing.T) {
	valid := []byte("speed 🚀")
	invalid := []byte{'a', 0xff, 'b'}

	t.Run("valid lenient", func(t *testing.T) {
		s, err := ReadUTF8(valid, UTF8Lenient)
		require.NoError(t, err)
		assert.Equal(t, "speed 🚀", s)
	})

	t.Run("valid strict", func(t *testing.T) {
		s, err := ReadUTF8(valid, UTF8Strict)
		require.NoError(t, err)
		assert.Equal(t, "speed 🚀", s)
	})

	t.Run("invalid lenient replaces", func(t *testing.T) {
		s, err := ReadUTF8(invalid, UTF8Lenient)
		require.NoError(t, err)
		assert.Equal(t, "a�b", s)
	})

	t.Run("invalid strict fails", func(t *testing.T) {
		_, err := ReadUTF8(invalid, UTF8Strict)
		assert.ErrorIs(t, err, ErrInvalidUTF8)
	})

	t.Run("empty", func(t *testing.T) {
		s, err := ReadUTF8(nil, UTF8Strict)
		require.NoError(t, err)
		assert.Empty(t, s)
	})
}

func TestReadUTF8At(t *testing.T) {
	data := []byte("hello world")

	s, err := ReadUTF8At(data, 6, 5, UTF8Lenient)
	require.NoError(t, err)
	assert.Equal(t, "world", s)

	s, err = ReadUTF8At(data, 6, 50, UTF8Lenient)
	require.NoError(t, err)
	assert.Equal(t, "world", s, "range is clamped to the data")

	s, err = ReadUTF8At(data, 20, 5, UTF8Lenient)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestParseUTF8Policy(t *testing.T) {
	p, err := ParseUTF8Policy("")
	require.NoError(t, err)
	assert.Equal(t, UTF8Lenient, p)

	p, err = ParseUTF8Policy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, UTF8Strict, p)
	assert.Equal(t, "strict", p.String())

	_, err = ParseUTF8Policy("loose")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
