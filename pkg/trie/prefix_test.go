package trie

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64ConversionAndOrdering(t *testing.T) {
	var last Token
	for v := int64(-100000); v < 100000; v++ {
		act := Int64Token(v)
		if last != "" && !(last < act) {
			t.Fatalf("token of %d (%s) does not sort after token of %d (%s)", v, act, v-1, last)
		}
		got, err := DecodeInt64(act)
		require.NoError(t, err)
		if got != v {
			t.Fatalf("round trip of %d gave %d", v, got)
		}
		last = act
	}
}

func TestInt32ConversionAndOrdering(t *testing.T) {
	var last Token
	for v := int32(-100000); v < 100000; v++ {
		act := Int32Token(v)
		if last != "" && !(last < act) {
			t.Fatalf("token of %d (%s) does not sort after token of %d (%s)", v, act, v-1, last)
		}
		got, err := DecodeInt32(act)
		require.NoError(t, err)
		if got != v {
			t.Fatalf("round trip of %d gave %d", v, got)
		}
		last = act
	}
}

func TestInt64SpecialValues(t *testing.T) {
	vals := []int64{
		math.MinInt64, math.MinInt64 + 1, math.MinInt64 + 2, -5003400000000,
		-4000, -3000, -2000, -1000, -1, 0, 1, 10, 300, 50006789999999999,
		math.MaxInt64 - 2, math.MaxInt64 - 1, math.MaxInt64,
	}

	tokens := make([]Token, len(vals))
	for i, v := range vals {
		tokens[i] = Int64Token(v)

		got, err := DecodeInt64(tokens[i])
		require.NoError(t, err)
		assert.Equal(t, v, got, "round trip")

		_, err = DecodeInt32(tokens[i])
		assert.ErrorIs(t, err, ErrFormat, "64-bit token %s decoded as 32-bit", tokens[i])
	}

	for i := 1; i < len(tokens); i++ {
		assert.True(t, tokens[i-1] < tokens[i], "%d should sort before %d", vals[i-1], vals[i])
	}

	for _, v := range vals {
		for shift := uint(0); shift < Width64; shift++ {
			tok, err := EncodeInt64(v, shift)
			require.NoError(t, err)
			prefix, err := DecodeInt64(tok)
			require.NoError(t, err)

			mask := int64(1)<<shift - 1
			assert.Equal(t, v&mask, v-prefix, "value %d shift %d", v, shift)
		}
	}
}

func TestInt32SpecialValues(t *testing.T) {
	vals := []int32{
		math.MinInt32, math.MinInt32 + 1, math.MinInt32 + 2, -64765767,
		-4000, -3000, -2000, -1000, -1, 0, 1, 10, 300, 765878989,
		math.MaxInt32 - 2, math.MaxInt32 - 1, math.MaxInt32,
	}

	tokens := make([]Token, len(vals))
	for i, v := range vals {
		tokens[i] = Int32Token(v)

		got, err := DecodeInt32(tokens[i])
		require.NoError(t, err)
		assert.Equal(t, v, got, "round trip")

		_, err = DecodeInt64(tokens[i])
		assert.ErrorIs(t, err, ErrFormat, "32-bit token %s decoded as 64-bit", tokens[i])
	}

	for i := 1; i < len(tokens); i++ {
		assert.True(t, tokens[i-1] < tokens[i], "%d should sort before %d", vals[i-1], vals[i])
	}

	for _, v := range vals {
		for shift := uint(0); shift < Width32; shift++ {
			tok, err := EncodeInt32(v, shift)
			require.NoError(t, err)
			prefix, err := DecodeInt32(tok)
			require.NoError(t, err)

			mask := int32(1)<<shift - 1
			assert.Equal(t, v&mask, v-prefix, "value %d shift %d", v, shift)
		}
	}
}

func TestCrossWidthRejectedAtEveryShift(t *testing.T) {
	for shift := uint(0); shift < Width64; shift++ {
		tok, err := EncodeInt64(-12345, shift)
		require.NoError(t, err)
		_, err = DecodeInt32(tok)
		assert.ErrorIs(t, err, ErrFormat, "shift %d", shift)
	}
	for shift := uint(0); shift < Width32; shift++ {
		tok, err := EncodeInt32(-12345, shift)
		require.NoError(t, err)
		_, err = DecodeInt64(tok)
		assert.ErrorIs(t, err, ErrFormat, "shift %d", shift)
	}
}

func TestEncodeShiftOutOfRange(t *testing.T) {
	_, err := EncodeInt64(1, 64)
	assert.ErrorIs(t, err, ErrShiftRange)
	_, err = EncodeInt64(1, 200)
	assert.ErrorIs(t, err, ErrShiftRange)
	_, err = EncodeInt32(1, 32)
	assert.ErrorIs(t, err, ErrShiftRange)

	_, err = EncodeInt64(1, 63)
	assert.NoError(t, err)
	_, err = EncodeInt32(1, 31)
	assert.NoError(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		token Token
	}{
		{"empty", ""},
		{"header below domain", Token([]byte{0x1f, 0, 0, 0, 0, 0, 0, 0, 0})},
		{"header above domain", Token([]byte{0x80, 0, 0, 0, 0})},
		{"short payload", Token([]byte{shiftBase64, 0x80, 0})},
		{"long payload", Token([]byte{shiftBase64, 1, 2, 3, 4, 5, 6, 7, 8, 9})},
		{"payload exceeds kept bits", Token([]byte{shiftBase64 + 1, 0x80, 0, 0, 0, 0, 0, 0, 0})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInt64(tt.token)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}

	_, err := DecodeInt32(Token([]byte{shiftBase32 + 1, 0x80, 0, 0, 0}))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestTokenHeader(t *testing.T) {
	tok, err := EncodeInt64(42, 12)
	require.NoError(t, err)
	assert.Equal(t, uint(Width64), tok.Width())
	assert.Equal(t, uint(12), tok.Shift())
	assert.Len(t, string(tok), 1+7)

	tok, err = EncodeInt32(42, 31)
	require.NoError(t, err)
	assert.Equal(t, uint(Width32), tok.Width())
	assert.Equal(t, uint(31), tok.Shift())
	assert.Len(t, string(tok), 1+1)

	assert.Equal(t, uint(0), Token("").Width())
	assert.Equal(t, uint(0), Token("\x01").Width())
}

func TestTokensShareBucketOnlyWhenPrefixMatches(t *testing.T) {
	const shift = 8
	a, err := EncodeInt64(256, shift)
	require.NoError(t, err)
	b, err := EncodeInt64(511, shift)
	require.NoError(t, err)
	c, err := EncodeInt64(512, shift)
	require.NoError(t, err)
	d, err := EncodeInt64(255, shift)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, b < c)
	assert.True(t, d < a)
}
