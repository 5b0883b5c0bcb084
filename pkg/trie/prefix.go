package trie

import (
	"encoding/binary"
	"fmt"
)

const (
	signBit64 = uint64(1) << 63
	signBit32 = uint32(1) << 31

	shiftBase64 = 0x20
	shiftBase32 = 0x60

	// Width64 and Width32 are the bit widths of the two value domains.
	Width64 = 64
	Width32 = 32
)

// Token is a prefix coded numeric term.
//
// Tokens of the same width and shift compare with the built-in string
// operators exactly as the encoded values compare.
type Token string

// Width returns 64 or 32 according to the token header, or 0 when the header
// belongs to neither domain.
func (t Token) Width() uint {
	if len(t) == 0 {
		return 0
	}
	switch h := t[0]; {
	case h >= shiftBase64 && h < shiftBase64+Width64:
		return Width64
	case h >= shiftBase32 && h < shiftBase32+Width32:
		return Width32
	}
	return 0
}

// Shift returns the number of low bits dropped from the value.
// It is only meaningful when Width is non-zero.
func (t Token) Shift() uint {
	switch t.Width() {
	case Width64:
		return uint(t[0] - shiftBase64)
	case Width32:
		return uint(t[0] - shiftBase32)
	}
	return 0
}

func (t Token) String() string {
	return fmt.Sprintf("%x", string(t))
}

// EncodeInt64 returns the token of v at the given shift.
func EncodeInt64(v int64, shift uint) (Token, error) {
	if shift >= Width64 {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrShiftRange, shift, Width64)
	}
	return encode(uint64(v)^signBit64, Width64, shift, shiftBase64), nil
}

// EncodeInt32 returns the token of v at the given shift.
func EncodeInt32(v int32, shift uint) (Token, error) {
	if shift >= Width32 {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrShiftRange, shift, Width32)
	}
	return encode(uint64(uint32(v)^signBit32), Width32, shift, shiftBase32), nil
}

// Int64Token is EncodeInt64 at full precision.
func Int64Token(v int64) Token {
	return encode(uint64(v)^signBit64, Width64, 0, shiftBase64)
}

// Int32Token is EncodeInt32 at full precision.
func Int32Token(v int32) Token {
	return encode(uint64(uint32(v)^signBit32), Width32, 0, shiftBase32)
}

// DecodeInt64 returns the value held by a 64-bit token. The low Shift() bits
// of the result are zero.
func DecodeInt64(t Token) (int64, error) {
	c, err := decode(t, Width64, shiftBase64)
	if err != nil {
		return 0, err
	}
	return int64(c ^ signBit64), nil
}

// DecodeInt32 returns the value held by a 32-bit token. The low Shift() bits
// of the result are zero.
func DecodeInt32(t Token) (int32, error) {
	c, err := decode(t, Width32, shiftBase32)
	if err != nil {
		return 0, err
	}
	return int32(uint32(c) ^ signBit32), nil
}

// payloadBytes is the number of bytes needed for the width-shift kept bits.
func payloadBytes(width, shift uint) int {
	return int((width - shift + 7) / 8)
}

func encode(canonical uint64, width, shift uint, base byte) Token {
	n := payloadBytes(width, shift)

	var be [8]byte
	binary.BigEndian.PutUint64(be[:], canonical>>shift)

	out := make([]byte, 1+n)
	out[0] = base + byte(shift)
	copy(out[1:], be[8-n:])
	return Token(out)
}

// decode returns the canonical value of t with the dropped bits zeroed.
func decode(t Token, width uint, base byte) (uint64, error) {
	if len(t) == 0 {
		return 0, fmt.Errorf("%w: empty token", ErrFormat)
	}
	h := t[0]
	if h < base || uint(h-base) >= width {
		return 0, fmt.Errorf("%w: header 0x%02x is not a %d-bit shift", ErrFormat, h, width)
	}
	shift := uint(h - base)

	n := payloadBytes(width, shift)
	if len(t) != 1+n {
		return 0, fmt.Errorf("%w: %d-bit token with shift %d has %d payload bytes, want %d",
			ErrFormat, width, shift, len(t)-1, n)
	}

	var v uint64
	for i := 1; i <= n; i++ {
		v = v<<8 | uint64(t[i])
	}
	if kept := width - shift; kept < 64 && v>>kept != 0 {
		return 0, fmt.Errorf("%w: payload exceeds %d bits", ErrFormat, kept)
	}
	return v << shift, nil
}
