package trie

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned when a token is malformed or was produced for the
	// other bit width.
	ErrFormat = errors.New("trie: malformed prefix coded token")

	// ErrShiftRange is returned when a shift is outside [0, width).
	ErrShiftRange = errors.New("trie: shift out of range")

	// ErrPrecisionStep is returned by the range splitters for a precision step
	// of 0. It wraps ErrShiftRange.
	ErrPrecisionStep = fmt.Errorf("%w: precision step must be >= 1", ErrShiftRange)
)
