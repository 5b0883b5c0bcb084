package trie

import "math"

// Float64ToSortableInt64 maps f to an int64 whose signed order matches the
// order of float64 values. Negative values are complemented and positive values
// get their sign bit set; the result is returned in signed (non-canonical)
// form so it can be passed straight to EncodeInt64 and SplitInt64Range.
func Float64ToSortableInt64(f float64) int64 {
	bits := math.Float64bits(f)
	if bits&signBit64 != 0 {
		bits = ^bits
	} else {
		bits |= signBit64
	}
	return int64(bits ^ signBit64)
}

// SortableInt64ToFloat64 is the inverse of Float64ToSortableInt64.
func SortableInt64ToFloat64(i int64) float64 {
	bits := uint64(i) ^ signBit64
	if bits&signBit64 == 0 {
		bits = ^bits
	} else {
		bits &^= signBit64
	}
	return math.Float64frombits(bits)
}

// Float32ToSortableInt32 is the 32-bit counterpart of Float64ToSortableInt64.
func Float32ToSortableInt32(f float32) int32 {
	bits := math.Float32bits(f)
	if bits&signBit32 != 0 {
		bits = ^bits
	} else {
		bits |= signBit32
	}
	return int32(bits ^ signBit32)
}

// SortableInt32ToFloat32 is the inverse of Float32ToSortableInt32.
func SortableInt32ToFloat32(i int32) float32 {
	bits := uint32(i) ^ signBit32
	if bits&signBit32 == 0 {
		bits = ^bits
	} else {
		bits &^= signBit32
	}
	return math.Float32frombits(bits)
}
