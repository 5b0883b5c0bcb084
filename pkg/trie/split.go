package trie

// Int64RangeSink receives the subranges produced by SplitInt64Range.
//
// min and max are values of the original signed domain; max has its low shift
// bits set, so [min, max] is exactly the set of values the subrange covers.
type Int64RangeSink interface {
	AddRange(min, max int64, shift uint)
}

// Int64RangeFunc adapts a function to Int64RangeSink.
type Int64RangeFunc func(min, max int64, shift uint)

func (f Int64RangeFunc) AddRange(min, max int64, shift uint) { f(min, max, shift) }

// Int32RangeSink receives the subranges produced by SplitInt32Range.
type Int32RangeSink interface {
	AddRange(min, max int32, shift uint)
}

// Int32RangeFunc adapts a function to Int32RangeSink.
type Int32RangeFunc func(min, max int32, shift uint)

func (f Int32RangeFunc) AddRange(min, max int32, shift uint) { f(min, max, shift) }

// Subrange is one emitted (min, max, shift) triple.
type Subrange struct {
	Min   int64
	Max   int64
	Shift uint
}

// SplitInt64Range covers the inclusive range [lower, upper] with disjoint
// subranges on the trie levels of precisionStep and reports them to sink.
//
// Subranges are emitted finest level first; within a level the low fringe
// comes before the high fringe. An inverted range emits nothing. The only
// error is ErrPrecisionStep for a zero step.
func SplitInt64Range(lower, upper int64, precisionStep uint, sink Int64RangeSink) error {
	return splitRange(Width64, precisionStep, uint64(lower)^signBit64, uint64(upper)^signBit64,
		func(lo, hi uint64, shift uint) {
			sink.AddRange(int64(lo^signBit64), int64(hi^signBit64), shift)
		})
}

// SplitInt32Range is SplitInt64Range for the 32-bit domain.
func SplitInt32Range(lower, upper int32, precisionStep uint, sink Int32RangeSink) error {
	return splitRange(Width32, precisionStep,
		uint64(uint32(lower)^signBit32), uint64(uint32(upper)^signBit32),
		func(lo, hi uint64, shift uint) {
			sink.AddRange(int32(uint32(lo)^signBit32), int32(uint32(hi)^signBit32), shift)
		})
}

// CollectInt64Range returns the subranges of SplitInt64Range in emission order.
func CollectInt64Range(lower, upper int64, precisionStep uint) ([]Subrange, error) {
	var out []Subrange
	err := SplitInt64Range(lower, upper, precisionStep, Int64RangeFunc(func(min, max int64, shift uint) {
		out = append(out, Subrange{Min: min, Max: max, Shift: shift})
	}))
	return out, err
}

// CollectInt32Range returns the subranges of SplitInt32Range in emission order.
func CollectInt32Range(lower, upper int32, precisionStep uint) ([]Subrange, error) {
	var out []Subrange
	err := SplitInt32Range(lower, upper, precisionStep, Int32RangeFunc(func(min, max int32, shift uint) {
		out = append(out, Subrange{Min: int64(min), Max: int64(max), Shift: shift})
	}))
	return out, err
}

// Shifts returns the trie levels 0, p, 2p, ... below width. The last entry is
// the level SplitInt64Range/SplitInt32Range use for their coarsest subrange.
func Shifts(width, precisionStep uint) []uint {
	if precisionStep == 0 || width == 0 {
		return nil
	}
	var out []uint
	for shift := uint(0); ; shift += precisionStep {
		out = append(out, shift)
		if precisionStep >= width-shift {
			return out
		}
	}
}

// splitRange works on canonical values, where unsigned order is value order.
func splitRange(width, step uint, lo, hi uint64, emit func(lo, hi uint64, shift uint)) error {
	if step == 0 {
		return ErrPrecisionStep
	}
	if lo > hi {
		return nil
	}

	add := func(min, max uint64, shift uint) {
		emit(min, max|(uint64(1)<<shift-1), shift)
	}

	for shift := uint(0); ; shift += step {
		// next level would reach the top of the domain
		if step >= width-shift {
			add(lo, hi, shift)
			return nil
		}

		diff := uint64(1) << (shift + step)
		mask := (uint64(1)<<step - 1) << shift

		hasLower := lo&mask != 0
		hasUpper := hi&mask != mask

		nextLo, nextHi := lo, hi
		if hasLower {
			nextLo += diff
		}
		if hasUpper {
			nextHi -= diff
		}
		nextLo &^= mask
		nextHi &^= mask

		// wrapped around the domain or no aligned interior left
		if nextLo < lo || nextHi > hi || nextLo > nextHi {
			add(lo, hi, shift)
			return nil
		}

		if hasLower {
			add(lo, lo|mask, shift)
		}
		if hasUpper {
			add(hi&^mask, hi, shift)
		}

		lo, hi = nextLo, nextHi
	}
}
