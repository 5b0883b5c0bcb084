// Package trie implements the numeric trie coding used by triedb range queries.
//
// # Prefix coded tokens
//
// A signed value is first canonicalized by flipping its sign bit, so that
// unsigned order equals signed order. A token drops the low `shift` bits of the
// canonical value and serializes the rest behind a one byte header:
//
//	+--------+------------------------------------------+
//	| header | canonical >> shift, big-endian, minimal   |
//	+--------+------------------------------------------+
//
//	header = 0x20 + shift   for 64-bit values (shift in [0, 64))
//	header = 0x60 + shift   for 32-bit values (shift in [0, 32))
//
// For a fixed width and shift every token has the same length, so Go's bytewise
// string comparison orders tokens exactly like the values they hold. The two
// header ranges are disjoint, which makes a 64-bit token undecodable as a 32-bit
// one and vice versa.
//
// # Trie levels
//
// Indexing a value at shifts 0, p, 2p, ... (see [Shifts]) materializes one term
// per level. A range query is answered by [SplitInt64Range] or
// [SplitInt32Range], which cover the range with the fewest, coarsest buckets:
//
//	level 2p:           [=======]                  interior
//	level p:       [===]         [=]               fringes
//	level 0:    [=]                 [==]           fringes
//
// The number of subranges is bounded by the width and the precision step, not
// by the size of the range.
//
// # Floating point
//
// [Float64ToSortableInt64] and [Float32ToSortableInt32] map IEEE-754 values to
// integers of the same width whose signed order matches float order, so floats
// are indexed and split through the integer functions. -0.0 sorts immediately
// before +0.0. NaN ordering is unspecified.
//
// Everything in this package is a pure function and safe for concurrent use.
package trie
