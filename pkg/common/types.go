package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"triedb/pkg/trie"
)

// ErrOutOfRange is returned by Value.Validate for bits that do not fit the
// kind's width.
var ErrOutOfRange = errors.New("value out of range for kind")

// DocID identifies an indexed document.
type DocID uint64

// Kind is the numeric type of an indexed field.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt64
	KindInt32
	KindFloat64
	KindFloat32
)

var kindNames = map[Kind]string{
	KindInt64:   "int64",
	KindInt32:   "int32",
	KindFloat64: "float64",
	KindFloat32: "float32",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Width returns the bit width of the kind's sortable integer form.
func (k Kind) Width() uint {
	switch k {
	case KindInt64, KindFloat64:
		return trie.Width64
	case KindInt32, KindFloat32:
		return trie.Width32
	}
	return 0
}

// ParseKind accepts the names printed by Kind.String, plus "int", "long",
// "float" and "double".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int64", "long":
		return KindInt64, nil
	case "int32", "int":
		return KindInt32, nil
	case "float64", "double":
		return KindFloat64, nil
	case "float32", "float":
		return KindFloat32, nil
	}
	return KindInvalid, fmt.Errorf("unknown kind %q", s)
}

// Value is a typed number in its sortable integer form. For 32-bit kinds the
// low 32 bits of Bits hold the int32.
type Value struct {
	Kind Kind
	Bits int64
}

func Int64Value(v int64) Value { return Value{Kind: KindInt64, Bits: v} }
func Int32Value(v int32) Value { return Value{Kind: KindInt32, Bits: int64(v)} }

func Float64Value(f float64) Value {
	return Value{Kind: KindFloat64, Bits: trie.Float64ToSortableInt64(f)}
}

func Float32Value(f float32) Value {
	return Value{Kind: KindFloat32, Bits: int64(trie.Float32ToSortableInt32(f))}
}

// Int32 returns the sortable int32 of a 32-bit value.
func (v Value) Int32() int32 { return int32(v.Bits) }

// Validate reports an invalid kind, or a 32-bit value whose Bits lie outside
// the int32 range.
func (v Value) Validate() error {
	switch v.Kind.Width() {
	case 0:
		return fmt.Errorf("%w: %s", ErrOutOfRange, v.Kind)
	case trie.Width32:
		if v.Bits != int64(v.Int32()) {
			return fmt.Errorf("%w: %s bits %d", ErrOutOfRange, v.Kind, v.Bits)
		}
	}
	return nil
}

// Float64 returns the value as a float64 regardless of kind.
func (v Value) Float64() float64 {
	switch v.Kind {
	case KindFloat64:
		return trie.SortableInt64ToFloat64(v.Bits)
	case KindFloat32:
		return float64(trie.SortableInt32ToFloat32(v.Int32()))
	case KindInt32:
		return float64(v.Int32())
	}
	return float64(v.Bits)
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt64:
		return fmt.Sprintf("%d", v.Bits)
	case KindInt32:
		return fmt.Sprintf("%d", v.Int32())
	case KindFloat64, KindFloat32:
		return fmt.Sprintf("%g", v.Float64())
	}
	return fmt.Sprintf("invalid(%d)", v.Bits)
}

// ParseValue parses s as a number of the given kind.
func ParseValue(kind Kind, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch kind {
	case KindInt64, KindInt32:
		n, err := strconv.ParseInt(s, 10, int(kind.Width()))
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", kind, err)
		}
		if kind == KindInt32 {
			return Int32Value(int32(n)), nil
		}
		return Int64Value(n), nil
	case KindFloat64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", kind, err)
		}
		return Float64Value(f), nil
	case KindFloat32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", kind, err)
		}
		return Float32Value(float32(f)), nil
	}
	return Value{}, fmt.Errorf("parse %q: unsupported %s", s, kind)
}

// Record is one (document, field, value) triple, the unit stored by the
// backend and replayed into the index on startup.
type Record struct {
	Doc   DocID
	Field string
	Value Value
}

func (r *Record) String() string {
	return fmt.Sprintf("Record{Doc: %d, Field: %s, Value: %s}", r.Doc, r.Field, r.Value)
}
