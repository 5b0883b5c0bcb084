package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"triedb/pkg/common"
	"triedb/pkg/trie"
)

var ErrShortPayload = errors.New("payload too short")

// Put:   [doc 8B][kind 1B][bits 8B]
// Del:   [doc 8B]
// Range: [kind 1B][lower 8B][upper 8B]
// Split: [width 1B][step 1B][lower 8B][upper 8B]
const (
	putSize   = 17
	delSize   = 8
	rangeSize = 17
	splitSize = 18
	subSize   = 17
)

func PutPayload(doc common.DocID, v common.Value) []byte {
	b := make([]byte, putSize)
	binary.BigEndian.PutUint64(b[0:8], uint64(doc))
	b[8] = byte(v.Kind)
	binary.BigEndian.PutUint64(b[9:17], uint64(v.Bits))
	return b
}

func ParsePut(b []byte) (common.DocID, common.Value, error) {
	if len(b) < putSize {
		return 0, common.Value{}, fmt.Errorf("%w: put needs %d bytes, got %d", ErrShortPayload, putSize, len(b))
	}
	doc := common.DocID(binary.BigEndian.Uint64(b[0:8]))
	v := common.Value{Kind: common.Kind(b[8]), Bits: int64(binary.BigEndian.Uint64(b[9:17]))}
	return doc, v, nil
}

func DelPayload(doc common.DocID) []byte {
	b := make([]byte, delSize)
	binary.BigEndian.PutUint64(b, uint64(doc))
	return b
}

func ParseDel(b []byte) (common.DocID, error) {
	if len(b) < delSize {
		return 0, fmt.Errorf("%w: delete needs %d bytes, got %d", ErrShortPayload, delSize, len(b))
	}
	return common.DocID(binary.BigEndian.Uint64(b)), nil
}

// RangePayload packs both bounds; they must share a kind.
func RangePayload(lower, upper common.Value) []byte {
	b := make([]byte, rangeSize)
	b[0] = byte(lower.Kind)
	binary.BigEndian.PutUint64(b[1:9], uint64(lower.Bits))
	binary.BigEndian.PutUint64(b[9:17], uint64(upper.Bits))
	return b
}

func ParseRange(b []byte) (common.Value, common.Value, error) {
	if len(b) < rangeSize {
		return common.Value{}, common.Value{}, fmt.Errorf("%w: range needs %d bytes, got %d", ErrShortPayload, rangeSize, len(b))
	}
	kind := common.Kind(b[0])
	lower := common.Value{Kind: kind, Bits: int64(binary.BigEndian.Uint64(b[1:9]))}
	upper := common.Value{Kind: kind, Bits: int64(binary.BigEndian.Uint64(b[9:17]))}
	return lower, upper, nil
}

func SplitPayload(width, step uint, lower, upper int64) []byte {
	b := make([]byte, splitSize)
	b[0] = byte(width)
	b[1] = byte(step)
	binary.BigEndian.PutUint64(b[2:10], uint64(lower))
	binary.BigEndian.PutUint64(b[10:18], uint64(upper))
	return b
}

func ParseSplit(b []byte) (width, step uint, lower, upper int64, err error) {
	if len(b) < splitSize {
		return 0, 0, 0, 0, fmt.Errorf("%w: split needs %d bytes, got %d", ErrShortPayload, splitSize, len(b))
	}
	width = uint(b[0])
	step = uint(b[1])
	lower = int64(binary.BigEndian.Uint64(b[2:10]))
	upper = int64(binary.BigEndian.Uint64(b[10:18]))
	return width, step, lower, upper, nil
}

// EncodeDocs writes [count 4B] followed by count 8-byte document ids.
func EncodeDocs(docs []common.DocID) []byte {
	b := make([]byte, 4+8*len(docs))
	binary.BigEndian.PutUint32(b[0:4], uint32(len(docs)))
	for i, d := range docs {
		binary.BigEndian.PutUint64(b[4+8*i:], uint64(d))
	}
	return b
}

func DecodeDocs(b []byte) ([]common.DocID, error) {
	if len(b) < 4 {
		return nil, ErrShortPayload
	}
	count := int(binary.BigEndian.Uint32(b[0:4]))
	if len(b)-4 < 8*count {
		return nil, fmt.Errorf("%w: %d docs announced, %d bytes left", ErrShortPayload, count, len(b)-4)
	}
	docs := make([]common.DocID, count)
	for i := range docs {
		docs[i] = common.DocID(binary.BigEndian.Uint64(b[4+8*i:]))
	}
	return docs, nil
}

// EncodeSubranges writes [count 4B] followed by ([min 8B][max 8B][shift 1B]) * count.
func EncodeSubranges(subs []trie.Subrange) []byte {
	b := make([]byte, 4+subSize*len(subs))
	binary.BigEndian.PutUint32(b[0:4], uint32(len(subs)))
	for i, s := range subs {
		off := 4 + subSize*i
		binary.BigEndian.PutUint64(b[off:], uint64(s.Min))
		binary.BigEndian.PutUint64(b[off+8:], uint64(s.Max))
		b[off+16] = byte(s.Shift)
	}
	return b
}

func DecodeSubranges(b []byte) ([]trie.Subrange, error) {
	if len(b) < 4 {
		return nil, ErrShortPayload
	}
	count := int(binary.BigEndian.Uint32(b[0:4]))
	if len(b)-4 < subSize*count {
		return nil, fmt.Errorf("%w: %d subranges announced, %d bytes left", ErrShortPayload, count, len(b)-4)
	}
	subs := make([]trie.Subrange, count)
	for i := range subs {
		off := 4 + subSize*i
		subs[i] = trie.Subrange{
			Min:   int64(binary.BigEndian.Uint64(b[off:])),
			Max:   int64(binary.BigEndian.Uint64(b[off+8:])),
			Shift: uint(b[off+16]),
		}
	}
	return subs, nil
}
