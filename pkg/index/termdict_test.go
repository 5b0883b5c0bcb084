package index

import (
	"testing"

	"triedb/pkg/common"
	"triedb/pkg/trie"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermDictAddRemove(t *testing.T) {
	d := NewTermDict(4)
	tok := trie.Int64Token(42)

	d.Add(tok, 3)
	d.Add(tok, 1)
	d.Add(tok, 2)
	d.Add(tok, 2)
	assert.Equal(t, []common.DocID{1, 2, 3}, d.Postings(tok))
	assert.Equal(t, 1, d.Len())

	d.Remove(tok, 2)
	d.Remove(tok, 7)
	assert.Equal(t, []common.DocID{1, 3}, d.Postings(tok))

	d.Remove(tok, 1)
	d.Remove(tok, 3)
	assert.Nil(t, d.Postings(tok))
	assert.Equal(t, 0, d.Len())

	d.Remove(tok, 3)
}

func TestTermDictAscendRangeIsNumericOrder(t *testing.T) {
	d := NewTermDict(4)
	for v := int64(-50); v <= 50; v++ {
		d.Add(trie.Int64Token(v*1000), common.DocID(v+100))
	}
	// coarser terms must not leak into a shift-0 scan
	coarse, err := trie.EncodeInt64(0, 8)
	require.NoError(t, err)
	d.Add(coarse, 999)

	var got []common.DocID
	d.AscendRange(trie.Int64Token(-3000), trie.Int64Token(2000), func(term Term) bool {
		got = append(got, term.Postings...)
		return true
	})
	assert.Equal(t, []common.DocID{97, 98, 99, 100, 101, 102}, got)

	var first []common.DocID
	d.AscendRange(trie.Int64Token(-3000), trie.Int64Token(2000), func(term Term) bool {
		first = append(first, term.Postings...)
		return false
	})
	assert.Equal(t, []common.DocID{97}, first)
}

func TestTermDictClear(t *testing.T) {
	d := NewTermDict(2)
	d.Add(trie.Int32Token(1), 1)
	d.Add(trie.Int32Token(2), 1)
	d.Clear()
	assert.Equal(t, 0, d.Len())
}
