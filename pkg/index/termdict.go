package index

import (
	"sort"
	"sync"
	"triedb/pkg/common"
	"triedb/pkg/trie"

	"github.com/google/btree"
)

// Term is one dictionary entry: a prefix coded token and the sorted documents
// holding it.
type Term struct {
	Token    trie.Token
	Postings []common.DocID
}

func termLess(a, b Term) bool {
	return a.Token < b.Token
}

// TermDict is an ordered term dictionary. Tokens compare with the native
// string order, which for prefix coded terms is numeric order per shift.
type TermDict struct {
	tree *btree.BTreeG[Term]
	lock sync.RWMutex
}

func NewTermDict(degree int) *TermDict {
	return &TermDict{
		tree: btree.NewG(degree, termLess),
	}
}

// Add records doc under token. Adding the same pair twice is a no-op.
func (d *TermDict) Add(token trie.Token, doc common.DocID) {
	d.lock.Lock()
	defer d.lock.Unlock()

	term, _ := d.tree.Get(Term{Token: token})
	term.Token = token

	i := sort.Search(len(term.Postings), func(i int) bool { return term.Postings[i] >= doc })
	if i < len(term.Postings) && term.Postings[i] == doc {
		return
	}

	postings := make([]common.DocID, 0, len(term.Postings)+1)
	postings = append(postings, term.Postings[:i]...)
	postings = append(postings, doc)
	postings = append(postings, term.Postings[i:]...)
	term.Postings = postings

	d.tree.ReplaceOrInsert(term)
}

// Remove drops doc from token; the term disappears with its last posting.
func (d *TermDict) Remove(token trie.Token, doc common.DocID) {
	d.lock.Lock()
	defer d.lock.Unlock()

	term, ok := d.tree.Get(Term{Token: token})
	if !ok {
		return
	}
	i := sort.Search(len(term.Postings), func(i int) bool { return term.Postings[i] >= doc })
	if i == len(term.Postings) || term.Postings[i] != doc {
		return
	}
	if len(term.Postings) == 1 {
		d.tree.Delete(term)
		return
	}

	postings := make([]common.DocID, 0, len(term.Postings)-1)
	postings = append(postings, term.Postings[:i]...)
	postings = append(postings, term.Postings[i+1:]...)
	term.Postings = postings
	d.tree.ReplaceOrInsert(term)
}

// Postings returns the documents of token, or nil.
func (d *TermDict) Postings(token trie.Token) []common.DocID {
	d.lock.RLock()
	defer d.lock.RUnlock()

	term, ok := d.tree.Get(Term{Token: token})
	if !ok {
		return nil
	}
	return term.Postings
}

// AscendRange calls fn for every term in [min, max] in order until fn
// returns false.
func (d *TermDict) AscendRange(min, max trie.Token, fn func(term Term) bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	d.tree.AscendGreaterOrEqual(Term{Token: min}, func(term Term) bool {
		if term.Token > max {
			return false
		}
		return fn(term)
	})
}

func (d *TermDict) Len() int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.tree.Len()
}

func (d *TermDict) Clear() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.tree.Clear(false)
}
