package core

import (
	"github.com/google/btree"
)

// Key is an ordered, printable key (Slot, Address or Word).
type Key[K any] interface {
	Cmp(K) int
	String() string
}

// Entry is one explicitly assigned cell of a snapshot
type Entry[K Key[K]] struct {
	Key   K
	Value Word
}

const sparseDegree = 16

// Sparse is an immutable ordered mapping from keys to words. Absent keys
// read as zero. The zero value is the empty snapshot.
//
// With returns a new snapshot sharing structure with the receiver through
// copy-on-write; the receiver never changes. Reads may run concurrently;
// With must not be called concurrently on the same snapshot.
type Sparse[K Key[K]] struct {
	tree *btree.BTreeG[Entry[K]]
}

// MemorySnapshot is a sparse byte-addressed memory image
type MemorySnapshot = Sparse[Address]

// StorageSnapshot is a sparse storage image
type StorageSnapshot = Sparse[Word]

func entryLess[K Key[K]](a, b Entry[K]) bool {
	return a.Key.Cmp(b.Key) < 0
}

// SparseFrom builds a snapshot from entries. Later entries win on
// duplicate keys.
func SparseFrom[K Key[K]](entries []Entry[K]) Sparse[K] {
	if len(entries) == 0 {
		return Sparse[K]{}
	}
	tree := btree.NewG(sparseDegree, entryLess[K])
	for _, e := range entries {
		tree.ReplaceOrInsert(e)
	}
	return Sparse[K]{tree: tree}
}

// Get returns the explicitly assigned value for k
func (s Sparse[K]) Get(k K) (Word, bool) {
	if s.tree == nil {
		return Word{}, false
	}
	e, ok := s.tree.Get(Entry[K]{Key: k})
	return e.Value, ok
}

// Load returns the value at k, zero when unassigned
func (s Sparse[K]) Load(k K) Word {
	v, _ := s.Get(k)
	return v
}

// With returns a snapshot equal to s except that k maps to v
func (s Sparse[K]) With(k K, v Word) Sparse[K] {
	var next *btree.BTreeG[Entry[K]]
	if s.tree == nil {
		next = btree.NewG(sparseDegree, entryLess[K])
	} else {
		next = s.tree.Clone()
	}
	next.ReplaceOrInsert(Entry[K]{Key: k, Value: v})
	return Sparse[K]{tree: next}
}

// Len returns the number of explicitly assigned cells
func (s Sparse[K]) Len() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// Ascend calls fn for every assigned cell in ascending key order until fn
// returns false.
func (s Sparse[K]) Ascend(fn func(k K, v Word) bool) {
	if s.tree == nil {
		return
	}
	s.tree.Ascend(func(e Entry[K]) bool {
		return fn(e.Key, e.Value)
	})
}

// Entries returns the assigned cells in ascending key order
func (s Sparse[K]) Entries() []Entry[K] {
	out := make([]Entry[K], 0, s.Len())
	s.Ascend(func(k K, v Word) bool {
		out = append(out, Entry[K]{Key: k, Value: v})
		return true
	})
	return out
}

// FirstDifference returns the smallest key whose value differs between s
// and o under zero-default semantics.
func (s Sparse[K]) FirstDifference(o Sparse[K]) (key K, mine, theirs Word, found bool) {
	a, b := s.Entries(), o.Entries()
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var k K
		var va, vb Word
		switch {
		case j >= len(b) || (i < len(a) && a[i].Key.Cmp(b[j].Key) < 0):
			k, va = a[i].Key, a[i].Value
			i++
		case i >= len(a) || b[j].Key.Cmp(a[i].Key) < 0:
			k, vb = b[j].Key, b[j].Value
			j++
		default:
			k, va, vb = a[i].Key, a[i].Value, b[j].Value
			i++
			j++
		}
		if !va.Eq(vb) {
			return k, va, vb, true
		}
	}
	return key, mine, theirs, false
}

// Equal reports whether s and o agree on every key, treating unassigned
// cells as zero.
func (s Sparse[K]) Equal(o Sparse[K]) bool {
	_, _, _, diff := s.FirstDifference(o)
	return !diff
}
