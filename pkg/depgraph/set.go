package depgraph

import (
	"math/bits"

	"github.com/nixscope/nixscope/pkg/store"
)

// Set is a fixed-capacity bitset over registry indices. Every ownership and
// sharing question in the size engine collapses to index membership, so the
// representation is a flat word array: membership tests are O(1) and unions
// run a word at a time.
type Set struct {
	words []uint64
}

// NewSet returns an empty set with capacity for indices [0, n).
func NewSet(n int) *Set {
	return &Set{words: make([]uint64, (n+63)/64)}
}

// Add inserts i and reports whether it was newly added.
func (s *Set) Add(i store.Index) bool {
	w, b := i/64, uint(i%64)
	if s.words[w]&(1<<b) != 0 {
		return false
	}
	s.words[w] |= 1 << b
	return true
}

// Has reports whether i is a member.
func (s *Set) Has(i store.Index) bool {
	return s.words[i/64]&(1<<uint(i%64)) != 0
}

// Len returns the number of members.
func (s *Set) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return &Set{words: words}
}

// UnionWith adds all members of o to s. Both sets must share capacity.
func (s *Set) UnionWith(o *Set) {
	for i, w := range o.words {
		s.words[i] |= w
	}
}

// AndNot returns the members of s that are not in o.
func (s *Set) AndNot(o *Set) *Set {
	words := make([]uint64, len(s.words))
	for i, w := range s.words {
		words[i] = w &^ o.words[i]
	}
	return &Set{words: words}
}

// ForEach calls fn for every member in ascending index order.
func (s *Set) ForEach(fn func(store.Index)) {
	for wi, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			fn(store.Index(wi*64 + b))
			w &= w - 1
		}
	}
}
