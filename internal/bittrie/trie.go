// Package bittrie implements the subset/superset index of spec §4.3: a
// radix-style tree over bit positions, used by the atom solvers to
// prune duplicate and dominated configurations without a linear scan
// of everything seen so far.
//
// No library in the example corpus implements this structure (see
// DESIGN.md); it is written directly against
// github.com/bits-and-blooms/bitset, which the rest of the module
// already depends on for its bitset type.
package bittrie

import (
	"github.com/bits-and-blooms/bitset"
)

// node is a single trie level, branching on whether bit `pos` is set.
type node struct {
	pos      int // bit position this node branches on, the universe size for a leaf
	terminal bool
	zero     *node // subtree where bit pos is clear
	one      *node // subtree where bit pos is set
}

// Trie stores bitsets of a fixed universe size and supports membership,
// subset, and superset queries.
type Trie struct {
	universe int
	root     *node
}

// New returns an empty trie over a universe of `universe` bits.
func New(universe int) *Trie {
	return &Trie{universe: universe, root: &node{pos: 0}}
}

// Insert adds s to the trie. Idempotent.
func (t *Trie) Insert(s *bitset.BitSet) {
	cur := t.root
	for pos := 0; pos < t.universe; pos++ {
		if s.Test(uint(pos)) {
			if cur.one == nil {
				cur.one = &node{pos: pos + 1}
			}
			cur = cur.one
		} else {
			if cur.zero == nil {
				cur.zero = &node{pos: pos + 1}
			}
			cur = cur.zero
		}
	}
	cur.terminal = true
}

// Contains reports whether s was previously Inserted.
func (t *Trie) Contains(s *bitset.BitSet) bool {
	cur := t.root
	for pos := 0; pos < t.universe; pos++ {
		var next *node
		if s.Test(uint(pos)) {
			next = cur.one
		} else {
			next = cur.zero
		}
		if next == nil {
			return false
		}
		cur = next
	}
	return cur.terminal
}

// Supersets lazily enumerates every stored set T with mask ⊆ T, calling
// visit(T) for each. Stops early if visit returns false.
func (t *Trie) Supersets(mask *bitset.BitSet, visit func(*bitset.BitSet) bool) {
	acc := bitset.New(uint(t.universe))
	t.walkSupersets(t.root, mask, 0, acc, visit)
}

func (t *Trie) walkSupersets(n *node, mask *bitset.BitSet, pos int, acc *bitset.BitSet, visit func(*bitset.BitSet) bool) bool {
	if n == nil {
		return true
	}
	if pos == t.universe {
		if n.terminal {
			return visit(acc.Clone())
		}
		return true
	}
	must := mask.Test(uint(pos))
	if !must {
		acc.Clear(uint(pos))
		if !t.walkSupersets(n.zero, mask, pos+1, acc, visit) {
			return false
		}
	}
	acc.Set(uint(pos))
	if !t.walkSupersets(n.one, mask, pos+1, acc, visit) {
		return false
	}
	return true
}

// Subsets lazily enumerates every stored set T with T ⊆ mask, calling
// visit(T) for each. Stops early if visit returns false.
func (t *Trie) Subsets(mask *bitset.BitSet, visit func(*bitset.BitSet) bool) {
	acc := bitset.New(uint(t.universe))
	t.walkSubsets(t.root, mask, 0, acc, visit)
}

func (t *Trie) walkSubsets(n *node, mask *bitset.BitSet, pos int, acc *bitset.BitSet, visit func(*bitset.BitSet) bool) bool {
	if n == nil {
		return true
	}
	if pos == t.universe {
		if n.terminal {
			return visit(acc.Clone())
		}
		return true
	}
	acc.Clear(uint(pos))
	if !t.walkSubsets(n.zero, mask, pos+1, acc, visit) {
		return false
	}
	if mask.Test(uint(pos)) {
		acc.Set(uint(pos))
		if !t.walkSubsets(n.one, mask, pos+1, acc, visit) {
			return false
		}
	}
	return true
}
