package bittrie

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"
)

func setOf(universe int, bits ...uint) *bitset.BitSet {
	s := bitset.New(uint(universe))
	for _, b := range bits {
		s.Set(b)
	}
	return s
}

func TestInsertContains(t *testing.T) {
	tr := New(5)
	a := setOf(5, 0, 2, 4)
	require.False(t, tr.Contains(a))
	tr.Insert(a)
	require.True(t, tr.Contains(a))
}

func TestSupersetsEnumeratesAll(t *testing.T) {
	tr := New(4)
	s1 := setOf(4, 0, 1)
	s2 := setOf(4, 0, 1, 2)
	s3 := setOf(4, 0, 3)
	tr.Insert(s1)
	tr.Insert(s2)
	tr.Insert(s3)

	mask := setOf(4, 0, 1)
	var found []*bitset.BitSet
	tr.Supersets(mask, func(s *bitset.BitSet) bool {
		found = append(found, s)
		return true
	})
	require.Len(t, found, 2) // s1 and s2 are supersets of {0,1}; s3 is not
}

func TestSubsetsEnumeratesAll(t *testing.T) {
	tr := New(4)
	s1 := setOf(4, 0)
	s2 := setOf(4, 0, 1)
	s3 := setOf(4, 2)
	tr.Insert(s1)
	tr.Insert(s2)
	tr.Insert(s3)

	mask := setOf(4, 0, 1)
	var found []*bitset.BitSet
	tr.Subsets(mask, func(s *bitset.BitSet) bool {
		found = append(found, s)
		return true
	})
	require.Len(t, found, 2) // s1, s2 ⊆ {0,1}; s3 is not
}
