// Package elimdecomp decodes an elimination order into a tree
// decomposition (spec §3's "Elimination order" data model operation):
// each eliminated vertex's closed neighborhood at elimination time
// becomes a bag, and each bag is linked to the bag of its lowest-ranked
// remaining neighbor (built later, so links are resolved once every bag
// exists), mirroring the reducer's
// own from-permutation re-inflation path.
package elimdecomp

import (
	"sort"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
)

// Decode builds a tree decomposition of g from the elimination order
// (order[0] eliminated first). Returns the decomposition and a rank map
// (vertex -> position in order) other packages (reducer re-inflation)
// can reuse.
//
// Each bag is owned by the vertex eliminated to create it. A bag's
// parent is the bag owned by its lowest-ranked higher neighbor (the
// still-unprocessed neighbor eliminated soonest after it) — which,
// being eliminated later, is necessarily built on a later iteration, so
// parent links are resolved in a second pass once every owner is known.
func Decode(g *graphstore.Graph, order []int) (*decomp.TreeDecomposition, map[int]int) {
	work := g.Clone()
	rank := make(map[int]int, len(order))
	for i, v := range order {
		rank[v] = i
	}

	type built struct {
		bag         *decomp.Bag
		higherNbrs  []int
	}
	owner := make(map[int]*built, len(order))
	var rootWitness = -1
	td := (*decomp.TreeDecomposition)(nil)

	for _, v := range order {
		if !work.HasVertex(v) {
			continue
		}
		nb := work.Neighbors(v)
		bagVerts := append([]int{v}, nb...)
		sort.Ints(bagVerts)

		var bag *decomp.Bag
		if td == nil {
			td = decomp.New(bagVerts...)
			bag = td.Root
			rootWitness = v
		} else {
			bag = td.NewBag(bagVerts...)
		}
		owner[v] = &built{bag: bag, higherNbrs: nb}

		_, _ = work.EliminateVertex(v)
	}

	for _, v := range order {
		b, ok := owner[v]
		if !ok || v == rootWitness {
			continue
		}
		parentOwner := lowestRankedNeighbor(b.higherNbrs, rank)
		if parentOwner == -1 {
			continue
		}
		if pb, ok := owner[parentOwner]; ok {
			pb.bag.AddChild(b.bag)
		}
	}

	if td == nil {
		td = decomp.New()
	}
	return td, rank
}

func lowestRankedNeighbor(nb []int, rank map[int]int) int {
	best := -1
	bestV := -1
	for _, u := range nb {
		if r, ok := rank[u]; ok {
			if best == -1 || r < best {
				best, bestV = r, u
			}
		}
	}
	return bestV
}
