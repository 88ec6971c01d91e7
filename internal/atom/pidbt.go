package atom

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/cem-okulmus/twdecomp/internal/bitgraph"
	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
	"github.com/cem-okulmus/twdecomp/internal/telemetry"
)

// PidBT implements the Bouchitté–Todinca "feasible potential maximal
// clique" algorithm of spec §4.7.2: rather than enumerating every PMC,
// it grows I-Blocks (regions whose internal decomposition is already
// known) outward, deriving new candidate PMCs from each I-Block's
// border, and only accepting a PMC once every connected component it
// separates off is itself already an I-Block.
//
// Candidate PMC derivation is simplified relative to the full
// Bouchitté–Todinca incremental optimization (which also derives PMCs
// from O-Block pairs and per-vertex refinement); this solver instead
// derives each candidate directly from the popped I-Block's own
// saturated border.
type PidBT struct{}

// Decompose attempts a decomposition of g with width <= k.
func (PidBT) Decompose(g *graphstore.Graph, k int) (*decomp.TreeDecomposition, bool, error) {
	bg := bitgraph.FromGraph(g, nil)
	n := bg.N()
	if n == 0 {
		return decomp.New(), true, nil
	}

	resolved := make(map[string]*decomp.Bag, n)
	var queue []*bitset.BitSet

	for i := 0; i < n; i++ {
		s := bg.Singleton(i)
		resolved[blockKey(s)] = decomp.NewBag(0, bg.VertexAt(i))
		queue = append(queue, s)
	}

	var pending []*bitset.BitSet
	var root *bitset.BitSet
	var rootBag *decomp.Bag

	nextID := 1
	newBag := func(vertices []int) *decomp.Bag {
		b := decomp.NewBag(nextID, vertices...)
		nextID++
		return b
	}

	// Bounded fixpoint: repeatedly drain the queue, then retry pending
	// candidates once more blocks have resolved, until nothing changes.
	for pass := 0; pass < n+2 && root == nil; pass++ {
		progressed := false

		for len(queue) > 0 {
			sort.Slice(queue, func(i, j int) bool { return queue[i].Count() > queue[j].Count() })
			c := queue[0]
			queue = queue[1:]

			border := bg.ExteriorBorder(c)
			if border.None() {
				// c spans (part of) a full connected piece of the graph with
				// no outside border: treat its own vertex set as the PMC.
				candidate := c.Union(border)
				if tryAccept(bg, candidate, k, resolved, newBag, &queue) {
					progressed = true
				}
				continue
			}
			candidate := bg.Saturate(border)
			if uint(len(g.Vertices()))+1 < candidate.Count() {
				continue
			}
			if accepted := tryAccept(bg, candidate, k, resolved, newBag, &queue); accepted {
				progressed = true
			} else {
				pending = append(pending, candidate)
			}

			if bg.Outlet(candidate).None() && bg.IsPotentialMaximalClique(candidate) {
				if b, ok := resolved[blockKey(candidate)+"#pmc"]; ok {
					root, rootBag = candidate, b
					break
				}
			}
		}

		if root != nil {
			break
		}

		var stillPending []*bitset.BitSet
		for _, cand := range pending {
			if tryAccept(bg, cand, k, resolved, newBag, &queue) {
				progressed = true
			} else {
				stillPending = append(stillPending, cand)
			}
		}
		pending = stillPending

		if !progressed {
			break
		}
	}

	if root == nil {
		// Final check: the whole vertex set might already be a resolved
		// feasible PMC with an empty outlet (a single atom of width k).
		full := bg.Full()
		if bg.IsPotentialMaximalClique(full) && bg.Outlet(full).None() {
			if b, ok := resolved[blockKey(full)+"#pmc"]; ok {
				root, rootBag = full, b
			}
		}
	}

	if root == nil {
		telemetry.For("atom.pidbt").WithField("k", k).Debug("no feasible root PMC found at this width")
		return nil, false, nil
	}
	return decomp.FromRoot(rootBag), true, nil
}

// tryAccept checks whether candidate is a PMC of size <= k+1 all of
// whose full components are already resolved I-Blocks; if so it builds
// candidate's bag, records it, and pushes its crib as the next I-Block.
func tryAccept(bg *bitgraph.BitsetGraph, candidate *bitset.BitSet, k int, resolved map[string]*decomp.Bag, newBag func([]int) *decomp.Bag, queue *[]*bitset.BitSet) bool {
	if candidate.Count() > uint(k+1) {
		return false
	}
	if !bg.IsPotentialMaximalClique(candidate) {
		return false
	}
	supports := bg.Support(candidate)

	childBags := make([]*decomp.Bag, 0, len(supports))
	for _, comp := range supports {
		b, ok := resolved[blockKey(comp)]
		if !ok {
			return false
		}
		childBags = append(childBags, b)
	}

	bag := newBag(bg.OriginalVertices(candidate))
	for _, cb := range childBags {
		bag.AddChild(cb)
	}
	resolved[blockKey(candidate)+"#pmc"] = bag

	if len(supports) == 0 {
		resolved[blockKey(candidate)] = bag
		*queue = append(*queue, candidate)
		return true
	}
	for _, comp := range supports {
		crib := bg.Crib(comp, candidate)
		resolved[blockKey(crib)] = bag
		*queue = append(*queue, crib)
	}
	return true
}

func blockKey(s *bitset.BitSet) string {
	var buf []byte
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		buf = append(buf, []byte(fmt.Sprintf("%d,", i))...)
	}
	return string(buf)
}
