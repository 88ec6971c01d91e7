package atom

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/cem-okulmus/twdecomp/internal/bitgraph"
	"github.com/cem-okulmus/twdecomp/internal/bittrie"
	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
	"github.com/cem-okulmus/twdecomp/internal/telemetry"
)

// CatchAndGlue implements the node-search-game solver of spec §4.7.1:
// tree width k = |cops|-1 for the cops-and-robber game with a visible,
// unbounded-speed fugitive. A configuration S is a saturated set the
// cops have already cleared; N(S) is their current placement. The
// search grows S by "flying" to a new vertex and gluing previously
// discovered configurations together, pruned by a bitset trie of
// already-seen configurations (exact repeats only; a configuration
// dominated by a seen one is not pruned).
type CatchAndGlue struct {
	Parallel bool
}

type cgConfig struct {
	s      *bitset.BitSet
	parent *bitset.BitSet
	other  *bitset.BitSet // the glued-in T, if this config came from a glue move
}

// Decompose attempts a decomposition of g with width <= k.
func (c *CatchAndGlue) Decompose(g *graphstore.Graph, k int) (*decomp.TreeDecomposition, bool, error) {
	bg := bitgraph.FromGraph(g, nil)
	n := bg.N()
	if n == 0 {
		return decomp.New(), true, nil
	}
	if n <= k+1 {
		return decomp.New(g.Vertices()...), true, nil
	}

	seen := bittrie.New(n)
	provenance := make(map[string][]*bitset.BitSet)

	var queue []*bitset.BitSet
	for i := 0; i < n; i++ {
		s := bg.Saturate(bg.Singleton(i))
		accepted, success := offer(bg, s, k, seen, provenance, []*bitset.BitSet{})
		if success {
			return buildFromProvenance(bg, s, provenance), true, nil
		}
		if accepted {
			queue = append(queue, s)
		}
	}

	perVertexTrie := make([]*bittrie.Trie, n)
	for i := range perVertexTrie {
		perVertexTrie[i] = bittrie.New(n)
	}

	budget := n * n * 4 // bounded search: at most 4n² queue pops
	for len(queue) > 0 && budget > 0 {
		budget--
		sort.Slice(queue, func(i, j int) bool { return queue[i].Count() > queue[j].Count() })
		s := queue[0]
		queue = queue[1:]

		border := bg.ExteriorBorder(s)
		for i, ok := border.NextSet(0); ok; i, ok = border.NextSet(i + 1) {
			v := int(i)
			perVertexTrie[v].Insert(s)

			fly := bg.Saturate(s.Union(bg.Singleton(v)))
			accepted, success := offer(bg, fly, k, seen, provenance, []*bitset.BitSet{s})
			if success {
				return buildFromProvenance(bg, fly, provenance), true, nil
			}
			if accepted {
				queue = append(queue, fly)
			}

			// Try to glue S with every previously stored T that also
			// touches v.
			var glued bool
			var gluedS *bitset.BitSet
			perVertexTrie[v].Supersets(bg.Empty(), func(t *bitset.BitSet) bool {
				if glued {
					return false
				}
				if t.Equal(s) {
					return true
				}
				union := s.Union(t)
				result := bg.Saturate(union.Union(bg.Singleton(v)))
				accepted, success := offer(bg, result, k, seen, provenance, []*bitset.BitSet{s, t})
				if success {
					glued = true
					gluedS = result
					return false
				}
				if accepted {
					queue = append(queue, result)
				}
				return true
			})
			if glued {
				return buildFromProvenance(bg, gluedS, provenance), true, nil
			}
		}
	}

	telemetry.For("atom.catchglue").WithField("k", k).Debug("search exhausted without a width-k configuration")
	return nil, false, nil
}

// offer is the sole gatekeeper for whether a configuration S enters the
// search: it is accepted only if the bag buildFromProvenance would later
// construct for it, Δ(S) ∪ N(S), fits in k+1 vertices. Δ(S) is S with
// every stored parent subtracted out — for a seed (no parents) that
// means the whole of S counts against the bound, since a saturated
// singleton that absorbs most of the graph in one step can never be
// represented by a narrower bag later. It records provenance for every
// configuration it accepts; success means S ∪ N(S) = V (the robber has
// nowhere left to run).
func offer(bg *bitgraph.BitsetGraph, s *bitset.BitSet, k int, seen *bittrie.Trie, provenance map[string][]*bitset.BitSet, parents []*bitset.BitSet) (accepted, success bool) {
	if seen.Contains(s) {
		return false, false
	}
	border := bg.ExteriorBorder(s)

	newlyCaught := s.Clone()
	for _, p := range parents {
		newlyCaught = newlyCaught.Difference(p)
	}
	if newlyCaught.Union(border).Count() > uint(k+1) {
		return false, false
	}

	provenance[key(s)] = parents
	seen.Insert(s)
	return true, s.Count()+border.Count() >= uint(bg.N())
}

func key(s *bitset.BitSet) string {
	var buf []byte
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		buf = append(buf, []byte(fmt.Sprintf("%d,", i))...)
	}
	return string(buf)
}

// buildFromProvenance reconstructs the tree decomposition by recursing
// on the provenance map: each bag = Δ(S) ∪ N(S), children are the
// stored parents.
func buildFromProvenance(bg *bitgraph.BitsetGraph, root *bitset.BitSet, provenance map[string][]*bitset.BitSet) *decomp.TreeDecomposition {
	memo := make(map[string]*decomp.Bag)
	var build func(s *bitset.BitSet) *decomp.Bag
	nextID := 0
	build = func(s *bitset.BitSet) *decomp.Bag {
		sk := key(s)
		if b, ok := memo[sk]; ok {
			return b
		}
		parents := provenance[sk]
		newlyCaught := s.Clone()
		for _, p := range parents {
			newlyCaught = newlyCaught.Difference(p)
		}
		bagSet := newlyCaught.Union(bg.ExteriorBorder(s))
		bag := decomp.NewBag(nextID, bg.OriginalVertices(bagSet)...)
		nextID++
		memo[sk] = bag
		for _, p := range parents {
			bag.AddChild(build(p))
		}
		return bag
	}
	return decomp.FromRoot(build(root))
}
