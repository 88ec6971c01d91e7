// Package bitgraph implements the packed adjacency-matrix graph
// representation of spec §4.2: each vertex's neighborhood is a row
// bitset, and the Bouchitté–Todinca style derived operators
// (interiorBorder, exteriorBorder, separate, saturate,
// isPotentialMaximalClique, outlet/crib/support/fullComponents) are
// implemented directly against those rows, with the expensive ones
// memoized on the bitset's member list.
//
// Rows are backed by github.com/bits-and-blooms/bitset rather than a
// hand-rolled []uint64, following the same "index graph by dense
// integer ids" idiom the teacher uses for hyperedge names
// (lib/parser.go's encode/m tables), specialized to a packed bit
// representation suited to the set-heavy operators this layer needs.
package bitgraph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/cem-okulmus/twdecomp/internal/graphstore"
)

// BitsetGraph is a graph over a dense index space {0,...,n-1}, together
// with the bijection to the original graphstore vertex ids.
type BitsetGraph struct {
	n      int
	toID   []int       // index -> original vertex id
	toIdx  map[int]int // original vertex id -> index
	rows   []*bitset.BitSet

	mu            sync.Mutex
	separateCache map[string][]*bitset.BitSet
	borderCache   map[string]*bitset.BitSet
	pmcCache      map[string]bool
}

// FromGraph builds a BitsetGraph over exactly the vertices in subset
// (or all of g's vertices if subset is nil), preserving adjacency.
func FromGraph(g *graphstore.Graph, subset []int) *BitsetGraph {
	verts := subset
	if verts == nil {
		verts = g.Vertices()
	}
	bg := &BitsetGraph{
		n:             len(verts),
		toID:          make([]int, len(verts)),
		toIdx:         make(map[int]int, len(verts)),
		rows:          make([]*bitset.BitSet, len(verts)),
		separateCache: make(map[string][]*bitset.BitSet),
		borderCache:   make(map[string]*bitset.BitSet),
		pmcCache:      make(map[string]bool),
	}
	for i, v := range verts {
		bg.toID[i] = v
		bg.toIdx[v] = i
	}
	for i := range bg.rows {
		bg.rows[i] = bitset.New(uint(bg.n))
	}
	for i, v := range verts {
		for _, u := range g.Neighbors(v) {
			if j, ok := bg.toIdx[u]; ok {
				bg.rows[i].Set(uint(j))
			}
		}
	}
	return bg
}

// N returns the number of vertices in the bitset graph.
func (bg *BitsetGraph) N() int { return bg.n }

// VertexAt maps a dense index back to the original vertex id.
func (bg *BitsetGraph) VertexAt(idx int) int { return bg.toID[idx] }

// IndexOf maps an original vertex id to its dense index.
func (bg *BitsetGraph) IndexOf(v int) (int, bool) {
	idx, ok := bg.toIdx[v]
	return idx, ok
}

// Empty returns a fresh, all-clear bitset sized for this graph.
func (bg *BitsetGraph) Empty() *bitset.BitSet { return bitset.New(uint(bg.n)) }

// Full returns a bitset with every vertex of the graph set.
func (bg *BitsetGraph) Full() *bitset.BitSet {
	s := bg.Empty()
	for i := 0; i < bg.n; i++ {
		s.Set(uint(i))
	}
	return s
}

// Singleton returns a bitset containing exactly idx.
func (bg *BitsetGraph) Singleton(idx int) *bitset.BitSet {
	return bg.Empty().Set(uint(idx))
}

// Of builds a bitset from a list of dense indices.
func (bg *BitsetGraph) Of(idxs ...int) *bitset.BitSet {
	s := bg.Empty()
	for _, i := range idxs {
		s.Set(uint(i))
	}
	return s
}

// Row returns the (shared, read-only) adjacency row for idx. Callers
// must Clone() before mutating.
func (bg *BitsetGraph) Row(idx int) *bitset.BitSet { return bg.rows[idx] }

// key renders a bitset as a stable map key, independent of the
// underlying word representation of the bitset library.
func key(s *bitset.BitSet) string {
	var sb strings.Builder
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		fmt.Fprintf(&sb, "%d,", i)
	}
	return sb.String()
}

// NeighborsOfSet returns the raw union of N(v) for v in S, which
// contains a member of S whenever it is adjacent to another member;
// callers subtract S themselves when they want the exterior border.
func (bg *BitsetGraph) NeighborsOfSet(s *bitset.BitSet) *bitset.BitSet {
	out := bg.Empty()
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		out.InPlaceUnion(bg.rows[i])
	}
	return out
}

// ExteriorBorder returns N(S) \ S, memoized on S.
func (bg *BitsetGraph) ExteriorBorder(s *bitset.BitSet) *bitset.BitSet {
	k := key(s)
	bg.mu.Lock()
	if v, ok := bg.borderCache[k]; ok {
		bg.mu.Unlock()
		return v.Clone()
	}
	bg.mu.Unlock()

	out := bg.NeighborsOfSet(s)
	out.InPlaceDifference(s)

	bg.mu.Lock()
	bg.borderCache[k] = out.Clone()
	bg.mu.Unlock()
	return out
}

// InteriorBorder returns {v in S : N(v) is not a subset of S}.
func (bg *BitsetGraph) InteriorBorder(s *bitset.BitSet) *bitset.BitSet {
	out := bg.Empty()
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		nb := bg.rows[i].Difference(s)
		if nb.Any() {
			out.Set(i)
		}
	}
	return out
}

// Separate returns the connected components of G[V \ S], memoized on S.
func (bg *BitsetGraph) Separate(s *bitset.BitSet) []*bitset.BitSet {
	k := key(s)
	bg.mu.Lock()
	if v, ok := bg.separateCache[k]; ok {
		bg.mu.Unlock()
		out := make([]*bitset.BitSet, len(v))
		for i, c := range v {
			out[i] = c.Clone()
		}
		return out
	}
	bg.mu.Unlock()

	visited := bg.Empty()
	var comps []*bitset.BitSet
	for i := 0; i < bg.n; i++ {
		if s.Test(uint(i)) || visited.Test(uint(i)) {
			continue
		}
		comp := bg.bfsComponent(uint(i), s, visited)
		comps = append(comps, comp)
	}

	bg.mu.Lock()
	stored := make([]*bitset.BitSet, len(comps))
	for i, c := range comps {
		stored[i] = c.Clone()
	}
	bg.separateCache[k] = stored
	bg.mu.Unlock()
	return comps
}

func (bg *BitsetGraph) bfsComponent(start uint, blocked, visited *bitset.BitSet) *bitset.BitSet {
	comp := bg.Empty()
	queue := []uint{start}
	visited.Set(start)
	comp.Set(start)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		row := bg.rows[cur]
		for i, ok := row.NextSet(0); ok; i, ok = row.NextSet(i + 1) {
			if blocked.Test(i) || visited.Test(i) {
				continue
			}
			visited.Set(i)
			comp.Set(i)
			queue = append(queue, i)
		}
	}
	return comp
}

// Saturate absorbs into S every v ∈ N(S) with N(v) ⊆ S ∪ N(S), repeating
// until a fixed point is reached.
func (bg *BitsetGraph) Saturate(s *bitset.BitSet) *bitset.BitSet {
	cur := s.Clone()
	for {
		border := bg.ExteriorBorder(cur)
		closure := cur.Union(border)
		changed := false
		for i, ok := border.NextSet(0); ok; i, ok = border.NextSet(i + 1) {
			if bg.rows[i].Difference(closure).None() {
				cur.Set(i)
				changed = true
			}
		}
		if !changed {
			return cur
		}
	}
}

// FullComponents returns the components of G[V\K] whose exterior border
// equals K exactly (every vertex of K has a neighbor in the component).
func (bg *BitsetGraph) FullComponents(k *bitset.BitSet) []*bitset.BitSet {
	var full []*bitset.BitSet
	for _, c := range bg.Separate(k) {
		if bg.ExteriorBorder(c).Equal(k) {
			full = append(full, c)
		}
	}
	return full
}

// Support is the set of full components of K — the blocks whose
// decompositions must already be known (as I-Blocks) before K can be
// marked feasible. Identical to FullComponents; kept as a distinct name
// to match the Bouchitté–Todinca vocabulary used by the PID/BT solver.
func (bg *BitsetGraph) Support(k *bitset.BitSet) []*bitset.BitSet {
	return bg.FullComponents(k)
}

// Outlet returns the part of K not yet "explained" by a full component:
// K minus the union of the exterior borders of K's full components. An
// empty outlet means every vertex of K is justified by some full
// component, making K eligible as the root of a decomposition.
func (bg *BitsetGraph) Outlet(k *bitset.BitSet) *bitset.BitSet {
	covered := bg.Empty()
	for _, c := range bg.FullComponents(k) {
		covered.InPlaceUnion(bg.ExteriorBorder(c))
	}
	return k.Difference(covered)
}

// Crib combines a full component C of K with the part of K adjacent to
// it, producing the vertex set of the next I-Block to insert once C's
// own decomposition is already known.
func (bg *BitsetGraph) Crib(component, k *bitset.BitSet) *bitset.BitSet {
	out := component.Clone()
	out.InPlaceUnion(bg.ExteriorBorder(component).Intersection(k))
	return out
}

// IsPotentialMaximalClique reports whether K is cliquish: no component
// of G[V\K] is full, and every non-adjacent pair inside K is connected
// by some (non-full) component. Memoized on K.
func (bg *BitsetGraph) IsPotentialMaximalClique(k *bitset.BitSet) bool {
	kk := key(k)
	bg.mu.Lock()
	if v, ok := bg.pmcCache[kk]; ok {
		bg.mu.Unlock()
		return v
	}
	bg.mu.Unlock()

	comps := bg.Separate(k)
	result := true

	for _, c := range comps {
		if bg.ExteriorBorder(c).Equal(k) {
			result = false
			break
		}
	}

	if result {
		for i, ok := k.NextSet(0); ok && result; i, ok = k.NextSet(i + 1) {
			for j, ok2 := k.NextSet(i + 1); ok2; j, ok2 = k.NextSet(j + 1) {
				if bg.rows[i].Test(j) {
					continue
				}
				if !bg.connectedViaComponent(i, j, comps) {
					result = false
					break
				}
			}
			if !result {
				break
			}
		}
	}

	bg.mu.Lock()
	bg.pmcCache[kk] = result
	bg.mu.Unlock()
	return result
}

func (bg *BitsetGraph) connectedViaComponent(u, v uint, comps []*bitset.BitSet) bool {
	for _, c := range comps {
		border := bg.ExteriorBorder(c)
		if border.Test(u) && border.Test(v) {
			return true
		}
	}
	return false
}

// Vertices returns the members of s as dense indices, ascending.
func Vertices(s *bitset.BitSet) []uint {
	var out []uint
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		out = append(out, i)
	}
	return out
}

// OriginalVertices maps the members of s back to graphstore vertex ids.
func (bg *BitsetGraph) OriginalVertices(s *bitset.BitSet) []int {
	out := make([]int, 0, s.Count())
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		out = append(out, bg.toID[i])
	}
	return out
}
