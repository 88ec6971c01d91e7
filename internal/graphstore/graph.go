// Package graphstore implements the mutable, adjacency-list graph
// representation of spec §4.1: neighbor lists and sets kept in sync,
// an O(1) per-vertex fill-in counter e(v) maintained on every mutation,
// and an eliminate/de-eliminate pair with an explicit undo record so
// branch-and-bound style callers can unwind deterministically.
//
// The shape is descended from the teacher's lib.Graph (an edge-list
// model keyed by integer vertex ids), generalized from hyperedges to
// plain pairwise adjacency and extended with the elimination machinery
// the teacher never needed.
package graphstore

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownVertex is an invariant-violation error: an operation named a
// vertex that is not a member of the graph.
var ErrUnknownVertex = errors.New("graphstore: unknown vertex")

// ErrVertexExists signals a double-add of a vertex id already present.
var ErrVertexExists = errors.New("graphstore: vertex already present")

// Graph is a finite simple undirected graph over integer vertex ids.
//
// Invariants (checked only in tests, relied on everywhere else):
//   - neighbors[v] (slice) and neighborSet[v] (set) agree for every v.
//   - edgeCount == sum(len(neighbors[v])) / 2.
//   - fillEdges[v] == |{ {x,y} ⊆ N(v) : {x,y} ∈ E }|.
type Graph struct {
	neighbors   map[int][]int
	neighborSet map[int]map[int]struct{}
	fillEdges   map[int]int
	edgeCount   int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		neighbors:   make(map[int][]int),
		neighborSet: make(map[int]map[int]struct{}),
		fillEdges:   make(map[int]int),
	}
}

// AddVertex inserts v as an isolated vertex. A no-op if v already exists.
func (g *Graph) AddVertex(v int) {
	if _, ok := g.neighborSet[v]; ok {
		return
	}
	g.neighborSet[v] = make(map[int]struct{})
	g.neighbors[v] = nil
	g.fillEdges[v] = 0
}

// HasVertex reports whether v is a member of the graph.
func (g *Graph) HasVertex(v int) bool {
	_, ok := g.neighborSet[v]
	return ok
}

// NumVertices returns |V|.
func (g *Graph) NumVertices() int { return len(g.neighborSet) }

// NumEdges returns |E|.
func (g *Graph) NumEdges() int { return g.edgeCount }

// Vertices returns a sorted snapshot of V.
func (g *Graph) Vertices() []int {
	out := make([]int, 0, len(g.neighborSet))
	for v := range g.neighborSet {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Degree returns |N(v)|.
func (g *Graph) Degree(v int) int { return len(g.neighbors[v]) }

// Neighbors returns a copy of N(v), ordered.
func (g *Graph) Neighbors(v int) []int {
	src := g.neighbors[v]
	out := make([]int, len(src))
	copy(out, src)
	return out
}

// Adjacent reports whether {u,v} ∈ E.
func (g *Graph) Adjacent(u, v int) bool {
	set, ok := g.neighborSet[u]
	if !ok {
		return false
	}
	_, adj := set[v]
	return adj
}

// commonNeighbors returns N(u) ∩ N(v) as computed before either is mutated.
func (g *Graph) commonNeighbors(u, v int) []int {
	small, large := g.neighborSet[u], g.neighborSet[v]
	if len(g.neighbors[v]) < len(g.neighbors[u]) {
		small, large = large, small
	}
	var out []int
	for w := range small {
		if _, ok := large[w]; ok {
			out = append(out, w)
		}
	}
	return out
}

// AddEdge inserts {u,v}. Idempotent. Updates e(·) for u, v, and every
// vertex whose neighborhood newly contains the closed triangle {u,v,w}.
func (g *Graph) AddEdge(u, v int) error {
	if !g.HasVertex(u) || !g.HasVertex(v) {
		return fmt.Errorf("%w: AddEdge(%d,%d)", ErrUnknownVertex, u, v)
	}
	if u == v || g.Adjacent(u, v) {
		return nil
	}

	common := g.commonNeighbors(u, v)
	for _, w := range common {
		g.fillEdges[w]++
	}
	g.fillEdges[u] += len(common)
	g.fillEdges[v] += len(common)

	g.neighborSet[u][v] = struct{}{}
	g.neighborSet[v][u] = struct{}{}
	g.neighbors[u] = append(g.neighbors[u], v)
	g.neighbors[v] = append(g.neighbors[v], u)
	g.edgeCount++
	return nil
}

// RemoveEdge deletes {u,v}. The symmetric inverse of AddEdge, including
// the e(·) bookkeeping.
func (g *Graph) RemoveEdge(u, v int) error {
	if !g.HasVertex(u) || !g.HasVertex(v) {
		return fmt.Errorf("%w: RemoveEdge(%d,%d)", ErrUnknownVertex, u, v)
	}
	if !g.Adjacent(u, v) {
		return nil
	}

	common := g.commonNeighbors(u, v)
	for _, w := range common {
		g.fillEdges[w]--
	}
	g.fillEdges[u] -= len(common)
	g.fillEdges[v] -= len(common)

	delete(g.neighborSet[u], v)
	delete(g.neighborSet[v], u)
	g.neighbors[u] = removeValue(g.neighbors[u], v)
	g.neighbors[v] = removeValue(g.neighbors[v], u)
	g.edgeCount--
	return nil
}

func removeValue(s []int, x int) []int {
	for i, y := range s {
		if y == x {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// FillInValue returns φ(v) = C(deg(v),2) - e(v), the number of edges
// that eliminating v would add.
func (g *Graph) FillInValue(v int) (int, error) {
	if !g.HasVertex(v) {
		return 0, fmt.Errorf("%w: FillInValue(%d)", ErrUnknownVertex, v)
	}
	d := len(g.neighbors[v])
	return d*(d-1)/2 - g.fillEdges[v], nil
}

// GetSimplicialVertex returns a vertex not in forbidden whose closed
// neighborhood is a clique (fill-in 0), or ok=false if none exists.
func (g *Graph) GetSimplicialVertex(forbidden map[int]struct{}) (v int, ok bool) {
	for cand := range g.neighborSet {
		if _, skip := forbidden[cand]; skip {
			continue
		}
		fi, _ := g.FillInValue(cand)
		if fi == 0 {
			return cand, true
		}
	}
	return 0, false
}

// GetAlmostSimplicialVertex returns a vertex not in forbidden such that
// every non-edge inside N(v) shares a single common endpoint, or
// ok=false if none exists.
func (g *Graph) GetAlmostSimplicialVertex(forbidden map[int]struct{}) (v int, ok bool) {
	for cand := range g.neighborSet {
		if _, skip := forbidden[cand]; skip {
			continue
		}
		if g.isAlmostSimplicial(cand) {
			return cand, true
		}
	}
	return 0, false
}

func (g *Graph) isAlmostSimplicial(v int) bool {
	nb := g.neighbors[v]
	if len(nb) < 2 {
		return false
	}
	var candidates map[int]struct{}
	sawNonEdge := false
	for i := 0; i < len(nb); i++ {
		for j := i + 1; j < len(nb); j++ {
			a, b := nb[i], nb[j]
			if g.Adjacent(a, b) {
				continue
			}
			sawNonEdge = true
			pair := map[int]struct{}{a: {}, b: {}}
			if candidates == nil {
				candidates = pair
				continue
			}
			for c := range candidates {
				if _, ok := pair[c]; !ok {
					delete(candidates, c)
				}
			}
			if len(candidates) == 0 {
				return false
			}
		}
	}
	if !sawNonEdge {
		return false // simplicial, not "almost"
	}
	return len(candidates) > 0
}

// EliminationRecord is the undo log returned by EliminateVertex: enough
// state to reconstruct the pre-elimination graph exactly.
type EliminationRecord struct {
	V          int
	Neighbors  []int
	AddedEdges [][2]int
}

// EliminateVertex makes N(v) a clique and removes v, returning an undo
// record. Pre: v ∈ V. Post: v ∉ V; N(v) is a clique in the remaining graph.
func (g *Graph) EliminateVertex(v int) (*EliminationRecord, error) {
	if !g.HasVertex(v) {
		return nil, fmt.Errorf("%w: EliminateVertex(%d)", ErrUnknownVertex, v)
	}
	nb := g.Neighbors(v)
	rec := &EliminationRecord{V: v, Neighbors: nb}

	for i := 0; i < len(nb); i++ {
		for j := i + 1; j < len(nb); j++ {
			a, b := nb[i], nb[j]
			if !g.Adjacent(a, b) {
				if err := g.AddEdge(a, b); err != nil {
					return nil, err
				}
				rec.AddedEdges = append(rec.AddedEdges, [2]int{a, b})
			}
		}
	}

	for _, u := range nb {
		_ = g.RemoveEdge(u, v)
	}
	delete(g.neighborSet, v)
	delete(g.neighbors, v)
	delete(g.fillEdges, v)

	return rec, nil
}

// DeEliminateVertex reverses EliminateVertex: it restores v, its original
// edges to Neighbors, and removes exactly the edges AddedEdges recorded.
func (g *Graph) DeEliminateVertex(rec *EliminationRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: DeEliminateVertex(nil)", ErrUnknownVertex)
	}
	if g.HasVertex(rec.V) {
		return fmt.Errorf("graphstore: vertex %d already present in DeEliminateVertex", rec.V)
	}
	g.AddVertex(rec.V)
	for _, u := range rec.Neighbors {
		if err := g.AddEdge(rec.V, u); err != nil {
			return err
		}
	}
	for _, e := range rec.AddedEdges {
		if err := g.RemoveEdge(e[0], e[1]); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep, independent copy of g.
func (g *Graph) Clone() *Graph {
	out := New()
	for v := range g.neighborSet {
		out.AddVertex(v)
	}
	for _, v := range g.Vertices() {
		for _, u := range g.neighbors[v] {
			if u > v {
				_ = out.AddEdge(v, u)
			}
		}
	}
	return out
}

// Equal reports whether g and other have identical vertex sets,
// adjacency, and fill-in counters (property 5 of spec §8).
func (g *Graph) Equal(other *Graph) bool {
	if g.NumVertices() != other.NumVertices() || g.NumEdges() != other.NumEdges() {
		return false
	}
	for v := range g.neighborSet {
		if !other.HasVertex(v) {
			return false
		}
		if g.fillEdges[v] != other.fillEdges[v] {
			return false
		}
		if len(g.neighborSet[v]) != len(other.neighborSet[v]) {
			return false
		}
		for u := range g.neighborSet[v] {
			if !other.Adjacent(v, u) {
				return false
			}
		}
	}
	return true
}
