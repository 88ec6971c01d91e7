// Package reducer implements the graph-rewrite reduction rules of spec
// §4.4: isolated/leaf/series, triangle, buddy, cube, simplicial, and
// almost-simplicial vertex elimination, producing a reduced graph H and
// a stack of pending bags, plus the two re-inflation strategies that
// turn a tree decomposition of H back into one of the original graph.
//
// The rule-application loop is grounded on the teacher's reduction-style
// recursive case split in algorithms/logKDecomp.go's findDecomp (try a
// sequence of special cases before falling back to full search); here
// the "special cases" are the six local rewrite rules instead of
// baseCase/CHILD/PARENT branches.
package reducer

import (
	"errors"
	"sort"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
	"github.com/cem-okulmus/twdecomp/internal/telemetry"
)

// ErrRuleInvariant signals that a reduction rule fired against a
// precondition that no longer held (a programming-level bug, not a
// user-facing error).
var ErrRuleInvariant = errors.New("reducer: rule invariant violated")

// SinglePassThreshold is the vertex count above which Run switches to
// the cheaper single-pass low-fill variant (spec §4.4).
const SinglePassThreshold = 2000

// PendingBag records one eliminated vertex and the closed neighborhood
// it was eliminated with, in the order rules fired (oldest first).
type PendingBag struct {
	Witness int
	Bag     []int
}

// Stats counts how many times each rule fired.
type Stats struct {
	IsolatedLeafSeries int
	Triangle           int
	Buddy              int
	Cube               int
	Simplicial         int
	AlmostSimplicial   int
	SinglePass         int
}

// Reducer owns a mutable working copy of the input graph and the stack
// of pending bags accumulated while reducing it.
type Reducer struct {
	working    *graphstore.Graph
	pending    []*PendingBag
	lowerBound int
	Stats      Stats
}

// New takes ownership of a clone of g and starts reduction with the
// given initial lower bound (raised further as rules fire).
func New(g *graphstore.Graph, lowerBound int) *Reducer {
	return &Reducer{working: g.Clone(), lowerBound: lowerBound}
}

// Working returns the current reduced graph.
func (r *Reducer) Working() *graphstore.Graph { return r.working }

// Pending returns the stack of pending bags, oldest-eliminated first.
func (r *Reducer) Pending() []*PendingBag { return r.pending }

// LowerBound returns the running lower bound raised by firing rules.
func (r *Reducer) LowerBound() int { return r.lowerBound }

// Run applies rules greedily until none fire, switching to the
// single-pass variant automatically once the graph exceeds
// SinglePassThreshold vertices.
func (r *Reducer) Run() *graphstore.Graph {
	if r.working.NumVertices() > SinglePassThreshold {
		r.runSinglePass()
		return r.working
	}
	for r.step() {
	}
	return r.working
}

// step tries each rule in the order spec.md §4.4 lists them, applying
// and returning true on the first that fires.
func (r *Reducer) step() bool {
	if v, bag, ok := r.isolatedLeafSeries(); ok {
		r.eliminate(v, bag)
		r.Stats.IsolatedLeafSeries++
		return true
	}
	if v, bag, ok := r.triangle(); ok {
		r.eliminate(v, bag)
		r.Stats.Triangle++
		return true
	}
	if v, bag, ok := r.buddy(); ok {
		r.eliminate(v, bag)
		r.Stats.Buddy++
		return true
	}
	if v, bag, ok := r.cube(); ok {
		r.eliminate(v, bag)
		r.Stats.Cube++
		return true
	}
	if v, ok := r.working.GetSimplicialVertex(nil); ok {
		bag := closedNeighborhood(r.working, v)
		r.eliminate(v, bag)
		r.Stats.Simplicial++
		return true
	}
	if v, ok := r.working.GetAlmostSimplicialVertex(nil); ok {
		bag := closedNeighborhood(r.working, v)
		if len(bag) <= r.lowerBound+1 {
			r.eliminate(v, bag)
			r.Stats.AlmostSimplicial++
			return true
		}
	}
	return false
}

func closedNeighborhood(g *graphstore.Graph, v int) []int {
	nb := g.Neighbors(v)
	bag := make([]int, 0, len(nb)+1)
	bag = append(bag, v)
	bag = append(bag, nb...)
	sort.Ints(bag)
	return bag
}

// eliminate folds v's bag into the pending stack and eliminates v from
// the working graph, raising the lower bound to |bag|-1 if that is
// larger than the current bound.
func (r *Reducer) eliminate(v int, bag []int) {
	if len(bag)-1 > r.lowerBound {
		r.lowerBound = len(bag) - 1
	}
	r.pending = append(r.pending, &PendingBag{Witness: v, Bag: bag})
	if _, err := r.working.EliminateVertex(v); err != nil {
		telemetry.For("reducer").WithError(err).Error("eliminate fired on invalid vertex")
	}
}

// isolatedLeafSeries matches a vertex of degree <= 2: bag = N[v].
func (r *Reducer) isolatedLeafSeries() (int, []int, bool) {
	for _, v := range r.working.Vertices() {
		if r.working.Degree(v) <= 2 {
			return v, closedNeighborhood(r.working, v), true
		}
	}
	return 0, nil, false
}

// triangle matches deg(v)=3 with at least one edge inside N(v) (but not
// a clique, which is left to the simplicial rule): bag = N[v].
func (r *Reducer) triangle() (int, []int, bool) {
	for _, v := range r.working.Vertices() {
		if r.working.Degree(v) != 3 {
			continue
		}
		nb := r.working.Neighbors(v)
		edges := 0
		for i := 0; i < len(nb); i++ {
			for j := i + 1; j < len(nb); j++ {
				if r.working.Adjacent(nb[i], nb[j]) {
					edges++
				}
			}
		}
		if edges >= 1 && edges < 3 {
			return v, closedNeighborhood(r.working, v), true
		}
	}
	return 0, nil, false
}

// buddy matches two non-adjacent degree-3 vertices sharing the same
// 3-neighborhood; eliminates the lower-numbered one with bag = N[v1].
func (r *Reducer) buddy() (int, []int, bool) {
	byNeighborhood := make(map[string][]int)
	for _, v := range r.working.Vertices() {
		if r.working.Degree(v) != 3 {
			continue
		}
		nb := r.working.Neighbors(v)
		sort.Ints(nb)
		key := neighborhoodKey(nb)
		byNeighborhood[key] = append(byNeighborhood[key], v)
	}
	for key, group := range byNeighborhood {
		if len(group) < 2 {
			continue
		}
		_ = key
		sort.Ints(group)
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if !r.working.Adjacent(group[i], group[j]) {
					return group[i], closedNeighborhood(r.working, group[i]), true
				}
			}
		}
	}
	return 0, nil, false
}

func neighborhoodKey(nb []int) string {
	out := make([]byte, 0, 4*len(nb))
	for _, v := range nb {
		out = append(out, []byte(itoa(v))...)
		out = append(out, ',')
	}
	return string(out)
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// cube matches v as a corner of a 3-cube (Q3): v has degree 3 with
// pairwise non-adjacent neighbors a,b,c (each degree 3), whose other
// neighbors complete the cube's three "edge" vertices and one
// "opposite corner" vertex. Eliminates v with bag = N[v], the standard
// reduction used for this pattern.
func (r *Reducer) cube() (int, []int, bool) {
	for _, v := range r.working.Vertices() {
		if r.working.Degree(v) != 3 {
			continue
		}
		nb := r.working.Neighbors(v)
		a, b, c := nb[0], nb[1], nb[2]
		if r.working.Adjacent(a, b) || r.working.Adjacent(b, c) || r.working.Adjacent(a, c) {
			continue // triangle rule's territory
		}
		if r.working.Degree(a) != 3 || r.working.Degree(b) != 3 || r.working.Degree(c) != 3 {
			continue
		}
		ab, okAB := commonNeighborOtherThan(r.working, a, b, v)
		bc, okBC := commonNeighborOtherThan(r.working, b, c, v)
		ac, okAC := commonNeighborOtherThan(r.working, a, c, v)
		if !okAB || !okBC || !okAC {
			continue
		}
		if ab == bc || bc == ac || ab == ac {
			continue
		}
		// opposite corner must be adjacent to all three edge vertices.
		var opposite int
		found := false
		for _, cand := range r.working.Neighbors(ab) {
			if cand == a || cand == b {
				continue
			}
			if r.working.Adjacent(cand, bc) && r.working.Adjacent(cand, ac) {
				opposite = cand
				found = true
				break
			}
		}
		if !found || r.working.Degree(opposite) != 3 {
			continue
		}
		return v, closedNeighborhood(r.working, v), true
	}
	return 0, nil, false
}

func commonNeighborOtherThan(g *graphstore.Graph, x, y, exclude int) (int, bool) {
	for _, cand := range g.Neighbors(x) {
		if cand == exclude {
			continue
		}
		if g.Adjacent(cand, y) {
			return cand, true
		}
	}
	return 0, false
}

// runSinglePass implements the cheap variant for large graphs: eliminate
// any vertex with fill(v) <= 1, or degree 3 with fill(v) <= 2 once the
// lower bound has reached 3.
func (r *Reducer) runSinglePass() {
	changed := true
	for changed {
		changed = false
		for _, v := range r.working.Vertices() {
			if !r.working.HasVertex(v) {
				continue
			}
			fi, err := r.working.FillInValue(v)
			if err != nil {
				continue
			}
			deg := r.working.Degree(v)
			if fi <= 1 || (deg == 3 && fi <= 2 && r.lowerBound >= 3) {
				bag := closedNeighborhood(r.working, v)
				r.eliminate(v, bag)
				r.Stats.SinglePass++
				changed = true
			}
		}
	}
}

// ReinflateFromPermutation re-inserts pending bags into a tree
// decomposition built from an elimination order: each pending bag has
// its witness vertex plus already-eliminated neighbors, so it is
// attached as a child of the bag containing the lowest-ranked
// already-eliminated neighbor (spec §4.4's "from-permutation path").
func ReinflateFromPermutation(td *decomp.TreeDecomposition, pending []*PendingBag, rank map[int]int) *decomp.TreeDecomposition {
	for i := len(pending) - 1; i >= 0; i-- {
		pb := pending[i]
		target := findBagFor(td, pb, rank)
		newBag := td.NewBag(pb.Bag...)
		if target != nil {
			target.AddChild(newBag)
		} else {
			td.Root.AddChild(newBag)
		}
	}
	return td
}

func findBagFor(td *decomp.TreeDecomposition, pb *PendingBag, rank map[int]int) *decomp.Bag {
	bestRank := -1
	var bestVertex int
	for _, u := range pb.Bag {
		if u == pb.Witness {
			continue
		}
		if r, ok := rank[u]; ok {
			if bestRank == -1 || r < bestRank {
				bestRank = r
				bestVertex = u
			}
		}
	}
	if bestRank == -1 {
		return nil
	}
	for _, b := range td.Bags() {
		if b.Has(bestVertex) {
			return b
		}
	}
	return nil
}

// ReinflateGeneric glues each pending bag, most recently eliminated
// first, onto the first existing bag that holds all of its vertices but
// at most one (the witness), inserting a detached bag (and finally
// chaining detached components into the tree) when no such bag exists —
// spec §4.4's generic path. It needs no elimination-order rank; every
// pipeline mode re-inflates through it.
func ReinflateGeneric(td *decomp.TreeDecomposition, pending []*PendingBag) *decomp.TreeDecomposition {
	var detached []*decomp.Bag
	for i := len(pending) - 1; i >= 0; i-- {
		pb := pending[i]
		newBag := td.NewBag(pb.Bag...)
		if host := closestBag(td, pb.Bag); host != nil {
			host.AddChild(newBag)
		} else {
			detached = append(detached, newBag)
		}
	}
	cur := td.Root
	for _, d := range detached {
		cur.AddChild(d)
		cur = d
	}
	return td
}

func closestBag(td *decomp.TreeDecomposition, bag []int) *decomp.Bag {
	bagSet := make(map[int]struct{}, len(bag))
	for _, v := range bag {
		bagSet[v] = struct{}{}
	}
	for _, b := range td.Bags() {
		if missingFrom(b.Vertices, bagSet) <= 1 {
			return b
		}
	}
	return nil
}

// missingFrom counts the members of bag that host lacks.
func missingFrom(host map[int]struct{}, bag map[int]struct{}) int {
	diff := 0
	for v := range bag {
		if _, ok := host[v]; !ok {
			diff++
		}
	}
	return diff
}
