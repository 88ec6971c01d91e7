// Package order implements the heuristic elimination-order search of
// spec §4.6: a scored greedy permutation builder, a stochastic restart
// driver sampling among scoring functions, a tabu local search, and a
// fast degree-greedy pass for oversized inputs.
//
// The stochastic driver's restart workers are fanned out with
// golang.org/x/sync/errgroup, generalizing the teacher's raw-channel
// worker pool (lib/search.go's Search.FindNext) into a structured,
// context-cancellable idiom; internal/pipeline runs its anytime phases
// one after another without errgroup.
package order

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
	"github.com/cem-okulmus/twdecomp/internal/telemetry"
)

// ScoreFunc scores a candidate vertex v in the current working graph g
// (with n = original vertex count, used by the two normalized variants).
type ScoreFunc func(g *graphstore.Graph, v int, n int) float64

func degree(g *graphstore.Graph, v int, _ int) float64 { return float64(g.Degree(v)) }

func fillIn(g *graphstore.Graph, v int, _ int) float64 {
	fi, _ := g.FillInValue(v)
	return float64(fi)
}

// Degree scores by δ(v).
var Degree ScoreFunc = degree

// FillIn scores by φ(v).
var FillIn ScoreFunc = fillIn

// DegreePlusFillIn scores by δ(v)+φ(v).
var DegreePlusFillIn ScoreFunc = func(g *graphstore.Graph, v int, n int) float64 {
	return degree(g, v, n) + fillIn(g, v, n)
}

// FillInMinusDegree scores by φ(v)-δ(v).
var FillInMinusDegree ScoreFunc = func(g *graphstore.Graph, v int, n int) float64 {
	return fillIn(g, v, n) - degree(g, v, n)
}

// SparsestSubgraph scores by δ(v)+φ(v)/n².
var SparsestSubgraph ScoreFunc = func(g *graphstore.Graph, v int, n int) float64 {
	denom := math.Max(float64(n*n), 1)
	return degree(g, v, n) + fillIn(g, v, n)/denom
}

// FillInPlusDegreeOverNSq scores by φ(v)+δ(v)/n².
var FillInPlusDegreeOverNSq ScoreFunc = func(g *graphstore.Graph, v int, n int) float64 {
	denom := math.Max(float64(n*n), 1)
	return fillIn(g, v, n) + degree(g, v, n)/denom
}

// MaxCardinalitySearchOrder produces an order by repeatedly picking the
// unnumbered vertex with the most already-numbered neighbors (generalizing
// the teacher's GetMSCOrder from hyperedge to vertex orderings).
func MaxCardinalitySearchOrder(g *graphstore.Graph) []int {
	verts := g.Vertices()
	numbered := make(map[int]bool, len(verts))
	weight := make(map[int]int, len(verts))
	order := make([]int, 0, len(verts))
	for len(order) < len(verts) {
		best, bestW := -1, -1
		for _, v := range verts {
			if numbered[v] {
				continue
			}
			if weight[v] > bestW {
				bestW, best = weight[v], v
			}
		}
		numbered[best] = true
		order = append(order, best)
		for _, u := range g.Neighbors(best) {
			if !numbered[u] {
				weight[u]++
			}
		}
	}
	return order
}

// EdgeDegreeOrder scores each vertex by the number of edges incident to
// its neighborhood (generalizing GetEdgeDegreeOrder), picking greedily
// smallest-first.
func EdgeDegreeOrder(g *graphstore.Graph) []int {
	verts := g.Vertices()
	remaining := g.Clone()
	order := make([]int, 0, len(verts))
	for remaining.NumVertices() > 0 {
		best, bestScore := -1, -1
		for _, v := range remaining.Vertices() {
			score := 0
			for _, u := range remaining.Neighbors(v) {
				score += remaining.Degree(u)
			}
			if best == -1 || score < bestScore {
				best, bestScore = v, score
			}
		}
		order = append(order, best)
		_, _ = remaining.EliminateVertex(best)
	}
	return order
}

// Result is the outcome of a GreedyPermutation or TabuSearch run.
type Result struct {
	Order []int
	Width int
}

// GreedyPermutation repeatedly eliminates the candidate minimizing score
// (ties broken uniformly at random), optionally deepened by a k-step
// look-ahead, aborting if upperBound > 0 and some candidate's current
// degree reaches it.
func GreedyPermutation(g *graphstore.Graph, score ScoreFunc, lookahead, upperBound int, rng *rand.Rand) (Result, bool) {
	work := g.Clone()
	n := g.NumVertices()
	order := make([]int, 0, n)
	width := -1

	for work.NumVertices() > 0 {
		candidates := work.Vertices()
		if upperBound > 0 {
			for _, v := range candidates {
				if work.Degree(v) >= upperBound {
					return Result{}, false
				}
			}
		}

		best := pickBest(work, candidates, score, lookahead, n, rng)
		bag := work.Degree(best) + 1
		if bag-1 > width {
			width = bag - 1
		}
		_, _ = work.EliminateVertex(best)
		order = append(order, best)
	}
	return Result{Order: order, Width: width}, true
}

func pickBest(g *graphstore.Graph, candidates []int, score ScoreFunc, lookahead, n int, rng *rand.Rand) int {
	bestScore := math.Inf(1)
	var tied []int
	for _, v := range candidates {
		s := score(g, v, n)
		if lookahead > 0 {
			s += lookaheadBonus(g, v, score, lookahead, n)
		}
		if s < bestScore-1e-9 {
			bestScore = s
			tied = []int{v}
		} else if s < bestScore+1e-9 {
			tied = append(tied, v)
		}
	}
	sort.Ints(tied)
	if rng == nil {
		return tied[0]
	}
	return tied[rng.Intn(len(tied))]
}

// lookaheadBonus virtually eliminates v and, to depth k, scores the best
// continuation available, following the "immediate + best-of-k-recursive"
// rule.
func lookaheadBonus(g *graphstore.Graph, v int, score ScoreFunc, k, n int) float64 {
	if k <= 0 {
		return 0
	}
	work := g.Clone()
	if _, err := work.EliminateVertex(v); err != nil {
		return 0
	}
	if work.NumVertices() == 0 {
		return 0
	}
	best := math.Inf(1)
	for _, u := range work.Vertices() {
		s := score(work, u, n) + lookaheadBonus(work, u, score, k-1, n)
		if s < best {
			best = s
		}
	}
	return best
}

// widthOfOrder simulates eliminating g's vertices in the given order and
// returns the resulting width.
func widthOfOrder(g *graphstore.Graph, order []int) int {
	work := g.Clone()
	width := -1
	for _, v := range order {
		if !work.HasVertex(v) {
			continue
		}
		if work.Degree(v) > width {
			width = work.Degree(v)
		}
		_, _ = work.EliminateVertex(v)
	}
	return width
}

// StochasticConfig parametrizes the restart driver.
type StochasticConfig struct {
	Seed      int64
	Timeout   time.Duration
	Workers   int
	Shutdown  *atomic.Bool
}

var stochasticPicks = []struct {
	fn   ScoreFunc
	prob float64
}{
	{FillIn, 0.45},
	{SparsestSubgraph, 0.28},
	{DegreePlusFillIn, 0.14},
	{Degree, 0.05},
	{FillInMinusDegree, 0.04},
	{FillInPlusDegreeOverNSq, 0.04},
}

func pickScoreFunc(rng *rand.Rand) ScoreFunc {
	r := rng.Float64()
	acc := 0.0
	for _, p := range stochasticPicks {
		acc += p.prob
		if r <= acc {
			return p.fn
		}
	}
	return stochasticPicks[0].fn
}

// StochasticDriver runs up to max(sqrt(U), 10000) greedy-permutation
// iterations (U = g's vertex count), choosing the scoring function per
// spec §4.6's probability distribution after the first two iterations
// (which always use SparsestSubgraph), and returns the best order found.
func StochasticDriver(ctx context.Context, g *graphstore.Graph, cfg StochasticConfig) Result {
	n := g.NumVertices()
	maxIter := int(math.Max(math.Sqrt(float64(n)), 10000))
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var best atomic.Value // Result
	best.Store(Result{Width: math.MaxInt32})

	grp, gctx := errgroup.WithContext(ctx)
	iterPer := (maxIter + workers - 1) / workers

	for w := 0; w < workers; w++ {
		w := w
		grp.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(w)))
			for i := 0; i < iterPer; i++ {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				if cfg.Shutdown != nil && cfg.Shutdown.Load() {
					return nil
				}
				var sf ScoreFunc
				if i < 2 {
					sf = SparsestSubgraph
				} else {
					sf = pickScoreFunc(rng)
				}
				res, ok := GreedyPermutation(g, sf, 0, 0, rng)
				if !ok {
					continue
				}
				cur := best.Load().(Result)
				if res.Width < cur.Width {
					best.Store(res)
				}
			}
			return nil
		})
	}
	_ = grp.Wait()

	result := best.Load().(Result)
	telemetry.For("order").WithField("width", result.Width).Debug("stochastic driver finished")
	return result
}

// TabuSearch improves a seed order via local single-vertex moves,
// scored by cost(P) = maxbag(P)²·n² + Σ succ(v,P)², for r rounds of s
// steps each, with a length-7 tabu queue and random escape moves.
func TabuSearch(g *graphstore.Graph, seed []int, rounds, steps int, rng *rand.Rand, shutdown *atomic.Bool) Result {
	n := len(seed)
	cur := append([]int(nil), seed...)
	bestOrder := append([]int(nil), seed...)
	bestWidth := widthOfOrder(g, seed)

	tabu := make([]int, 0, 7)
	isTabu := func(v int) bool {
		for _, t := range tabu {
			if t == v {
				return true
			}
		}
		return false
	}
	pushTabu := func(v int) {
		tabu = append(tabu, v)
		if len(tabu) > 7 {
			tabu = tabu[1:]
		}
	}

	for round := 0; round < rounds; round++ {
		for step := 0; step < steps; step++ {
			if shutdown != nil && shutdown.Load() {
				return Result{Order: bestOrder, Width: bestWidth}
			}
			bestCost := cost(g, cur, n)
			bestCand := cur
			improved := false

			for pos, v := range cur {
				if isTabu(v) {
					continue
				}
				candA := moveAfterLatestPrecedingNeighbor(g, cur, pos)
				if c := cost(g, candA, n); c < bestCost {
					bestCost, bestCand, improved = c, candA, true
				}
				candB := moveBeforeEarliestSuccessor(g, cur, pos)
				if c := cost(g, candB, n); c < bestCost {
					bestCost, bestCand, improved = c, candB, true
				}
			}

			if improved {
				moved := diffVertex(cur, bestCand)
				pushTabu(moved)
				cur = bestCand
				w := widthOfOrder(g, cur)
				if w < bestWidth {
					bestWidth = w
					bestOrder = append([]int(nil), cur...)
				}
			} else if rng != nil && len(cur) > 1 {
				i, j := rng.Intn(len(cur)), rng.Intn(len(cur))
				cur[i], cur[j] = cur[j], cur[i]
			}
		}
	}
	return Result{Order: bestOrder, Width: bestWidth}
}

func cost(g *graphstore.Graph, p []int, n int) int64 {
	pos := make(map[int]int, len(p))
	for i, v := range p {
		pos[v] = i
	}
	maxbag := int64(widthOfOrder(g, p) + 1)
	total := maxbag * maxbag * int64(n) * int64(n)
	for _, v := range p {
		succ := 0
		for _, u := range g.Neighbors(v) {
			if pos[u] > pos[v] {
				succ++
			}
		}
		total += int64(succ) * int64(succ)
	}
	return total
}

func moveAfterLatestPrecedingNeighbor(g *graphstore.Graph, p []int, pos int) []int {
	v := p[pos]
	latest := -1
	for i := 0; i < pos; i++ {
		if g.Adjacent(p[i], v) && i > latest {
			latest = i
		}
	}
	if latest < 0 {
		return append([]int(nil), p...)
	}
	return reinsert(p, pos, latest+1)
}

func moveBeforeEarliestSuccessor(g *graphstore.Graph, p []int, pos int) []int {
	v := p[pos]
	earliest := -1
	for i := pos + 1; i < len(p); i++ {
		if g.Adjacent(p[i], v) {
			earliest = i
			break
		}
	}
	if earliest < 0 {
		return append([]int(nil), p...)
	}
	return reinsert(p, pos, earliest)
}

func reinsert(p []int, from, to int) []int {
	out := append([]int(nil), p...)
	v := out[from]
	out = append(out[:from], out[from+1:]...)
	if to > from {
		to--
	}
	if to < 0 {
		to = 0
	}
	if to > len(out) {
		to = len(out)
	}
	out = append(out[:to], append([]int{v}, out[to:]...)...)
	return out
}

func diffVertex(a, b []int) int {
	for i := range a {
		if a[i] != b[i] {
			return a[i]
		}
	}
	return a[0]
}

// heapItem is one entry of the fast degree-greedy min-heap.
type heapItem struct {
	v      int
	degree int
}

type vertexHeap []heapItem

func (h vertexHeap) Len() int            { return len(h) }
func (h vertexHeap) Less(i, j int) bool  { return h[i].degree < h[j].degree }
func (h vertexHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *vertexHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *vertexHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// FastDegreeGreedy decodes a tree decomposition directly from repeated
// min-degree extraction, for inputs too large for the scored greedy
// search. Returns ok=false if a resulting clique would exceed ceiling.
func FastDegreeGreedy(g *graphstore.Graph, ceiling int) (*decomp.TreeDecomposition, bool) {
	work := g.Clone()
	h := &vertexHeap{}
	heap.Init(h)
	for _, v := range work.Vertices() {
		heap.Push(h, heapItem{v: v, degree: work.Degree(v)})
	}

	var td *decomp.TreeDecomposition
	var prev *decomp.Bag

	for h.Len() > 0 && work.NumVertices() > 0 {
		item := heap.Pop(h).(heapItem)
		v := item.v
		if !work.HasVertex(v) {
			continue
		}
		bag := closedNeighborhoodOf(work, v)
		if ceiling > 0 && len(bag) > ceiling {
			return nil, false
		}
		rec, err := work.EliminateVertex(v)
		if err != nil {
			continue
		}

		absorbed := map[int]struct{}{v: {}}
		for _, u := range rec.Neighbors {
			if !work.HasVertex(u) {
				continue
			}
			if isSubsetOfBag(work, u, bag) {
				if _, err := work.EliminateVertex(u); err == nil {
					absorbed[u] = struct{}{}
				}
			}
		}

		b := bagOf(&td, bag)
		if prev != nil {
			prev.AddChild(b)
		}
		prev = b

		for _, u := range work.Vertices() {
			heap.Push(h, heapItem{v: u, degree: work.Degree(u)})
		}
	}
	if td == nil {
		td = decomp.New()
	}
	return td, true
}

func bagOf(td **decomp.TreeDecomposition, vertices []int) *decomp.Bag {
	if *td == nil {
		*td = decomp.New(vertices...)
		return (*td).Root
	}
	return (*td).NewBag(vertices...)
}

func closedNeighborhoodOf(g *graphstore.Graph, v int) []int {
	nb := g.Neighbors(v)
	out := make([]int, 0, len(nb)+1)
	out = append(out, v)
	out = append(out, nb...)
	return out
}

func isSubsetOfBag(g *graphstore.Graph, u int, bag []int) bool {
	bagSet := make(map[int]struct{}, len(bag))
	for _, b := range bag {
		bagSet[b] = struct{}{}
	}
	for _, n := range g.Neighbors(u) {
		if _, ok := bagSet[n]; !ok && n != u {
			return false
		}
	}
	return true
}
