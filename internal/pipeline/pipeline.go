// Package pipeline implements the three driver modes of spec §4.8
// (exact, approximation, heuristic) and the anytime shared-state model
// of spec §5: a mutex-guarded current-best decomposition, a cooperative
// monotone shutdown flag sampled at safe points, and a panic-recovering
// wrapper around each exact or approximation splitter run. The wrapper
// encloses the whole run, not each atom solve: a panic anywhere in it
// replaces the run's result with the trivial single-bag decomposition
// of the run's whole graph.
//
// The recover()-then-substitute idiom mirrors the teacher's own
// check(e error) { if e != nil { panic(e) } } plus top-level recover in
// balanced.go, generalized from "abort the whole run" to "substitute a
// trivial decomposition and keep going".
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/cem-okulmus/twdecomp/internal/atom"
	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/elimdecomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
	"github.com/cem-okulmus/twdecomp/internal/invariants"
	"github.com/cem-okulmus/twdecomp/internal/order"
	"github.com/cem-okulmus/twdecomp/internal/reducer"
	"github.com/cem-okulmus/twdecomp/internal/splitter"
	"github.com/cem-okulmus/twdecomp/internal/telemetry"
)

// Mode selects a driver.
type Mode int

const (
	ModeExact Mode = iota
	ModeApproximation
	ModeHeuristic
)

// Config parametrizes a pipeline run.
type Config struct {
	Mode     Mode
	Seed     int64
	Timeout  time.Duration
	Parallel bool
	Instant  bool // emit the first decomposition found, skip further improvement
}

// ShutdownFlag is the process-lifetime cooperative cancellation token of
// spec §5: monotone once set, polled by RunExact's width loop and by the
// stochastic driver and tabu search; the splitter and the atom solvers
// do not poll it.
type ShutdownFlag struct {
	flag atomic.Bool
}

func (s *ShutdownFlag) Set()        { s.flag.Store(true) }
func (s *ShutdownFlag) IsSet() bool { return s.flag.Load() }

// WatchContext sets the flag as soon as ctx is done, adapting the
// outer context.Context-based signal/timeout wiring (cmd/twheuristic's
// signal.NotifyContext) onto the plain atomic poll every inner loop uses.
func (s *ShutdownFlag) WatchContext(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.Set()
	}()
}

// CurrentBest is the anytime shared slot: written by solver/heuristic
// goroutines, read by the signal handler and the final emitter.
type CurrentBest struct {
	mu    sync.RWMutex
	td    *decomp.TreeDecomposition
	width int
	set   bool
}

// Update replaces the current best if td is narrower than what is
// stored (or nothing is stored yet).
func (c *CurrentBest) Update(td *decomp.TreeDecomposition) {
	w := td.Width()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set || w < c.width {
		c.td, c.width, c.set = td, w, true
	}
}

// Get returns the current best decomposition, if any.
func (c *CurrentBest) Get() (*decomp.TreeDecomposition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.td, c.set
}

// ComputeFailure recovers a panic inside fn, substituting the trivial
// single-bag decomposition of g and logging a warning, per spec §7's
// "compute failure" taxonomy entry.
func ComputeFailure(g *graphstore.Graph, fn func() (*decomp.TreeDecomposition, error)) (td *decomp.TreeDecomposition, err error) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.For("pipeline").WithField("panic", r).Warn("atom solver panicked, substituting trivial decomposition")
			td = decomp.New(g.Vertices()...)
			err = nil
		}
	}()
	return fn()
}

// RunExact: reducer -> splitter (target ATOM) with per-atom solver
// PidBT, seeded by a genuine MinorMinWidth lower bound (spec §4.8) and
// widened, if needed, to the trivial single-bag width so the
// iterative-deepening loop below always terminates with a correct
// answer even when the lower bound undershoots.
func RunExact(ctx context.Context, g *graphstore.Graph, cfg Config, best *CurrentBest, shutdown *ShutdownFlag) (*decomp.TreeDecomposition, error) {
	shutdown.WatchContext(ctx)

	lowerBound := invariants.MinorMinWidth(g)

	solver := atom.New(atom.Config{Kind: atom.KindPidBT, Parallel: cfg.Parallel})

	ceiling := g.NumVertices() - 1
	if ceiling < lowerBound {
		ceiling = lowerBound
	}

	var lastErr error
	for k := lowerBound; k <= ceiling; k++ {
		if shutdown.IsSet() {
			break
		}
		red := reducer.New(g, k)
		h := red.Run()

		td, err := ComputeFailure(h, func() (*decomp.TreeDecomposition, error) {
			return splitter.Split(h, splitter.Config{TargetMode: splitter.ATOM, Parallel: cfg.Parallel}, func(atomGraph *graphstore.Graph) (*decomp.TreeDecomposition, error) {
				result, ok, err := solver.Decompose(atomGraph, k)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, atom.ErrNoDecomposition
				}
				return result, nil
			})
		})
		if err != nil {
			lastErr = err
			continue
		}

		full := reducer.ReinflateGeneric(td, red.Pending())
		best.Update(full)
		return full, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	td, _ := best.Get()
	return td, nil
}

// RunApproximation: splitter whose atom solver decodes each atom from
// one greedy elimination order of the whole graph (FillIn with one-step
// look-ahead, or Degree if that aborts), restricted to the atom's
// vertices. No Robertson–Seymour approximator runs, so the result has
// no 4k+4 guarantee; the logged 4k+4 bound is computed from the seed
// order's width only.
func RunApproximation(ctx context.Context, g *graphstore.Graph, cfg Config, best *CurrentBest, shutdown *ShutdownFlag) (*decomp.TreeDecomposition, error) {
	shutdown.WatchContext(ctx)

	res, ok := order.GreedyPermutation(g, order.FillIn, 1, 0, nil)
	if !ok {
		res, _ = order.GreedyPermutation(g, order.Degree, 0, 0, nil)
	}
	telemetry.For("pipeline.approx").WithField("4k+4_bound", 4*res.Width+4).Debug("approximation bound for seed order")

	td, err := ComputeFailure(g, func() (*decomp.TreeDecomposition, error) {
		return splitter.Split(g, splitter.Config{TargetMode: splitter.ATOM, Parallel: cfg.Parallel}, func(atomGraph *graphstore.Graph) (*decomp.TreeDecomposition, error) {
			d, _ := elimdecomp.Decode(atomGraph, restrictOrder(res.Order, atomGraph))
			return d, nil
		})
	})
	if err != nil {
		return nil, err
	}
	best.Update(td)
	return td, nil
}

func restrictOrder(vs []int, g *graphstore.Graph) []int {
	out := make([]int, 0, g.NumVertices())
	for _, v := range vs {
		if g.HasVertex(v) {
			out = append(out, v)
		}
	}
	return out
}

// RunHeuristic runs the three-phase anytime driver: fast degree-greedy
// repeats, reducer + stochastic greedy-permutation, then local search on
// the best permutation found, each phase updating best as it improves.
func RunHeuristic(ctx context.Context, g *graphstore.Graph, cfg Config, best *CurrentBest, shutdown *ShutdownFlag) (*decomp.TreeDecomposition, error) {
	shutdown.WatchContext(ctx)

	if td, ok := order.FastDegreeGreedy(g, 0); ok {
		best.Update(td)
		if cfg.Instant {
			return td, nil
		}
	}

	red := reducer.New(g, 0)
	h := red.Run()

	stoch := order.StochasticDriver(ctx, h, order.StochasticConfig{Seed: cfg.Seed, Workers: runtimeWorkers(cfg), Shutdown: &shutdown.flag})
	if stoch.Order != nil {
		td, _ := elimdecomp.Decode(h, stoch.Order)
		full := reducer.ReinflateGeneric(td, red.Pending())
		best.Update(full)
		if cfg.Instant || shutdown.IsSet() {
			return full, nil
		}

		tabu := order.TabuSearch(h, stoch.Order, 5, 20, nil, &shutdown.flag)
		tabuTD, _ := elimdecomp.Decode(h, tabu.Order)
		tabuFull := reducer.ReinflateGeneric(tabuTD, red.Pending())
		best.Update(tabuFull)
	}

	final, ok := best.Get()
	if !ok {
		final = decomp.New(g.Vertices()...)
	}
	return final, nil
}

func runtimeWorkers(cfg Config) int {
	if cfg.Parallel {
		return 4
	}
	return 1
}

// Snapshot is the JSON-serializable anytime report emitted via the
// `-json` CLI flag.
type Snapshot struct {
	Width    int      `json:"width"`
	BagCount int      `json:"bag_count"`
	Bags     [][]int  `json:"bags"`
	Edges    [][2]int `json:"tree_edges"`
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalSnapshot serializes td into the JSON shape used by `-json`.
func MarshalSnapshot(td *decomp.TreeDecomposition) ([]byte, error) {
	bags := td.Bags()
	idOf := make(map[*decomp.Bag]int, len(bags))
	for i, b := range bags {
		idOf[b] = i
	}
	snap := Snapshot{Width: td.Width(), BagCount: len(bags)}
	for _, b := range bags {
		snap.Bags = append(snap.Bags, b.SortedVertices())
	}
	for _, b := range bags {
		for _, c := range b.Children {
			snap.Edges = append(snap.Edges, [2]int{idOf[b], idOf[c]})
		}
	}
	return jsonAPI.Marshal(snap)
}
