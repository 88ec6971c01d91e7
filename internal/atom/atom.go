// Package atom implements the two exact bitset-driven solvers of spec
// §4.7 (Catch-and-Glue and PID/BT) behind a common Solver interface,
// plus the pluggable SAT-backend seam of spec §6.
//
// The subtype-family shape — an interface plus a small Kind enum
// selecting among implementations — generalizes the teacher's own
// Predicate interface (lib/search.go's BalancedCheck/ParentCheck) from
// "which acceptance test runs inside Search.Worker" to "which solver
// runs against a fixed-width target for one atom".
package atom

import (
	"errors"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
)

// Kind selects which Solver implementation Config.Solver() returns.
type Kind int

const (
	KindPidBT Kind = iota
	KindCatchAndGlue
	KindSatBackend
)

// ErrNoDecomposition is returned by FindWidth when no k in
// [lowerBound, upperBound] admits a decomposition.
var ErrNoDecomposition = errors.New("atom: no decomposition found in bound range")

// Solver decomposes a single atom at a fixed target width k, reporting
// ok=false (not an error) when k is infeasible for this graph.
type Solver interface {
	Decompose(g *graphstore.Graph, k int) (td *decomp.TreeDecomposition, ok bool, err error)
}

// Config selects and parametrizes a Solver.
type Config struct {
	Kind     Kind
	Parallel bool
}

// New returns the Solver selected by cfg.Kind.
func New(cfg Config) Solver {
	switch cfg.Kind {
	case KindCatchAndGlue:
		return &CatchAndGlue{Parallel: cfg.Parallel}
	case KindSatBackend:
		return &SatSolver{}
	default:
		return &PidBT{}
	}
}

// FindWidth drives a Solver upward from lowerBound to upperBound,
// returning the first feasible width.
func FindWidth(solver Solver, g *graphstore.Graph, lowerBound, upperBound int) (*decomp.TreeDecomposition, int, error) {
	if g.NumVertices() == 0 {
		return decomp.New(), 0, nil
	}
	for k := lowerBound; k <= upperBound; k++ {
		td, ok, err := solver.Decompose(g, k)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			return td, k, nil
		}
	}
	return nil, 0, ErrNoDecomposition
}

// FindWidthDescending first requires a decomposition at upperBound, then
// decrements k while Decompose still succeeds, returning the last k that
// succeeded.
func FindWidthDescending(solver Solver, g *graphstore.Graph, upperBound int) (*decomp.TreeDecomposition, int, error) {
	if g.NumVertices() == 0 {
		return decomp.New(), 0, nil
	}
	bestTD, ok, err := solver.Decompose(g, upperBound)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrNoDecomposition
	}
	bk := upperBound
	for k := upperBound - 1; k >= 0; k-- {
		td, ok, err := solver.Decompose(g, k)
		if err != nil {
			return bestTD, bk, nil
		}
		if !ok {
			break
		}
		bestTD, bk = td, k
	}
	return bestTD, bk, nil
}
