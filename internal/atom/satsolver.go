package atom

import (
	"github.com/cem-okulmus/twdecomp/internal/atom/satbackend"
	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
	"github.com/cem-okulmus/twdecomp/internal/telemetry"
)

// SatSolver adapts a satbackend.Backend to the Solver interface. With
// the default satbackend.NoBackend, GetFormula returns nil and
// Decompose falls back to PidBT, matching spec §6: "the core treats
// absence of a backend as fall back to game-based solver".
type SatSolver struct {
	Backend satbackend.Backend
}

func (s *SatSolver) Decompose(g *graphstore.Graph, k int) (*decomp.TreeDecomposition, bool, error) {
	backend := s.Backend
	if backend == nil {
		backend = satbackend.NoBackend{}
	}
	backend.InitCardinality(k)
	if backend.GetFormula() == nil {
		telemetry.For("atom.sat").Debug("no SAT backend configured, falling back to PidBT")
		return (&PidBT{}).Decompose(g, k)
	}
	// A concrete backend would encode the cardinality constraint here and
	// decode its satisfying assignment into a tree decomposition; none is
	// wired, so this path is unreachable with satbackend.NoBackend.
	return nil, false, nil
}
