package splitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
)

// trivialSolve returns the single-bag decomposition of whatever atom it
// is handed, used to isolate the ladder's forking/gluing logic from the
// real atom solvers in these tests.
func trivialSolve(g *graphstore.Graph) (*decomp.TreeDecomposition, error) {
	return decomp.New(g.Vertices()...), nil
}

func TestSplitOnDisconnectedGraph(t *testing.T) {
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(3, 4)

	td, err := Split(g, Config{TargetMode: ATOM}, trivialSolve)
	require.NoError(t, err)
	require.NoError(t, decomp.Validate(td, g))
}

func TestSplitOnCutVertex(t *testing.T) {
	// Two triangles sharing a single vertex 3: 1-2-3 and 3-4-5.
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4, 5} {
		g.AddVertex(v)
	}
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(2, 3)
	_ = g.AddEdge(1, 3)
	_ = g.AddEdge(3, 4)
	_ = g.AddEdge(4, 5)
	_ = g.AddEdge(3, 5)

	td, err := Split(g, Config{TargetMode: ATOM}, trivialSolve)
	require.NoError(t, err)
	require.NoError(t, decomp.Validate(td, g))
	require.Equal(t, 2, td.Width())
}

// twoTrianglesJoinedByATwoVertexCut builds two vertex-disjoint triangles
// {1,2,3} and {4,5,6}, each fully joined to a two-vertex separator
// {7,8}, so {7,8} is the unique minimum vertex cut between either
// triangle and the other.
func twoTrianglesJoinedByATwoVertexCut() *graphstore.Graph {
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4, 5, 6, 7, 8} {
		g.AddVertex(v)
	}
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(2, 3)
	_ = g.AddEdge(1, 3)
	_ = g.AddEdge(4, 5)
	_ = g.AddEdge(5, 6)
	_ = g.AddEdge(4, 6)
	for _, a := range []int{1, 2, 3} {
		for _, s := range []int{7, 8} {
			_ = g.AddEdge(a, s)
		}
	}
	for _, b := range []int{4, 5, 6} {
		for _, s := range []int{7, 8} {
			_ = g.AddEdge(b, s)
		}
	}
	return g
}

func TestIsMinorSafeSeparatorAcceptsAMinimumCut(t *testing.T) {
	g := twoTrianglesJoinedByATwoVertexCut()
	require.True(t, isMinorSafeSeparator(g, []int{7, 8}))
}

func TestIsMinorSafeSeparatorRejectsALargerThanNecessaryCut(t *testing.T) {
	g := twoTrianglesJoinedByATwoVertexCut()
	require.False(t, isMinorSafeSeparator(g, []int{1, 7, 8}))
}

func TestSplitParallelMatchesSequential(t *testing.T) {
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(3, 4)

	td, err := Split(g, Config{TargetMode: ATOM, Parallel: true}, trivialSolve)
	require.NoError(t, err)
	require.NoError(t, decomp.Validate(td, g))
}
