package graphstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func triangleGraph() *Graph {
	g := New()
	for _, v := range []int{1, 2, 3} {
		g.AddVertex(v)
	}
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(2, 3)
	_ = g.AddEdge(1, 3)
	return g
}

func TestFillInValueOnTriangle(t *testing.T) {
	g := triangleGraph()
	for _, v := range []int{1, 2, 3} {
		fi, err := g.FillInValue(v)
		require.NoError(t, err)
		require.Equal(t, 0, fi, "triangle vertices have no fill-in")
	}
}

func TestSimplicialVertex(t *testing.T) {
	g := New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	// 1-2-3 triangle, 4 attached only to 1: 4 is simplicial (deg 1).
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(2, 3)
	_ = g.AddEdge(1, 3)
	_ = g.AddEdge(1, 4)

	v, ok := g.GetSimplicialVertex(nil)
	require.True(t, ok)
	require.Contains(t, []int{1, 2, 3, 4}, v)
}

func TestAlmostSimplicialVertex(t *testing.T) {
	g := New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	// N(1) = {2,3,4}; 2-3 and 2-4 edges present, 3-4 missing: almost
	// simplicial witnessed by the pair (3,4), neither of which is 2.
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(1, 3)
	_ = g.AddEdge(1, 4)
	_ = g.AddEdge(2, 3)
	_ = g.AddEdge(2, 4)

	forbidden := map[int]struct{}{}
	_, ok := g.GetAlmostSimplicialVertex(forbidden)
	require.True(t, ok)
}

func TestEliminateDeEliminateRoundTrip(t *testing.T) {
	g := triangleGraph()
	g.AddVertex(4)
	_ = g.AddEdge(1, 4)

	before := g.Clone()

	rec, err := g.EliminateVertex(1)
	require.NoError(t, err)
	require.False(t, g.HasVertex(1))

	err = g.DeEliminateVertex(rec)
	require.NoError(t, err)

	require.True(t, g.Equal(before), "round trip must restore identical graph")
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := triangleGraph()
	before := g.NumEdges()
	require.NoError(t, g.AddEdge(1, 2))
	require.Equal(t, before, g.NumEdges())
}

func TestUnknownVertexErrors(t *testing.T) {
	g := New()
	g.AddVertex(1)
	err := g.AddEdge(1, 99)
	require.ErrorIs(t, err, ErrUnknownVertex)
}
