package invariants

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cem-okulmus/twdecomp/internal/graphstore"
)

func chain(n int) *graphstore.Graph {
	g := graphstore.New()
	for i := 1; i <= n; i++ {
		g.AddVertex(i)
	}
	for i := 1; i < n; i++ {
		_ = g.AddEdge(i, i+1)
	}
	return g
}

func cycle(n int) *graphstore.Graph {
	g := chain(n)
	_ = g.AddEdge(n, 1)
	return g
}

func TestConnectedComponentsSplitsDisjointUnion(t *testing.T) {
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(3, 4)

	comps := ConnectedComponents(g)
	require.Len(t, comps, 2)
	require.False(t, IsConnected(g))
}

func TestCutVertexOnPath(t *testing.T) {
	g := chain(5)
	v, ok := CutVertex(g)
	require.True(t, ok)
	require.True(t, v >= 2 && v <= 4)
}

func TestCutVertexNoneOnCycle(t *testing.T) {
	g := cycle(5)
	_, ok := CutVertex(g)
	require.False(t, ok)
}

func TestCliqueMinimalSeparatorOnTwoTrianglesSharingAnEdge(t *testing.T) {
	// Two triangles {1,2,3} and {2,3,4} sharing edge {2,3}: {2,3} is the
	// unique minimal separator and induces a clique.
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(1, 3)
	_ = g.AddEdge(2, 3)
	_ = g.AddEdge(2, 4)
	_ = g.AddEdge(3, 4)

	seps := CliqueMinimalSeparators(g)
	found := false
	for _, s := range seps {
		if len(s) == 2 {
			_, has2 := s[2]
			_, has3 := s[3]
			if has2 && has3 {
				found = true
			}
		}
	}
	require.True(t, found, "expected {2,3} among clique-minimal separators, got %v", seps)
}

func TestMinimalVertexSeparatorOnPath(t *testing.T) {
	g := chain(5)
	cut, ok := MinimalVertexSeparator(g, 1, 5)
	require.True(t, ok)
	require.Len(t, cut, 1)
}

func TestMinimalVertexSeparatorRejectsAdjacentPair(t *testing.T) {
	g := chain(5)
	_, ok := MinimalVertexSeparator(g, 1, 2)
	require.False(t, ok)
}

func clique(n int) *graphstore.Graph {
	g := graphstore.New()
	for i := 1; i <= n; i++ {
		g.AddVertex(i)
	}
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			_ = g.AddEdge(i, j)
		}
	}
	return g
}

// TestMinorMinWidthOnClique: every vertex stays at degree n-1 across the
// whole contraction sequence (a clique minor of a clique is a clique),
// so the bound is exact: the known treewidth of K_n.
func TestMinorMinWidthOnClique(t *testing.T) {
	require.Equal(t, 4, MinorMinWidth(clique(5)))
}

// TestMinorMinWidthOnPath: every contraction step finds a degree-1
// vertex, so the bound stays at the known treewidth of a path, 1.
func TestMinorMinWidthOnPath(t *testing.T) {
	require.Equal(t, 1, MinorMinWidth(chain(6)))
}

// TestMinorMinWidthOnCycle: contraction always finds a degree-2 vertex
// until the final edge, matching a cycle's known treewidth of 2.
func TestMinorMinWidthOnCycle(t *testing.T) {
	require.Equal(t, 2, MinorMinWidth(cycle(6)))
}

// TestMinorMinWidthNeverExceedsAGreedyUpperBound documents the relation
// the pipeline's exact driver now relies on: this lower bound must never
// be larger than any valid elimination order's width.
func TestMinorMinWidthNeverExceedsAGreedyUpperBound(t *testing.T) {
	g := cycle(8)
	lb := MinorMinWidth(g)
	require.LessOrEqual(t, lb, 2)
}
