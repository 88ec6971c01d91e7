package reducer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
)

func path(n int) *graphstore.Graph {
	g := graphstore.New()
	for i := 1; i <= n; i++ {
		g.AddVertex(i)
	}
	for i := 1; i < n; i++ {
		_ = g.AddEdge(i, i+1)
	}
	return g
}

func TestIsolatedLeafSeriesReducesPathToEmpty(t *testing.T) {
	g := path(5)
	r := New(g, 0)
	h := r.Run()

	require.Equal(t, 0, h.NumVertices())
	require.Len(t, r.Pending(), 5)
	require.Equal(t, 1, r.LowerBound())
}

func TestSimplicialReducesCliqueToEmpty(t *testing.T) {
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	for i := 1; i <= 4; i++ {
		for j := i + 1; j <= 4; j++ {
			_ = g.AddEdge(i, j)
		}
	}
	r := New(g, 0)
	h := r.Run()

	require.Equal(t, 0, h.NumVertices())
	require.Equal(t, 3, r.LowerBound())
}

func cubeGraph() *graphstore.Graph {
	g := graphstore.New()
	for i := 0; i < 8; i++ {
		g.AddVertex(i)
	}
	for i := 0; i < 8; i++ {
		for bit := 0; bit < 3; bit++ {
			j := i ^ (1 << bit)
			if i < j {
				_ = g.AddEdge(i, j)
			}
		}
	}
	return g
}

func TestBuddyRuleReducesCompleteBipartiteGraph(t *testing.T) {
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4, 5, 6} {
		g.AddVertex(v)
	}
	for _, a := range []int{1, 2, 3} {
		for _, b := range []int{4, 5, 6} {
			_ = g.AddEdge(a, b)
		}
	}
	r := New(g, 0)
	h := r.Run()

	require.Equal(t, 0, h.NumVertices())
	require.Positive(t, r.Stats.Buddy)

	td := decomp.New(r.Pending()[len(r.Pending())-1].Bag...)
	td = ReinflateGeneric(td, r.Pending()[:len(r.Pending())-1])
	require.NoError(t, decomp.Validate(td, g))
	require.Equal(t, 3, td.Width())
}

func TestCubeRuleReducesThreeCubeGraph(t *testing.T) {
	g := cubeGraph()
	r := New(g, 0)
	h := r.Run()

	require.Equal(t, 0, h.NumVertices())
	require.Positive(t, r.Stats.Cube)

	td := decomp.New(r.Pending()[len(r.Pending())-1].Bag...)
	td = ReinflateGeneric(td, r.Pending()[:len(r.Pending())-1])
	require.NoError(t, decomp.Validate(td, g))
	require.Equal(t, 3, td.Width())
}

func TestReinflateGenericProducesValidDecomposition(t *testing.T) {
	g := path(5)
	r := New(g, 0)
	h := r.Run()
	require.Equal(t, 0, h.NumVertices())

	td := decomp.New(r.Pending()[len(r.Pending())-1].Bag...)
	td = ReinflateGeneric(td, r.Pending()[:len(r.Pending())-1])

	require.NoError(t, decomp.Validate(td, g))
	require.LessOrEqual(t, td.Width(), 1)
}
