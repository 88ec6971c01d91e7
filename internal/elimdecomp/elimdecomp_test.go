package elimdecomp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
)

func cycle(n int) *graphstore.Graph {
	g := graphstore.New()
	for i := 1; i <= n; i++ {
		g.AddVertex(i)
	}
	for i := 1; i < n; i++ {
		_ = g.AddEdge(i, i+1)
	}
	_ = g.AddEdge(n, 1)
	return g
}

func TestDecodeCycleProducesValidWidthTwoDecomposition(t *testing.T) {
	g := cycle(5)
	// Eliminate 1, then 2, ... a reasonable order for a 5-cycle.
	td, rank := Decode(g, []int{1, 2, 3, 4, 5})

	require.NoError(t, decomp.Validate(td, g))
	require.Equal(t, 2, td.Width())
	require.Equal(t, 0, rank[1])
	require.Equal(t, 4, rank[5])
}

func TestDecodeCliqueProducesSingleBag(t *testing.T) {
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	for i := 1; i <= 4; i++ {
		for j := i + 1; j <= 4; j++ {
			_ = g.AddEdge(i, j)
		}
	}
	td, _ := Decode(g, []int{1, 2, 3, 4})
	require.NoError(t, decomp.Validate(td, g))
	require.Equal(t, 3, td.Width())
	require.Equal(t, 1, td.BagCount())
}
