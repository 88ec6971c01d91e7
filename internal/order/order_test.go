package order

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

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

func TestGreedyPermutationOnCycleGivesWidthTwo(t *testing.T) {
	g := cycle(5)
	rng := rand.New(rand.NewSource(1))
	res, ok := GreedyPermutation(g, Degree, 0, 0, rng)
	require.True(t, ok)
	require.Len(t, res.Order, 5)
	require.Equal(t, 2, res.Width)
}

func TestGreedyPermutationAbortsOnUpperBound(t *testing.T) {
	g := cycle(5)
	rng := rand.New(rand.NewSource(1))
	_, ok := GreedyPermutation(g, Degree, 0, 1, rng)
	require.False(t, ok, "every cycle vertex has degree 2, exceeding an upper bound of 1")
}

func TestStochasticDriverFindsWidthTwoOnCycle(t *testing.T) {
	g := cycle(6)
	res := StochasticDriver(context.Background(), g, StochasticConfig{Seed: 42, Workers: 2})
	require.Equal(t, 2, res.Width)
}

func TestTabuSearchNeverWorsensSeed(t *testing.T) {
	g := cycle(6)
	seed, _ := GreedyPermutation(g, Degree, 0, 0, rand.New(rand.NewSource(7)))
	res := TabuSearch(g, seed.Order, 2, 10, rand.New(rand.NewSource(7)), nil)
	require.LessOrEqual(t, res.Width, seed.Width)
}

func TestFastDegreeGreedyOnClique(t *testing.T) {
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	for i := 1; i <= 4; i++ {
		for j := i + 1; j <= 4; j++ {
			_ = g.AddEdge(i, j)
		}
	}
	td, ok := FastDegreeGreedy(g, 0)
	require.True(t, ok)
	require.Equal(t, 3, td.Width())
}

func TestFastDegreeGreedyRejectsOverCeiling(t *testing.T) {
	g := graphstore.New()
	for _, v := range []int{1, 2, 3, 4} {
		g.AddVertex(v)
	}
	for i := 1; i <= 4; i++ {
		for j := i + 1; j <= 4; j++ {
			_ = g.AddEdge(i, j)
		}
	}
	_, ok := FastDegreeGreedy(g, 3)
	require.False(t, ok)
}
