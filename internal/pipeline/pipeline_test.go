package pipeline

import (
	"context"
	"testing"
	"time"

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

// cube returns Q3, the 3-dimensional hypercube graph: 8 vertices labeled
// 0..7 by their binary encoding, edges between vertices differing in
// exactly one bit.
func cube() *graphstore.Graph {
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

// twoTrianglesSharingAnEdge returns K4 minus one edge, i.e. two
// triangles sharing an edge (a 4-cycle plus one diagonal).
func twoTrianglesSharingAnEdge() *graphstore.Graph {
	g := graphstore.New()
	for i := 1; i <= 4; i++ {
		g.AddVertex(i)
	}
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(2, 3)
	_ = g.AddEdge(3, 1)
	_ = g.AddEdge(3, 4)
	_ = g.AddEdge(4, 1)
	return g
}

// petersen returns the Petersen graph: outer 5-cycle, inner 5-cycle
// connected with step 2, spokes between corresponding vertices.
func petersen() *graphstore.Graph {
	g := graphstore.New()
	for i := 0; i < 10; i++ {
		g.AddVertex(i)
	}
	for i := 0; i < 5; i++ {
		_ = g.AddEdge(i, (i+1)%5)
	}
	for i := 0; i < 5; i++ {
		_ = g.AddEdge(5+i, 5+(i+2)%5)
	}
	for i := 0; i < 5; i++ {
		_ = g.AddEdge(i, 5+i)
	}
	return g
}

func runExactWidth(t *testing.T, g *graphstore.Graph) *decomp.TreeDecomposition {
	t.Helper()
	best := &CurrentBest{}
	shutdown := &ShutdownFlag{}
	td, err := RunExact(context.Background(), g, Config{Mode: ModeExact}, best, shutdown)
	require.NoError(t, err)
	require.NotNil(t, td)
	require.NoError(t, decomp.Validate(td, g))
	return td
}

func TestRunExactOnPathHasWidthOne(t *testing.T) {
	td := runExactWidth(t, path(4))
	require.Equal(t, 1, td.Width())
}

func TestRunExactOnK4HasWidthThree(t *testing.T) {
	td := runExactWidth(t, clique(4))
	require.Equal(t, 3, td.Width())
}

func TestRunExactOnC5HasWidthTwo(t *testing.T) {
	td := runExactWidth(t, cycle(5))
	require.Equal(t, 2, td.Width())
}

func TestRunExactOnCubeHasWidthThree(t *testing.T) {
	td := runExactWidth(t, cube())
	require.Equal(t, 3, td.Width())
}

func TestRunExactOnTwoTrianglesSharingAnEdgeHasWidthTwo(t *testing.T) {
	td := runExactWidth(t, twoTrianglesSharingAnEdge())
	require.LessOrEqual(t, td.Width(), 2)
}

func TestRunExactOnPetersenHasWidthFour(t *testing.T) {
	td := runExactWidth(t, petersen())
	require.Equal(t, 4, td.Width())
}

func TestRunExactOnEmptyGraph(t *testing.T) {
	g := graphstore.New()
	td := runExactWidth(t, g)
	require.Equal(t, -1, td.Width())
}

func TestRunHeuristicProducesValidDecomposition(t *testing.T) {
	g := cycle(6)
	best := &CurrentBest{}
	shutdown := &ShutdownFlag{}
	td, err := RunHeuristic(context.Background(), g, Config{Mode: ModeHeuristic, Seed: 1}, best, shutdown)
	require.NoError(t, err)
	require.NoError(t, decomp.Validate(td, g))
	stored, ok := best.Get()
	require.True(t, ok)
	require.LessOrEqual(t, stored.Width(), td.Width())
}

func TestRunApproximationProducesValidDecomposition(t *testing.T) {
	g := petersen()
	best := &CurrentBest{}
	shutdown := &ShutdownFlag{}
	td, err := RunApproximation(context.Background(), g, Config{Mode: ModeApproximation}, best, shutdown)
	require.NoError(t, err)
	require.NoError(t, decomp.Validate(td, g))
}

func TestShutdownFlagWatchContextSetsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &ShutdownFlag{}
	s.WatchContext(ctx)
	require.False(t, s.IsSet())
	cancel()
	require.Eventually(t, s.IsSet, time.Second, 5*time.Millisecond)
}

func TestCurrentBestKeepsNarrowestWidth(t *testing.T) {
	best := &CurrentBest{}
	wide := decomp.New(1, 2, 3, 4)
	best.Update(wide)
	narrow := decomp.New(1, 2)
	best.Update(narrow)
	got, ok := best.Get()
	require.True(t, ok)
	require.Equal(t, narrow.Width(), got.Width())
}

func TestComputeFailureRecoversPanic(t *testing.T) {
	g := path(3)
	td, err := ComputeFailure(g, func() (*decomp.TreeDecomposition, error) {
		panic("boom")
	})
	require.NoError(t, err)
	require.NoError(t, decomp.Validate(td, g))
}

func TestMarshalSnapshotRoundTripsShape(t *testing.T) {
	td := runExactWidth(t, cycle(5))
	data, err := MarshalSnapshot(td)
	require.NoError(t, err)
	require.Contains(t, string(data), `"width"`)
	require.Contains(t, string(data), `"bags"`)
}
