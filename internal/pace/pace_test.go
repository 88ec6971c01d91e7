package pace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
)

func TestParseGrReadsHeaderAndEdges(t *testing.T) {
	input := `c a comment line
p tw 4 3
1 2
2 3
3 4
`
	res, err := ParseGr(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 4, res.Graph.NumVertices())
	require.Equal(t, 3, res.Graph.NumEdges())
	require.True(t, res.Graph.Adjacent(1, 2))
	require.True(t, res.Graph.Adjacent(3, 4))
}

func TestParseGrRejectsWrongProblemKeyword(t *testing.T) {
	_, err := ParseGr(strings.NewReader("p edge 2 1\n1 2\n"))
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseGrRejectsMissingHeader(t *testing.T) {
	_, err := ParseGr(strings.NewReader("1 2\n"))
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseDgfReadsEKeywordEdges(t *testing.T) {
	input := `c dimacs style
p edge 3 2
e 1 2
e 2 3
`
	res, err := ParseDgf(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 3, res.Graph.NumVertices())
	require.Equal(t, 2, res.Graph.NumEdges())
}

func TestParseDgfRejectsEdgeLineWithoutKeyword(t *testing.T) {
	_, err := ParseDgf(strings.NewReader("p edge 2 1\n1 2\n"))
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseGrInternsNonContiguousVertexNames(t *testing.T) {
	res, err := ParseGr(strings.NewReader("p tw 2 1\nv1 v2\n"))
	require.NoError(t, err)
	require.Equal(t, 2, res.Graph.NumVertices())
	require.Equal(t, "v1", res.Encoding[res.Decoding["v1"]])
}

func TestWriteTdProducesHeaderBagsAndEdges(t *testing.T) {
	td := decomp.New(1, 2, 3)
	child := td.NewBag(2, 3, 4)
	td.Root.AddChild(child)

	var buf bytes.Buffer
	require.NoError(t, WriteTd(&buf, td, 4))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, "s td 2 3 4", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "b 1 "))
	require.True(t, strings.HasPrefix(lines[2], "b 2 "))
	require.Equal(t, "1 2", lines[3])
}
