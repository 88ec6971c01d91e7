package cliapp

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
	"github.com/cem-okulmus/twdecomp/internal/pipeline"
)

// withStdin replaces os.Stdin for the duration of fn with a reader over
// input, restoring the original afterwards.
func withStdin(t *testing.T, input string, fn func()) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = orig }()

	go func() {
		_, _ = io.WriteString(w, input)
		w.Close()
	}()
	fn()
}

// captureStdout redirects os.Stdout for the duration of fn, returning
// whatever was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	done := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	os.Stdout = orig
	w.Close()
	return <-done
}

func trivialDriver(_ context.Context, g *graphstore.Graph, _ pipeline.Config, best *pipeline.CurrentBest, _ *pipeline.ShutdownFlag) (*decomp.TreeDecomposition, error) {
	td := decomp.New(g.Vertices()...)
	best.Update(td)
	return td, nil
}

func TestRunEmitsTdOnSuccess(t *testing.T) {
	var code int
	out := captureStdout(t, func() {
		withStdin(t, "p tw 2 1\n1 2\n", func() {
			code = Run(trivialDriver, &Flags{}, pipeline.ModeExact, false)
		})
	})
	require.Equal(t, ExitOK, code)
	require.Contains(t, out, "s td")
}

func TestRunReportsParseErrorOnMalformedInput(t *testing.T) {
	var code int
	out := captureStdout(t, func() {
		withStdin(t, "not a graph\n", func() {
			code = Run(trivialDriver, &Flags{}, pipeline.ModeExact, false)
		})
	})
	require.Equal(t, ExitParseError, code)
	require.Contains(t, out, "c Could not read the graph file.")
}
