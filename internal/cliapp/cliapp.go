// Package cliapp wires the flag set, config overlay, signal handling,
// and exit-code mapping shared by cmd/twexact, cmd/twapprox, and
// cmd/twheuristic, generalizing balanced.go's flag-parse-then-dispatch
// main() into a cobra command builder reused by all three binaries.
package cliapp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
	"github.com/cem-okulmus/twdecomp/internal/pace"
	"github.com/cem-okulmus/twdecomp/internal/pipeline"
	"github.com/cem-okulmus/twdecomp/internal/telemetry"
)

// Exit codes per spec.md §6/§7: 0 on success, distinct non-zero codes
// distinguish the fatal error kinds for scripted callers.
const (
	ExitOK            = 0
	ExitParseError    = 1
	ExitInvariant     = 2
	ExitComputeFailed = 3
)

// Flags is the common flag surface every mode's command shares.
type Flags struct {
	Seed       int64
	Timeout    time.Duration
	Parallel   bool
	Instant    bool
	Verbose    bool
	JSONPath   string
	ConfigPath string
}

// BindFlags registers the shared flag set on cmd.
func BindFlags(cmd *cobra.Command, f *Flags) {
	cmd.Flags().Int64Var(&f.Seed, "s", 1, "random seed")
	cmd.Flags().DurationVar(&f.Timeout, "timeout", 0, "abort and emit current best after this duration (0 = no timeout)")
	cmd.Flags().BoolVar(&f.Parallel, "parallel", false, "fork subtasks across a worker pool")
	cmd.Flags().BoolVar(&f.Instant, "instant", false, "emit the first decomposition found, skip further improvement")
	cmd.Flags().BoolVar(&f.Verbose, "verbose", false, "enable debug-level structured logging")
	cmd.Flags().StringVar(&f.JSONPath, "json", "", "also write a JSON snapshot of the decomposition to this path")
	cmd.Flags().StringVar(&f.ConfigPath, "config", "", "optional viper config file overlaying these flags")
}

// LoadOverlay reads f.ConfigPath (if set) via viper and fills in any
// flag the user left unset on the command line, letting a config file
// supply defaults without masking an explicit flag (spec.md §6 "(NEW)").
func LoadOverlay(cmd *cobra.Command, f *Flags) error {
	if f.ConfigPath == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(f.ConfigPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("cliapp: reading config overlay: %w", err)
	}
	if v.IsSet("s") && !cmd.Flags().Changed("s") {
		f.Seed = v.GetInt64("s")
	}
	if v.IsSet("timeout") && !cmd.Flags().Changed("timeout") {
		f.Timeout = v.GetDuration("timeout")
	}
	if v.IsSet("parallel") && !cmd.Flags().Changed("parallel") {
		f.Parallel = v.GetBool("parallel")
	}
	if v.IsSet("instant") && !cmd.Flags().Changed("instant") {
		f.Instant = v.GetBool("instant")
	}
	return nil
}

// Config converts Flags into a pipeline.Config for the given mode.
func (f *Flags) Config(mode pipeline.Mode) pipeline.Config {
	return pipeline.Config{
		Mode:     mode,
		Seed:     f.Seed,
		Timeout:  f.Timeout,
		Parallel: f.Parallel,
		Instant:  f.Instant,
	}
}

// Driver is the shape of internal/pipeline's three Run* entry points.
type Driver func(ctx context.Context, g *graphstore.Graph, cfg pipeline.Config, best *pipeline.CurrentBest, shutdown *pipeline.ShutdownFlag) (*decomp.TreeDecomposition, error)

// Run is the shared body of all three entry points: read a graph from
// stdin, run driver against it with signal/timeout-derived cancellation,
// validate and write the result, and return the process exit code.
func Run(driver Driver, f *Flags, mode pipeline.Mode, handleSignals bool) int {
	telemetry.SetActive(f.Verbose)
	telemetry.SetVerbose(f.Verbose)

	res, err := pace.ParseGr(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stdout, "c Could not read the graph file.")
		telemetry.For("cliapp").WithError(err).Error("parse error")
		return ExitParseError
	}

	ctx := context.Background()
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	if handleSignals {
		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = sigCtx
	}

	best := &pipeline.CurrentBest{}
	shutdown := &pipeline.ShutdownFlag{}

	td, runErr := driver(ctx, res.Graph, f.Config(mode), best, shutdown)
	if runErr != nil {
		if stored, ok := best.Get(); ok {
			telemetry.For("cliapp").WithError(runErr).Warn("driver returned an error, emitting current best")
			td = stored
		} else {
			fmt.Fprintf(os.Stdout, "c compute failure: %v\n", runErr)
			return ExitComputeFailed
		}
	}

	if err := decomp.Validate(td, res.Graph); err != nil {
		fmt.Fprintf(os.Stdout, "c invariant violation: %v\n", err)
		return ExitInvariant
	}

	if err := pace.WriteTd(os.Stdout, td, res.Graph.NumVertices()); err != nil {
		fmt.Fprintf(os.Stdout, "c write failure: %v\n", err)
		return ExitComputeFailed
	}

	if f.JSONPath != "" {
		if err := writeJSONSnapshot(f.JSONPath, td); err != nil {
			telemetry.For("cliapp").WithError(err).Warn("failed to write JSON snapshot")
		}
	}

	return ExitOK
}

func writeJSONSnapshot(path string, td *decomp.TreeDecomposition) error {
	data, err := pipeline.MarshalSnapshot(td)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, bytes.NewReader(data))
	return err
}
