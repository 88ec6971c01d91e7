// Package telemetry centralizes structured logging for the decomposition
// pipeline. Every other package logs through a *logrus.Entry obtained
// here rather than calling logrus (or fmt) directly, so that the three
// CLI entry points can gate verbosity with a single flag, the way the
// teacher's logActive(bool) gated its own stdlib logger.
package telemetry

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	log = newLogger()
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetActive mirrors the teacher's logActive: on writes structured logs to
// stderr, off discards them entirely.
func SetActive(active bool) {
	mu.Lock()
	defer mu.Unlock()
	if active {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
}

// SetVerbose raises the level to Debug, surfacing per-rule and
// per-separator trace lines.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// For returns a component-scoped logger, e.g. telemetry.For("reducer").
func For(component string) *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return log.WithField("component", component)
}
