// Package logger holds the process-wide zerolog logger.
//
// Call Setup once from main. Packages that need their own tag take a
// sub-logger with For.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures Setup.
type Options struct {
	// Level accepts trace, debug, info, warn or error. Anything else means info.
	Level string
	// Pretty switches to zerolog's console writer for local runs.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service is stamped on every entry as "service".
	Service string
}

var (
	mu    sync.RWMutex
	root  zerolog.Logger
	ready bool
)

// Setup builds the root logger. Only the first call after process start
// (or after Reset) takes effect; later calls return the existing logger.
func Setup(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if ready {
		return root
	}

	w := opts.Output
	if w == nil {
		w = os.Stdout
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	level := levelFrom(opts.Level)
	zerolog.SetGlobalLevel(level)

	fields := zerolog.New(w).Level(level).With().Timestamp()
	if opts.Service != "" {
		fields = fields.Str("service", opts.Service)
	}
	root = fields.Logger()
	ready = true
	return root
}

// L returns the root logger. It panics when Setup has not run.
func L() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !ready {
		panic("logger: used before Setup")
	}
	return root
}

// For returns a child of the root logger tagged with component.
func For(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// Reset forgets the root logger. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	root = zerolog.Nop()
	ready = false
}

func levelFrom(s string) zerolog.Level {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "warning":
		return zerolog.WarnLevel
	case "trace", "debug", "info", "warn", "error":
		level, _ := zerolog.ParseLevel(s)
		return level
	default:
		return zerolog.InfoLevel
	}
}
