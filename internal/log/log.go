package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type params struct {
	verbose    bool
	jsonFormat bool
	fields     map[string]any
	writer     io.Writer
}

type Option func(params *params)

// WithVerbose enables debug logging.
func WithVerbose(verbose bool) Option {
	return func(params *params) {
		params.verbose = verbose
	}
}

// WithJSONFormat writes JSON lines instead of console output.
func WithJSONFormat(json bool) Option {
	return func(params *params) {
		params.jsonFormat = json
	}
}

// WithField adds a field to every log entry.
func WithField(key string, value any) Option {
	return func(params *params) {
		if params.fields == nil {
			params.fields = make(map[string]any)
		}
		params.fields[key] = value
	}
}

// WithWriter sets the output writer. A nil writer disables logging.
func WithWriter(w io.Writer) Option {
	return func(params *params) {
		params.writer = w
	}
}

// New creates a zerolog logger. Without a writer the logger is disabled.
//
// Example:
//
//	logger := log.New(
//	    log.WithWriter(os.Stderr),
//	    log.WithVerbose(true),
//	    log.WithField("build.sha", sha),
//	)
func New(opts ...Option) zerolog.Logger {
	var params params
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		opt(&params)
	}

	if params.writer == nil {
		return zerolog.Nop()
	}

	writer := params.writer
	if !params.jsonFormat {
		writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = params.writer
			w.TimeFormat = time.RFC3339
			w.NoColor = params.writer != os.Stderr
		})
	}

	level := zerolog.InfoLevel
	if params.verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Fields(params.fields).
		Logger()
}
