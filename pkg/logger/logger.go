// Package logx configures the process-wide zerolog logger. Output goes to
// stderr: stdout belongs to the chat loop, and interleaving log lines with
// assistant replies would corrupt it.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

// Init replaces the global logger. Call it once at startup, before any
// component logs.
func Init(cfg Config) {
	var out io.Writer = os.Stderr
	if cfg.PrettyFormat {
		out = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
		})
	}

	logger := zerolog.New(out).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	if cfg.Debug {
		// Caller info is only worth its cost when someone is actually
		// debugging.
		logger = logger.Level(zerolog.DebugLevel).With().Caller().Logger()
	}
	log.Logger = logger
}
