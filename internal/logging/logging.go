package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Format selects how log lines are written
type Format string

const (
	// FormatConsole is the human readable writer used by the editor and shell
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line, for the API server
	FormatJSON Format = "json"
)

// ParseFormat accepts console or json; empty means console
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q", s)
}

// Init initializes the global logger on stderr
func Init(verbose bool, format Format) {
	log.Logger = New(os.Stderr, verbose, format)
	zerolog.SetGlobalLevel(Level(verbose))
}

// New builds a logger writing to w in the given format
func New(w io.Writer, verbose bool, format Format) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if format == FormatConsole {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
			NoColor:    w != os.Stderr,
		}
	}

	return zerolog.New(w).Level(Level(verbose)).With().Timestamp().Logger()
}

// Level maps the verbose flag to a zerolog level
func Level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// WithComponent creates a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
