package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. Development output is
// human-readable; everything else is JSON on stdout.
func Setup(level string, development bool) zerolog.Logger {
	return setup(os.Stdout, level, development)
}

func setup(out io.Writer, level string, development bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if development {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "forklifttracker").Logger()
	// log.Ctx falls back to the global logger outside request scope.
	zerolog.DefaultContextLogger = &log.Logger

	if err != nil {
		log.Warn().Str("level", level).Msg("Unknown LOG_LEVEL, defaulting to info")
	}
	return log.Logger
}
