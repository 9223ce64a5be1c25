package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets a console writer,
// everything else writes JSON lines to stdout.
func New(appEnv, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(appEnv, "dev") || strings.EqualFold(appEnv, "development") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "agency-portal").Logger()
}
