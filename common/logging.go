package common

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log field keys shared across packages.
const (
	PACKAGE    = "pkg"
	FUNC       = "func"
	COLLECTION = "collection"
	ID         = "id"
	USER       = "user"
	EVENT      = "event"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// ConfigureLogging sets the global zerolog level and output.
func ConfigureLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stderr
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Logger returns a logger tagged with the package name.
func Logger(pkg string) zerolog.Logger {
	return log.With().Str(PACKAGE, pkg).Logger()
}
