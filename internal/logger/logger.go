// Package logger builds the zerolog loggers shared by the server and the
// command line tools.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// New returns a console logger writing to stderr.
func New(level string) zerolog.Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter returns a console logger tagged with the executable name and
// build metadata. Unknown levels fall back to info.
func NewWithWriter(level string, out io.Writer) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	l := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Caller().
		Str("service", filepath.Base(os.Args[0])).
		Int("pid", os.Getpid())

	goVersion, revision := build()
	l = l.Str("go_version", goVersion).Str("git_revision", revision)

	logger := l.Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		// No logger exists yet to report this through.
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', defaulting to 'info'\n", level)
		return zerolog.InfoLevel
	}
	return lvl
}

func build() (goVersion, revision string) {
	goVersion, revision = "unknown", "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	goVersion = info.GoVersion
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			revision = s.Value
			break
		}
	}
	return
}
