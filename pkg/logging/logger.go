// Package logging sets up zerolog for the sightings client and CLI.
//
// Request and background logs carry the observation they concern, so the
// usual pattern is to tag a context once and let everything below it log
// through it:
//
//	ctx = logging.WithObservation(logging.WithLogger(ctx, logger), uuid)
//	logging.FromContext(ctx).Debug().Msg("Marking viewed")
//
// The package default reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT and NO_COLOR,
// so library users get sensible output without calling Configure.
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger zerolog.Logger

func init() {
	defaultLogger = NewLoggerFromConfig(EnvConfig())
}

// Default returns the package-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the package-wide logger, and zerolog's global one
// with it.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Info logs at info level on the default logger.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn logs at warn level on the default logger.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Err logs err on the default logger, at error level when non-nil.
func Err(err error) *zerolog.Event {
	return defaultLogger.Err(err)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
