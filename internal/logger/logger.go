package logger

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines a standard interface for logging.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// ZerologLogger is a wrapper around zerolog.
type ZerologLogger struct {
	zl zerolog.Logger
}

// New creates a logger with the given level and format ("console" or "json").
// Unknown levels fall back to info.
func New(level, format string, out io.Writer) *ZerologLogger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	return &ZerologLogger{
		zl: zerolog.New(out).Level(lvl).With().Timestamp().Logger(),
	}
}

// Debugf logs a message at the debug level.
func (l *ZerologLogger) Debugf(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

// Infof logs a message at the info level.
func (l *ZerologLogger) Infof(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

// Warnf logs a message at the warn level.
func (l *ZerologLogger) Warnf(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
}

// Errorf logs a message at the error level.
func (l *ZerologLogger) Errorf(format string, v ...interface{}) {
	l.zl.Error().Msgf(format, v...)
}
