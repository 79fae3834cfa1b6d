package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger wraps zerolog.Logger behind the Logger interface. All token and
// authorization material passing through field methods is masked by the
// redactor before it reaches the output stream.
type ZeroLogger struct {
	zlog     *zerolog.Logger
	redactor *Redactor
}

var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger writing to stdout at the given level. If pretty is
// true the output is console-formatted for human reading.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithWriter(level, pretty, os.Stdout)
}

// NewWithWriter creates a ZeroLogger writing to the given writer. Tests use
// this to capture output.
func NewWithWriter(level string, pretty bool, w io.Writer) *ZeroLogger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).With().Timestamp().Logger()

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, redactor: NewRedactor(nil)}
}

// WithRedactor returns a logger using the provided redactor instead of the
// default one.
func (l *ZeroLogger) WithRedactor(r *Redactor) *ZeroLogger {
	return &ZeroLogger{zlog: l.zlog, redactor: r}
}

// WithFields returns a logger with additional fields attached to every entry.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.redactor != nil {
		fields = l.redactor.Fields(fields)
	}
	zl := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &zl, redactor: l.redactor}
}

// Debug creates a debug-level log event.
func (l *ZeroLogger) Debug() LogEvent {
	return &eventAdapter{event: l.zlog.Debug(), redactor: l.redactor}
}

// Info creates an info-level log event.
func (l *ZeroLogger) Info() LogEvent {
	return &eventAdapter{event: l.zlog.Info(), redactor: l.redactor}
}

// Warn creates a warn-level log event.
func (l *ZeroLogger) Warn() LogEvent {
	return &eventAdapter{event: l.zlog.Warn(), redactor: l.redactor}
}

// Error creates an error-level log event.
func (l *ZeroLogger) Error() LogEvent {
	return &eventAdapter{event: l.zlog.Error(), redactor: l.redactor}
}
