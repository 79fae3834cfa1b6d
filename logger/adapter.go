package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// eventAdapter adapts a zerolog.Event to the LogEvent interface, applying
// redaction to string and interface fields.
type eventAdapter struct {
	event    *zerolog.Event
	redactor *Redactor
}

func (e *eventAdapter) Msg(msg string) {
	e.event.Msg(msg)
}

func (e *eventAdapter) Msgf(format string, args ...any) {
	e.event.Msgf(format, args...)
}

func (e *eventAdapter) Err(err error) LogEvent {
	return &eventAdapter{event: e.event.Err(err), redactor: e.redactor}
}

func (e *eventAdapter) Str(key, value string) LogEvent {
	if e.redactor != nil {
		value = e.redactor.String(key, value)
	}
	return &eventAdapter{event: e.event.Str(key, value), redactor: e.redactor}
}

func (e *eventAdapter) Int(key string, value int) LogEvent {
	return &eventAdapter{event: e.event.Int(key, value), redactor: e.redactor}
}

func (e *eventAdapter) Int64(key string, value int64) LogEvent {
	return &eventAdapter{event: e.event.Int64(key, value), redactor: e.redactor}
}

func (e *eventAdapter) Bool(key string, value bool) LogEvent {
	return &eventAdapter{event: e.event.Bool(key, value), redactor: e.redactor}
}

func (e *eventAdapter) Dur(key string, d time.Duration) LogEvent {
	return &eventAdapter{event: e.event.Dur(key, d), redactor: e.redactor}
}

func (e *eventAdapter) Bytes(key string, val []byte) LogEvent {
	if e.redactor != nil {
		val = e.redactor.Bytes(key, val)
	}
	return &eventAdapter{event: e.event.Bytes(key, val), redactor: e.redactor}
}

func (e *eventAdapter) Interface(key string, i any) LogEvent {
	if e.redactor != nil {
		i = e.redactor.Value(key, i)
	}
	return &eventAdapter{event: e.event.Interface(key, i), redactor: e.redactor}
}
