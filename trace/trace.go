// Package trace carries request identifiers through context so every
// outbound call can be correlated with the UI action that triggered it.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// ctxKey keeps trace context keys from colliding with other packages.
type ctxKey string

const requestIDKey ctxKey = "request_id"

// HeaderRequestID is the header used to propagate the request identifier.
const HeaderRequestID = "X-Request-ID"

// WithRequestID stores a request identifier in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request identifier from the context, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// EnsureRequestID returns the context's request identifier, generating a new
// one when absent.
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}
