package httpclient

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindIdentification(t *testing.T) {
	tests := []struct {
		name     string
		err      ClientError
		expected ErrorKind
	}{
		{"timeout", NewTimeoutError("slow", time.Second, nil), KindTimeout},
		{"server", NewServerError(500, "boom", nil), KindServer},
		{"cancelled", NewCancelledError(nil), KindCancelled},
		{"connection", NewConnectionError("down", nil), KindConnection},
		{"certificate", NewCertificateError(nil), KindCertificate},
		{"unknown", NewUnknownError("odd", nil), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Kind())
			assert.True(t, IsKind(tt.err, tt.expected))
			assert.NotEmpty(t, tt.err.Message())
		})
	}
}

func TestIsKind(t *testing.T) {
	assert.False(t, IsKind(nil, KindServer))
	assert.False(t, IsKind(errors.New("plain"), KindServer))
	assert.False(t, IsKind(NewTimeoutError("t", 0, nil), KindServer))
}

func TestErrorFormatting(t *testing.T) {
	t.Run("timeout includes duration and cause", func(t *testing.T) {
		err := NewTimeoutError("receive timed out", 30*time.Second, errors.New("i/o timeout"))
		assert.Contains(t, err.Error(), "timeout error")
		assert.Contains(t, err.Error(), "30s")
		assert.Contains(t, err.Error(), "i/o timeout")
	})

	t.Run("server includes status", func(t *testing.T) {
		err := NewServerError(503, "unavailable", []byte("body"))
		assert.Contains(t, err.Error(), "503")
		assert.Contains(t, err.Error(), "unavailable")
	})

	t.Run("connection wraps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewConnectionError("cannot reach server", cause)
		assert.Contains(t, err.Error(), "connection refused")
		assert.True(t, errors.Is(err, cause))
	})
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("root cause")

	for _, err := range []error{
		NewTimeoutError("t", 0, cause),
		NewCancelledError(cause),
		NewConnectionError("c", cause),
		NewCertificateError(cause),
		NewUnknownError("u", cause),
	} {
		assert.True(t, errors.Is(err, cause), "expected %T to unwrap to cause", err)
	}
}

func TestStatusCodeOf(t *testing.T) {
	status, ok := StatusCodeOf(NewServerError(404, "missing", nil))
	assert.True(t, ok)
	assert.Equal(t, 404, status)

	_, ok = StatusCodeOf(NewConnectionError("down", nil))
	assert.False(t, ok)

	_, ok = StatusCodeOf(nil)
	assert.False(t, ok)
}

func TestServerErrorBodyAccess(t *testing.T) {
	body := []byte(`{"error":"invalid"}`)
	err := NewServerError(400, "invalid", body)

	accessor, ok := err.(interface{ Body() []byte })
	assert.True(t, ok)
	assert.Equal(t, body, accessor.Body())
}

func TestIsSuccessStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{300, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsSuccessStatus(tt.status), "status %d", tt.status)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"connection error", NewConnectionError("down", nil), true},
		{"timeout", NewTimeoutError("slow", 0, nil), true},
		{"server 408", NewServerError(408, "", nil), true},
		{"server 429", NewServerError(429, "", nil), true},
		{"server 500", NewServerError(500, "", nil), true},
		{"server 502", NewServerError(502, "", nil), true},
		{"server 503", NewServerError(503, "", nil), true},
		{"server 504", NewServerError(504, "", nil), true},
		{"server 400", NewServerError(400, "", nil), false},
		{"server 401", NewServerError(401, "", nil), false},
		{"server 404", NewServerError(404, "", nil), false},
		{"server 501", NewServerError(501, "", nil), false},
		{"cancelled", NewCancelledError(nil), false},
		{"certificate", NewCertificateError(nil), false},
		{"unknown", NewUnknownError("odd", nil), false},
		{"plain error", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsOffline(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"dns failure", NewConnectionError("m", errors.New("lookup api.example: no such host")), true},
		{"unreachable", NewConnectionError("m", errors.New("connect: network is unreachable")), true},
		{"no route", NewConnectionError("m", errors.New("connect: no route to host")), true},
		{"refused is not offline", NewConnectionError("m", errors.New("connect: connection refused")), false},
		{"timeout is not offline", NewTimeoutError("m", 0, nil), false},
		{"plain error", errors.New("no such host"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOffline(tt.err))
		})
	}
}
