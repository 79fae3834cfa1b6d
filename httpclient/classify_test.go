package httpclient

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetError struct {
	msg       string
	isTimeout bool
}

func (e *fakeNetError) Error() string   { return e.msg }
func (e *fakeNetError) Timeout() bool   { return e.isTimeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyPassesThroughClientErrors(t *testing.T) {
	original := NewServerError(418, "teapot", nil)
	assert.Same(t, original.(*serverError), Classify(original).(*serverError))
}

func TestClassifyTransportErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{"context cancelled", context.Canceled, KindCancelled},
		{"wrapped cancellation", &net.OpError{Op: "read", Err: context.Canceled}, KindCancelled},
		{"context deadline", context.DeadlineExceeded, KindTimeout},
		{"net timeout", &fakeNetError{msg: "i/o timeout", isTimeout: true}, KindTimeout},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "api.example"}, KindConnection},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, KindConnection},
		{"unknown authority", x509.UnknownAuthorityError{}, KindCertificate},
		{"hostname mismatch", x509.HostnameError{Host: "api.example"}, KindCertificate},
		{"unclassified", errors.New("something odd"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := Classify(tt.err)
			require.NotNil(t, ce)
			assert.Equal(t, tt.expected, ce.Kind())
			assert.NotEmpty(t, ce.Message())
		})
	}
}

func TestConnectionSubClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "dns",
			err:      &net.OpError{Op: "dial", Err: errors.New("lookup api.example: no such host")},
			expected: msgDNSFailure,
		},
		{
			name:     "refused",
			err:      &net.OpError{Op: "dial", Err: errors.New("connect: connection refused")},
			expected: msgRefused,
		},
		{
			name:     "unreachable",
			err:      &net.OpError{Op: "dial", Err: errors.New("connect: network is unreachable")},
			expected: msgUnreachable,
		},
		{
			name:     "generic",
			err:      &net.OpError{Op: "read", Err: errors.New("connection reset by peer")},
			expected: msgConnectionGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := Classify(tt.err)
			assert.Equal(t, KindConnection, ce.Kind())
			assert.Equal(t, tt.expected, ce.Message())
		})
	}
}

func TestUnknownErrorRewriting(t *testing.T) {
	t.Run("socket detail becomes generic network message", func(t *testing.T) {
		ce := Classify(errors.New("write: broken pipe on socket 42"))
		assert.Equal(t, KindUnknown, ce.Kind())
		assert.Equal(t, msgGenericNetwork, ce.Message())
	})

	t.Run("non-network detail stays generic", func(t *testing.T) {
		ce := Classify(errors.New("payload validation exploded"))
		assert.Equal(t, KindUnknown, ce.Kind())
		assert.NotContains(t, ce.Message(), "exploded")
	})
}

func TestClassifyResponseMessageResolution(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		statusLine string
		expected   string
	}{
		{
			name:     "top-level message",
			status:   400,
			body:     `{"message": "Subject is required"}`,
			expected: "Subject is required",
		},
		{
			name:     "top-level error",
			status:   400,
			body:     `{"error": "Unknown folder"}`,
			expected: "Unknown folder",
		},
		{
			name:     "top-level detail",
			status:   400,
			body:     `{"detail": "Attachment missing"}`,
			expected: "Attachment missing",
		},
		{
			name:     "top-level msg",
			status:   400,
			body:     `{"msg": "Too short"}`,
			expected: "Too short",
		},
		{
			name:     "nested error message",
			status:   422,
			body:     `{"error": {"message": "Recipient rejected"}}`,
			expected: "Recipient rejected",
		},
		{
			name:     "nested error detail",
			status:   422,
			body:     `{"error": {"detail": "Quota exceeded"}}`,
			expected: "Quota exceeded",
		},
		{
			name:     "nested data message",
			status:   422,
			body:     `{"success": false, "code": 422, "data": {"message": "Invalid recipient"}}`,
			expected: "Invalid recipient",
		},
		{
			name:     "errors array of strings",
			status:   422,
			body:     `{"errors": ["First problem", "Second problem"]}`,
			expected: "First problem",
		},
		{
			name:     "errors array of objects",
			status:   422,
			body:     `{"errors": [{"message": "Field invalid"}]}`,
			expected: "Field invalid",
		},
		{
			name:     "plain text body",
			status:   500,
			body:     "upstream exploded",
			expected: "upstream exploded",
		},
		{
			name:       "status line fallback",
			status:     404,
			body:       "",
			statusLine: "404 Not Found",
			expected:   "404 Not Found",
		},
		{
			name:     "built-in default",
			status:   503,
			body:     "",
			expected: statusMessages[503],
		},
		{
			name:     "json with no usable field falls to default",
			status:   500,
			body:     `{"code": 500}`,
			expected: statusMessages[500],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := ClassifyResponse(tt.status, []byte(tt.body), tt.statusLine)
			assert.Equal(t, KindServer, ce.Kind())
			assert.Equal(t, tt.expected, ce.Message())

			status, ok := StatusCodeOf(ce)
			assert.True(t, ok)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestDefaultStatusMessages(t *testing.T) {
	// Explicit entries cover the 400-504 range the client cares about.
	for _, status := range []int{400, 401, 403, 404, 405, 408, 409, 410, 413, 415, 422, 425, 429, 500, 501, 502, 503, 504} {
		assert.NotEmpty(t, statusMessages[status], "status %d", status)
	}

	assert.Equal(t, "Request failed. Please check your input and try again.", defaultStatusMessage(418))
	assert.Equal(t, "Server error. Please try again later.", defaultStatusMessage(599))
	assert.Equal(t, "Request failed. Please try again.", defaultStatusMessage(302))
}

func TestPlainTextMessageCapped(t *testing.T) {
	long := make([]byte, maxPlainTextMessage*2)
	for i := range long {
		long[i] = 'x'
	}

	ce := ClassifyResponse(500, long, "")
	assert.Len(t, ce.Message(), maxPlainTextMessage)
}

func TestBinaryBodyNotSurfaced(t *testing.T) {
	ce := ClassifyResponse(500, []byte{0x89, 0x50, 0x4e, 0x47, 0x00}, "500 Internal Server Error")
	assert.Equal(t, "500 Internal Server Error", ce.Message())
}
