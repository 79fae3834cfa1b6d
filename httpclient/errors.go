package httpclient

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind is the closed taxonomy every client failure maps into. Callers
// branch on the kind, never on error strings.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindServer
	KindCancelled
	KindConnection
	KindCertificate
)

// String returns the kind name for logging.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindCancelled:
		return "cancelled"
	case KindConnection:
		return "connection"
	case KindCertificate:
		return "certificate"
	default:
		return "unknown"
	}
}

// ClientError is the error surface of the client. Message returns text safe
// to show to an end user; Error carries the diagnostic detail.
type ClientError interface {
	error
	Kind() ErrorKind
	Message() string
}

type timeoutError struct {
	message string
	timeout time.Duration
	wrapped error
}

func (e *timeoutError) Kind() ErrorKind { return KindTimeout }
func (e *timeoutError) Message() string { return e.message }
func (e *timeoutError) Unwrap() error   { return e.wrapped }

func (e *timeoutError) Error() string {
	s := "timeout error"
	if e.timeout > 0 {
		s = fmt.Sprintf("%s after %s", s, e.timeout)
	}
	if e.wrapped != nil {
		s = fmt.Sprintf("%s: %v", s, e.wrapped)
	}
	return s
}

type serverError struct {
	status  int
	message string
	body    []byte
}

func (e *serverError) Kind() ErrorKind { return KindServer }
func (e *serverError) Message() string { return e.message }
func (e *serverError) StatusCode() int { return e.status }
func (e *serverError) Body() []byte    { return e.body }

func (e *serverError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.status, e.message)
}

type cancelledError struct {
	wrapped error
}

func (e *cancelledError) Kind() ErrorKind { return KindCancelled }
func (e *cancelledError) Message() string { return "Request was cancelled." }
func (e *cancelledError) Unwrap() error   { return e.wrapped }

func (e *cancelledError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("request cancelled: %v", e.wrapped)
	}
	return "request cancelled"
}

type connectionError struct {
	message string
	wrapped error
}

func (e *connectionError) Kind() ErrorKind { return KindConnection }
func (e *connectionError) Message() string { return e.message }
func (e *connectionError) Unwrap() error   { return e.wrapped }

func (e *connectionError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("connection error: %v", e.wrapped)
	}
	return "connection error: " + e.message
}

type certificateError struct {
	wrapped error
}

func (e *certificateError) Kind() ErrorKind { return KindCertificate }
func (e *certificateError) Unwrap() error   { return e.wrapped }

func (e *certificateError) Message() string {
	return "Secure connection failed. The server's certificate could not be verified."
}

func (e *certificateError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("certificate error: %v", e.wrapped)
	}
	return "certificate error"
}

type unknownError struct {
	message string
	wrapped error
}

func (e *unknownError) Kind() ErrorKind { return KindUnknown }
func (e *unknownError) Message() string { return e.message }
func (e *unknownError) Unwrap() error   { return e.wrapped }

func (e *unknownError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("unknown error: %v", e.wrapped)
	}
	return "unknown error: " + e.message
}

// NewTimeoutError creates a KindTimeout error. timeout is the attempt bound
// that was exceeded, zero when not applicable.
func NewTimeoutError(message string, timeout time.Duration, cause error) ClientError {
	return &timeoutError{message: message, timeout: timeout, wrapped: cause}
}

// NewServerError creates a KindServer error carrying the HTTP status and the
// raw response body.
func NewServerError(status int, message string, body []byte) ClientError {
	return &serverError{status: status, message: message, body: body}
}

// NewCancelledError creates a KindCancelled error.
func NewCancelledError(cause error) ClientError {
	return &cancelledError{wrapped: cause}
}

// NewConnectionError creates a KindConnection error.
func NewConnectionError(message string, cause error) ClientError {
	return &connectionError{message: message, wrapped: cause}
}

// NewCertificateError creates a KindCertificate error.
func NewCertificateError(cause error) ClientError {
	return &certificateError{wrapped: cause}
}

// NewUnknownError creates a KindUnknown error.
func NewUnknownError(message string, cause error) ClientError {
	return &unknownError{message: message, wrapped: cause}
}

// IsKind reports whether err is a ClientError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce ClientError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind() == kind
}

// StatusCodeOf extracts the HTTP status from a server error.
func StatusCodeOf(err error) (int, bool) {
	var se *serverError
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.status, true
}

// IsSuccessStatus reports whether status is in the 2xx range.
func IsSuccessStatus(status int) bool {
	return status >= 200 && status <= 299
}

// retryableStatuses are the server responses worth retrying: the request
// timed out, was throttled, or hit a transient upstream failure.
var retryableStatuses = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// IsRetryable reports whether err is worth retrying. Connection and timeout
// failures always are; server errors only for the retryable status set.
// Cancellation, certificate failures and unknown errors never retry.
func IsRetryable(err error) bool {
	var ce ClientError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Kind() {
	case KindConnection, KindTimeout:
		return true
	case KindServer:
		status, _ := StatusCodeOf(ce)
		return retryableStatuses[status]
	}
	return false
}

// offlineMarkers are the cause substrings that indicate the device has no
// network at all, as opposed to the server being down.
var offlineMarkers = []string{
	"no such host",
	"network is unreachable",
	"no route to host",
}

// IsOffline reports whether err looks like the device itself lost
// connectivity. The UI switches to offline mode on these.
func IsOffline(err error) bool {
	var ce *connectionError
	if !errors.As(err, &ce) {
		return false
	}
	detail := ce.Error()
	for _, marker := range offlineMarkers {
		if strings.Contains(detail, marker) {
			return true
		}
	}
	return false
}
