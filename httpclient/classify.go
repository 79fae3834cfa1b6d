package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// User-facing messages for transport-level failures.
const (
	msgTimeout           = "Request timed out. Please check your connection and try again."
	msgConnectionGeneric = "Cannot connect to the server. Please check your connection."
	msgDNSFailure        = "Cannot reach the server. Please check your internet connection."
	msgRefused           = "The server refused the connection. Please try again later."
	msgUnreachable       = "Network is unreachable. Please check your internet connection."
	msgGenericNetwork    = "A network error occurred. Please try again."
	msgGenericUnknown    = "Something went wrong. Please try again."
)

// statusMessages are the built-in user-facing messages per HTTP status, used
// when the response body carries nothing better.
var statusMessages = map[int]string{
	400: "Invalid request. Please check your input.",
	401: "Your session has expired. Please sign in again.",
	403: "You don't have permission to perform this action.",
	404: "The requested resource was not found.",
	405: "This action is not supported.",
	408: "The request timed out. Please try again.",
	409: "This conflicts with the current state. Please refresh and try again.",
	410: "The requested resource is no longer available.",
	413: "The attachment is too large.",
	415: "This file type is not supported.",
	422: "The request could not be processed. Please check your input.",
	425: "The server is not ready to process this request. Please try again.",
	429: "Too many requests. Please wait a moment and try again.",
	500: "Server error. Please try again later.",
	501: "This feature is not available.",
	502: "The mail server is temporarily unreachable. Please try again.",
	503: "The service is temporarily unavailable. Please try again later.",
	504: "The server took too long to respond. Please try again.",
}

// Classify maps an arbitrary error into the ClientError taxonomy. Errors that
// already are ClientErrors pass through unchanged; nil stays nil.
func Classify(err error) ClientError {
	if err == nil {
		return nil
	}
	var ce ClientError
	if errors.As(err, &ce) {
		return ce
	}
	return classifyTransportError(err, 0)
}

// classifyTransportError maps a transport-level failure. Check order matters:
// cancellation first (a cancelled dial also looks like a net error), then
// timeouts, then certificate failures (which would otherwise match the
// generic net error types), then connection failures.
func classifyTransportError(err error, timeout time.Duration) ClientError {
	if errors.Is(err, context.Canceled) {
		return NewCancelledError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(msgTimeout, timeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(msgTimeout, timeout, err)
	}
	if isCertificateError(err) {
		return NewCertificateError(err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NewConnectionError(msgDNSFailure, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NewConnectionError(connectionMessage(err), err)
	}

	if containsAny(err.Error(), []string{"socket", "broken pipe", "connection", "network", "EOF"}) {
		return NewUnknownError(msgGenericNetwork, err)
	}
	return NewUnknownError(msgGenericUnknown, err)
}

// isCertificateError detects TLS verification failures. Typed checks run
// first: some x509 error types panic in Error() when constructed without a
// certificate, so the string fallback only runs on errors the typed checks
// did not match.
func isCertificateError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		certInvalid      x509.CertificateInvalidError
		tlsVerify        *tls.CertificateVerificationError
	)
	if errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &certInvalid) ||
		errors.As(err, &tlsVerify) {
		return true
	}
	return containsAny(err.Error(), []string{"x509:", "tls: failed to verify", "certificate"})
}

// connectionMessage picks the user message for a connection failure based on
// the underlying cause.
func connectionMessage(err error) string {
	detail := err.Error()
	switch {
	case containsAny(detail, []string{"no such host", "lookup "}):
		return msgDNSFailure
	case strings.Contains(detail, "connection refused"):
		return msgRefused
	case containsAny(detail, []string{"network is unreachable", "no route to host"}):
		return msgUnreachable
	default:
		return msgConnectionGeneric
	}
}

// ClassifyResponse maps a non-2xx HTTP response into a server error, mining
// the body for the most specific user-facing message available.
func ClassifyResponse(status int, body []byte, statusLine string) ClientError {
	return NewServerError(status, resolveServerMessage(status, body, statusLine), body)
}

// maxPlainTextMessage caps how much of a plain-text body is surfaced.
const maxPlainTextMessage = 200

// messageFields are the top-level JSON fields checked for a message, in
// priority order.
var messageFields = []string{"message", "error", "detail", "msg"}

// resolveServerMessage resolves the user message for a failed response.
// Resolution order: structured body fields, then readable plain text, then
// the transport status line, then the built-in per-status messages.
func resolveServerMessage(status int, body []byte, statusLine string) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			if msg := messageFromPayload(payload); msg != "" {
				return msg
			}
		} else if isPrintable(trimmed) {
			if len(trimmed) > maxPlainTextMessage {
				trimmed = trimmed[:maxPlainTextMessage]
			}
			return trimmed
		}
	}
	if statusLine != "" {
		return statusLine
	}
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return defaultStatusMessage(status)
}

// messageFromPayload extracts a message from a decoded JSON error body. It
// checks the well-known top-level fields, then the nested "error" and "data"
// objects, then the first element of an "errors" array.
func messageFromPayload(payload map[string]any) string {
	for _, field := range messageFields {
		if msg, ok := payload[field].(string); ok && msg != "" {
			return msg
		}
	}
	for _, key := range []string{"error", "data"} {
		if nested, ok := payload[key].(map[string]any); ok {
			for _, field := range messageFields {
				if msg, ok := nested[field].(string); ok && msg != "" {
					return msg
				}
			}
		}
	}
	if errs, ok := payload["errors"].([]any); ok && len(errs) > 0 {
		switch first := errs[0].(type) {
		case string:
			return first
		case map[string]any:
			for _, field := range messageFields {
				if msg, ok := first[field].(string); ok && msg != "" {
					return msg
				}
			}
		}
	}
	return ""
}

// defaultStatusMessage is the last-resort message for statuses outside the
// built-in map.
func defaultStatusMessage(status int) string {
	switch {
	case status >= 400 && status < 500:
		return "Request failed. Please check your input and try again."
	case status >= 500 && status < 600:
		return "Server error. Please try again later."
	default:
		return "Request failed. Please try again."
	}
}

// isPrintable reports whether s is readable text rather than binary data.
func isPrintable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
