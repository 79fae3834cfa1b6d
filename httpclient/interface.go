// Package httpclient is the resilience layer wrapped around the standard
// HTTP transport: it attaches authentication to every outbound request,
// refreshes expired credentials behind a single-flight guard, retries
// transient failures with capped exponential backoff, caches idempotent
// responses, and classifies whatever still fails into a closed error
// taxonomy with user-ready messages.
package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Header names used by the client.
const (
	HeaderAuthorization  = "Authorization"
	HeaderOrganizationID = "X-Organization-Id"
)

// defaultSkipAuthPaths are the path substrings exempted from auth-header
// injection and from refresh handling. Requests to these endpoints either
// bootstrap a session or must never trigger a refresh loop.
var defaultSkipAuthPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/refresh",
	"/auth/logout",
	"/auth/forgot-password",
	"/auth/reset-password",
	"/health",
	"/public",
}

// Client is the single entry point for outbound requests. Every call runs
// the full pipeline: self-healing guard, auth stage, cache, retry, transport
// and classification. Failures are always one of the ClientError kinds.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
}

// Request describes one logical outbound request. Created per call and never
// reused; the client re-builds the wire request for every attempt.
type Request struct {
	// Path is resolved against the client's base URL.
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte

	// SkipAuth suppresses bearer-header injection and refresh handling for
	// this request regardless of path.
	SkipAuth bool
	// SkipTenant suppresses the organization header for this request.
	SkipTenant bool
	// NoCache bypasses the response cache for a GET.
	NoCache bool
}

// Stats carries execution metadata alongside a response.
type Stats struct {
	// ElapsedTime is the total wall time across all attempts.
	ElapsedTime time.Duration
	// Attempts is the number of transport calls made, including the 401
	// replay when one happened.
	Attempts int
	// FromCache is true when the response was served without a transport
	// call.
	FromCache bool
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	Stats      Stats

	// status is the transport status line, kept for message resolution.
	status string
}

// RequestInterceptor runs against the wire request before dispatch. The auth
// stage is installed as one of these; applications can add their own.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// Config holds the client configuration. Zero values select the documented
// defaults.
type Config struct {
	// BaseURL prefixes every request path. Required.
	BaseURL string

	// Timeout bounds each transport attempt (connect through body read).
	// It does not cover retry backoff, which is additive.
	Timeout time.Duration

	// Retry policy knobs; see RetryPolicy.
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Response cache knobs. CachePathTTLs maps a path substring to a
	// shorter TTL for fast-changing endpoints.
	CacheTTL        time.Duration
	CacheMaxEntries int
	CachePathTTLs   map[string]time.Duration

	// RefreshPath is the endpoint the refresh coordinator posts the stored
	// refresh token to. Resolved against BaseURL.
	RefreshPath string
	// RefreshTimeout bounds the refresh call; defaults to Timeout.
	RefreshTimeout time.Duration

	// SkipAuthPaths extends the built-in skip list.
	SkipAuthPaths []string

	// OrganizationHeader overrides the tenant header name.
	OrganizationHeader string

	// DefaultHeaders are applied to every request before per-request
	// headers.
	DefaultHeaders map[string]string

	// OnSessionExpired is invoked exactly once per failed refresh, after
	// credentials are cleared. The UI redirects to login from here.
	OnSessionExpired func()

	// LogPayloads enables debug-level logging of request/response bodies,
	// capped at MaxPayloadLogBytes.
	LogPayloads        bool
	MaxPayloadLogBytes int

	// Transport overrides the underlying round tripper. Tests inject fakes
	// here; production leaves it nil for http.DefaultTransport.
	Transport http.RoundTripper
}

// Config defaults.
const (
	DefaultTimeout            = 30 * time.Second
	DefaultRefreshPath        = "/auth/refresh"
	DefaultMaxPayloadLogBytes = 2048
)

// withDefaults returns a copy of cfg with defaults applied.
func (cfg Config) withDefaults() Config {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = cfg.Timeout
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = DefaultRefreshPath
	}
	if cfg.OrganizationHeader == "" {
		cfg.OrganizationHeader = HeaderOrganizationID
	}
	if cfg.MaxPayloadLogBytes <= 0 {
		cfg.MaxPayloadLogBytes = DefaultMaxPayloadLogBytes
	}
	return cfg
}

// flagsKey carries the per-request auth flags to the interceptor chain
// through context, keeping the RequestInterceptor signature transport-shaped.
type flagsKey struct{}

type requestFlags struct {
	skipAuth   bool
	skipTenant bool
}

func withRequestFlags(ctx context.Context, flags requestFlags) context.Context {
	return context.WithValue(ctx, flagsKey{}, flags)
}

func requestFlagsFrom(ctx context.Context) requestFlags {
	flags, _ := ctx.Value(flagsKey{}).(requestFlags)
	return flags
}
