package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/plumemail/netkit/credentials"
	"github.com/plumemail/netkit/logger"
	"github.com/plumemail/netkit/tenant"
	"github.com/plumemail/netkit/trace"
)

// RestClient is the concrete Client. It is constructed explicitly and owns
// its interceptor chain, credential store handle and response cache; there
// is no ambient global instance, so tests build isolated clients.
type RestClient struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	store      credentials.Store
	log        logger.Logger

	chain     *interceptorChain
	auth      *authStage
	refresher *refreshCoordinator
	retry     RetryPolicy
	cache     *responseCache
}

var _ Client = (*RestClient)(nil)

// New creates a RestClient. store is required; tenants and log may be nil
// (no organization header, default logger).
func New(cfg Config, store credentials.Store, tenants tenant.Provider, log logger.Logger) (*RestClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("httpclient: base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("httpclient: invalid base URL: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("httpclient: credential store is required")
	}
	if log == nil {
		log = logger.New("info", false)
	}
	cfg = cfg.withDefaults()

	c := &RestClient{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Transport: cfg.Transport, Timeout: cfg.Timeout},
		store:      store,
		log:        log,
		chain:      &interceptorChain{},
		retry:      NewRetryPolicy(cfg.MaxRetries, cfg.RetryBaseDelay, cfg.RetryMaxDelay),
		cache:      newResponseCache(cfg.CacheMaxEntries, cfg.CacheTTL, cfg.CachePathTTLs),
	}
	c.auth = newAuthStage(store, tenants, cfg.OrganizationHeader, cfg.SkipAuthPaths, log)
	c.refresher = newRefreshCoordinator(store, c.resolveURL(cfg.RefreshPath, nil), cfg.Transport, cfg.RefreshTimeout, cfg.OnSessionExpired, log)
	c.chain.use(AuthInterceptorName, c.auth.intercept)
	return c, nil
}

// Get issues a GET request through the full pipeline.
func (c *RestClient) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodGet, req)
}

// Post issues a POST request through the full pipeline.
func (c *RestClient) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodPost, req)
}

// Put issues a PUT request through the full pipeline.
func (c *RestClient) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodPut, req)
}

// Patch issues a PATCH request through the full pipeline.
func (c *RestClient) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, req)
}

// Delete issues a DELETE request through the full pipeline.
func (c *RestClient) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, req)
}

// Do runs one logical request: guard, auth, cache, transport, refresh and
// retry handling. The returned error, when non-nil, is always a ClientError.
func (c *RestClient) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if req == nil {
		req = &Request{}
	}
	start := time.Now()
	fullURL := c.resolveURL(req.Path, req.Query)

	c.ensureAuthStage(ctx)
	ctx = withRequestFlags(ctx, requestFlags{skipAuth: req.SkipAuth, skipTenant: req.SkipTenant})

	cacheable := method == http.MethodGet && !req.NoCache
	var key string
	if cacheable {
		key = cacheKey(method, fullURL, c.varyHeaders(ctx, req))
		if cached := c.cache.get(key); cached != nil {
			resp := *cached
			resp.Stats = Stats{ElapsedTime: time.Since(start), FromCache: true}
			return &resp, nil
		}
	}

	attempts := 0
	for attempt := 0; ; attempt++ {
		resp, cerr := c.attempt(ctx, method, fullURL, req, &attempts)
		if cerr == nil {
			resp.Stats = Stats{ElapsedTime: time.Since(start), Attempts: attempts}
			if cacheable && IsSuccessStatus(resp.StatusCode) {
				c.cache.put(key, &Response{
					StatusCode: resp.StatusCode,
					Body:       resp.Body,
					Headers:    resp.Headers,
				}, c.cache.ttlFor(req.Path))
			}
			if isMutating(method) && IsSuccessStatus(resp.StatusCode) && req.Path != "" {
				c.cache.invalidate(req.Path)
			}
			return resp, nil
		}

		if !c.retry.ShouldRetry(cerr, attempt) {
			return nil, cerr
		}
		delay := c.retry.Delay(attempt)
		c.log.Debug().
			Str("method", method).
			Str("url", fullURL).
			Str("kind", cerr.Kind().String()).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("retrying request")
		select {
		case <-ctx.Done():
			return nil, NewCancelledError(ctx.Err())
		case <-time.After(delay):
		}
	}
}

// attempt performs one transport call plus, on a 401, the refresh-and-replay
// sequence. attempts counts every transport call made.
func (c *RestClient) attempt(ctx context.Context, method, fullURL string, req *Request, attempts *int) (*Response, ClientError) {
	resp, err := c.send(ctx, method, fullURL, req, *attempts)
	*attempts++
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, NewCancelledError(ctx.Err())
		}
		return nil, classifyTransportError(err, c.cfg.Timeout)
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.SkipAuth && !c.auth.exempt(req.Path) {
		replay, refreshed, rerr := c.replayAfterRefresh(ctx, method, fullURL, req, attempts)
		switch {
		case rerr == nil:
			// The replay's outcome replaces the original 401 entirely.
			resp = replay
		case IsKind(rerr, KindCancelled):
			return nil, rerr.(ClientError)
		case refreshed:
			// Refresh worked but the replay failed at the transport level;
			// that failure is this attempt's outcome.
			return nil, classifyTransportError(rerr, c.cfg.Timeout)
		default:
			// Refresh failed: session is already expired, surface the
			// original 401.
		}
	}

	if resp.StatusCode < 400 {
		return resp, nil
	}
	return nil, ClassifyResponse(resp.StatusCode, resp.Body, resp.status)
}

// replayAfterRefresh drives the single-flight refresh and, on success,
// re-issues the original request once with the fresh token. refreshed
// reports whether the refresh itself succeeded.
func (c *RestClient) replayAfterRefresh(ctx context.Context, method, fullURL string, req *Request, attempts *int) (resp *Response, refreshed bool, err error) {
	if _, err := c.refresher.Refresh(ctx); err != nil {
		return nil, false, err
	}
	c.log.Debug().Str("method", method).Str("url", fullURL).Msg("replaying request after token refresh")
	resp, err = c.send(ctx, method, fullURL, req, *attempts)
	*attempts++
	if err != nil {
		return nil, true, err
	}
	return resp, true, nil
}

// send builds and dispatches one wire request. The request is rebuilt from
// the immutable Request on every call so retries and replays start from a
// clean slate; the interceptor chain then re-reads the current token.
func (c *RestClient) send(ctx context.Context, method, fullURL string, req *Request, attempt int) (*Response, error) {
	var bodyReader io.Reader = http.NoBody
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, err
	}

	for k, v := range c.cfg.DefaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get(trace.HeaderRequestID) == "" {
		httpReq.Header.Set(trace.HeaderRequestID, trace.EnsureRequestID(ctx))
	}

	if err := c.chain.run(ctx, httpReq); err != nil {
		return nil, err
	}

	c.logRequest(method, fullURL, attempt, req.Body)
	sentAt := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	c.logResponse(method, fullURL, httpResp.StatusCode, time.Since(sentAt), body)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
		status:     httpResp.Status,
	}, nil
}

// resolveURL joins the base URL, path and query into the full request URL.
func (c *RestClient) resolveURL(reqPath string, query url.Values) string {
	u := *c.baseURL
	if reqPath != "" {
		u.Path = path.Join(u.Path, reqPath)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// varyHeaders collects the headers that participate in the cache key.
func (c *RestClient) varyHeaders(ctx context.Context, req *Request) map[string]string {
	vary := map[string]string{}
	for _, name := range []string{"Accept", "Accept-Language"} {
		if v, ok := req.Headers[name]; ok {
			vary[name] = v
		}
	}
	if !req.SkipTenant {
		if orgID := c.auth.organizationID(ctx); orgID != "" {
			vary[HeaderOrganizationID] = orgID
		}
	}
	return vary
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Use registers a named request interceptor, replacing any existing one with
// the same name.
func (c *RestClient) Use(name string, fn RequestInterceptor) {
	c.chain.use(name, fn)
}

// RemoveInterceptor deletes a named interceptor, reporting whether it was
// present. Removing the auth stage is survivable: the self-healing guard
// reinstalls it on the next dispatch when credentials exist.
func (c *RestClient) RemoveInterceptor(name string) bool {
	return c.chain.remove(name)
}

// HasInterceptor reports whether a named interceptor is registered.
func (c *RestClient) HasInterceptor(name string) bool {
	return c.chain.has(name)
}

// ClearCache drops every cached response.
func (c *RestClient) ClearCache() {
	c.cache.clear()
}

// InvalidateCache drops cached responses whose key contains the pattern.
// Returns the number of entries removed.
func (c *RestClient) InvalidateCache(pattern string) int {
	return c.cache.invalidate(pattern)
}

// CacheStats returns response cache counters for observability.
func (c *RestClient) CacheStats() map[string]any {
	return c.cache.stats()
}
