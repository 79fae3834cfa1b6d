package httpclient

import (
	"context"
	"net/http"
	"sync"

	"github.com/plumemail/netkit/credentials"
)

// AuthInterceptorName is the chain slot the auth stage is registered under.
// The self-healing guard checks for this name before every dispatch.
const AuthInterceptorName = "auth"

// namedInterceptor pairs an interceptor with its registration name so the
// chain can be inspected and pruned by name.
type namedInterceptor struct {
	name string
	fn   RequestInterceptor
}

// interceptorChain is the ordered set of request interceptors. Application
// lifecycle events can rebuild or clear it, which is exactly the failure the
// self-healing guard compensates for.
type interceptorChain struct {
	mu    sync.RWMutex
	items []namedInterceptor
}

// use appends an interceptor, replacing any existing one with the same name
// in place.
func (c *interceptorChain) use(name string, fn RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.name == name {
			c.items[i].fn = fn
			return
		}
	}
	c.items = append(c.items, namedInterceptor{name: name, fn: fn})
}

// remove deletes the named interceptor, reporting whether it was present.
func (c *interceptorChain) remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.name == name {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// has reports whether the named interceptor is registered.
func (c *interceptorChain) has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.name == name {
			return true
		}
	}
	return false
}

// run executes the chain against the wire request. A snapshot is taken under
// the read lock so concurrent chain mutation cannot corrupt iteration.
func (c *interceptorChain) run(ctx context.Context, req *http.Request) error {
	c.mu.RLock()
	snapshot := make([]namedInterceptor, len(c.items))
	copy(snapshot, c.items)
	c.mu.RUnlock()

	for _, item := range snapshot {
		if err := item.fn(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// ensureAuthStage reinstalls the auth stage when it has gone missing from
// the chain and the store still holds credential material. The check is a
// local presence test; only the reinstall path reads the store, and nothing
// here touches the network.
func (c *RestClient) ensureAuthStage(ctx context.Context) {
	if c.chain.has(AuthInterceptorName) {
		return
	}
	if !credentials.HasTokens(ctx, c.store) {
		return
	}
	c.log.Warn().Msg("auth stage missing from interceptor chain; reinstalling")
	c.chain.use(AuthInterceptorName, c.auth.intercept)
}
