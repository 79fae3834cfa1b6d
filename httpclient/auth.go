package httpclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/plumemail/netkit/credentials"
	"github.com/plumemail/netkit/logger"
	"github.com/plumemail/netkit/tenant"
)

// authStage injects the bearer token and the organization header into
// outbound requests. It holds no token of its own: the store is re-read on
// every request, so a refresh or logout anywhere in the application is
// immediately visible to all in-flight traffic.
type authStage struct {
	store     credentials.Store
	tenants   tenant.Provider
	orgHeader string
	skipPaths []string
	log       logger.Logger
}

func newAuthStage(store credentials.Store, tenants tenant.Provider, orgHeader string, extraSkipPaths []string, log logger.Logger) *authStage {
	skipPaths := make([]string, 0, len(defaultSkipAuthPaths)+len(extraSkipPaths))
	skipPaths = append(skipPaths, defaultSkipAuthPaths...)
	skipPaths = append(skipPaths, extraSkipPaths...)
	return &authStage{
		store:     store,
		tenants:   tenants,
		orgHeader: orgHeader,
		skipPaths: skipPaths,
		log:       log,
	}
}

// exempt reports whether the path matches the skip list. Substring match:
// the mail API mounts auth endpoints under versioned prefixes.
func (a *authStage) exempt(path string) bool {
	for _, skip := range a.skipPaths {
		if strings.Contains(path, skip) {
			return true
		}
	}
	return false
}

// intercept is the RequestInterceptor registered in the client's chain.
// A missing token is not an error: the request proceeds unauthenticated and
// the server rejects it.
func (a *authStage) intercept(ctx context.Context, req *http.Request) error {
	flags := requestFlagsFrom(ctx)
	exempt := a.exempt(req.URL.Path)

	if !flags.skipAuth && !exempt {
		token, err := a.store.AccessToken(ctx)
		if err != nil {
			a.log.Debug().Err(err).Msg("credential store read failed; sending unauthenticated")
		} else if token != "" {
			req.Header.Set(HeaderAuthorization, "Bearer "+token)
		}
	}

	if !flags.skipTenant && !exempt {
		if orgID := a.organizationID(ctx); orgID != "" {
			req.Header.Set(a.orgHeader, orgID)
		}
	}
	return nil
}

// organizationID prefers a context-carried organization over the provider's
// persisted selection.
func (a *authStage) organizationID(ctx context.Context) string {
	if orgID, ok := tenant.OrganizationFromContext(ctx); ok {
		return orgID
	}
	if a.tenants == nil {
		return ""
	}
	orgID, err := a.tenants.SelectedOrganizationID(ctx)
	if err != nil {
		a.log.Debug().Err(err).Msg("tenant provider read failed; omitting organization header")
		return ""
	}
	return orgID
}
