// Package tenant resolves the organization scope attached to outbound
// requests of the multi-account mail client.
package tenant

import (
	"context"
	"sync"
)

// Provider reports the currently selected organization. Implementations read
// from wherever the application persists the selection; an empty id with a
// nil error means no organization is selected.
type Provider interface {
	SelectedOrganizationID(ctx context.Context) (string, error)
}

// ctxKey keeps tenant context keys from colliding with external packages.
type ctxKey string

const organizationKey ctxKey = "organization_id"

// WithOrganization stores an organization identifier in the context. A
// context-carried id overrides the Provider for that request.
func WithOrganization(ctx context.Context, orgID string) context.Context {
	if orgID == "" {
		return ctx
	}
	return context.WithValue(ctx, organizationKey, orgID)
}

// OrganizationFromContext extracts the organization identifier from the
// context.
func OrganizationFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	orgID, ok := ctx.Value(organizationKey).(string)
	if !ok || orgID == "" {
		return "", false
	}
	return orgID, true
}

// Static is a Provider holding a switchable organization id. The UI calls
// Select on organization switch; requests in flight keep reading the value
// they started with only if they captured it, which the client deliberately
// does not do.
type Static struct {
	mu    sync.RWMutex
	orgID string
}

var _ Provider = (*Static)(nil)

// NewStatic creates a Static provider with an initial selection.
func NewStatic(orgID string) *Static {
	return &Static{orgID: orgID}
}

// SelectedOrganizationID returns the current selection.
func (s *Static) SelectedOrganizationID(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orgID, nil
}

// Select switches the current organization. Empty clears the selection.
func (s *Static) Select(orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgID = orgID
}
