package testutil

import (
	"context"
	"net/http"
	"time"

	"peopleops/pkg/requestcontext"
)

// TenantContext returns a background context scoped to a tenant. This
// simulates what the auth middleware would do for authenticated requests.
func TenantContext(tenantID string) context.Context {
	return requestcontext.WithTenantID(context.Background(), tenantID)
}

// AuthContext returns a background context with both user and tenant set.
func AuthContext(userID, tenantID string) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	return requestcontext.WithTenantID(ctx, tenantID)
}

// WithAuth adds user and tenant identity to a request's context, the
// typical state of an authenticated request.
func WithAuth(req *http.Request, userID, tenantID string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = requestcontext.WithUserID(ctx, userID)
	}
	if tenantID != "" {
		ctx = requestcontext.WithTenantID(ctx, tenantID)
	}
	return req.WithContext(ctx)
}

// WithTime pins the request time, making time-dependent rules
// deterministic under test.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
