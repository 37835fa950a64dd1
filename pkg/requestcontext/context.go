// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and outbound clients read them. The
// package stays free of net/http handler types so services can import it
// without pulling transport code along.
//
// Usage in services (read values):
//
//	userID := requestcontext.UserID(ctx)
//	orgID := requestcontext.OrgID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUserID(ctx, userID)
//	ctx = requestcontext.WithOrgID(ctx, orgID)
package requestcontext

import (
	"context"
	"net/http"

	id "taskhub/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey    struct{}
	orgIDKey     struct{}
	requestIDKey struct{}
	headersKey   struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyUserID    = userIDKey{}
	ContextKeyOrgID     = orgIDKey{}
	ContextKeyRequestID = requestIDKey{}
	ContextKeyHeaders   = headersKey{}
)

// UserID retrieves the authenticated user ID from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// OrgID retrieves the authorized organization ID from the context.
// Returns the zero value (nil UUID) if the request has not passed the
// organization gate.
func OrgID(ctx context.Context) id.OrgID {
	if orgID, ok := ctx.Value(ContextKeyOrgID).(id.OrgID); ok {
		return orgID
	}
	return id.OrgID{}
}

// WithOrgID injects an organization ID into the context.
func WithOrgID(ctx context.Context, orgID id.OrgID) context.Context {
	return context.WithValue(ctx, ContextKeyOrgID, orgID)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// PropagatedHeaders retrieves the allow-listed inbound headers captured for
// forwarding to peer services. Returns nil when nothing was captured.
func PropagatedHeaders(ctx context.Context) http.Header {
	if h, ok := ctx.Value(ContextKeyHeaders).(http.Header); ok {
		return h
	}
	return nil
}

// WithPropagatedHeaders injects the captured header snapshot into the context.
// Callers must not mutate the header set after injection.
func WithPropagatedHeaders(ctx context.Context, headers http.Header) context.Context {
	return context.WithValue(ctx, ContextKeyHeaders, headers)
}
