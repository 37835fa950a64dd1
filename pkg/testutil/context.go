package testutil

import (
	"net/http"

	id "taskhub/pkg/domain"
	"taskhub/pkg/requestcontext"
)

// WithUserID adds an authenticated user ID to the request context,
// simulating what the auth middleware would do for authenticated requests.
// An invalid UUID is silently ignored.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsed, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
	}
	return req
}

// WithOrgID adds an authorized organization ID to the request context,
// simulating a request that already passed the organization gate.
// An invalid UUID is silently ignored.
func WithOrgID(req *http.Request, orgID string) *http.Request {
	if parsed, err := id.ParseOrgID(orgID); err == nil {
		return req.WithContext(requestcontext.WithOrgID(req.Context(), parsed))
	}
	return req
}
