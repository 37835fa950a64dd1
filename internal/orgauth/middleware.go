// Package orgauth gates every mutation behind organization membership. The
// middleware runs after authentication and before any business handler; a
// request that fails here never reaches a mutation, so no audit event can be
// produced for it.
package orgauth

import (
	"log/slog"
	"net/http"

	"taskhub/internal/membership"
	"taskhub/internal/orgauth/metrics"
	"taskhub/internal/platform/config"
	id "taskhub/pkg/domain"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/platform/httputil"
	"taskhub/pkg/platform/middleware/metadata"
	"taskhub/pkg/requestcontext"
)

// Middleware validates the organization header and the caller's membership.
type Middleware struct {
	verifier membership.Verifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New constructs the gate middleware.
func New(verifier membership.Verifier, logger *slog.Logger, m *metrics.Metrics) *Middleware {
	return &Middleware{verifier: verifier, logger: logger, metrics: m}
}

// Require enforces the gate. Each request moves from pending to exactly one
// terminal outcome:
//
//  1. Organization header absent, empty, or malformed → 400.
//  2. No authenticated identity in the context → 401.
//  3. Membership check false, or the check itself failed → 403 with one
//     generic description; callers cannot distinguish "not a member" from
//     "verifier down", so the gate leaks no membership information.
//  4. Otherwise the request proceeds with the organization ID in context.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		orgID, err := id.ParseOrgID(r.Header.Get(config.OrgHeader))
		if err != nil {
			m.metrics.IncRejectedHeader()
			m.logger.WarnContext(ctx, "organization gate rejected request",
				"reason", "organization header absent or invalid",
				"request_id", requestID,
				"client_ip", metadata.GetClientIP(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "organization header absent or invalid"))
			return
		}

		userID := requestcontext.UserID(ctx)
		if userID.IsNil() {
			m.metrics.IncRejectedIdentity()
			m.logger.WarnContext(ctx, "organization gate rejected request",
				"reason", "missing identity claim",
				"request_id", requestID,
				"org_id", orgID,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}

		member, err := m.verifier.IsMember(ctx, userID, orgID)
		if err != nil || !member {
			m.metrics.IncRejectedMembership()
			if err != nil {
				m.logger.ErrorContext(ctx, "membership verification failed",
					"request_id", requestID,
					"org_id", orgID,
					"error", err,
				)
			} else {
				m.logger.WarnContext(ctx, "organization gate rejected request",
					"reason", "not a member",
					"request_id", requestID,
					"org_id", orgID,
				)
			}
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "verification failed"))
			return
		}

		m.metrics.IncAuthorized()
		next.ServeHTTP(w, r.WithContext(requestcontext.WithOrgID(ctx, orgID)))
	})
}
