package orgauth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/membership"
	"taskhub/internal/platform/config"
	id "taskhub/pkg/domain"
	"taskhub/pkg/requestcontext"
	"taskhub/pkg/testutil"
)

type erroringVerifier struct{}

func (erroringVerifier) IsMember(context.Context, id.UserID, id.OrgID) (bool, error) {
	return false, errors.New("membership service unreachable")
}

func newGate(verifier membership.Verifier) *Middleware {
	return New(verifier, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

// wrap mounts the gate in front of a probe handler and reports whether the
// probe ran.
func wrap(gate *Middleware) (http.Handler, *bool) {
	reached := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	return gate.Require(inner), &reached
}

func authedRequest(t *testing.T, userID id.UserID, orgHeader string) *http.Request {
	t.Helper()
	req := testutil.NewRequest(t, http.MethodPost, "/api/task")
	if orgHeader != "" {
		req.Header.Set(config.OrgHeader, orgHeader)
	}
	if !userID.IsNil() {
		req = req.WithContext(requestcontext.WithUserID(req.Context(), userID))
	}
	return req
}

func TestRequire_RejectsBadOrgHeader(t *testing.T) {
	userID := id.UserID(id.NewTaskID())
	verifier := membership.NewStaticVerifier()

	tests := []struct {
		name   string
		header string
	}{
		{"absent", ""},
		{"malformed", "not-a-uuid"},
		{"nil uuid", "00000000-0000-0000-0000-000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, reached := wrap(newGate(verifier))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, authedRequest(t, userID, tt.header))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, *reached, "business logic must not run after rejection")
			assert.Contains(t, rr.Body.String(), "organization header absent or invalid")
		})
	}
}

func TestRequire_RejectsMissingIdentity(t *testing.T) {
	handler, reached := wrap(newGate(membership.NewStaticVerifier()))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, id.UserID{}, id.NewTaskID().String()))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, *reached)
}

func TestRequire_RejectsNonMember(t *testing.T) {
	userID := id.UserID(id.NewTaskID())
	orgID := id.OrgID(id.NewTaskID())
	handler, reached := wrap(newGate(membership.NewStaticVerifier()))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, userID, orgID.String()))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, *reached)
	assert.Contains(t, rr.Body.String(), "verification failed")
}

// A verifier failure must surface as the same rejection as "not a member" so
// the gate leaks no membership information.
func TestRequire_VerifierErrorMatchesNonMemberRejection(t *testing.T) {
	userID := id.UserID(id.NewTaskID())
	orgID := id.OrgID(id.NewTaskID())

	failHandler, failReached := wrap(newGate(erroringVerifier{}))
	failRR := httptest.NewRecorder()
	failHandler.ServeHTTP(failRR, authedRequest(t, userID, orgID.String()))

	denyHandler, denyReached := wrap(newGate(membership.NewStaticVerifier()))
	denyRR := httptest.NewRecorder()
	denyHandler.ServeHTTP(denyRR, authedRequest(t, userID, orgID.String()))

	assert.Equal(t, denyRR.Code, failRR.Code)
	assert.Equal(t, denyRR.Body.String(), failRR.Body.String())
	assert.False(t, *failReached)
	assert.False(t, *denyReached)
}

func TestRequire_AuthorizedRequestProceedsWithOrgContext(t *testing.T) {
	userID := id.UserID(id.NewTaskID())
	orgID := id.OrgID(id.NewTaskID())
	verifier := membership.NewStaticVerifier()
	verifier.Grant(userID, orgID)

	var seenOrg id.OrgID
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenOrg = requestcontext.OrgID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	newGate(verifier).Require(inner).ServeHTTP(rr, authedRequest(t, userID, orgID.String()))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, orgID, seenOrg)
}
