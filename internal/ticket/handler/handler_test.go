package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/events"
	"taskhub/internal/ticket"
	id "taskhub/pkg/domain"
	"taskhub/pkg/testutil"
)

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.Event) {}

type fixture struct {
	router *chi.Mux
	userID string
	orgID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	service := ticket.NewService(ticket.NewInMemoryStore(), noopPublisher{}, slog.Default())
	router := chi.NewRouter()
	New(service, slog.Default()).Register(router)
	return &fixture{
		router: router,
		userID: uuid.NewString(),
		orgID:  uuid.NewString(),
	}
}

func (f *fixture) authed(req *http.Request) *http.Request {
	return testutil.WithOrgID(testutil.WithUserID(req, f.userID), f.orgID)
}

func (f *fixture) createTicket(t *testing.T, title string) TicketResponse {
	t.Helper()
	req := f.authed(testutil.NewJSONRequest(t, http.MethodPost, "/api/task", CreateRequest{
		Title:       title,
		Description: "initial description",
	}))
	rr := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	return *testutil.UnmarshalResponse[TicketResponse](t, rr)
}

func TestHandleCreate(t *testing.T) {
	f := newFixture(t)

	created := f.createTicket(t, "Fix login redirect")
	assert.Equal(t, "Fix login redirect", created.Title)
	assert.Equal(t, string(ticket.StatusToDo), created.Status)

	_, err := id.ParseTaskID(created.ID)
	assert.NoError(t, err)
}

func TestHandleCreateMissingTitle(t *testing.T) {
	f := newFixture(t)

	req := f.authed(testutil.NewJSONRequest(t, http.MethodPost, "/api/task", CreateRequest{}))
	rr := testutil.DoRequest(f.router, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleCreateInvalidAssignee(t *testing.T) {
	f := newFixture(t)

	req := f.authed(testutil.NewJSONRequest(t, http.MethodPost, "/api/task", CreateRequest{
		Title:    "Triage flaky test",
		Assignee: "not-a-uuid",
	}))
	rr := testutil.DoRequest(f.router, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleGet(t *testing.T) {
	f := newFixture(t)
	created := f.createTicket(t, "Add retry to export job")

	req := f.authed(testutil.NewRequest(t, http.MethodGet, "/api/task/"+created.ID))
	rr := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusOK, rr.Code)

	got := testutil.UnmarshalResponse[TicketResponse](t, rr)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
}

func TestHandleGetMalformedID(t *testing.T) {
	f := newFixture(t)

	req := f.authed(testutil.NewRequest(t, http.MethodGet, "/api/task/not-a-uuid"))
	rr := testutil.DoRequest(f.router, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleGetUnknownID(t *testing.T) {
	f := newFixture(t)

	req := f.authed(testutil.NewRequest(t, http.MethodGet, "/api/task/"+uuid.NewString()))
	rr := testutil.DoRequest(f.router, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleUpdateStatus(t *testing.T) {
	f := newFixture(t)
	created := f.createTicket(t, "Migrate session table")

	req := f.authed(testutil.NewJSONRequest(t, http.MethodPatch, "/api/task/"+created.ID+"/status", UpdateStatusRequest{
		Status: string(ticket.StatusInProgress),
	}))
	rr := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusOK, rr.Code)

	got := testutil.UnmarshalResponse[TicketResponse](t, rr)
	assert.Equal(t, string(ticket.StatusInProgress), got.Status)
}

func TestHandleUpdateStatusUnknownValue(t *testing.T) {
	f := newFixture(t)
	created := f.createTicket(t, "Rotate API keys")

	req := f.authed(testutil.NewJSONRequest(t, http.MethodPatch, "/api/task/"+created.ID+"/status", UpdateStatusRequest{
		Status: "Archived",
	}))
	rr := testutil.DoRequest(f.router, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleUpdateStatusInvalidTransition(t *testing.T) {
	f := newFixture(t)
	created := f.createTicket(t, "Remove legacy flags")

	// Done only allows moving back to In Progress.
	patch := func(status ticket.Status) *httptest.ResponseRecorder {
		req := f.authed(testutil.NewJSONRequest(t, http.MethodPatch, "/api/task/"+created.ID+"/status", UpdateStatusRequest{
			Status: string(status),
		}))
		return testutil.DoRequest(f.router, req)
	}

	require.Equal(t, http.StatusOK, patch(ticket.StatusDone).Code)
	assert.Equal(t, http.StatusConflict, patch(ticket.StatusToDo).Code)
}
