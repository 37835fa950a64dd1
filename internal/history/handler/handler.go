// Package handler exposes the task history HTTP surface.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"log/slog"

	"taskhub/internal/history"
	"taskhub/internal/history/metrics"
	id "taskhub/pkg/domain"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/platform/httputil"
	"taskhub/pkg/requestcontext"
)

// Handler wires history endpoints to the store.
type Handler struct {
	store   history.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a history handler. Metrics may be nil in tests.
func New(store history.Store, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{store: store, logger: logger, metrics: m}
}

// Register mounts history endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/thistory/add", h.HandleAdd)
	r.Get("/api/thistory/info/{taskId}", h.HandleInfo)
}

// AddRequest is the write payload. All identifier fields are required.
type AddRequest struct {
	TaskID        string `json:"taskId"`
	EventName     string `json:"eventName"`
	PreviousState string `json:"previousState"`
	NewState      string `json:"newState"`
	Author        string `json:"author"`
}

// RecordResponse is the queryable representation of one audit record.
type RecordResponse struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"taskId"`
	EventName     string    `json:"eventName"`
	PreviousState string    `json:"previousState"`
	NewState      string    `json:"newState"`
	Author        string    `json:"author"`
	CreateDate    time.Time `json:"createDate"`
	ModifyDate    time.Time `json:"modifyDate"`
}

// HandleAdd handles POST /api/thistory/add.
//
// Validation failures return 400. Once the payload is accepted the endpoint
// answers 200 even when persistence fails: the write is at-most-once by
// contract, and a degraded history store must never fail the upstream
// mutation that triggered the record. The 200 is therefore an acknowledgment
// of acceptance, not proof of durability.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := req.toEntry()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record := history.NewRecord(entry, time.Now().UTC())
	if err := h.store.Append(ctx, record); err != nil {
		// Deliberate at-most-once tradeoff: log with full context, drop the
		// record, and still acknowledge the caller. The acknowledgment stays
		// empty so no identifier is handed out for a record that was never
		// persisted.
		h.metrics.IncDropped()
		h.logger.ErrorContext(ctx, "failed to persist task history record",
			"request_id", requestID,
			"task_id", entry.TaskID,
			"event", entry.Event,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusOK, map[string]string{})
		return
	}

	h.metrics.IncAdded()
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": record.ID.String()})
}

// HandleInfo handles GET /api/thistory/info/{taskId}. Returns 204 when the
// task has no records, otherwise the records ordered by create date ascending.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.store.ListByTask(ctx, taskID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list task history",
			"request_id", requestID,
			"task_id", taskID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "list task history", err))
		return
	}

	if len(records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	out := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, fromRecord(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (r AddRequest) toEntry() (history.Entry, error) {
	if r.TaskID == "" || r.Author == "" || r.EventName == "" {
		return history.Entry{}, dErrors.New(dErrors.CodeBadRequest, "taskId, eventName and author are required")
	}
	taskID, err := id.ParseTaskID(r.TaskID)
	if err != nil {
		return history.Entry{}, err
	}
	author, err := id.ParseUserID(r.Author)
	if err != nil {
		return history.Entry{}, err
	}
	entry := history.Entry{
		TaskID:        taskID,
		Event:         r.EventName,
		PreviousState: r.PreviousState,
		NewState:      r.NewState,
		Author:        author,
	}
	return entry, entry.Validate()
}

func fromRecord(r history.Record) RecordResponse {
	return RecordResponse{
		ID:            r.ID.String(),
		TaskID:        r.TaskID.String(),
		EventName:     r.Event,
		PreviousState: r.PreviousState,
		NewState:      r.NewState,
		Author:        r.Author.String(),
		CreateDate:    r.CreateDate,
		ModifyDate:    r.ModifyDate,
	}
}
