// Package handler exposes the ticket HTTP surface. Routes here are mounted
// behind the auth middleware and the organization gate.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/ticket"
	id "taskhub/pkg/domain"
	"taskhub/pkg/platform/httputil"
	"taskhub/pkg/requestcontext"
)

// Service defines the ticket operations the handler needs.
type Service interface {
	Create(ctx context.Context, req ticket.CreateRequest) (ticket.Ticket, error)
	UpdateStatus(ctx context.Context, taskID id.TaskID, newStatus ticket.Status) (ticket.Ticket, error)
	Get(ctx context.Context, taskID id.TaskID) (ticket.Ticket, error)
}

// Handler wires ticket endpoints to the ticket service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ticket handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ticket endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/task", h.HandleCreate)
	r.Get("/api/task/{taskId}", h.HandleGet)
	r.Patch("/api/task/{taskId}/status", h.HandleUpdateStatus)
}

// CreateRequest is the ticket creation payload.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
}

// UpdateStatusRequest moves a ticket to a new workflow state.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// TicketResponse is the external ticket representation.
type TicketResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Assignee    string    `json:"assignee,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HandleCreate handles POST /api/task.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	domainReq := ticket.CreateRequest{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Assignee != "" {
		assignee, err := id.ParseUserID(req.Assignee)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		domainReq.AssigneeID = assignee
	}

	created, err := h.service.Create(ctx, domainReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "ticket creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ticket created",
		"request_id", requestID,
		"task_id", created.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, fromTicket(created))
}

// HandleGet handles GET /api/task/{taskId}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.service.Get(ctx, taskID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromTicket(t))
}

// HandleUpdateStatus handles PATCH /api/task/{taskId}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	status, err := ticket.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.UpdateStatus(ctx, taskID, status)
	if err != nil {
		h.logger.ErrorContext(ctx, "ticket status update failed",
			"request_id", requestID,
			"task_id", taskID,
			"status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ticket status updated",
		"request_id", requestID,
		"task_id", taskID,
		"status", req.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromTicket(updated))
}

func fromTicket(t ticket.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if !t.AssigneeID.IsNil() {
		resp.Assignee = t.AssigneeID.String()
	}
	return resp
}
