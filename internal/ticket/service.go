package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"taskhub/internal/events"
	id "taskhub/pkg/domain"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/platform/sentinel"
	"taskhub/pkg/requestcontext"
)

// Publisher is the slice of the event bus the service needs.
type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

// Service executes ticket mutations and publishes exactly one event per
// committed mutation. The publish happens strictly after the store write
// returns; subscribers can never observe an uncommitted transition.
type Service struct {
	store  Store
	bus    Publisher
	logger *slog.Logger
	tracer trace.Tracer
}

// NewService constructs the ticket service.
func NewService(store Store, bus Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		bus:    bus,
		logger: logger,
		tracer: otel.Tracer("taskhub/ticket"),
	}
}

// CreateRequest carries the validated fields for a new ticket.
type CreateRequest struct {
	Title       string
	Description string
	AssigneeID  id.UserID
}

// Create persists a new ticket in the caller's organization and publishes a
// TaskCreated event.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "ticket.Create")
	defer span.End()

	orgID := requestcontext.OrgID(ctx)
	authorID := requestcontext.UserID(ctx)
	if orgID.IsNil() || authorID.IsNil() {
		return Ticket{}, dErrors.New(dErrors.CodeUnauthorized, "authorization context missing")
	}
	if req.Title == "" {
		return Ticket{}, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}

	now := time.Now().UTC()
	t := Ticket{
		ID:          id.NewTaskID(),
		OrgID:       orgID,
		Title:       req.Title,
		Description: req.Description,
		Status:      StatusToDo,
		AssigneeID:  req.AssigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, t); err != nil {
		span.RecordError(err)
		return Ticket{}, dErrors.Wrap(dErrors.CodeInternal, "create ticket", err)
	}

	s.publish(ctx, events.Event{
		TaskID:        t.ID,
		Name:          events.EventTaskCreated,
		PreviousState: "",
		NewState:      string(t.Status),
		AuthorID:      authorID,
		OccurredAt:    now,
	})

	return t, nil
}

// UpdateStatus moves a ticket to a new workflow state and publishes a
// StatusChanged event carrying the previous and new states.
func (s *Service) UpdateStatus(ctx context.Context, taskID id.TaskID, newStatus Status) (Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "ticket.UpdateStatus")
	defer span.End()

	orgID := requestcontext.OrgID(ctx)
	authorID := requestcontext.UserID(ctx)
	if orgID.IsNil() || authorID.IsNil() {
		return Ticket{}, dErrors.New(dErrors.CodeUnauthorized, "authorization context missing")
	}

	t, err := s.store.Get(ctx, orgID, taskID)
	if err != nil {
		span.RecordError(err)
		return Ticket{}, translateStoreErr(err, taskID)
	}

	previous := t.Status
	if previous == newStatus {
		// No transition, no event.
		return t, nil
	}
	if !CanTransition(previous, newStatus) {
		return Ticket{}, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("cannot move ticket from %q to %q", previous, newStatus))
	}

	now := time.Now().UTC()
	t.Status = newStatus
	t.UpdatedAt = now

	if err := s.store.Update(ctx, t); err != nil {
		span.RecordError(err)
		return Ticket{}, translateStoreErr(err, taskID)
	}

	s.publish(ctx, events.Event{
		TaskID:        t.ID,
		Name:          events.EventStatusChanged,
		PreviousState: string(previous),
		NewState:      string(newStatus),
		AuthorID:      authorID,
		OccurredAt:    now,
	})

	return t, nil
}

// Get returns a ticket within the caller's organization.
func (s *Service) Get(ctx context.Context, taskID id.TaskID) (Ticket, error) {
	orgID := requestcontext.OrgID(ctx)
	if orgID.IsNil() {
		return Ticket{}, dErrors.New(dErrors.CodeUnauthorized, "authorization context missing")
	}
	t, err := s.store.Get(ctx, orgID, taskID)
	if err != nil {
		return Ticket{}, translateStoreErr(err, taskID)
	}
	return t, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := event.Validate(); err != nil {
		// A mutation committed with incomplete attribution is a bug worth
		// shouting about, but it must not fail the mutation.
		s.logger.ErrorContext(ctx, "refusing to publish invalid mutation event",
			"task_id", event.TaskID,
			"event", event.Name,
			"error", err,
		)
		return
	}
	s.bus.Publish(ctx, event)
}

func translateStoreErr(err error, taskID id.TaskID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeNotFound, "ticket "+taskID.String()+" not found", err)
	}
	return dErrors.Wrap(dErrors.CodeInternal, "ticket store", err)
}
