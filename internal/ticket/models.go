// Package ticket implements task mutations: the business logic whose
// committed state transitions feed the audit pipeline.
package ticket

import (
	"time"

	id "taskhub/pkg/domain"
	dErrors "taskhub/pkg/domain-errors"
)

// Status is a ticket workflow state.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// validTransitions describes the allowed workflow moves.
var validTransitions = map[Status][]Status{
	StatusToDo:       {StatusInProgress, StatusDone},
	StatusInProgress: {StatusToDo, StatusDone},
	StatusDone:       {StatusInProgress},
}

// ParseStatus validates an externally supplied status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusToDo, StatusInProgress, StatusDone:
		return Status(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown status")
	}
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Ticket is a tracked unit of work within an organization.
type Ticket struct {
	ID          id.TaskID
	OrgID       id.OrgID
	Title       string
	Description string
	Status      Status
	AssigneeID  id.UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
