// Package events carries domain mutation events from the ticket service to
// its subscribers through an explicit subscription registry. Fan-out
// semantics and listener isolation are contracts here, not side effects of a
// delegate mechanism.
package events

import (
	"time"

	id "taskhub/pkg/domain"
	dErrors "taskhub/pkg/domain-errors"
)

// Mutation event names.
const (
	EventTaskCreated   = "TaskCreated"
	EventStatusChanged = "StatusChanged"
)

// Event records a committed ticket state transition. Immutable once created;
// the publishing service builds it after the store write commits.
type Event struct {
	TaskID        id.TaskID
	Name          string
	PreviousState string
	NewState      string
	AuthorID      id.UserID
	OccurredAt    time.Time
}

// Validate enforces the event invariants: task, author, and event name must
// all be present.
func (e Event) Validate() error {
	if e.TaskID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "event task id must not be empty")
	}
	if e.AuthorID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "event author id must not be empty")
	}
	if e.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "event name must not be empty")
	}
	return nil
}
