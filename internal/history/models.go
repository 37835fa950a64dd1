// Package history owns the durable audit records behind the task history
// service. The task service only ever writes through the HTTP client; this
// package is the sole owner of the persisted shape.
package history

import (
	"time"

	"github.com/google/uuid"

	id "taskhub/pkg/domain"
	dErrors "taskhub/pkg/domain-errors"
)

// Entry is the write contract: what a caller supplies when recording a task
// mutation. Server-assigned fields live on Record.
type Entry struct {
	TaskID        id.TaskID
	Event         string
	PreviousState string
	NewState      string
	Author        id.UserID
}

// Validate enforces the required-field invariants shared by the HTTP handler
// and the store layer.
func (e Entry) Validate() error {
	if e.TaskID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "taskId is required")
	}
	if e.Author.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "author is required")
	}
	if e.Event == "" {
		return dErrors.New(dErrors.CodeBadRequest, "eventName is required")
	}
	return nil
}

// Record is the persisted audit record: an Entry plus the identifier and
// timestamps this service assigns on write.
type Record struct {
	ID            uuid.UUID
	TaskID        id.TaskID
	Event         string
	PreviousState string
	NewState      string
	Author        id.UserID
	CreateDate    time.Time
	ModifyDate    time.Time
}

// NewRecord stamps an entry into a record with a fresh ID and timestamps.
func NewRecord(entry Entry, now time.Time) Record {
	return Record{
		ID:            uuid.New(),
		TaskID:        entry.TaskID,
		Event:         entry.Event,
		PreviousState: entry.PreviousState,
		NewState:      entry.NewState,
		Author:        entry.Author,
		CreateDate:    now,
		ModifyDate:    now,
	}
}
