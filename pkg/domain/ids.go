// Package domain holds the typed identifiers shared across services. Distinct
// types per entity make cross-assignment a compile error instead of a data bug.
package domain

import (
	"github.com/google/uuid"

	dErrors "taskhub/pkg/domain-errors"
)

// TaskID identifies a ticket/task.
type TaskID uuid.UUID

// UserID identifies an authenticated principal.
type UserID uuid.UUID

// OrgID identifies an organization a caller acts within.
type OrgID uuid.UUID

func (id TaskID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string { return uuid.UUID(id).String() }
func (id OrgID) String() string  { return uuid.UUID(id).String() }

func (id TaskID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OrgID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// NewTaskID returns a fresh random task identifier.
func NewTaskID() TaskID { return TaskID(uuid.New()) }

// ParseTaskID parses and validates an external task identifier.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseTaskID(raw string) (TaskID, error) {
	u, err := parse(raw, "task id")
	return TaskID(u), err
}

// ParseUserID parses and validates an external user identifier.
func ParseUserID(raw string) (UserID, error) {
	u, err := parse(raw, "user id")
	return UserID(u), err
}

// ParseOrgID parses and validates an external organization identifier.
func ParseOrgID(raw string) (OrgID, error) {
	u, err := parse(raw, "organization id")
	return OrgID(u), err
}

func parse(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be empty")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(dErrors.CodeInvalidInput, what+" is not a valid identifier", err)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil identifier")
	}
	return u, nil
}
