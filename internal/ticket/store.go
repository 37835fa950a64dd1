package ticket

import (
	"context"

	id "taskhub/pkg/domain"
)

// Store persists tickets. Implementations return sentinel.ErrNotFound
// (wrapped) for unknown tickets.
type Store interface {
	Create(ctx context.Context, t Ticket) error
	Get(ctx context.Context, orgID id.OrgID, taskID id.TaskID) (Ticket, error)
	Update(ctx context.Context, t Ticket) error
}
