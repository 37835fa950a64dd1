package history

import (
	"context"

	id "taskhub/pkg/domain"
)

// Store persists audit records. Implementations must return records ordered
// by create date ascending and an empty slice (not an error) for an unknown
// task.
type Store interface {
	Append(ctx context.Context, record Record) error
	ListByTask(ctx context.Context, taskID id.TaskID) ([]Record, error)
}
