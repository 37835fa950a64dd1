package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "taskhub/pkg/domain"
)

// PostgresStore persists records in the task_history table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store on an open database handle. The caller
// owns the handle's lifecycle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, record Record) error {
	query := `
		INSERT INTO task_history (id, task_id, event_name, previous_state, new_state, author_id, create_date, modify_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		uuid.UUID(record.TaskID),
		record.Event,
		record.PreviousState,
		record.NewState,
		uuid.UUID(record.Author),
		record.CreateDate,
		record.ModifyDate,
	)
	if err != nil {
		return fmt.Errorf("insert task history record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTask(ctx context.Context, taskID id.TaskID) ([]Record, error) {
	query := `
		SELECT id, task_id, event_name, previous_state, new_state, author_id, create_date, modify_date
		FROM task_history
		WHERE task_id = $1
		ORDER BY create_date ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(taskID))
	if err != nil {
		return nil, fmt.Errorf("query task history: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var task, author uuid.UUID
		if err := rows.Scan(&r.ID, &task, &r.Event, &r.PreviousState, &r.NewState, &author, &r.CreateDate, &r.ModifyDate); err != nil {
			return nil, fmt.Errorf("scan task history row: %w", err)
		}
		r.TaskID = id.TaskID(task)
		r.Author = id.UserID(author)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task history rows: %w", err)
	}
	return records, nil
}
