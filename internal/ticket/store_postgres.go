package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "taskhub/pkg/domain"
	"taskhub/pkg/platform/sentinel"
)

// PostgresStore persists tickets in the tickets table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an open pool. The caller owns the
// pool's lifecycle.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, t Ticket) error {
	query := `
		INSERT INTO tickets (id, org_id, title, description, status, assignee_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		uuid.UUID(t.ID),
		uuid.UUID(t.OrgID),
		t.Title,
		t.Description,
		string(t.Status),
		uuid.UUID(t.AssigneeID),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, orgID id.OrgID, taskID id.TaskID) (Ticket, error) {
	query := `
		SELECT id, org_id, title, description, status, assignee_id, created_at, updated_at
		FROM tickets
		WHERE org_id = $1 AND id = $2
	`
	row := s.pool.QueryRow(ctx, query, uuid.UUID(orgID), uuid.UUID(taskID))

	var t Ticket
	var tid, oid, aid uuid.UUID
	var status string
	err := row.Scan(&tid, &oid, &t.Title, &t.Description, &status, &aid, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ticket{}, fmt.Errorf("ticket %s: %w", taskID, sentinel.ErrNotFound)
	}
	if err != nil {
		return Ticket{}, fmt.Errorf("query ticket: %w", err)
	}
	t.ID = id.TaskID(tid)
	t.OrgID = id.OrgID(oid)
	t.AssigneeID = id.UserID(aid)
	t.Status = Status(status)
	return t, nil
}

func (s *PostgresStore) Update(ctx context.Context, t Ticket) error {
	query := `
		UPDATE tickets
		SET title = $3, description = $4, status = $5, assignee_id = $6, updated_at = $7
		WHERE org_id = $1 AND id = $2
	`
	tag, err := s.pool.Exec(ctx, query,
		uuid.UUID(t.OrgID),
		uuid.UUID(t.ID),
		t.Title,
		t.Description,
		string(t.Status),
		uuid.UUID(t.AssigneeID),
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ticket %s: %w", t.ID, sentinel.ErrNotFound)
	}
	return nil
}
