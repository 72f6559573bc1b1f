package notification

import (
	"context"
	"database/sql"
	"fmt"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
	"lifebridge/pkg/uow"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) conn(ctx context.Context) execer {
	if tx, ok := uow.TxFrom(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, n *domain.Notification) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, message, allocation_id, read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		n.ID, n.UserID, n.Message, nullString(n.AllocationID), n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, user_id, message, allocation_id, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var (
			n            domain.Notification
			allocationID sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &allocationID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.AllocationID = allocationID.String
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, id, userID string) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
