package hospital

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
	"lifebridge/pkg/uow"
)

// PostgresStore persists hospitals in PostgreSQL.
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

func (s *PostgresStore) Create(ctx context.Context, h *domain.Hospital) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO hospitals (id, name, address)
		VALUES ($1,$2,$3)`,
		h.ID, h.Name, h.Address,
	)
	if err != nil {
		return fmt.Errorf("insert hospital: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Hospital, error) {
	var h domain.Hospital
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, name, address FROM hospitals WHERE id = $1`, id).
		Scan(&h.ID, &h.Name, &h.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get hospital: %w", err)
	}
	return &h, nil
}

func (s *PostgresStore) GetByNameAddress(ctx context.Context, name, address string) (*domain.Hospital, error) {
	var h domain.Hospital
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, name, address FROM hospitals WHERE name = $1 AND address = $2`, name, address).
		Scan(&h.ID, &h.Name, &h.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get hospital by name: %w", err)
	}
	return &h, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*domain.Hospital, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT id, name, address FROM hospitals ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []*domain.Hospital
	for rows.Next() {
		var h domain.Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.Address); err != nil {
			return nil, fmt.Errorf("scan hospital: %w", err)
		}
		hospitals = append(hospitals, &h)
	}
	return hospitals, rows.Err()
}
