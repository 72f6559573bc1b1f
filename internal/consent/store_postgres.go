package consent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
	"lifebridge/pkg/uow"
)

// PostgresStore persists consents in PostgreSQL.
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

func (s *PostgresStore) Create(ctx context.Context, c *domain.Consent) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO consents (id, donor_id, consent_type, status, signed_at)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.DonorID, c.Type, c.Status, c.SignedAt,
	)
	if err != nil {
		return fmt.Errorf("insert consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Consent, error) {
	var c domain.Consent
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, donor_id, consent_type, status, signed_at
		FROM consents WHERE id = $1`, id).
		Scan(&c.ID, &c.DonorID, &c.Type, &c.Status, &c.SignedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get consent: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status domain.ConsentStatus) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE consents SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update consent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update consent: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID string) ([]*domain.Consent, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, donor_id, consent_type, status, signed_at
		FROM consents WHERE donor_id = $1 ORDER BY signed_at DESC`, donorID)
	if err != nil {
		return nil, fmt.Errorf("list donor consents: %w", err)
	}
	defer rows.Close()

	var consents []*domain.Consent
	for rows.Next() {
		var c domain.Consent
		if err := rows.Scan(&c.ID, &c.DonorID, &c.Type, &c.Status, &c.SignedAt); err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		consents = append(consents, &c)
	}
	return consents, rows.Err()
}
