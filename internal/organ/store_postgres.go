package organ

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
	"lifebridge/pkg/uow"
)

// PostgresStore persists organs in PostgreSQL.
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

const organColumns = `id, organ_type, blood_group, lat, lng, donor_id, hospital_id,
	phone, address, consent_id, allocation_id, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, o *domain.Organ) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	lat, lng := locationColumns(o.Location)
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO organs (`+organColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		o.ID, o.Type, o.BloodGroup, lat, lng, o.DonorID, nullString(o.HospitalID),
		nullString(o.Phone), nullString(o.Address), nullString(o.ConsentID),
		nullString(o.AllocationID), o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert organ: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Organ, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+organColumns+` FROM organs WHERE id = $1`, id)
	return scanOrgan(row)
}

func (s *PostgresStore) Update(ctx context.Context, o *domain.Organ) error {
	o.UpdatedAt = time.Now()
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE organs SET
			status = $1, consent_id = $2, allocation_id = $3, updated_at = $4
		WHERE id = $5`,
		o.Status, nullString(o.ConsentID), nullString(o.AllocationID), o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update organ: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update organ: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListAvailable(ctx context.Context, filter AvailableFilter) ([]*domain.Organ, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+organColumns+` FROM organs
		WHERE status = $1 AND organ_type = $2 AND blood_group = $3
		ORDER BY created_at ASC, id ASC`,
		domain.OrganAvailable, filter.Type, filter.BloodGroup)
	if err != nil {
		return nil, fmt.Errorf("list available organs: %w", err)
	}
	defer rows.Close()
	return collectOrgans(rows)
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID string) ([]*domain.Organ, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+organColumns+` FROM organs
		WHERE donor_id = $1 ORDER BY created_at DESC`, donorID)
	if err != nil {
		return nil, fmt.Errorf("list donor organs: %w", err)
	}
	defer rows.Close()
	return collectOrgans(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrgan(row rowScanner) (*domain.Organ, error) {
	var (
		o            domain.Organ
		lat, lng     sql.NullFloat64
		hospitalID   sql.NullString
		phone        sql.NullString
		address      sql.NullString
		consentID    sql.NullString
		allocationID sql.NullString
	)
	err := row.Scan(
		&o.ID, &o.Type, &o.BloodGroup, &lat, &lng, &o.DonorID, &hospitalID,
		&phone, &address, &consentID, &allocationID, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan organ: %w", err)
	}
	if lat.Valid && lng.Valid {
		o.Location = &domain.Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	o.HospitalID = hospitalID.String
	o.Phone = phone.String
	o.Address = address.String
	o.ConsentID = consentID.String
	o.AllocationID = allocationID.String
	return &o, nil
}

func collectOrgans(rows *sql.Rows) ([]*domain.Organ, error) {
	var organs []*domain.Organ
	for rows.Next() {
		o, err := scanOrgan(rows)
		if err != nil {
			return nil, err
		}
		organs = append(organs, o)
	}
	return organs, rows.Err()
}

func locationColumns(loc *domain.Location) (sql.NullFloat64, sql.NullFloat64) {
	if loc == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: loc.Lat, Valid: true}, sql.NullFloat64{Float64: loc.Lng, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
