package request

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

// PostgresStore persists requests in PostgreSQL.
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

const requestColumns = `id, organ_type, blood_group, hospital_id, doctor_id, doctor_name,
	address, phone, urgency_score, waiting_since, lat, lng, allocation_id, status,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *domain.Request) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.WaitingSince.IsZero() {
		r.WaitingSince = now
	}
	var lat, lng sql.NullFloat64
	if r.Location != nil {
		lat = sql.NullFloat64{Float64: r.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: r.Location.Lng, Valid: true}
	}
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		r.ID, r.Type, r.BloodGroup, r.HospitalID, r.DoctorID, nullString(r.DoctorName),
		nullString(r.Address), nullString(r.Phone), r.UrgencyScore, r.WaitingSince,
		lat, lng, nullString(r.AllocationID), r.Status, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Request, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (s *PostgresStore) Update(ctx context.Context, r *domain.Request) error {
	r.UpdatedAt = time.Now()
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE requests SET status = $1, allocation_id = $2, updated_at = $3
		WHERE id = $4`,
		r.Status, nullString(r.AllocationID), r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListWaiting(ctx context.Context, filter WaitingFilter) ([]*domain.Request, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE status = $1 AND organ_type = $2 AND blood_group = $3
		ORDER BY waiting_since ASC`,
		domain.RequestWaiting, filter.Type, filter.BloodGroup)
	if err != nil {
		return nil, fmt.Errorf("list waiting requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *PostgresStore) ListByDoctor(ctx context.Context, doctorID string) ([]*domain.Request, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE doctor_id = $1 ORDER BY created_at DESC`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	var (
		r            domain.Request
		doctorName   sql.NullString
		address      sql.NullString
		phone        sql.NullString
		lat, lng     sql.NullFloat64
		allocationID sql.NullString
	)
	err := row.Scan(
		&r.ID, &r.Type, &r.BloodGroup, &r.HospitalID, &r.DoctorID, &doctorName,
		&address, &phone, &r.UrgencyScore, &r.WaitingSince, &lat, &lng,
		&allocationID, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan request: %w", err)
	}
	r.DoctorName = doctorName.String
	r.Address = address.String
	r.Phone = phone.String
	r.AllocationID = allocationID.String
	if lat.Valid && lng.Valid {
		r.Location = &domain.Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &r, nil
}

func collectRequests(rows *sql.Rows) ([]*domain.Request, error) {
	var requests []*domain.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
