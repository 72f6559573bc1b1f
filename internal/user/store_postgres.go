package user

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

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) execer {
	if tx, ok := uow.TxFrom(ctx); ok {
		return tx
	}
	return s.db
}

const userColumns = `id, name, email, password_hash, role, hospital_id, phone, address, lat, lng, created_at`

func (s *PostgresStore) Create(ctx context.Context, u *domain.User) error {
	u.CreatedAt = time.Now()
	var lat, lng sql.NullFloat64
	if u.Location != nil {
		lat = sql.NullFloat64{Float64: u.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: u.Location.Lng, Valid: true}
	}
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role,
		sql.NullString{String: u.HospitalID, Valid: u.HospitalID != ""},
		sql.NullString{String: u.Phone, Valid: u.Phone != ""},
		sql.NullString{String: u.Address, Valid: u.Address != ""},
		lat, lng, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.scanOne(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.scanOne(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *PostgresStore) scanOne(row *sql.Row) (*domain.User, error) {
	var (
		u          domain.User
		hospitalID sql.NullString
		phone      sql.NullString
		address    sql.NullString
		lat, lng   sql.NullFloat64
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&hospitalID, &phone, &address, &lat, &lng, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.HospitalID = hospitalID.String
	u.Phone = phone.String
	u.Address = address.String
	if lat.Valid && lng.Valid {
		u.Location = &domain.Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &u, nil
}
