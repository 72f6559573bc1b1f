package allocation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lifebridge/internal/domain"
	"lifebridge/pkg/sentinel"
	"lifebridge/pkg/uow"
)

// PostgresStore persists allocations in PostgreSQL. History is a JSONB column
// written together with the row, so the chain and lastHash commit atomically;
// the version column backs the compare-and-swap.
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

const allocationColumns = `id, organ_id, request_id, hospital_id, match_score, status,
	dispatch_time, completion_time, failure_reason, dispatched_by, completed_by,
	last_hash, history, version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, alloc *domain.Allocation) error {
	history, err := json.Marshal(alloc.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	now := time.Now()
	alloc.CreatedAt = now
	alloc.UpdatedAt = now
	alloc.Version = 1
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO allocations (`+allocationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		alloc.ID, alloc.OrganID, alloc.RequestID, alloc.HospitalID, alloc.MatchScore, alloc.Status,
		alloc.DispatchTime, alloc.CompletionTime, nullString(alloc.FailureReason),
		nullString(alloc.DispatchedBy), nullString(alloc.CompletedBy),
		nullString(alloc.LastHash), history, alloc.Version, alloc.CreatedAt, alloc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Allocation, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE id = $1`, id)
	return scanAllocation(row)
}

func (s *PostgresStore) Update(ctx context.Context, alloc *domain.Allocation) error {
	history, err := json.Marshal(alloc.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	alloc.UpdatedAt = time.Now()
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE allocations SET
			status = $1, completion_time = $2, failure_reason = $3, completed_by = $4,
			last_hash = $5, history = $6, version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9`,
		alloc.Status, alloc.CompletionTime, nullString(alloc.FailureReason),
		nullString(alloc.CompletedBy), nullString(alloc.LastHash), history,
		alloc.UpdatedAt, alloc.ID, alloc.Version,
	)
	if err != nil {
		return fmt.Errorf("update allocation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update allocation: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or the version moved under us.
		if _, err := s.Get(ctx, alloc.ID); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	alloc.Version++
	return nil
}

func (s *PostgresStore) List(ctx context.Context, page, pageSize int, filter ListFilter) (*Page, error) {
	where := ""
	args := []any{}
	if filter.Status != "" {
		where = " WHERE status = $1"
		args = append(args, filter.Status)
	}

	var total int
	if err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM allocations`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count allocations: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations`+where+
			fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, limitPos, limitPos+1),
		args...)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []*domain.Allocation
	for rows.Next() {
		alloc, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}

	return &Page{
		Allocations: allocations,
		Total:       total,
		PageNumber:  page,
		PageSize:    pageSize,
		Pages:       (total + pageSize - 1) / pageSize,
	}, nil
}

func (s *PostgresStore) ListByHospital(ctx context.Context, hospitalID string, filter ListFilter) ([]*domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE hospital_id = $1`
	args := []any{hospitalID}
	if filter.Status != "" {
		query += ` AND status = $2`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list hospital allocations: %w", err)
	}
	defer rows.Close()

	var allocations []*domain.Allocation
	for rows.Next() {
		alloc, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	return allocations, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAllocation(row rowScanner) (*domain.Allocation, error) {
	var (
		alloc         domain.Allocation
		history       []byte
		failureReason sql.NullString
		dispatchedBy  sql.NullString
		completedBy   sql.NullString
		lastHash      sql.NullString
		completion    sql.NullTime
	)
	err := row.Scan(
		&alloc.ID, &alloc.OrganID, &alloc.RequestID, &alloc.HospitalID, &alloc.MatchScore, &alloc.Status,
		&alloc.DispatchTime, &completion, &failureReason, &dispatchedBy, &completedBy,
		&lastHash, &history, &alloc.Version, &alloc.CreatedAt, &alloc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan allocation: %w", err)
	}
	if completion.Valid {
		alloc.CompletionTime = &completion.Time
	}
	alloc.FailureReason = failureReason.String
	alloc.DispatchedBy = dispatchedBy.String
	alloc.CompletedBy = completedBy.String
	alloc.LastHash = lastHash.String
	if len(history) > 0 {
		if err := json.Unmarshal(history, &alloc.History); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
	}
	return &alloc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
