package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/eventkit/pkg/pg"
)

// PGStore is the PostgreSQL implementation of Store.
//
// All three status transitions execute a single conditional UPDATE with
// `WHERE status = 'PENDING'`, so the row's rows-affected count decides the
// race instead of application-level reads.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed reservation store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, r Reservation) error {
	query := `
		INSERT INTO reservations (id, event_id, attendee_id, status, expires_at, attended, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.EventID, r.AttendeeID, r.Status, r.ExpiresAt, r.Attended, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create reservation %s: %w", r.ID, err)
	}

	return nil
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	query := `
		SELECT id, event_id, attendee_id, status, expires_at, attended, created_at, updated_at
		FROM reservations
		WHERE id = $1
	`

	var r Reservation
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.EventID, &r.AttendeeID, &r.Status, &r.ExpiresAt, &r.Attended, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reservation %s: %w", id, err)
	}

	return &r, nil
}

func (s *PGStore) FindExpiringBetween(ctx context.Context, tMin, tMax time.Time) ([]Reservation, error) {
	query := `
		SELECT id, event_id, attendee_id, status, expires_at, attended, created_at, updated_at
		FROM reservations
		WHERE status = 'PENDING' AND expires_at >= $1 AND expires_at < $2
		ORDER BY expires_at
	`

	return s.queryMany(ctx, query, tMin, tMax)
}

func (s *PGStore) FindOverdue(ctx context.Context, now time.Time) ([]Reservation, error) {
	query := `
		SELECT id, event_id, attendee_id, status, expires_at, attended, created_at, updated_at
		FROM reservations
		WHERE status = 'PENDING' AND expires_at <= $1
		ORDER BY expires_at
	`

	return s.queryMany(ctx, query, now)
}

func (s *PGStore) TransitionToExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(ctx, id, StatusExpired)
}

func (s *PGStore) Confirm(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(ctx, id, StatusConfirmed)
}

func (s *PGStore) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(ctx, id, StatusCancelled)
}

func (s *PGStore) transition(ctx context.Context, id uuid.UUID, target Status) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $2, expires_at = NULL, updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
	`

	tag, err := s.pool.Exec(ctx, query, id, target)
	if err != nil {
		return false, fmt.Errorf("failed to transition reservation %s to %s: %w", id, target, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) queryMany(ctx context.Context, query string, args ...any) ([]Reservation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(
			&r.ID, &r.EventID, &r.AttendeeID, &r.Status, &r.ExpiresAt, &r.Attended, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reservation row: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}
