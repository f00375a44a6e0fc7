package push

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGTokenStore is the PostgreSQL implementation of TokenStore. The token
// column carries a unique constraint; registration conflicts resolve by
// re-owning the existing row.
type PGTokenStore struct {
	pool *pgxpool.Pool
}

// NewPGTokenStore creates a PostgreSQL-backed device token store.
func NewPGTokenStore(pool *pgxpool.Pool) *PGTokenStore {
	return &PGTokenStore{pool: pool}
}

func (s *PGTokenStore) Upsert(ctx context.Context, token DeviceToken) (DeviceToken, error) {
	if token.Token == "" || token.UserID == uuid.Nil {
		return DeviceToken{}, ErrInvalidToken
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	query := `
		INSERT INTO device_tokens (id, user_id, token, platform, provider, device_info, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, now(), now())
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			platform = EXCLUDED.platform,
			provider = EXCLUDED.provider,
			device_info = EXCLUDED.device_info,
			is_active = TRUE,
			updated_at = now()
		RETURNING id, user_id, token, platform, provider, device_info, is_active, last_used_at, created_at, updated_at
	`

	var out DeviceToken
	err := s.pool.QueryRow(ctx, query,
		token.ID, token.UserID, token.Token, token.Platform, token.Provider, token.DeviceInfo,
	).Scan(
		&out.ID, &out.UserID, &out.Token, &out.Platform, &out.Provider, &out.DeviceInfo,
		&out.IsActive, &out.LastUsedAt, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return DeviceToken{}, fmt.Errorf("failed to upsert device token for user %s: %w", token.UserID, err)
	}

	return out, nil
}

func (s *PGTokenStore) Deactivate(ctx context.Context, token string) error {
	query := `UPDATE device_tokens SET is_active = FALSE, updated_at = now() WHERE token = $1`

	tag, err := s.pool.Exec(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to deactivate device token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (s *PGTokenStore) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE device_tokens SET is_active = FALSE, updated_at = now() WHERE user_id = $1 AND is_active`

	if _, err := s.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to deactivate device tokens for user %s: %w", userID, err)
	}
	return nil
}

func (s *PGTokenStore) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]DeviceToken, error) {
	query := `
		SELECT id, user_id, token, platform, provider, device_info, is_active, last_used_at, created_at, updated_at
		FROM device_tokens
		WHERE user_id = $1 AND is_active
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []DeviceToken
	for rows.Next() {
		var t DeviceToken
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Token, &t.Platform, &t.Provider, &t.DeviceInfo,
			&t.IsActive, &t.LastUsedAt, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGTokenStore) FindActiveByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]DeviceToken, error) {
	query := `
		SELECT id, user_id, token, platform, provider, device_info, is_active, last_used_at, created_at, updated_at
		FROM device_tokens
		WHERE user_id = ANY($1) AND is_active
		ORDER BY user_id, created_at
	`

	rows, err := s.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]DeviceToken)
	for rows.Next() {
		var t DeviceToken
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Token, &t.Platform, &t.Provider, &t.DeviceInfo,
			&t.IsActive, &t.LastUsedAt, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		out[t.UserID] = append(out[t.UserID], t)
	}
	return out, rows.Err()
}
