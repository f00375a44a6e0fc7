package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/eventkit/pkg/pg"
)

// PGLedger is the PostgreSQL implementation of Ledger.
//
// Claim relies on a partial unique index over (type, entity_type,
// entity_id, channel) WHERE status <> 'FAILED' (see the delivery_log
// migration). The INSERT either lands or violates the index; there is no
// separate existence check, so concurrent claims for the same key resolve
// inside the database.
type PGLedger struct {
	pool *pgxpool.Pool
}

// NewPGLedger creates a PostgreSQL-backed delivery ledger.
func NewPGLedger(pool *pgxpool.Pool) *PGLedger {
	return &PGLedger{pool: pool}
}

func (l *PGLedger) Claim(ctx context.Context, e Entry) (bool, error) {
	if e.Type == "" || e.EntityType == "" || e.EntityID == "" || e.Channel == "" {
		return false, ErrInvalidEntry
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	query := `
		INSERT INTO delivery_log (id, type, channel, recipient, entity_type, entity_id, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'QUEUED', $7, now())
		ON CONFLICT DO NOTHING
	`

	tag, err := l.pool.Exec(ctx, query,
		e.ID, e.Type, e.Channel, e.Recipient, e.EntityType, e.EntityID, e.Metadata,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim ledger entry for %s/%s: %w", e.Type, e.EntityID, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (l *PGLedger) MarkSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE delivery_log
		SET status = 'SENT', sent_at = now(), error_message = NULL
		WHERE id = $1
	`

	tag, err := l.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark ledger entry %s sent: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (l *PGLedger) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE delivery_log
		SET status = 'FAILED', error_message = $2
		WHERE id = $1
	`

	tag, err := l.pool.Exec(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark ledger entry %s failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (l *PGLedger) WasSent(ctx context.Context, key Key) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM delivery_log
			WHERE type = $1 AND entity_type = $2 AND entity_id = $3 AND channel = $4 AND status = 'SENT'
		)
	`

	var sent bool
	err := l.pool.QueryRow(ctx, query, key.Type, key.EntityType, key.EntityID, key.Channel).Scan(&sent)
	if err != nil {
		return false, fmt.Errorf("failed to check sent status for %s/%s: %w", key.Type, key.EntityID, err)
	}
	return sent, nil
}

func (l *PGLedger) Find(ctx context.Context, key Key) ([]Entry, error) {
	query := `
		SELECT id, type, channel, recipient, entity_type, entity_id, status, error_message, metadata, created_at, sent_at
		FROM delivery_log
		WHERE type = $1 AND entity_type = $2 AND entity_id = $3 AND channel = $4
		ORDER BY created_at
	`

	rows, err := l.pool.Query(ctx, query, key.Type, key.EntityType, key.EntityID, key.Channel)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Type, &e.Channel, &e.Recipient, &e.EntityType, &e.EntityID,
			&e.Status, &e.ErrorMessage, &e.Metadata, &e.CreatedAt, &e.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

func (l *PGLedger) FindByMessageID(ctx context.Context, messageID string) (*Entry, error) {
	query := `
		SELECT id, type, channel, recipient, entity_type, entity_id, status, error_message, metadata, created_at, sent_at
		FROM delivery_log
		WHERE metadata ->> 'message_id' = $1
		LIMIT 1
	`

	var e Entry
	err := l.pool.QueryRow(ctx, query, messageID).Scan(
		&e.ID, &e.Type, &e.Channel, &e.Recipient, &e.EntityType, &e.EntityID,
		&e.Status, &e.ErrorMessage, &e.Metadata, &e.CreatedAt, &e.SentAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to find ledger entry by message id: %w", err)
	}
	return &e, nil
}

func (l *PGLedger) SetMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string) error {
	query := `
		UPDATE delivery_log
		SET metadata = coalesce(metadata, '{}'::jsonb) || $2
		WHERE id = $1
	`

	tag, err := l.pool.Exec(ctx, query, id, metadata)
	if err != nil {
		return fmt.Errorf("failed to update ledger entry %s metadata: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
