package repository

import (
	"context"
	"fmt"

	"lexguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxRepository handles database operations for the notification
// outbox
type OutboxRepository struct {
	db *pgxpool.Pool
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Enqueue stores a pending notification event
func (r *OutboxRepository) Enqueue(ctx context.Context, event *models.NotificationEvent) error {
	query := `
		INSERT INTO notification_outbox (
			id, type, document_id, caused_by, change_type, details, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		event.ID,
		event.Type,
		event.DocumentID,
		event.CausedBy,
		event.ChangeType,
		event.Details,
		event.Status,
	).Scan(&event.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// FetchPending retrieves pending events in creation order
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]*models.NotificationEvent, error) {
	query := `
		SELECT id, type, document_id, caused_by, change_type, details,
			status, created_at, sent_at
		FROM notification_outbox
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending notifications: %w", err)
	}
	defer rows.Close()

	var events []*models.NotificationEvent
	for rows.Next() {
		event := &models.NotificationEvent{}
		err := rows.Scan(
			&event.ID,
			&event.Type,
			&event.DocumentID,
			&event.CausedBy,
			&event.ChangeType,
			&event.Details,
			&event.Status,
			&event.CreatedAt,
			&event.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// MarkSent records successful delivery of an event
func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notification_outbox SET
			status = 'sent',
			sent_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure; the row stays for inspection
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notification_outbox SET
			status = 'failed'
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}
