package repository

import (
	"context"
	"fmt"

	"lexguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewerRepository handles database operations for reviewer
// identities
type ReviewerRepository struct {
	db *pgxpool.Pool
}

// NewReviewerRepository creates a new reviewer repository
func NewReviewerRepository(db *pgxpool.Pool) *ReviewerRepository {
	return &ReviewerRepository{db: db}
}

// Create creates a new reviewer
func (r *ReviewerRepository) Create(ctx context.Context, reviewer *models.Reviewer) error {
	query := `
		INSERT INTO reviewers (id, name, api_key_hash, roles, domains)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	if reviewer.ID == uuid.Nil {
		reviewer.ID = uuid.New()
	}

	err := r.db.QueryRow(
		ctx, query,
		reviewer.ID,
		reviewer.Name,
		reviewer.APIKeyHash,
		reviewer.Roles,
		reviewer.Domains,
	).Scan(&reviewer.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create reviewer: %w", err)
	}
	return nil
}

// GetByID retrieves a reviewer by id
func (r *ReviewerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reviewer, error) {
	reviewer := &models.Reviewer{}
	query := `
		SELECT id, name, api_key_hash, roles, domains, created_at
		FROM reviewers
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&reviewer.ID,
		&reviewer.Name,
		&reviewer.APIKeyHash,
		&reviewer.Roles,
		&reviewer.Domains,
		&reviewer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return reviewer, nil
}
