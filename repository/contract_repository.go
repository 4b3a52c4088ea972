package repository

import (
	"context"
	"fmt"

	"lexguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContractRepository handles database operations for contracts and the
// reviews flagged against them
type ContractRepository struct {
	db *pgxpool.Pool
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create creates a new contract
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	query := `
		INSERT INTO contracts (
			id, title, contract_type, domain_code, referenced_documents
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	if contract.ID == uuid.Nil {
		contract.ID = uuid.New()
	}

	err := r.db.QueryRow(
		ctx, query,
		contract.ID,
		contract.Title,
		contract.ContractType,
		contract.DomainCode,
		contract.ReferencedDocuments,
	).Scan(&contract.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// ListReferencing retrieves contracts whose clauses reference the given
// document
func (r *ContractRepository) ListReferencing(ctx context.Context, documentID string) ([]*models.Contract, error) {
	query := `
		SELECT id, title, contract_type, domain_code, referenced_documents, created_at
		FROM contracts
		WHERE $1 = ANY(referenced_documents)
		ORDER BY title`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		contract := &models.Contract{}
		err := rows.Scan(
			&contract.ID,
			&contract.Title,
			&contract.ContractType,
			&contract.DomainCode,
			&contract.ReferencedDocuments,
			&contract.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, contract)
	}

	return contracts, rows.Err()
}

// CreateReview flags a contract for review
func (r *ContractRepository) CreateReview(ctx context.Context, review *models.ContractReview) error {
	query := `
		INSERT INTO contract_reviews (
			id, contract_id, document_id, impact, priority, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		review.ID,
		review.ContractID,
		review.DocumentID,
		review.Impact,
		review.Priority,
		review.Status,
	).Scan(&review.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create contract review: %w", err)
	}
	return nil
}

// ListOpenReviews retrieves open reviews, most urgent first
func (r *ContractRepository) ListOpenReviews(ctx context.Context, limit int) ([]*models.ContractReview, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, contract_id, document_id, impact, priority, status, created_at
		FROM contract_reviews
		WHERE status = 'open'
		ORDER BY
			CASE priority
				WHEN 'urgent' THEN 0
				WHEN 'high' THEN 1
				WHEN 'medium' THEN 2
				ELSE 3
			END,
			created_at
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.ContractReview
	for rows.Next() {
		review := &models.ContractReview{}
		err := rows.Scan(
			&review.ID,
			&review.ContractID,
			&review.DocumentID,
			&review.Impact,
			&review.Priority,
			&review.Status,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract review: %w", err)
		}
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}
