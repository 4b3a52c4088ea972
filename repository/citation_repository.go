package repository

import (
	"context"
	"fmt"

	"lexguard-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CitationRepository handles database operations for citation edges.
// It backs both the impact analyzer's edge source and the hierarchy
// service's dependency resolver.
type CitationRepository struct {
	db *pgxpool.Pool
}

// NewCitationRepository creates a new citation repository
func NewCitationRepository(db *pgxpool.Pool) *CitationRepository {
	return &CitationRepository{db: db}
}

// AddCitation records a directed edge: source cites/depends on target
func (r *CitationRepository) AddCitation(ctx context.Context, sourceID, targetID string) error {
	query := `
		INSERT INTO citations (source_document_id, target_document_id)
		VALUES ($1, $2)
		ON CONFLICT (source_document_id, target_document_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("failed to add citation: %w", err)
	}
	return nil
}

// DeleteCitation removes a directed edge
func (r *CitationRepository) DeleteCitation(ctx context.Context, sourceID, targetID string) error {
	query := `DELETE FROM citations WHERE source_document_id = $1 AND target_document_id = $2`
	_, err := r.db.Exec(ctx, query, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("failed to delete citation: %w", err)
	}
	return nil
}

// CitationsFrom returns the outgoing edges of a document. A document
// with no citations yields an empty slice, not an error.
func (r *CitationRepository) CitationsFrom(ctx context.Context, documentID string) ([]models.CitationRelationship, error) {
	query := `
		SELECT source_document_id, target_document_id, created_at
		FROM citations
		WHERE source_document_id = $1
		ORDER BY target_document_id`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query citations: %w", err)
	}
	defer rows.Close()

	edges := make([]models.CitationRelationship, 0)
	for rows.Next() {
		var edge models.CitationRelationship
		err := rows.Scan(&edge.SourceDocumentID, &edge.TargetDocumentID, &edge.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan citation: %w", err)
		}
		edges = append(edges, edge)
	}

	return edges, rows.Err()
}

// CitationsTo returns the incoming edges of a document
func (r *CitationRepository) CitationsTo(ctx context.Context, documentID string) ([]models.CitationRelationship, error) {
	query := `
		SELECT source_document_id, target_document_id, created_at
		FROM citations
		WHERE target_document_id = $1
		ORDER BY source_document_id`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query citations: %w", err)
	}
	defer rows.Close()

	edges := make([]models.CitationRelationship, 0)
	for rows.Next() {
		var edge models.CitationRelationship
		err := rows.Scan(&edge.SourceDocumentID, &edge.TargetDocumentID, &edge.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan citation: %w", err)
		}
		edges = append(edges, edge)
	}

	return edges, rows.Err()
}

// DependsOn reports whether dependentID transitively cites dependencyID
// through the citation graph. The recursive walk is cycle-safe because
// UNION deduplicates already-seen rows.
func (r *CitationRepository) DependsOn(ctx context.Context, dependentID, dependencyID string) (bool, error) {
	query := `
		WITH RECURSIVE deps AS (
			SELECT target_document_id
			FROM citations
			WHERE source_document_id = $1
			UNION
			SELECT c.target_document_id
			FROM citations c
			JOIN deps d ON c.source_document_id = d.target_document_id
		)
		SELECT EXISTS (SELECT 1 FROM deps WHERE target_document_id = $2)`

	var depends bool
	err := r.db.QueryRow(ctx, query, dependentID, dependencyID).Scan(&depends)
	if err != nil {
		return false, fmt.Errorf("failed to resolve dependency: %w", err)
	}
	return depends, nil
}
