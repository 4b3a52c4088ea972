package repository

import (
	"context"
	"fmt"
	"strings"

	"lexguard-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles database operations for legal documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// UpsertDocument inserts or replaces a document snapshot
func (r *DocumentRepository) UpsertDocument(ctx context.Context, doc *models.LegalDocument) error {
	query := `
		INSERT INTO legal_documents (
			id, title, content, hierarchy_level, domain_code, last_modified, is_valid
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			hierarchy_level = EXCLUDED.hierarchy_level,
			domain_code = EXCLUDED.domain_code,
			last_modified = EXCLUDED.last_modified,
			is_valid = EXCLUDED.is_valid`

	_, err := r.db.Exec(
		ctx, query,
		doc.ID,
		doc.Title,
		doc.Content,
		int(doc.HierarchyLevel),
		doc.DomainCode,
		doc.LastModified,
		doc.IsValid,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// UpdateValidity flips the validity flag of a persisted document
func (r *DocumentRepository) UpdateValidity(ctx context.Context, id string, valid bool) error {
	query := `
		UPDATE legal_documents SET
			is_valid = $2,
			last_modified = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, valid)
	if err != nil {
		return fmt.Errorf("failed to update validity: %w", err)
	}
	return nil
}

// GetByID retrieves a document by its legal identifier
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.LegalDocument, error) {
	doc := &models.LegalDocument{}
	var level int

	query := `
		SELECT id, title, content, hierarchy_level, domain_code, last_modified, is_valid
		FROM legal_documents
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&level,
		&doc.DomainCode,
		&doc.LastModified,
		&doc.IsValid,
	)
	if err != nil {
		return nil, err
	}

	doc.HierarchyLevel = models.HierarchyLevel(level)
	return doc, nil
}

// List retrieves documents, optionally filtered by validity
func (r *DocumentRepository) List(ctx context.Context, validOnly bool) ([]*models.LegalDocument, error) {
	query := `
		SELECT id, title, content, hierarchy_level, domain_code, last_modified, is_valid
		FROM legal_documents`
	if validOnly {
		query += " WHERE is_valid = true"
	}
	query += " ORDER BY hierarchy_level, id"

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.LegalDocument
	for rows.Next() {
		doc := &models.LegalDocument{}
		var level int
		err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.Content,
			&level,
			&doc.DomainCode,
			&doc.LastModified,
			&doc.IsValid,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.HierarchyLevel = models.HierarchyLevel(level)
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// UpdateEmbedding stores the document's embedding vector
func (r *DocumentRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float64) error {
	query := `
		UPDATE legal_documents SET
			embedding = $2::vector
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, formatVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return nil
}

// SearchSimilar performs a cosine-similarity search over document
// embeddings, returning valid documents above the threshold ordered by
// similarity
func (r *DocumentRepository) SearchSimilar(
	ctx context.Context,
	embedding []float64,
	threshold float64,
	limit int,
) ([]models.LegalDocument, error) {
	if len(embedding) != 768 {
		return nil, fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}
	if limit <= 0 {
		limit = 10
	}

	vectorStr := formatVector(embedding)

	query := `
		SELECT
			id,
			title,
			content,
			hierarchy_level,
			domain_code,
			last_modified,
			is_valid,
			1 - (embedding <=> $1::vector) AS similarity
		FROM legal_documents
		WHERE
			embedding IS NOT NULL
			AND is_valid = true
			AND 1 - (embedding <=> $1::vector) >= $2
		ORDER BY
			embedding <=> $1::vector
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, vectorStr, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar documents: %w", err)
	}
	defer rows.Close()

	var docs []models.LegalDocument
	for rows.Next() {
		var doc models.LegalDocument
		var level int
		err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.Content,
			&level,
			&doc.DomainCode,
			&doc.LastModified,
			&doc.IsValid,
			&doc.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan similar document: %w", err)
		}
		doc.HierarchyLevel = models.HierarchyLevel(level)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating similar documents: %w", err)
	}

	return docs, nil
}
