package repository

import (
	"context"
	"fmt"

	"lexguard-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DomainRepository handles database operations for legal domains
type DomainRepository struct {
	db *pgxpool.Pool
}

// NewDomainRepository creates a new domain repository
func NewDomainRepository(db *pgxpool.Pool) *DomainRepository {
	return &DomainRepository{db: db}
}

// Create creates a new legal domain
func (r *DomainRepository) Create(ctx context.Context, domain *models.LegalDomain) error {
	query := `
		INSERT INTO legal_domains (
			code, name, description, active, document_types,
			processing_rules, compliance_requirements, risk_weight
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		domain.Code,
		domain.Name,
		domain.Description,
		domain.Active,
		domain.DocumentTypes,
		domain.ProcessingRules,
		domain.ComplianceRequirements,
		domain.RiskWeight,
	).Scan(&domain.CreatedAt, &domain.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}
	return nil
}

// GetByCode retrieves a domain by its unique code
func (r *DomainRepository) GetByCode(ctx context.Context, code string) (*models.LegalDomain, error) {
	domain := &models.LegalDomain{}
	query := `
		SELECT code, name, description, active, document_types,
			processing_rules, compliance_requirements, risk_weight,
			created_at, updated_at
		FROM legal_domains
		WHERE code = $1`

	err := r.db.QueryRow(ctx, query, code).Scan(
		&domain.Code,
		&domain.Name,
		&domain.Description,
		&domain.Active,
		&domain.DocumentTypes,
		&domain.ProcessingRules,
		&domain.ComplianceRequirements,
		&domain.RiskWeight,
		&domain.CreatedAt,
		&domain.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return domain, nil
}

// Update updates a legal domain
func (r *DomainRepository) Update(ctx context.Context, domain *models.LegalDomain) error {
	query := `
		UPDATE legal_domains SET
			name = $2,
			description = $3,
			active = $4,
			document_types = $5,
			processing_rules = $6,
			compliance_requirements = $7,
			risk_weight = $8,
			updated_at = NOW()
		WHERE code = $1
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		domain.Code,
		domain.Name,
		domain.Description,
		domain.Active,
		domain.DocumentTypes,
		domain.ProcessingRules,
		domain.ComplianceRequirements,
		domain.RiskWeight,
	).Scan(&domain.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update domain: %w", err)
	}
	return nil
}

// Delete removes a legal domain
func (r *DomainRepository) Delete(ctx context.Context, code string) error {
	query := `DELETE FROM legal_domains WHERE code = $1`
	_, err := r.db.Exec(ctx, query, code)
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	return nil
}

// List retrieves all domains, optionally only active ones
func (r *DomainRepository) List(ctx context.Context, activeOnly bool) ([]*models.LegalDomain, error) {
	query := `
		SELECT code, name, description, active, document_types,
			processing_rules, compliance_requirements, risk_weight,
			created_at, updated_at
		FROM legal_domains`
	if activeOnly {
		query += " WHERE active = true"
	}
	query += " ORDER BY code"

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	var domains []*models.LegalDomain
	for rows.Next() {
		domain := &models.LegalDomain{}
		err := rows.Scan(
			&domain.Code,
			&domain.Name,
			&domain.Description,
			&domain.Active,
			&domain.DocumentTypes,
			&domain.ProcessingRules,
			&domain.ComplianceRequirements,
			&domain.RiskWeight,
			&domain.CreatedAt,
			&domain.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, domain)
	}

	return domains, rows.Err()
}
