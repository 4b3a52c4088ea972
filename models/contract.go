package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractType classifies a contract tracked for regulatory impact
type ContractType string

const (
	ContractEmployment ContractType = "employment"
	ContractService    ContractType = "service"
	ContractSales      ContractType = "sales"
	ContractLease      ContractType = "lease"
	ContractNDA        ContractType = "nda"
	ContractOther      ContractType = "other"
)

// ReviewPriority orders contract reviews for downstream teams
type ReviewPriority string

const (
	PriorityLow    ReviewPriority = "low"
	PriorityMedium ReviewPriority = "medium"
	PriorityHigh   ReviewPriority = "high"
	PriorityUrgent ReviewPriority = "urgent"
)

// Contract represents an agreement whose clauses reference legal documents
type Contract struct {
	ID                  uuid.UUID    `json:"id"`
	Title               string       `json:"title"`
	ContractType        ContractType `json:"contract_type"`
	DomainCode          string       `json:"domain_code"`
	ReferencedDocuments []string     `json:"referenced_documents"`
	CreatedAt           time.Time    `json:"created_at"`
}

// ContractReview flags a contract for human review after a referenced
// document changed or was invalidated
type ContractReview struct {
	ID         uuid.UUID      `json:"id"`
	ContractID uuid.UUID      `json:"contract_id"`
	DocumentID string         `json:"document_id"`
	Impact     ImpactLevel    `json:"impact"`
	Priority   ReviewPriority `json:"priority"`
	Status     string         `json:"status"` // "open", "resolved"
	CreatedAt  time.Time      `json:"created_at"`
}

// PriorityForImpact derives review priority from how directly the
// referenced document was impacted
func PriorityForImpact(level ImpactLevel) ReviewPriority {
	switch level {
	case ImpactDirect:
		return PriorityUrgent
	case ImpactIndirect:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
