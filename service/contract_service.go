package service

import (
	"context"
	"errors"
	"time"

	"lexguard-backend/models"

	"github.com/google/uuid"
)

// ContractStore persists contracts and the reviews flagged against them
type ContractStore interface {
	ListReferencing(ctx context.Context, documentID string) ([]*models.Contract, error)
	CreateReview(ctx context.Context, review *models.ContractReview) error
}

// ContractService maps impacted documents to contracts requiring review
type ContractService struct {
	store ContractStore
}

// ContractServiceOption is a functional option for ContractService
type ContractServiceOption func(*ContractService)

// ContractWithStore sets the persistence backend
func ContractWithStore(store ContractStore) ContractServiceOption {
	return func(s *ContractService) {
		s.store = store
	}
}

// NewContractService creates a new contract service
func NewContractService(opts ...ContractServiceOption) *ContractService {
	s := &ContractService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FlagImpactedContracts creates one open review per contract that
// references an impacted document, with priority derived from how
// directly the document was impacted. Returns the created reviews.
func (s *ContractService) FlagImpactedContracts(ctx context.Context, chains []models.ImpactChain) ([]*models.ContractReview, error) {
	if s.store == nil {
		return nil, errors.New("contract store not set")
	}

	// Keep the most direct impact level per document
	levels := make(map[string]models.ImpactLevel)
	for _, chain := range chains {
		current, ok := levels[chain.AffectedDocumentID]
		if !ok || impactRank(chain.ImpactLevel) > impactRank(current) {
			levels[chain.AffectedDocumentID] = chain.ImpactLevel
		}
	}

	reviews := make([]*models.ContractReview, 0)
	flagged := make(map[uuid.UUID]bool)

	for documentID, level := range levels {
		contracts, err := s.store.ListReferencing(ctx, documentID)
		if err != nil {
			return reviews, err
		}

		for _, contract := range contracts {
			if flagged[contract.ID] {
				continue
			}
			flagged[contract.ID] = true

			review := &models.ContractReview{
				ID:         uuid.New(),
				ContractID: contract.ID,
				DocumentID: documentID,
				Impact:     level,
				Priority:   models.PriorityForImpact(level),
				Status:     "open",
				CreatedAt:  time.Now(),
			}
			if err := s.store.CreateReview(ctx, review); err != nil {
				return reviews, err
			}
			reviews = append(reviews, review)
		}
	}

	return reviews, nil
}

func impactRank(level models.ImpactLevel) int {
	switch level {
	case models.ImpactDirect:
		return 3
	case models.ImpactIndirect:
		return 2
	default:
		return 1
	}
}
