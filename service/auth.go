package service

import (
	"context"
	"strings"

	"lexguard-backend/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ReviewerSource loads reviewer identities from external persistence
type ReviewerSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reviewer, error)
}

// ReviewerAuthVerifier verifies API keys of the form "<reviewer-id>.<secret>"
// against the stored bcrypt hash of the secret
type ReviewerAuthVerifier struct {
	reviewers ReviewerSource
}

// NewReviewerAuthVerifier creates a new verifier over the given source
func NewReviewerAuthVerifier(reviewers ReviewerSource) *ReviewerAuthVerifier {
	return &ReviewerAuthVerifier{reviewers: reviewers}
}

// Verify resolves an API key to a caller identity. Any malformed key,
// unknown reviewer, or hash mismatch fails verification; the reason is
// deliberately uniform to avoid leaking which part was wrong.
func (v *ReviewerAuthVerifier) Verify(ctx context.Context, apiKey string) (*Identity, error) {
	id, secret, ok := strings.Cut(apiKey, ".")
	if !ok {
		return nil, &SecurityError{Kind: SecurityAuthRequired, Reason: "invalid API key"}
	}

	reviewerID, err := uuid.Parse(id)
	if err != nil {
		return nil, &SecurityError{Kind: SecurityAuthRequired, Reason: "invalid API key"}
	}

	reviewer, err := v.reviewers.GetByID(ctx, reviewerID)
	if err != nil {
		return nil, &SecurityError{Kind: SecurityAuthRequired, Reason: "invalid API key"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(reviewer.APIKeyHash), []byte(secret)); err != nil {
		return nil, &SecurityError{Kind: SecurityAuthRequired, Reason: "invalid API key"}
	}

	return &Identity{
		Subject: reviewer.Name,
		Roles:   reviewer.Roles,
		Domains: reviewer.Domains,
	}, nil
}
