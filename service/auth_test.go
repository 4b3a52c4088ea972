package service

import (
	"context"
	"testing"

	"lexguard-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeReviewerSource struct {
	reviewers map[uuid.UUID]*models.Reviewer
}

func (f *fakeReviewerSource) GetByID(ctx context.Context, id uuid.UUID) (*models.Reviewer, error) {
	reviewer, ok := f.reviewers[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return reviewer, nil
}

func TestReviewerAuthVerifier(t *testing.T) {
	secret := "s3cret-token"
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)

	reviewerID := uuid.New()
	source := &fakeReviewerSource{reviewers: map[uuid.UUID]*models.Reviewer{
		reviewerID: {
			ID:         reviewerID,
			Name:       "Ana Reviewer",
			APIKeyHash: string(hash),
			Roles:      []string{"reviewer"},
			Domains:    []string{"data_protection"},
		},
	}}
	verifier := NewReviewerAuthVerifier(source)
	ctx := context.Background()

	t.Run("valid key", func(t *testing.T) {
		identity, err := verifier.Verify(ctx, reviewerID.String()+"."+secret)
		require.NoError(t, err)
		assert.Equal(t, "Ana Reviewer", identity.Subject)
		assert.Equal(t, []string{"reviewer"}, identity.Roles)
		assert.Equal(t, []string{"data_protection"}, identity.Domains)
	})

	invalid := []struct {
		name string
		key  string
	}{
		{"no separator", "justonepiece"},
		{"not a uuid", "not-a-uuid." + secret},
		{"unknown reviewer", uuid.NewString() + "." + secret},
		{"wrong secret", reviewerID.String() + ".wrong"},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := verifier.Verify(ctx, tc.key)
			require.Error(t, err)

			// Uniform refusal regardless of which part was wrong
			var secErr *SecurityError
			require.ErrorAs(t, err, &secErr)
			assert.Equal(t, SecurityAuthRequired, secErr.Kind)
			assert.Equal(t, "invalid API key", secErr.Reason)
		})
	}
}
