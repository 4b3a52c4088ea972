package service

import (
	"context"
	"errors"
	"testing"

	"lexguard-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCitationSource struct {
	edges   map[string][]string
	failOn  string
	failErr error
}

func (f *fakeCitationSource) CitationsFrom(ctx context.Context, documentID string) ([]models.CitationRelationship, error) {
	if documentID == f.failOn {
		return nil, f.failErr
	}
	var rels []models.CitationRelationship
	for _, target := range f.edges[documentID] {
		rels = append(rels, models.CitationRelationship{
			SourceDocumentID: documentID,
			TargetDocumentID: target,
		})
	}
	return rels, nil
}

func chainByAffected(chains []models.ImpactChain) map[string]models.ImpactChain {
	byID := make(map[string]models.ImpactChain, len(chains))
	for _, chain := range chains {
		byID[chain.AffectedDocumentID] = chain
	}
	return byID
}

func TestAnalyzeImpactEachDocumentOnce(t *testing.T) {
	// A cites B and C, B cites C. C is reachable twice but must appear
	// in exactly one chain.
	source := &fakeCitationSource{edges: map[string][]string{
		"A": {"B", "C"},
		"B": {"C"},
	}}
	analyzer := NewImpactAnalyzer(ImpactWithCitationSource(source))

	chains, err := analyzer.AnalyzeImpact(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, chains, 2)

	byID := chainByAffected(chains)
	require.Contains(t, byID, "B")
	require.Contains(t, byID, "C")

	assert.Equal(t, []string{"A"}, byID["B"].Path)
	assert.Equal(t, models.ImpactDirect, byID["B"].ImpactLevel)

	// Depth-first: the chain through B wins over the direct A->C edge
	assert.Equal(t, []string{"A", "B"}, byID["C"].Path)
	assert.Equal(t, models.ImpactIndirect, byID["C"].ImpactLevel)

	for _, chain := range chains {
		assert.Equal(t, "A", chain.RootDocumentID)
	}
}

func TestAnalyzeImpactCycleTerminates(t *testing.T) {
	source := &fakeCitationSource{edges: map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
	}}
	analyzer := NewImpactAnalyzer(ImpactWithCitationSource(source))

	chains, err := analyzer.AnalyzeImpact(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, chains, 2)

	byID := chainByAffected(chains)
	assert.Contains(t, byID, "B")
	assert.Contains(t, byID, "C")
	assert.NotContains(t, byID, "A")
}

func TestAnalyzeImpactLevels(t *testing.T) {
	source := &fakeCitationSource{edges: map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"D"},
		"D": {"E"},
	}}
	analyzer := NewImpactAnalyzer(ImpactWithCitationSource(source))

	chains, err := analyzer.AnalyzeImpact(context.Background(), "A")
	require.NoError(t, err)

	byID := chainByAffected(chains)
	assert.Equal(t, models.ImpactDirect, byID["B"].ImpactLevel)
	assert.Equal(t, models.ImpactIndirect, byID["C"].ImpactLevel)
	assert.Equal(t, models.ImpactIndirect, byID["D"].ImpactLevel)
	assert.Equal(t, models.ImpactPotential, byID["E"].ImpactLevel)
}

func TestAnalyzeImpactNoCitations(t *testing.T) {
	source := &fakeCitationSource{edges: map[string][]string{}}
	analyzer := NewImpactAnalyzer(ImpactWithCitationSource(source))

	chains, err := analyzer.AnalyzeImpact(context.Background(), "A")
	require.NoError(t, err)
	assert.Empty(t, chains)
}

func TestAnalyzeImpactFetchError(t *testing.T) {
	source := &fakeCitationSource{
		edges:   map[string][]string{"A": {"B"}},
		failOn:  "B",
		failErr: errors.New("edge store timeout"),
	}
	analyzer := NewImpactAnalyzer(ImpactWithCitationSource(source))

	_, err := analyzer.AnalyzeImpact(context.Background(), "A")
	require.Error(t, err)

	var fetchErr *CitationFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "B", fetchErr.DocumentID)
	assert.True(t, fetchErr.Retryable)
}

func TestAnalyzeImpactValidation(t *testing.T) {
	analyzer := NewImpactAnalyzer(ImpactWithCitationSource(&fakeCitationSource{}))

	_, err := analyzer.AnalyzeImpact(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
