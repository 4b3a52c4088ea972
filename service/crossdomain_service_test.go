package service

import (
	"context"
	"errors"
	"testing"

	"lexguard-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

type fakeSearcher struct {
	results []models.LegalDocument
	err     error
}

func (f *fakeSearcher) SearchSimilar(ctx context.Context, embedding []float64, threshold float64, limit int) ([]models.LegalDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeDomainProvider struct {
	weights map[string]float64
}

func (f *fakeDomainProvider) GetDomain(ctx context.Context, code string) (*models.LegalDomain, error) {
	weight, ok := f.weights[code]
	if !ok {
		return nil, ErrDomainNotFound
	}
	return &models.LegalDomain{Code: code, RiskWeight: weight}, nil
}

type recordingVisualizer struct {
	graph *models.ImpactGraph
	err   error
}

func (r *recordingVisualizer) RenderImpactGraph(ctx context.Context, graph *models.ImpactGraph) error {
	r.graph = graph
	return r.err
}

func newCrossDomainTestAgent(t *testing.T, opts ...CrossDomainAgentOption) *CrossDomainAgent {
	t.Helper()
	config := models.DefaultAgentConfig("cross-domain-test")
	return NewCrossDomainAgent(config, opts...)
}

func rootDoc() *models.LegalDocument {
	return &models.LegalDocument{
		ID:         "privacy-law-1",
		Title:      "Privacy Act",
		Content:    "Controllers shall document processing activities.",
		DomainCode: "data_protection",
	}
}

func TestCrossDomainProcess(t *testing.T) {
	searcher := &fakeSearcher{results: []models.LegalDocument{
		// Filtered: same document
		{ID: "privacy-law-1", DomainCode: "data_protection", Similarity: 1.0},
		// Filtered: same domain
		{ID: "privacy-law-2", DomainCode: "data_protection", Similarity: 0.92},
		// Kept: different domain
		{ID: "tax-law-1", Title: "Tax Reporting Act", DomainCode: "tax", Similarity: 0.9},
	}}
	citations := &fakeCitationSource{edges: map[string][]string{
		"tax-law-1": {"tax-decree-1"},
		// Edges of the filtered same-domain candidate must not contribute
		"privacy-law-2": {"privacy-decree-1"},
	}}
	visualizer := &recordingVisualizer{}

	agent := newCrossDomainTestAgent(t,
		CrossDomainWithEmbeddingProvider(&fakeEmbedder{}),
		CrossDomainWithSimilaritySearcher(searcher),
		CrossDomainWithImpactAnalyzer(NewImpactAnalyzer(ImpactWithCitationSource(citations))),
		CrossDomainWithDomainProvider(&fakeDomainProvider{weights: map[string]float64{"tax": 2.0}}),
		CrossDomainWithVisualizer(visualizer),
	)

	result, err := agent.Execute(context.Background(), &ProcessContext{Document: rootDoc()})
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Len(t, result.Impacts, 1)
	impact := result.Impacts[0]
	assert.Equal(t, "privacy-law-1", impact.SourceDocumentID)
	assert.Equal(t, "tax-decree-1", impact.ImpactedDocumentID)
	assert.Equal(t, "tax", impact.DomainCode)
	assert.Equal(t, models.ImpactDirect, impact.ImpactLevel)
	assert.InDelta(t, 0.9, impact.Similarity, 0.001)
	// One hop at domain weight 2.0
	assert.InDelta(t, 2.0, impact.RiskScore, 0.001)

	require.NotNil(t, visualizer.graph)
	nodeIDs := make(map[string]bool)
	for _, node := range visualizer.graph.Nodes {
		nodeIDs[node.ID] = true
	}
	assert.True(t, nodeIDs["privacy-law-1"])
	assert.True(t, nodeIDs["tax-law-1"])
	assert.True(t, nodeIDs["tax-decree-1"])
	assert.False(t, nodeIDs["privacy-law-2"])
}

func TestCrossDomainRiskWeightDefaultsToOne(t *testing.T) {
	searcher := &fakeSearcher{results: []models.LegalDocument{
		{ID: "labor-law-1", DomainCode: "labor", Similarity: 0.85},
	}}
	citations := &fakeCitationSource{edges: map[string][]string{
		"labor-law-1": {"labor-decree-1"},
	}}

	agent := newCrossDomainTestAgent(t,
		CrossDomainWithEmbeddingProvider(&fakeEmbedder{}),
		CrossDomainWithSimilaritySearcher(searcher),
		CrossDomainWithImpactAnalyzer(NewImpactAnalyzer(ImpactWithCitationSource(citations))),
		// No weight registered for "labor"
		CrossDomainWithDomainProvider(&fakeDomainProvider{weights: map[string]float64{}}),
	)

	result, err := agent.Execute(context.Background(), &ProcessContext{Document: rootDoc()})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Impacts, 1)
	assert.InDelta(t, 1.0, result.Impacts[0].RiskScore, 0.001)
}

func TestCrossDomainRiskScoreDecaysWithChainLength(t *testing.T) {
	searcher := &fakeSearcher{results: []models.LegalDocument{
		{ID: "tax-law-1", DomainCode: "tax", Similarity: 0.9},
	}}
	citations := &fakeCitationSource{edges: map[string][]string{
		"tax-law-1":    {"tax-decree-1"},
		"tax-decree-1": {"tax-local-1"},
	}}

	agent := newCrossDomainTestAgent(t,
		CrossDomainWithEmbeddingProvider(&fakeEmbedder{}),
		CrossDomainWithSimilaritySearcher(searcher),
		CrossDomainWithImpactAnalyzer(NewImpactAnalyzer(ImpactWithCitationSource(citations))),
	)

	result, err := agent.Execute(context.Background(), &ProcessContext{Document: rootDoc()})
	require.NoError(t, err)
	require.Len(t, result.Impacts, 2)

	scores := make(map[string]float64)
	for _, impact := range result.Impacts {
		scores[impact.ImpactedDocumentID] = impact.RiskScore
	}
	assert.InDelta(t, 1.0, scores["tax-decree-1"], 0.001)
	assert.InDelta(t, 0.5, scores["tax-local-1"], 0.001)
}

func TestCrossDomainFailureModes(t *testing.T) {
	t.Run("empty content", func(t *testing.T) {
		agent := newCrossDomainTestAgent(t,
			CrossDomainWithEmbeddingProvider(&fakeEmbedder{}),
			CrossDomainWithSimilaritySearcher(&fakeSearcher{}),
			CrossDomainWithImpactAnalyzer(NewImpactAnalyzer(ImpactWithCitationSource(&fakeCitationSource{}))),
		)

		doc := rootDoc()
		doc.Content = ""
		result, err := agent.Execute(context.Background(), &ProcessContext{Document: doc})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "input")
	})

	t.Run("embedding failure", func(t *testing.T) {
		agent := newCrossDomainTestAgent(t,
			CrossDomainWithEmbeddingProvider(&fakeEmbedder{err: errors.New("quota exceeded")}),
			CrossDomainWithSimilaritySearcher(&fakeSearcher{}),
			CrossDomainWithImpactAnalyzer(NewImpactAnalyzer(ImpactWithCitationSource(&fakeCitationSource{}))),
		)

		result, err := agent.Execute(context.Background(), &ProcessContext{Document: rootDoc()})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "embedding")
	})

	t.Run("similarity search failure", func(t *testing.T) {
		agent := newCrossDomainTestAgent(t,
			CrossDomainWithEmbeddingProvider(&fakeEmbedder{}),
			CrossDomainWithSimilaritySearcher(&fakeSearcher{err: errors.New("index offline")}),
			CrossDomainWithImpactAnalyzer(NewImpactAnalyzer(ImpactWithCitationSource(&fakeCitationSource{}))),
		)

		result, err := agent.Execute(context.Background(), &ProcessContext{Document: rootDoc()})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "similarity_search")
	})

	t.Run("failed results are not cached", func(t *testing.T) {
		embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
		agent := newCrossDomainTestAgent(t,
			CrossDomainWithEmbeddingProvider(embedder),
			CrossDomainWithSimilaritySearcher(&fakeSearcher{}),
			CrossDomainWithImpactAnalyzer(NewImpactAnalyzer(ImpactWithCitationSource(&fakeCitationSource{}))),
		)

		result, err := agent.Execute(context.Background(), &ProcessContext{Document: rootDoc()})
		require.NoError(t, err)
		require.False(t, result.Success)

		// After the collaborator recovers, the same document succeeds
		embedder.err = nil
		result, err = agent.Execute(context.Background(), &ProcessContext{Document: rootDoc()})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.Cached)
	})
}

func TestCrossDomainNoCandidates(t *testing.T) {
	agent := newCrossDomainTestAgent(t,
		CrossDomainWithEmbeddingProvider(&fakeEmbedder{}),
		CrossDomainWithSimilaritySearcher(&fakeSearcher{}),
		CrossDomainWithImpactAnalyzer(NewImpactAnalyzer(ImpactWithCitationSource(&fakeCitationSource{}))),
	)

	result, err := agent.Execute(context.Background(), &ProcessContext{Document: rootDoc()})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Impacts)
}
