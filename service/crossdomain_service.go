package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lexguard-backend/models"
)

const (
	defaultSimilarityThreshold = 0.8
	defaultSimilarityTopK      = 10
)

// EmbeddingProvider turns document text into an embedding vector; the
// vector itself comes from an external collaborator
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// SimilaritySearcher retrieves documents above a similarity threshold
// from a corpus-wide vector index
type SimilaritySearcher interface {
	SearchSimilar(ctx context.Context, embedding []float64, threshold float64, limit int) ([]models.LegalDocument, error)
}

// ImpactVisualizer receives the abstract node/edge description of a
// cross-domain analysis. Rendering is out of scope.
type ImpactVisualizer interface {
	RenderImpactGraph(ctx context.Context, graph *models.ImpactGraph) error
}

// DomainProvider serves domain records to agents; the registry
// implements it
type DomainProvider interface {
	GetDomain(ctx context.Context, code string) (*models.LegalDomain, error)
}

// CrossDomainAgent finds impact across legal domains that no explicit
// citation connects, by composing semantic similarity with the citation
// impact traversal. It implements Processor and runs on the BaseAgent
// substrate.
type CrossDomainAgent struct {
	*BaseAgent

	embedder   EmbeddingProvider
	searcher   SimilaritySearcher
	impact     *ImpactAnalyzer
	visualizer ImpactVisualizer
	domains    DomainProvider

	threshold float64
	topK      int
}

// CrossDomainAgentOption is a functional option for CrossDomainAgent
type CrossDomainAgentOption func(*CrossDomainAgent)

// CrossDomainWithEmbeddingProvider sets the embedding collaborator
func CrossDomainWithEmbeddingProvider(embedder EmbeddingProvider) CrossDomainAgentOption {
	return func(a *CrossDomainAgent) {
		a.embedder = embedder
	}
}

// CrossDomainWithSimilaritySearcher sets the vector index collaborator
func CrossDomainWithSimilaritySearcher(searcher SimilaritySearcher) CrossDomainAgentOption {
	return func(a *CrossDomainAgent) {
		a.searcher = searcher
	}
}

// CrossDomainWithImpactAnalyzer sets the citation impact analyzer
func CrossDomainWithImpactAnalyzer(impact *ImpactAnalyzer) CrossDomainAgentOption {
	return func(a *CrossDomainAgent) {
		a.impact = impact
	}
}

// CrossDomainWithVisualizer sets the visualization collaborator
func CrossDomainWithVisualizer(visualizer ImpactVisualizer) CrossDomainAgentOption {
	return func(a *CrossDomainAgent) {
		a.visualizer = visualizer
	}
}

// CrossDomainWithDomainProvider sets the domain registry used for risk
// weights
func CrossDomainWithDomainProvider(domains DomainProvider) CrossDomainAgentOption {
	return func(a *CrossDomainAgent) {
		a.domains = domains
	}
}

// CrossDomainWithThreshold overrides the similarity threshold
func CrossDomainWithThreshold(threshold float64) CrossDomainAgentOption {
	return func(a *CrossDomainAgent) {
		a.threshold = threshold
	}
}

// CrossDomainWithAuthVerifier sets the auth collaborator on the
// underlying substrate
func CrossDomainWithAuthVerifier(auth AuthVerifier) CrossDomainAgentOption {
	return func(a *CrossDomainAgent) {
		a.auth = auth
	}
}

// NewCrossDomainAgent creates a cross-domain impact agent on the shared
// substrate
func NewCrossDomainAgent(config models.AgentConfig, opts ...CrossDomainAgentOption) *CrossDomainAgent {
	agent := &CrossDomainAgent{
		threshold: defaultSimilarityThreshold,
		topK:      defaultSimilarityTopK,
	}
	agent.BaseAgent = NewBaseAgent(config, agent)
	for _, opt := range opts {
		opt(agent)
	}
	return agent
}

// Process analyzes one document for cross-domain impact. Collaborator
// failures come back as a failed result, never as a partial mutation of
// shared state.
func (a *CrossDomainAgent) Process(ctx context.Context, pctx *ProcessContext) (*models.AgentResult, error) {
	if a.embedder == nil || a.searcher == nil || a.impact == nil {
		return nil, errors.New("cross-domain agent collaborators not set")
	}

	doc := pctx.Document
	if doc.Content == "" {
		return a.failed(doc.ID, &AnalysisError{Stage: "input", Err: errors.New("document content is empty")}), nil
	}

	embedding, err := a.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return a.failed(doc.ID, &AnalysisError{Stage: "embedding", Err: err}), nil
	}

	candidates, err := a.searcher.SearchSimilar(ctx, embedding, a.threshold, a.topK)
	if err != nil {
		return a.failed(doc.ID, &AnalysisError{Stage: "similarity_search", Err: err}), nil
	}

	graph := &models.ImpactGraph{
		Nodes: []models.ImpactGraphNode{{
			ID:         doc.ID,
			Label:      doc.Title,
			DomainCode: doc.DomainCode,
			Root:       true,
		}},
		Edges: make([]models.ImpactGraphEdge, 0),
	}
	seen := map[string]bool{doc.ID: true}

	impacts := make([]models.CrossDomainImpact, 0)
	for _, candidate := range candidates {
		if candidate.ID == doc.ID || candidate.DomainCode == doc.DomainCode {
			continue
		}

		a.addNode(graph, seen, candidate.ID, candidate.Title, candidate.DomainCode)
		graph.Edges = append(graph.Edges, models.ImpactGraphEdge{
			From:  doc.ID,
			To:    candidate.ID,
			Kind:  "similarity",
			Score: candidate.Similarity,
		})

		chains, err := a.impact.AnalyzeImpact(ctx, candidate.ID)
		if err != nil {
			return a.failed(doc.ID, &AnalysisError{Stage: "impact_traversal", Err: err}), nil
		}

		weight := a.riskWeight(ctx, candidate.DomainCode)
		for _, chain := range chains {
			chainLength := len(chain.Path)
			if chainLength == 0 {
				chainLength = 1
			}

			impacts = append(impacts, models.CrossDomainImpact{
				SourceDocumentID:   doc.ID,
				ImpactedDocumentID: chain.AffectedDocumentID,
				Path:               chain.Path,
				ImpactLevel:        chain.ImpactLevel,
				RiskScore:          (1.0 / float64(chainLength)) * weight,
				DomainCode:         candidate.DomainCode,
				Similarity:         candidate.Similarity,
			})

			a.addNode(graph, seen, chain.AffectedDocumentID, chain.AffectedDocumentID, candidate.DomainCode)
			if len(chain.Path) > 0 {
				graph.Edges = append(graph.Edges, models.ImpactGraphEdge{
					From: chain.Path[len(chain.Path)-1],
					To:   chain.AffectedDocumentID,
					Kind: "citation",
				})
			}
		}
	}

	if a.visualizer != nil {
		if err := a.visualizer.RenderImpactGraph(ctx, graph); err != nil {
			return a.failed(doc.ID, &AnalysisError{Stage: "visualization", Err: err}), nil
		}
	}

	return &models.AgentResult{
		DocumentID: doc.ID,
		Success:    true,
		Impacts:    impacts,
	}, nil
}

// riskWeight looks up the domain-supplied importance weight, defaulting
// to 1 when the registry has no answer
func (a *CrossDomainAgent) riskWeight(ctx context.Context, domainCode string) float64 {
	if a.domains == nil || domainCode == "" {
		return 1.0
	}
	domain, err := a.domains.GetDomain(ctx, domainCode)
	if err != nil {
		log.Printf("Warning: Failed to load domain %s for risk weight: %v", domainCode, err)
		return 1.0
	}
	if domain.RiskWeight <= 0 {
		return 1.0
	}
	return domain.RiskWeight
}

func (a *CrossDomainAgent) addNode(graph *models.ImpactGraph, seen map[string]bool, id, label, domainCode string) {
	if seen[id] {
		return
	}
	seen[id] = true
	graph.Nodes = append(graph.Nodes, models.ImpactGraphNode{
		ID:         id,
		Label:      label,
		DomainCode: domainCode,
	})
}

func (a *CrossDomainAgent) failed(documentID string, err error) *models.AgentResult {
	return &models.AgentResult{
		DocumentID: documentID,
		Success:    false,
		Error:      fmt.Sprintf("%v", err),
	}
}
