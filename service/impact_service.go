package service

import (
	"context"
	"errors"

	"lexguard-backend/models"
)

// CitationSource fetches outgoing citation edges from the external edge
// store. Implementations must treat a document with no citations as a
// normal empty result, not an error.
type CitationSource interface {
	CitationsFrom(ctx context.Context, documentID string) ([]models.CitationRelationship, error)
}

// ImpactAnalyzer traverses the citation graph to find documents
// transitively affected by a change to a root document
type ImpactAnalyzer struct {
	citations CitationSource
}

// ImpactAnalyzerOption is a functional option for ImpactAnalyzer
type ImpactAnalyzerOption func(*ImpactAnalyzer)

// ImpactWithCitationSource sets the citation edge source
func ImpactWithCitationSource(src CitationSource) ImpactAnalyzerOption {
	return func(a *ImpactAnalyzer) {
		a.citations = src
	}
}

// NewImpactAnalyzer creates a new impact analyzer
func NewImpactAnalyzer(opts ...ImpactAnalyzerOption) *ImpactAnalyzer {
	a := &ImpactAnalyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeImpact walks citation edges depth-first from the root document
// and records one impact chain per reachable document. The visited set
// is traversal-global, so each document gets exactly one chain (first
// path found wins) and cyclic graphs terminate.
func (a *ImpactAnalyzer) AnalyzeImpact(ctx context.Context, rootID string) ([]models.ImpactChain, error) {
	if a.citations == nil {
		return nil, errors.New("citation source not set")
	}
	if rootID == "" {
		return nil, &ValidationError{Field: "root_document_id", Reason: "must not be empty"}
	}

	visited := map[string]bool{rootID: true}
	chains := make([]models.ImpactChain, 0)

	var walk func(current string, path []string) error
	walk = func(current string, path []string) error {
		edges, err := a.citations.CitationsFrom(ctx, current)
		if err != nil {
			var fetchErr *CitationFetchError
			if errors.As(err, &fetchErr) {
				return err
			}
			return &CitationFetchError{DocumentID: current, Retryable: true, Err: err}
		}

		nextPath := append(append(make([]string, 0, len(path)+1), path...), current)
		for _, edge := range edges {
			target := edge.TargetDocumentID
			if visited[target] {
				continue
			}
			visited[target] = true

			chains = append(chains, models.ImpactChain{
				RootDocumentID:     rootID,
				AffectedDocumentID: target,
				Path:               nextPath,
				ImpactLevel:        models.ImpactLevelForPathLength(len(nextPath)),
			})

			if err := walk(target, nextPath); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(rootID, nil); err != nil {
		return nil, err
	}

	return chains, nil
}
