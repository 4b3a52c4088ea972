package models

// ImpactLevel classifies how directly a document is affected by a change
type ImpactLevel string

const (
	ImpactDirect    ImpactLevel = "direct"
	ImpactIndirect  ImpactLevel = "indirect"
	ImpactPotential ImpactLevel = "potential"
)

// ImpactLevelForPathLength maps a citation path length to an impact level:
// one hop is direct, two or three are indirect, anything longer is potential
func ImpactLevelForPathLength(length int) ImpactLevel {
	switch {
	case length <= 1:
		return ImpactDirect
	case length <= 3:
		return ImpactIndirect
	default:
		return ImpactPotential
	}
}

// ImpactChain is a citation-graph path from a root document to a
// transitively affected one. Path holds the ordered ids leading up to
// (but not including) the affected document, with no repeats.
type ImpactChain struct {
	RootDocumentID     string      `json:"root_document_id"`
	AffectedDocumentID string      `json:"affected_document_id"`
	Path               []string    `json:"path"`
	ImpactLevel        ImpactLevel `json:"impact_level"`
}

// CrossDomainImpact is an impact chain whose endpoints sit in different
// legal domains, discovered via semantic similarity rather than citation
type CrossDomainImpact struct {
	SourceDocumentID   string      `json:"source_document_id"`
	ImpactedDocumentID string      `json:"impacted_document_id"`
	Path               []string    `json:"path"`
	ImpactLevel        ImpactLevel `json:"impact_level"`
	RiskScore          float64     `json:"risk_score"`
	DomainCode         string      `json:"domain_code"`
	Similarity         float64     `json:"similarity"`
}

// ImpactGraphNode is one node of the abstract impact description handed
// to the visualization collaborator
type ImpactGraphNode struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	DomainCode string `json:"domain_code"`
	Root       bool   `json:"root"`
}

// ImpactGraphEdge connects two nodes in the impact description
type ImpactGraphEdge struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Kind  string  `json:"kind"` // "similarity" or "citation"
	Score float64 `json:"score,omitempty"`
}

// ImpactGraph is the node/edge description of a cross-domain analysis
type ImpactGraph struct {
	Nodes []ImpactGraphNode `json:"nodes"`
	Edges []ImpactGraphEdge `json:"edges"`
}
