package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// HierarchyLevel represents the binding authority of a legal instrument.
// Lower ordinal means higher authority.
type HierarchyLevel int

const (
	LevelConstitution HierarchyLevel = iota + 1
	LevelCardinalLaw
	LevelOrdinaryLaw
	LevelGovernmentDecree
	LevelMinisterialDecree
	LevelLocalRegulation
)

var hierarchyLevelNames = map[HierarchyLevel]string{
	LevelConstitution:      "constitution",
	LevelCardinalLaw:       "cardinal_law",
	LevelOrdinaryLaw:       "ordinary_law",
	LevelGovernmentDecree:  "government_decree",
	LevelMinisterialDecree: "ministerial_decree",
	LevelLocalRegulation:   "local_regulation",
}

// String returns the wire name of the level
func (l HierarchyLevel) String() string {
	if name, ok := hierarchyLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(l))
}

// IsValid reports whether the level is one of the declared ordinals
func (l HierarchyLevel) IsValid() bool {
	_, ok := hierarchyLevelNames[l]
	return ok
}

// Outranks reports whether l binds at least as strongly as other
// (numerically lower or equal ordinal)
func (l HierarchyLevel) Outranks(other HierarchyLevel) bool {
	return l <= other
}

// ParseHierarchyLevel parses a wire name into a level
func ParseHierarchyLevel(s string) (HierarchyLevel, error) {
	for level, name := range hierarchyLevelNames {
		if name == s {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown hierarchy level: %s", s)
}

// MarshalJSON implements json.Marshaler
func (l HierarchyLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (l *HierarchyLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	level, err := ParseHierarchyLevel(s)
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// LegalDocument represents a document in the regulatory corpus.
// ID is the natural legal identifier (e.g. "2011/CXII"), assigned by the
// ingestion pipeline, not minted here.
type LegalDocument struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	HierarchyLevel HierarchyLevel `json:"hierarchy_level"`
	DomainCode     string         `json:"domain_code"`
	LastModified   time.Time      `json:"last_modified"`
	IsValid        bool           `json:"is_valid"`

	// Similarity is populated only by vector search results
	Similarity float64 `json:"similarity,omitempty"`
}

// CitationRelationship is a directed edge meaning source cites/depends on target
type CitationRelationship struct {
	SourceDocumentID string    `json:"source_document_id"`
	TargetDocumentID string    `json:"target_document_id"`
	CreatedAt        time.Time `json:"created_at"`
}
