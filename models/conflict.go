package models

import "time"

// ConflictType classifies how two documents contradict each other
type ConflictType string

const (
	ConflictDirectContradiction ConflictType = "direct_contradiction"
	ConflictScopeOverlap        ConflictType = "scope_overlap"
	ConflictProcedural          ConflictType = "procedural_conflict"
	ConflictNone                ConflictType = "none"
)

// ConflictAnalysis is the result of comparing two text bodies
type ConflictAnalysis struct {
	HasConflict  bool         `json:"has_conflict"`
	ConflictType ConflictType `json:"conflict_type"`
	Confidence   float64      `json:"confidence"`
	Details      []string     `json:"details"`
}

// Conflict records a detected conflict between two registered documents
type Conflict struct {
	DocumentID1  string       `json:"document_id_1"`
	DocumentID2  string       `json:"document_id_2"`
	ConflictType ConflictType `json:"conflict_type"`
	Confidence   float64      `json:"confidence"`
	Details      []string     `json:"details"`
	DetectedAt   time.Time    `json:"detected_at"`
}

// ConflictReport lists all conflicts found for a candidate document
type ConflictReport struct {
	DocumentID string     `json:"document_id"`
	Conflicts  []Conflict `json:"conflicts"`
	CheckedAt  time.Time  `json:"checked_at"`
}

// HasBlockingConflict reports whether any conflict exceeds the given
// confidence threshold
func (r *ConflictReport) HasBlockingConflict(threshold float64) bool {
	for _, c := range r.Conflicts {
		if c.Confidence > threshold {
			return true
		}
	}
	return false
}
