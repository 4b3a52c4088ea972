package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"lexguard-backend/models"
)

// TextAnalyzer detects textual conflict between two document bodies.
// The regex implementation below is a coarse heuristic; the interface
// exists so an NLP or embedding matcher can replace it without touching
// the hierarchy service.
type TextAnalyzer interface {
	AnalyzeConflict(newText, existingText string) models.ConflictAnalysis
}

const maxConfidence = 0.95

// polarityFamily pairs a positive-modality pattern with its negation.
// A text matching the positive side against a text matching the
// negative side is one evidence signal for direct contradiction.
type polarityFamily struct {
	name     string
	positive *regexp.Regexp
	negative *regexp.Regexp
}

// RE2 has no lookahead, so positive patterns capture the word after the
// modal and matchesPositive filters out "not" in code.
var polarityFamilies = []polarityFamily{
	{
		name:     "obligation_vs_prohibition",
		positive: regexp.MustCompile(`(?i)\b(?:shall|must)\s+([a-z]+)`),
		negative: regexp.MustCompile(`(?i)\b(?:shall|must)\s+not\b`),
	},
	{
		name:     "permission_vs_prohibition",
		positive: regexp.MustCompile(`(?i)\b(?:may|is permitted to|are permitted to)\s+([a-z]+)`),
		negative: regexp.MustCompile(`(?i)\b(?:may\s+not|is\s+prohibited|are\s+prohibited|prohibited\s+from|is\s+forbidden|are\s+forbidden)\b`),
	},
	{
		name:     "entitlement_vs_denial",
		positive: regexp.MustCompile(`(?i)\b(?:have|has)\s+the\s+right\s+to\b`),
		negative: regexp.MustCompile(`(?i)\b(?:not\s+have\s+the\s+right\s+to|denied\s+the\s+right\s+to|no\s+right\s+to|not\s+entitled\s+to)\b`),
	},
}

var (
	subjectPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[a-z]+)*?)\s+(?:shall|must|may|should|will)\b`)
	actionPattern  = regexp.MustCompile(`(?i)\b(?:shall|must|may|should|will)\s+(?:not\s+)?([a-z]+)`)
	objectPattern  = regexp.MustCompile(`(?i)\b(?:of|to|for|on|in|regarding|concerning)\s+([a-z]+(?:\s+[a-z]+){0,2})`)
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "all": true, "any": true,
	"each": true, "every": true, "this": true, "that": true,
	"such": true, "be": true, "not": true, "and": true, "or": true,
}

// RegexTextAnalyzer is the production TextAnalyzer. Pure and
// synchronous; it never fails, "no conflict" is a normal result.
type RegexTextAnalyzer struct{}

// NewRegexTextAnalyzer creates a new regex-based text analyzer
func NewRegexTextAnalyzer() *RegexTextAnalyzer {
	return &RegexTextAnalyzer{}
}

// AnalyzeConflict compares two text bodies for contradiction and scope
// overlap. Direct contradictions win over scope overlap; if neither is
// found the result is ConflictNone with full confidence.
func (a *RegexTextAnalyzer) AnalyzeConflict(newText, existingText string) models.ConflictAnalysis {
	details, evidence := a.findContradictions(newText, existingText)
	if evidence > 0 {
		return models.ConflictAnalysis{
			HasConflict:  true,
			ConflictType: models.ConflictDirectContradiction,
			Confidence:   confidenceFor(evidence),
			Details:      details,
		}
	}

	details, evidence = a.findScopeOverlap(newText, existingText)
	if evidence > 0 {
		return models.ConflictAnalysis{
			HasConflict:  true,
			ConflictType: models.ConflictScopeOverlap,
			Confidence:   confidenceFor(evidence),
			Details:      details,
		}
	}

	return models.ConflictAnalysis{
		HasConflict:  false,
		ConflictType: models.ConflictNone,
		Confidence:   maxConfidence,
		Details:      []string{},
	}
}

// confidenceFor maps an evidence count to a confidence score, capped at
// maxConfidence and non-decreasing in the count
func confidenceFor(evidence int) float64 {
	return math.Min(maxConfidence, 0.7+0.1*float64(evidence))
}

// findContradictions tests every polarity family in both directions and
// accumulates one evidence signal per matching direction
func (a *RegexTextAnalyzer) findContradictions(newText, existingText string) ([]string, int) {
	var details []string
	evidence := 0

	for _, family := range polarityFamilies {
		if matchesPositive(family.positive, newText) && family.negative.MatchString(existingText) {
			details = append(details, fmt.Sprintf("%s: new text asserts, existing text negates", family.name))
			evidence++
		}
		if matchesPositive(family.positive, existingText) && family.negative.MatchString(newText) {
			details = append(details, fmt.Sprintf("%s: existing text asserts, new text negates", family.name))
			evidence++
		}
	}

	return details, evidence
}

// matchesPositive reports whether text matches the positive pattern with
// something other than a negation following the modal
func matchesPositive(pattern *regexp.Regexp, text string) bool {
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 {
			return true
		}
		if !strings.EqualFold(m[1], "not") {
			return true
		}
	}
	return false
}

// findScopeOverlap extracts coarse subject and object term sets from
// both texts and reports the intersecting terms as evidence
func (a *RegexTextAnalyzer) findScopeOverlap(newText, existingText string) ([]string, int) {
	newSubjects := extractTerms(subjectPattern, newText)
	existingSubjects := extractTerms(subjectPattern, existingText)
	newObjects := extractTerms(objectPattern, newText)
	existingObjects := extractTerms(objectPattern, existingText)

	var details []string
	evidence := 0

	for _, term := range intersect(newSubjects, existingSubjects) {
		details = append(details, fmt.Sprintf("shared subject: %s", term))
		evidence++
	}
	for _, term := range intersect(newObjects, existingObjects) {
		details = append(details, fmt.Sprintf("shared object: %s", term))
		evidence++
	}

	return details, evidence
}

// extractTerms runs a capture pattern over text and returns the set of
// lowercased non-stopword words inside the captured phrases
func extractTerms(pattern *regexp.Regexp, text string) map[string]bool {
	terms := make(map[string]bool)
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 {
			continue
		}
		for _, word := range strings.Fields(strings.ToLower(m[1])) {
			if !stopwords[word] && len(word) > 2 {
				terms[word] = true
			}
		}
	}
	return terms
}

// intersect returns the sorted common members of two term sets
func intersect(a, b map[string]bool) []string {
	var common []string
	for term := range a {
		if b[term] {
			common = append(common, term)
		}
	}
	sort.Strings(common)
	return common
}
