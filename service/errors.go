package service

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDomainNotFound   = errors.New("legal domain not found")
	ErrAgentDisabled    = errors.New("agent is disabled")
)

// ValidationError rejects a malformed document or domain before any
// state is mutated
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CitationFetchError wraps a failure of the external citation-edge store.
// Retryable tells callers whether re-running the traversal may succeed.
type CitationFetchError struct {
	DocumentID string
	Retryable  bool
	Err        error
}

func (e *CitationFetchError) Error() string {
	return fmt.Sprintf("failed to fetch citations for %s: %v", e.DocumentID, e.Err)
}

func (e *CitationFetchError) Unwrap() error {
	return e.Err
}

// SecurityErrorKind distinguishes missing identity from insufficient rights
type SecurityErrorKind string

const (
	SecurityAuthRequired SecurityErrorKind = "auth_required"
	SecurityForbidden    SecurityErrorKind = "forbidden"
)

// SecurityError is raised by the agent security gate. Always fatal to
// the current call.
type SecurityError struct {
	Kind   SecurityErrorKind
	Reason string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security check failed (%s): %s", e.Kind, e.Reason)
}

// IsSecurityError reports whether err is a SecurityError
func IsSecurityError(err error) bool {
	var se *SecurityError
	return errors.As(err, &se)
}

// AnalysisError wraps an embedding or similarity collaborator failure.
// Agents convert it into a failed AgentResult rather than propagating,
// so batch aggregation can count it.
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed at %s: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
