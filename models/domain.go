package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// DeadlineType classifies how quickly a compliance requirement must be met
type DeadlineType string

const (
	DeadlineImmediate DeadlineType = "immediate"
	DeadlineStandard  DeadlineType = "standard"
	DeadlineCustom    DeadlineType = "custom"
)

// ProcessingRule drives agent behavior for documents within a domain
type ProcessingRule struct {
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	Priority int    `json:"priority"`
	Action   string `json:"action"`
}

// ProcessingRules is a list of processing rules stored as JSONB
type ProcessingRules []ProcessingRule

// Value implements driver.Valuer for JSONB
func (p ProcessingRules) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *ProcessingRules) Scan(value interface{}) error {
	if value == nil {
		*p = make(ProcessingRules, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*p = make(ProcessingRules, 0)
		return nil
	}

	if len(bytes) == 0 {
		*p = make(ProcessingRules, 0)
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// ComplianceRequirement describes a deadline attached to a domain
type ComplianceRequirement struct {
	Name         string       `json:"name"`
	DeadlineType DeadlineType `json:"deadline_type"`
	PeriodDays   int          `json:"period_days,omitempty"` // for "standard" and "custom"
}

// ComplianceRequirements is a list of requirements stored as JSONB
type ComplianceRequirements []ComplianceRequirement

// Value implements driver.Valuer for JSONB
func (c ComplianceRequirements) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *ComplianceRequirements) Scan(value interface{}) error {
	if value == nil {
		*c = make(ComplianceRequirements, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*c = make(ComplianceRequirements, 0)
		return nil
	}

	if len(bytes) == 0 {
		*c = make(ComplianceRequirements, 0)
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// LegalDomain represents a named legal domain (data protection, labor
// law, ...) that scopes agent behavior. Code is the unique key.
type LegalDomain struct {
	Code                   string                 `json:"code"`
	Name                   string                 `json:"name"`
	Description            string                 `json:"description"`
	Active                 bool                   `json:"active"`
	DocumentTypes          []string               `json:"document_types"`
	ProcessingRules        ProcessingRules        `json:"processing_rules"`
	ComplianceRequirements ComplianceRequirements `json:"compliance_requirements"`
	RiskWeight             float64                `json:"risk_weight"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
}
