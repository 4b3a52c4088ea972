package models

import "time"

// CacheConfig controls the per-document result cache of an agent
type CacheConfig struct {
	TTL     time.Duration `json:"ttl"`
	MaxSize int           `json:"max_size"`
}

// BatchConfig controls batch chunking and the debounced queue of an agent
type BatchConfig struct {
	MaxBatchSize int           `json:"max_batch_size"`
	BatchTimeout time.Duration `json:"batch_timeout"`
}

// SecurityConfig controls the security gate of an agent
type SecurityConfig struct {
	RequireAuth    bool     `json:"require_auth"`
	AllowedRoles   []string `json:"allowed_roles"`
	AllowedDomains []string `json:"allowed_domains"`
}

// AgentConfig is the full configuration of a document-processing agent
type AgentConfig struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	DomainCode string         `json:"domain_code"`
	Enabled    bool           `json:"enabled"`
	Cache      CacheConfig    `json:"cache"`
	Batch      BatchConfig    `json:"batch"`
	Security   SecurityConfig `json:"security"`
}

// DefaultAgentConfig returns a config with the standard cache and batch
// settings applied
func DefaultAgentConfig(name string) AgentConfig {
	return AgentConfig{
		ID:      name,
		Name:    name,
		Enabled: true,
		Cache: CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 100,
		},
		Batch: BatchConfig{
			MaxBatchSize: 10,
			BatchTimeout: 30 * time.Second,
		},
	}
}

// AgentResult is the uniform outcome of one agent invocation. Failed
// collaborator calls land here as Success=false rather than propagating,
// so batch aggregation can count them.
type AgentResult struct {
	DocumentID string              `json:"document_id"`
	Success    bool                `json:"success"`
	Error      string              `json:"error,omitempty"`
	Impacts    []CrossDomainImpact `json:"impacts,omitempty"`
	Cached     bool                `json:"cached,omitempty"`
	Duration   time.Duration       `json:"duration"`
}

// BatchSummary aggregates the results of one batch run
type BatchSummary struct {
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []*AgentResult `json:"results"`
}
