package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"lexguard-backend/models"
)

// defaultDomainCacheTTL bounds how long a registry read can go without
// consulting the backing store
const defaultDomainCacheTTL = 5 * time.Minute

// DomainStore is the external persistence behind the domain registry
type DomainStore interface {
	Create(ctx context.Context, domain *models.LegalDomain) error
	GetByCode(ctx context.Context, code string) (*models.LegalDomain, error)
	Update(ctx context.Context, domain *models.LegalDomain) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context, activeOnly bool) ([]*models.LegalDomain, error)
}

type registryEntry struct {
	domain    *models.LegalDomain
	fetchedAt time.Time
}

// DomainRegistry is an authoritative in-memory map of domains updated
// on every write, fronted by a TTL read-through cache so repeated reads
// of already-seen domains never block on the backing store. Explicitly
// constructed and passed by reference; not a process-wide singleton.
type DomainRegistry struct {
	store DomainStore
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]*registryEntry
}

// NewDomainRegistry creates a registry over the given store. A zero ttl
// selects the 5-minute default.
func NewDomainRegistry(store DomainStore, ttl time.Duration) *DomainRegistry {
	if ttl <= 0 {
		ttl = defaultDomainCacheTTL
	}
	return &DomainRegistry{
		store:   store,
		ttl:     ttl,
		entries: make(map[string]*registryEntry),
	}
}

// GetDomain returns the domain for a code, reading through to the store
// only when the cached entry is missing or stale
func (r *DomainRegistry) GetDomain(ctx context.Context, code string) (*models.LegalDomain, error) {
	r.mu.RLock()
	entry, ok := r.entries[code]
	r.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < r.ttl {
		copied := *entry.domain
		return &copied, nil
	}

	if r.store == nil {
		if ok {
			copied := *entry.domain
			return &copied, nil
		}
		return nil, ErrDomainNotFound
	}

	domain, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.put(domain)
	copied := *domain
	return &copied, nil
}

// put stores a domain in the map, stamping it fresh
func (r *DomainRegistry) put(domain *models.LegalDomain) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *domain
	r.entries[domain.Code] = &registryEntry{domain: &copied, fetchedAt: time.Now()}
}

// evict drops a domain from the map
func (r *DomainRegistry) evict(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, code)
}

// DomainService handles CRUD of legal domains against external
// persistence, keeping the registry in sync on every write
type DomainService struct {
	store    DomainStore
	registry *DomainRegistry
}

// DomainServiceOption is a functional option for DomainService
type DomainServiceOption func(*DomainService)

// DomainWithStore sets the persistence backend
func DomainWithStore(store DomainStore) DomainServiceOption {
	return func(s *DomainService) {
		s.store = store
	}
}

// DomainWithRegistry sets the registry kept in sync on writes
func DomainWithRegistry(registry *DomainRegistry) DomainServiceOption {
	return func(s *DomainService) {
		s.registry = registry
	}
}

// NewDomainService creates a new domain service
func NewDomainService(opts ...DomainServiceOption) *DomainService {
	s := &DomainService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterDomain validates and persists a new domain
func (s *DomainService) RegisterDomain(ctx context.Context, domain *models.LegalDomain) error {
	if err := validateDomain(domain); err != nil {
		return err
	}
	if s.store == nil {
		return errors.New("domain store not set")
	}

	if domain.RiskWeight <= 0 {
		domain.RiskWeight = 1.0
	}

	if err := s.store.Create(ctx, domain); err != nil {
		return err
	}
	if s.registry != nil {
		s.registry.put(domain)
	}
	return nil
}

// UpdateDomain validates and persists changes to an existing domain
func (s *DomainService) UpdateDomain(ctx context.Context, domain *models.LegalDomain) error {
	if err := validateDomain(domain); err != nil {
		return err
	}
	if s.store == nil {
		return errors.New("domain store not set")
	}

	if err := s.store.Update(ctx, domain); err != nil {
		return err
	}
	if s.registry != nil {
		s.registry.put(domain)
	}
	return nil
}

// GetDomain retrieves a domain, through the registry when one is wired
func (s *DomainService) GetDomain(ctx context.Context, code string) (*models.LegalDomain, error) {
	if code == "" {
		return nil, &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if s.registry != nil {
		return s.registry.GetDomain(ctx, code)
	}
	if s.store == nil {
		return nil, errors.New("domain store not set")
	}
	return s.store.GetByCode(ctx, code)
}

// ListDomains lists domains, optionally only active ones
func (s *DomainService) ListDomains(ctx context.Context, activeOnly bool) ([]*models.LegalDomain, error) {
	if s.store == nil {
		return nil, errors.New("domain store not set")
	}
	return s.store.List(ctx, activeOnly)
}

// DeleteDomain removes a domain and evicts it from the registry
func (s *DomainService) DeleteDomain(ctx context.Context, code string) error {
	if code == "" {
		return &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if s.store == nil {
		return errors.New("domain store not set")
	}

	if err := s.store.Delete(ctx, code); err != nil {
		return err
	}
	if s.registry != nil {
		s.registry.evict(code)
	}
	return nil
}

// validateDomain rejects malformed domains before any persistence call
func validateDomain(domain *models.LegalDomain) error {
	if domain == nil {
		return &ValidationError{Field: "domain", Reason: "must not be nil"}
	}
	if domain.Code == "" {
		return &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if domain.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if domain.Description == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if domain.DocumentTypes == nil {
		return &ValidationError{Field: "document_types", Reason: "must be a list"}
	}
	if domain.ProcessingRules == nil {
		return &ValidationError{Field: "processing_rules", Reason: "must be a list"}
	}
	if domain.ComplianceRequirements == nil {
		return &ValidationError{Field: "compliance_requirements", Reason: "must be a list"}
	}
	return nil
}
