package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lexguard-backend/models"

	"golang.org/x/sync/errgroup"
)

// Identity is a verified caller of a document-processing agent
type Identity struct {
	Subject string
	Roles   []string
	Domains []string
}

// AuthVerifier verifies a caller credential against the external auth
// collaborator and resolves it to an identity
type AuthVerifier interface {
	Verify(ctx context.Context, apiKey string) (*Identity, error)
}

// ProcessContext carries one document through an agent invocation,
// together with the caller credential the security gate checks
type ProcessContext struct {
	Document *models.LegalDocument
	APIKey   string
	Identity *Identity
}

// Processor is the one operation every concrete agent implements
type Processor interface {
	Process(ctx context.Context, pctx *ProcessContext) (*models.AgentResult, error)
}

type cacheEntry struct {
	result   *models.AgentResult
	storedAt time.Time
	hits     int
}

// BaseAgent is the shared substrate every document-processing agent
// builds on: enable/disable gating, a TTL result cache, chunked batch
// processing, a debounced batch queue, and a security gate.
type BaseAgent struct {
	config    models.AgentConfig
	processor Processor
	auth      AuthVerifier

	mu       sync.Mutex
	cache    map[string]*cacheEntry
	queue    []*ProcessContext
	timer    *time.Timer
	flushing bool
}

// BaseAgentOption is a functional option for BaseAgent
type BaseAgentOption func(*BaseAgent)

// AgentWithAuthVerifier sets the external auth collaborator
func AgentWithAuthVerifier(auth AuthVerifier) BaseAgentOption {
	return func(a *BaseAgent) {
		a.auth = auth
	}
}

// NewBaseAgent creates an agent substrate around a concrete processor
func NewBaseAgent(config models.AgentConfig, processor Processor, opts ...BaseAgentOption) *BaseAgent {
	a := &BaseAgent{
		config:    config,
		processor: processor,
		cache:     make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the agent configuration
func (a *BaseAgent) Config() models.AgentConfig {
	return a.config
}

// SetEnabled toggles the processing gate
func (a *BaseAgent) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.Enabled = enabled
}

// Execute runs one document through the agent: gate, security check,
// cache lookup, processor call. Processor failures come back as a
// failed AgentResult; only infrastructure-level refusals (disabled
// agent, security) are returned as errors.
func (a *BaseAgent) Execute(ctx context.Context, pctx *ProcessContext) (*models.AgentResult, error) {
	a.mu.Lock()
	enabled := a.config.Enabled
	a.mu.Unlock()
	if !enabled {
		return nil, ErrAgentDisabled
	}

	if pctx == nil || pctx.Document == nil {
		return nil, &ValidationError{Field: "document", Reason: "must not be nil"}
	}

	if err := a.authorize(ctx, pctx); err != nil {
		return nil, err
	}

	if cached := a.cacheGet(pctx.Document.ID); cached != nil {
		return cached, nil
	}

	started := time.Now()
	result, err := a.processor.Process(ctx, pctx)
	if err != nil {
		return a.HandleError(err, pctx), nil
	}
	if result == nil {
		result = &models.AgentResult{DocumentID: pctx.Document.ID, Success: true}
	}
	result.Duration = time.Since(started)

	if result.Success {
		a.cachePut(pctx.Document.ID, result)
	}
	return result, nil
}

// ProcessBatch chunks the input to the configured max batch size,
// processing documents within a chunk concurrently and chunks
// sequentially. Per-document failures are counted, never aborting the
// remaining batch.
func (a *BaseAgent) ProcessBatch(ctx context.Context, batch []*ProcessContext) *models.BatchSummary {
	summary := &models.BatchSummary{
		Results: make([]*models.AgentResult, 0, len(batch)),
	}

	chunkSize := a.config.Batch.MaxBatchSize
	if chunkSize <= 0 {
		chunkSize = len(batch)
	}

	for start := 0; start < len(batch); start += chunkSize {
		end := start + chunkSize
		if end > len(batch) {
			end = len(batch)
		}
		chunk := batch[start:end]
		results := make([]*models.AgentResult, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		for i, pctx := range chunk {
			g.Go(func() error {
				result, err := a.Execute(gctx, pctx)
				if err != nil {
					result = a.HandleError(err, pctx)
				}
				results[i] = result
				return nil
			})
		}
		// Goroutines above never return errors; failures are per-result
		_ = g.Wait()

		for _, result := range results {
			summary.Processed++
			if result.Success {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
			summary.Results = append(summary.Results, result)
		}
	}

	return summary
}

// QueueForBatchProcessing enqueues a document for debounced batch
// processing. The queue flushes when it reaches the configured max size
// or when the batch timeout elapses, whichever comes first.
func (a *BaseAgent) QueueForBatchProcessing(pctx *ProcessContext) {
	a.mu.Lock()
	a.queue = append(a.queue, pctx)

	if len(a.queue) >= a.config.Batch.MaxBatchSize && a.config.Batch.MaxBatchSize > 0 {
		a.mu.Unlock()
		a.Flush(context.Background())
		return
	}

	if a.timer == nil && a.config.Batch.BatchTimeout > 0 {
		a.timer = time.AfterFunc(a.config.Batch.BatchTimeout, func() {
			a.Flush(context.Background())
		})
	}
	a.mu.Unlock()
}

// Flush processes whatever is queued. A flush already in progress is
// never re-triggered by a concurrent enqueue; the later call returns an
// empty summary.
func (a *BaseAgent) Flush(ctx context.Context) *models.BatchSummary {
	a.mu.Lock()
	if a.flushing || len(a.queue) == 0 {
		a.mu.Unlock()
		return &models.BatchSummary{Results: make([]*models.AgentResult, 0)}
	}
	a.flushing = true
	batch := a.queue
	a.queue = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	summary := a.ProcessBatch(ctx, batch)

	a.mu.Lock()
	a.flushing = false
	refire := a.config.Batch.MaxBatchSize > 0 && len(a.queue) >= a.config.Batch.MaxBatchSize
	if !refire && len(a.queue) > 0 && a.config.Batch.BatchTimeout > 0 {
		// A timer that fired while this flush was running was rejected
		// and its handle is stale; replace it so the remainder drains.
		if a.timer != nil {
			a.timer.Stop()
		}
		a.timer = time.AfterFunc(a.config.Batch.BatchTimeout, func() {
			a.Flush(context.Background())
		})
	}
	a.mu.Unlock()

	if refire {
		a.Flush(ctx)
	}
	return summary
}

// QueueLength returns the number of documents waiting for a flush
func (a *BaseAgent) QueueLength() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// HandleError maps any failure to a uniform failed result so batch
// aggregation counts successes and failures consistently
func (a *BaseAgent) HandleError(err error, pctx *ProcessContext) *models.AgentResult {
	documentID := ""
	if pctx != nil && pctx.Document != nil {
		documentID = pctx.Document.ID
	}
	return &models.AgentResult{
		DocumentID: documentID,
		Success:    false,
		Error:      err.Error(),
	}
}

// Cleanup flushes any pending queued batch and clears the cache. Must
// be called before disposal to avoid silently dropping queued work.
func (a *BaseAgent) Cleanup(ctx context.Context) *models.BatchSummary {
	summary := a.Flush(ctx)

	a.mu.Lock()
	a.cache = make(map[string]*cacheEntry)
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	return summary
}

// authorize enforces the security gate: when requireAuth is set every
// call must carry a verifiable caller identity, and that identity must
// hold an allowed role and an allowed domain
func (a *BaseAgent) authorize(ctx context.Context, pctx *ProcessContext) error {
	if !a.config.Security.RequireAuth {
		return nil
	}

	identity := pctx.Identity
	if identity == nil {
		if pctx.APIKey == "" {
			return &SecurityError{Kind: SecurityAuthRequired, Reason: "caller identity required"}
		}
		if a.auth == nil {
			return &SecurityError{Kind: SecurityAuthRequired, Reason: "no auth verifier configured"}
		}
		verified, err := a.auth.Verify(ctx, pctx.APIKey)
		if err != nil {
			return &SecurityError{Kind: SecurityAuthRequired, Reason: fmt.Sprintf("identity verification failed: %v", err)}
		}
		identity = verified
		pctx.Identity = verified
	}

	if len(a.config.Security.AllowedRoles) > 0 && !anyMatch(identity.Roles, a.config.Security.AllowedRoles) {
		return &SecurityError{Kind: SecurityForbidden, Reason: fmt.Sprintf("caller %s lacks an allowed role", identity.Subject)}
	}
	if len(a.config.Security.AllowedDomains) > 0 && !anyMatch(identity.Domains, a.config.Security.AllowedDomains) {
		return &SecurityError{Kind: SecurityForbidden, Reason: fmt.Sprintf("caller %s lacks an allowed domain", identity.Subject)}
	}
	return nil
}

// cacheGet returns a fresh cached result for the document, or nil.
// TTL expiry is lazy: checked here, removed on sight.
func (a *BaseAgent) cacheGet(documentID string) *models.AgentResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.cache[documentID]
	if !ok {
		return nil
	}
	if a.config.Cache.TTL > 0 && time.Since(entry.storedAt) > a.config.Cache.TTL {
		delete(a.cache, documentID)
		return nil
	}

	entry.hits++
	copied := *entry.result
	copied.Cached = true
	return &copied
}

// cachePut stores a result and evicts under size pressure, preferring
// expired entries first, then least-hit, then oldest
func (a *BaseAgent) cachePut(documentID string, result *models.AgentResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.Cache.MaxSize <= 0 {
		return
	}

	a.cache[documentID] = &cacheEntry{result: result, storedAt: time.Now()}

	if len(a.cache) <= a.config.Cache.MaxSize {
		return
	}

	if a.config.Cache.TTL > 0 {
		for key, entry := range a.cache {
			if time.Since(entry.storedAt) > a.config.Cache.TTL {
				delete(a.cache, key)
			}
		}
	}

	for len(a.cache) > a.config.Cache.MaxSize {
		victim := ""
		for key, entry := range a.cache {
			if victim == "" {
				victim = key
				continue
			}
			current := a.cache[victim]
			if entry.hits < current.hits ||
				(entry.hits == current.hits && entry.storedAt.Before(current.storedAt)) {
				victim = key
			}
		}
		delete(a.cache, victim)
	}
}

// anyMatch reports whether the two string sets share a member
func anyMatch(have, allowed []string) bool {
	for _, h := range have {
		for _, a := range allowed {
			if h == a {
				return true
			}
		}
	}
	return false
}
