package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lexguard-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProcessor struct {
	mu      sync.Mutex
	calls   map[string]int
	failIDs map[string]bool
}

func newCountingProcessor(failIDs ...string) *countingProcessor {
	fail := make(map[string]bool, len(failIDs))
	for _, id := range failIDs {
		fail[id] = true
	}
	return &countingProcessor{calls: make(map[string]int), failIDs: fail}
}

func (p *countingProcessor) Process(ctx context.Context, pctx *ProcessContext) (*models.AgentResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[pctx.Document.ID]++
	if p.failIDs[pctx.Document.ID] {
		return nil, errors.New("processing failed")
	}
	return &models.AgentResult{DocumentID: pctx.Document.ID, Success: true}, nil
}

func (p *countingProcessor) callsFor(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

func (p *countingProcessor) totalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

type staticVerifier struct {
	identity *Identity
	err      error
}

func (v *staticVerifier) Verify(ctx context.Context, apiKey string) (*Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func pctxFor(id string) *ProcessContext {
	return &ProcessContext{Document: &models.LegalDocument{ID: id, Content: "content of " + id}}
}

func TestExecuteDisabledGate(t *testing.T) {
	processor := newCountingProcessor()
	config := models.DefaultAgentConfig("test-agent")
	agent := NewBaseAgent(config, processor)

	agent.SetEnabled(false)
	_, err := agent.Execute(context.Background(), pctxFor("doc-1"))
	assert.ErrorIs(t, err, ErrAgentDisabled)
	assert.Zero(t, processor.callsFor("doc-1"))

	agent.SetEnabled(true)
	result, err := agent.Execute(context.Background(), pctxFor("doc-1"))
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExecuteCacheHit(t *testing.T) {
	processor := newCountingProcessor()
	config := models.DefaultAgentConfig("test-agent")
	agent := NewBaseAgent(config, processor)

	first, err := agent.Execute(context.Background(), pctxFor("doc-1"))
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := agent.Execute(context.Background(), pctxFor("doc-1"))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, processor.callsFor("doc-1"))
}

func TestExecuteCacheTTLExpiry(t *testing.T) {
	processor := newCountingProcessor()
	config := models.DefaultAgentConfig("test-agent")
	config.Cache.TTL = 20 * time.Millisecond
	agent := NewBaseAgent(config, processor)

	_, err := agent.Execute(context.Background(), pctxFor("doc-1"))
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	result, err := agent.Execute(context.Background(), pctxFor("doc-1"))
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, processor.callsFor("doc-1"))
}

func TestExecuteFailedResultNotCached(t *testing.T) {
	processor := newCountingProcessor("doc-1")
	config := models.DefaultAgentConfig("test-agent")
	agent := NewBaseAgent(config, processor)

	result, err := agent.Execute(context.Background(), pctxFor("doc-1"))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)

	// The failure is retried, not served from cache
	_, err = agent.Execute(context.Background(), pctxFor("doc-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, processor.callsFor("doc-1"))
}

func TestCacheEvictionUnderSizePressure(t *testing.T) {
	processor := newCountingProcessor()
	config := models.DefaultAgentConfig("test-agent")
	config.Cache.MaxSize = 2
	agent := NewBaseAgent(config, processor)
	ctx := context.Background()

	_, err := agent.Execute(ctx, pctxFor("doc-a"))
	require.NoError(t, err)
	_, err = agent.Execute(ctx, pctxFor("doc-b"))
	require.NoError(t, err)

	// One hit on doc-a makes doc-b the least-hit entry
	hit, err := agent.Execute(ctx, pctxFor("doc-a"))
	require.NoError(t, err)
	require.True(t, hit.Cached)

	_, err = agent.Execute(ctx, pctxFor("doc-c"))
	require.NoError(t, err)

	// doc-b was evicted, doc-a survived
	result, err := agent.Execute(ctx, pctxFor("doc-b"))
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, processor.callsFor("doc-b"))

	result, err = agent.Execute(ctx, pctxFor("doc-a"))
	require.NoError(t, err)
	assert.True(t, result.Cached)
}

func TestProcessBatchChunksAndCounts(t *testing.T) {
	processor := newCountingProcessor("doc-3")
	config := models.DefaultAgentConfig("test-agent")
	config.Batch.MaxBatchSize = 2
	agent := NewBaseAgent(config, processor)

	batch := []*ProcessContext{
		pctxFor("doc-1"), pctxFor("doc-2"), pctxFor("doc-3"),
		pctxFor("doc-4"), pctxFor("doc-5"),
	}

	summary := agent.ProcessBatch(context.Background(), batch)

	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 5)
	assert.Equal(t, 5, processor.totalCalls())

	for _, result := range summary.Results {
		if result.DocumentID == "doc-3" {
			assert.False(t, result.Success)
		} else {
			assert.True(t, result.Success)
		}
	}
}

func TestQueueFlushesOnMaxSize(t *testing.T) {
	processor := newCountingProcessor()
	config := models.DefaultAgentConfig("test-agent")
	config.Batch.MaxBatchSize = 3
	config.Batch.BatchTimeout = time.Hour // never fires in this test
	agent := NewBaseAgent(config, processor)

	agent.QueueForBatchProcessing(pctxFor("doc-1"))
	agent.QueueForBatchProcessing(pctxFor("doc-2"))
	assert.Equal(t, 2, agent.QueueLength())
	assert.Zero(t, processor.totalCalls())

	// Third enqueue reaches the max and flushes immediately
	agent.QueueForBatchProcessing(pctxFor("doc-3"))
	assert.Zero(t, agent.QueueLength())
	assert.Equal(t, 3, processor.totalCalls())
}

func TestQueueFlushesOnTimeout(t *testing.T) {
	processor := newCountingProcessor()
	config := models.DefaultAgentConfig("test-agent")
	config.Batch.MaxBatchSize = 100
	config.Batch.BatchTimeout = 30 * time.Millisecond
	agent := NewBaseAgent(config, processor)

	agent.QueueForBatchProcessing(pctxFor("doc-1"))
	agent.QueueForBatchProcessing(pctxFor("doc-2"))
	assert.Equal(t, 2, agent.QueueLength())

	require.Eventually(t, func() bool {
		return processor.totalCalls() == 2 && agent.QueueLength() == 0
	}, time.Second, 5*time.Millisecond)
}

type blockingProcessor struct {
	*countingProcessor
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingProcessor() *blockingProcessor {
	return &blockingProcessor{
		countingProcessor: newCountingProcessor(),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
}

// The first call parks until release is closed; later calls run through.
func (p *blockingProcessor) Process(ctx context.Context, pctx *ProcessContext) (*models.AgentResult, error) {
	p.once.Do(func() {
		close(p.entered)
		<-p.release
	})
	return p.countingProcessor.Process(ctx, pctx)
}

func TestQueueDrainsAfterTimerFiresDuringFlush(t *testing.T) {
	processor := newBlockingProcessor()
	config := models.DefaultAgentConfig("test-agent")
	config.Batch.MaxBatchSize = 100
	config.Batch.BatchTimeout = 30 * time.Millisecond
	agent := NewBaseAgent(config, processor)

	agent.QueueForBatchProcessing(pctxFor("doc-a"))

	// Timeout flush starts and parks inside the processor
	select {
	case <-processor.entered:
	case <-time.After(time.Second):
		t.Fatal("timeout flush never reached the processor")
	}

	// Enqueued mid-flush, this document arms its own debounce timer;
	// let that timer fire while the first flush is still parked
	agent.QueueForBatchProcessing(pctxFor("doc-b"))
	time.Sleep(3 * config.Batch.BatchTimeout)
	close(processor.release)

	require.Eventually(t, func() bool {
		return processor.callsFor("doc-b") == 1 && agent.QueueLength() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, processor.callsFor("doc-a"))
}

func TestCleanupFlushesPendingQueue(t *testing.T) {
	processor := newCountingProcessor()
	config := models.DefaultAgentConfig("test-agent")
	config.Batch.MaxBatchSize = 100
	config.Batch.BatchTimeout = time.Hour
	agent := NewBaseAgent(config, processor)

	agent.QueueForBatchProcessing(pctxFor("doc-1"))
	agent.QueueForBatchProcessing(pctxFor("doc-2"))

	summary := agent.Cleanup(context.Background())
	assert.Equal(t, 2, summary.Processed)
	assert.Zero(t, agent.QueueLength())
}

func TestSecurityGate(t *testing.T) {
	newAgent := func(verifier AuthVerifier) (*countingProcessor, *BaseAgent) {
		processor := newCountingProcessor()
		config := models.DefaultAgentConfig("test-agent")
		config.Security = models.SecurityConfig{
			RequireAuth:  true,
			AllowedRoles: []string{"reviewer"},
		}
		return processor, NewBaseAgent(config, processor, AgentWithAuthVerifier(verifier))
	}

	t.Run("missing credential", func(t *testing.T) {
		processor, agent := newAgent(&staticVerifier{})
		_, err := agent.Execute(context.Background(), pctxFor("doc-1"))

		var secErr *SecurityError
		require.ErrorAs(t, err, &secErr)
		assert.Equal(t, SecurityAuthRequired, secErr.Kind)
		assert.Zero(t, processor.totalCalls())
	})

	t.Run("verification failure", func(t *testing.T) {
		_, agent := newAgent(&staticVerifier{err: errors.New("invalid API key")})
		pctx := pctxFor("doc-1")
		pctx.APIKey = "whatever"

		_, err := agent.Execute(context.Background(), pctx)
		var secErr *SecurityError
		require.ErrorAs(t, err, &secErr)
		assert.Equal(t, SecurityAuthRequired, secErr.Kind)
	})

	t.Run("missing role", func(t *testing.T) {
		_, agent := newAgent(&staticVerifier{identity: &Identity{Subject: "r1", Roles: []string{"viewer"}}})
		pctx := pctxFor("doc-1")
		pctx.APIKey = "key"

		_, err := agent.Execute(context.Background(), pctx)
		var secErr *SecurityError
		require.ErrorAs(t, err, &secErr)
		assert.Equal(t, SecurityForbidden, secErr.Kind)
	})

	t.Run("authorized caller", func(t *testing.T) {
		_, agent := newAgent(&staticVerifier{identity: &Identity{Subject: "r1", Roles: []string{"reviewer"}}})
		pctx := pctxFor("doc-1")
		pctx.APIKey = "key"

		result, err := agent.Execute(context.Background(), pctx)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "r1", pctx.Identity.Subject)
	})

	t.Run("pre-verified identity skips the verifier", func(t *testing.T) {
		_, agent := newAgent(&staticVerifier{err: errors.New("should not be called")})
		pctx := pctxFor("doc-1")
		pctx.Identity = &Identity{Subject: "r2", Roles: []string{"reviewer"}}

		result, err := agent.Execute(context.Background(), pctx)
		require.NoError(t, err)
		assert.True(t, result.Success)
	})
}
