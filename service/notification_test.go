package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lexguard-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryOutbox struct {
	mu     sync.Mutex
	events []*models.NotificationEvent
}

func (m *memoryOutbox) Enqueue(ctx context.Context, event *models.NotificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.CreatedAt = time.Now()
	m.events = append(m.events, event)
	return nil
}

func (m *memoryOutbox) FetchPending(ctx context.Context, limit int) ([]*models.NotificationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []*models.NotificationEvent
	for _, event := range m.events {
		if event.Status == models.NotificationPending {
			pending = append(pending, event)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (m *memoryOutbox) MarkSent(ctx context.Context, id uuid.UUID) error {
	return m.setStatus(id, models.NotificationSent)
}

func (m *memoryOutbox) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return m.setStatus(id, models.NotificationFailed)
}

func (m *memoryOutbox) setStatus(id uuid.UUID, status models.NotificationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, event := range m.events {
		if event.ID == id {
			event.Status = status
			return nil
		}
	}
	return errors.New("event not found")
}

func (m *memoryOutbox) countByStatus(status models.NotificationStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, event := range m.events {
		if event.Status == status {
			count++
		}
	}
	return count
}

type flakySender struct {
	mu     sync.Mutex
	failOn map[uuid.UUID]bool
	sent   []*models.NotificationEvent
}

func (s *flakySender) Send(ctx context.Context, event *models.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[event.ID] {
		return errors.New("delivery refused")
	}
	s.sent = append(s.sent, event)
	return nil
}

func (s *flakySender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestOutboxNotifierEnqueuesConflict(t *testing.T) {
	outbox := &memoryOutbox{}
	notifier := NewOutboxNotifier(outbox)

	report := &models.ConflictReport{
		DocumentID: "law-1",
		Conflicts: []models.Conflict{
			{DocumentID1: "law-1", DocumentID2: "constitution-1", Confidence: 0.9},
		},
	}
	require.NoError(t, notifier.NotifyConflict(context.Background(), report))

	require.Len(t, outbox.events, 1)
	event := outbox.events[0]
	assert.Equal(t, models.NotificationConflictDetected, event.Type)
	assert.Equal(t, "law-1", event.DocumentID)
	assert.Equal(t, models.NotificationPending, event.Status)
	assert.Equal(t, []string{"constitution-1"}, event.Details["conflicting_documents"])
}

func TestOutboxNotifierEnqueuesInvalidation(t *testing.T) {
	outbox := &memoryOutbox{}
	notifier := NewOutboxNotifier(outbox)

	err := notifier.NotifyInvalidation(context.Background(), "decree-1", "law-1", models.ChangeAmendment)
	require.NoError(t, err)

	require.Len(t, outbox.events, 1)
	event := outbox.events[0]
	assert.Equal(t, models.NotificationDocumentInvalidated, event.Type)
	assert.Equal(t, "decree-1", event.DocumentID)
	assert.Equal(t, "law-1", event.CausedBy)
	assert.Equal(t, models.ChangeAmendment, event.ChangeType)
}

func TestOutboxDispatcherDrains(t *testing.T) {
	outbox := &memoryOutbox{}
	notifier := NewOutboxNotifier(outbox)
	ctx := context.Background()

	require.NoError(t, notifier.NotifyInvalidation(ctx, "decree-1", "law-1", models.ChangeAmendment))
	require.NoError(t, notifier.NotifyInvalidation(ctx, "local-1", "law-1", models.ChangeAmendment))

	// One event refuses delivery; the other still goes out
	sender := &flakySender{failOn: map[uuid.UUID]bool{outbox.events[0].ID: true}}

	dispatcher := NewOutboxDispatcher(outbox, sender, 10*time.Millisecond)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	require.Eventually(t, func() bool {
		return outbox.countByStatus(models.NotificationSent) == 1 &&
			outbox.countByStatus(models.NotificationFailed) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, sender.sentCount())
	assert.Zero(t, outbox.countByStatus(models.NotificationPending))
}
