package service

import (
	"context"
	"errors"
	"log"
	"time"

	"lexguard-backend/models"

	"github.com/google/uuid"
)

// Notifier is the conflict/invalidation event sink of the hierarchy
// service
type Notifier interface {
	NotifyConflict(ctx context.Context, report *models.ConflictReport) error
	NotifyInvalidation(ctx context.Context, invalidatedID, causedBy string, change models.ChangeType) error
}

// OutboxStore persists notification events and tracks delivery state
type OutboxStore interface {
	Enqueue(ctx context.Context, event *models.NotificationEvent) error
	FetchPending(ctx context.Context, limit int) ([]*models.NotificationEvent, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// NotificationSender delivers an event to the external notification
// system (email, ticketing). Out of scope here beyond the interface.
type NotificationSender interface {
	Send(ctx context.Context, event *models.NotificationEvent) error
}

// OutboxNotifier implements Notifier by writing events to a durable
// outbox instead of calling the delivery channel inline, so delivery
// failures never block hierarchy mutations
type OutboxNotifier struct {
	outbox OutboxStore
}

// NewOutboxNotifier creates a new outbox-backed notifier
func NewOutboxNotifier(outbox OutboxStore) *OutboxNotifier {
	return &OutboxNotifier{outbox: outbox}
}

// NotifyConflict enqueues one event carrying the full conflicting set
func (n *OutboxNotifier) NotifyConflict(ctx context.Context, report *models.ConflictReport) error {
	if n.outbox == nil {
		return errors.New("outbox store not set")
	}

	conflicting := make([]string, 0, len(report.Conflicts))
	for _, c := range report.Conflicts {
		conflicting = append(conflicting, c.DocumentID2)
	}

	event := &models.NotificationEvent{
		ID:         uuid.New(),
		Type:       models.NotificationConflictDetected,
		DocumentID: report.DocumentID,
		ChangeType: models.ChangeNew,
		Details: models.NotificationDetails{
			"conflicting_documents": conflicting,
			"conflict_count":        len(report.Conflicts),
		},
		Status: models.NotificationPending,
	}
	return n.outbox.Enqueue(ctx, event)
}

// NotifyInvalidation enqueues one event per invalidated document
func (n *OutboxNotifier) NotifyInvalidation(ctx context.Context, invalidatedID, causedBy string, change models.ChangeType) error {
	if n.outbox == nil {
		return errors.New("outbox store not set")
	}

	event := &models.NotificationEvent{
		ID:         uuid.New(),
		Type:       models.NotificationDocumentInvalidated,
		DocumentID: invalidatedID,
		CausedBy:   causedBy,
		ChangeType: change,
		Details:    models.NotificationDetails{},
		Status:     models.NotificationPending,
	}
	return n.outbox.Enqueue(ctx, event)
}

// LogSender is the default delivery channel. It writes events to the
// process log; real channels (email, ticketing) implement
// NotificationSender and replace it at wiring time.
type LogSender struct{}

// Send logs the event
func (s *LogSender) Send(ctx context.Context, event *models.NotificationEvent) error {
	log.Printf("Notification %s: document=%s caused_by=%s change=%s", event.Type, event.DocumentID, event.CausedBy, event.ChangeType)
	return nil
}

// OutboxDispatcher drains pending outbox rows to the external sender in
// the background. One dispatcher per process; hierarchy mutations never
// wait on it.
type OutboxDispatcher struct {
	outbox   OutboxStore
	sender   NotificationSender
	interval time.Duration
	batch    int
	stop     chan struct{}
	done     chan struct{}
}

// NewOutboxDispatcher creates a dispatcher polling at the given interval
func NewOutboxDispatcher(outbox OutboxStore, sender NotificationSender, interval time.Duration) *OutboxDispatcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &OutboxDispatcher{
		outbox:   outbox,
		sender:   sender,
		interval: interval,
		batch:    50,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop in a goroutine
func (d *OutboxDispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-d.stop:
				return
			case <-ticker.C:
				d.drain(ctx)
			}
		}
	}()
}

// Stop terminates the polling loop and waits for it to exit
func (d *OutboxDispatcher) Stop() {
	close(d.stop)
	<-d.done
}

// drain delivers one batch of pending events; per-event failures are
// marked and do not abort the rest of the batch
func (d *OutboxDispatcher) drain(ctx context.Context) {
	events, err := d.outbox.FetchPending(ctx, d.batch)
	if err != nil {
		log.Printf("Warning: Failed to fetch pending notifications: %v", err)
		return
	}

	for _, event := range events {
		if err := d.sender.Send(ctx, event); err != nil {
			log.Printf("Warning: Failed to deliver notification %s: %v", event.ID, err)
			if err := d.outbox.MarkFailed(ctx, event.ID); err != nil {
				log.Printf("Warning: Failed to mark notification %s failed: %v", event.ID, err)
			}
			continue
		}
		if err := d.outbox.MarkSent(ctx, event.ID); err != nil {
			log.Printf("Warning: Failed to mark notification %s sent: %v", event.ID, err)
		}
	}
}
