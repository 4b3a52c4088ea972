package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies an outbox event
type NotificationType string

const (
	NotificationConflictDetected    NotificationType = "conflict_detected"
	NotificationDocumentInvalidated NotificationType = "document_invalidated"
)

// ChangeType tags the kind of legal change behind an event
type ChangeType string

const (
	ChangeAmendment      ChangeType = "amendment"
	ChangeRepeal         ChangeType = "repeal"
	ChangeNew            ChangeType = "new"
	ChangeInterpretation ChangeType = "interpretation"
	ChangeOther          ChangeType = "other"
)

// NotificationStatus is the delivery state of an outbox row
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// NotificationDetails is free-form event payload stored as JSONB
type NotificationDetails map[string]interface{}

// Value implements driver.Valuer for JSONB
func (d NotificationDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB
func (d *NotificationDetails) Scan(value interface{}) error {
	if value == nil {
		*d = make(NotificationDetails)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*d = make(NotificationDetails)
		return nil
	}

	if len(bytes) == 0 {
		*d = make(NotificationDetails)
		return nil
	}

	return json.Unmarshal(bytes, d)
}

// NotificationEvent is one row of the durable notification outbox.
// Delivery failures never block hierarchy mutations; the dispatcher
// retries pending rows out of band.
type NotificationEvent struct {
	ID         uuid.UUID           `json:"id"`
	Type       NotificationType    `json:"type"`
	DocumentID string              `json:"document_id"`
	CausedBy   string              `json:"caused_by,omitempty"`
	ChangeType ChangeType          `json:"change_type"`
	Details    NotificationDetails `json:"details"`
	Status     NotificationStatus  `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	SentAt     *time.Time          `json:"sent_at,omitempty"`
}
