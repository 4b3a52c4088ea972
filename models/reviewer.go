package models

import (
	"time"

	"github.com/google/uuid"
)

// Reviewer represents a human or system identity allowed to invoke
// document-processing agents
type Reviewer struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"` // Never serialize the key hash
	Roles      []string  `json:"roles"`
	Domains    []string  `json:"domains"`
	CreatedAt  time.Time `json:"created_at"`
}
