package dto

import "time"

// DomainEventMessage is the watermill payload for a domain event.
type DomainEventMessage struct {
	Type       string                 `json:"type"`
	SessionID  string                 `json:"session_id"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
