package models

import (
	"time"

	"github.com/google/uuid"
)

// WebSocket / pub-sub event types for a group feed.
const (
	EventBreakdownPending   = "breakdown_pending"
	EventBreakdownPersisted = "breakdown_persisted"
	EventBreakdownExpired   = "breakdown_expired"
	EventBreakdownFailed    = "breakdown_failed"
	EventMessageCreated     = "message_created"
)

type WSMessage struct {
	Type    string      `json:"type"`
	GroupID uuid.UUID   `json:"groupId"`
	Payload interface{} `json:"payload"`
}

type PendingBreakdown struct {
	CorrelationID string    `json:"correlationId"`
	GroupID       uuid.UUID `json:"groupId"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	Topic         string    `json:"topic"`
	CreatedAt     time.Time `json:"createdAt"`
}

type BreakdownFailedEvent struct {
	CorrelationID string `json:"correlationId"`
	ErrorMessage  string `json:"errorMessage"`
}

// GroupBreakdownJob is queued for the background worker.
type GroupBreakdownJob struct {
	ID            uuid.UUID `json:"id"`
	GroupID       uuid.UUID `json:"groupId"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	Topic         string    `json:"topic"`
	CorrelationID string    `json:"correlationId"`
	NumQuestions  int       `json:"numQuestions"`
	RetryCount    int       `json:"retryCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// API error body. Error is a plain message so every failure satisfies {error}.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}
