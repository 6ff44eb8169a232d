package service

import (
	"context"
	"time"
)

// Auth event types published on account and session lifecycle transitions.
const (
	EventUserRegistered  = "user.registered"
	EventUserDeleted     = "user.deleted"
	EventSessionCreated  = "session.created"
	EventSessionRevoked  = "session.revoked"
	EventSessionsRevoked = "sessions.revoked_all"
)

// AuthEvent describes a single account or session lifecycle transition for
// downstream consumers (audit trail, notification fan-out).
type AuthEvent struct {
	RequestID  string    `json:"request_id,omitempty"` // For distributed tracing
	Type       string    `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing auth events to a message queue.
type EventPublisher interface {
	// PublishAuthEvent publishes a lifecycle event for async processing.
	PublishAuthEvent(ctx context.Context, event *AuthEvent) error

	// Close releases any resources held by the publisher.
	Close() error
}
