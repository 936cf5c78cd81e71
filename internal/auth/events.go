package auth

import (
	"context"
	"time"
)

// EventType identifies an account event.
type EventType string

// Account events.
const (
	EventRegistered      EventType = "user.registered"
	EventLoggedIn        EventType = "user.login"
	EventUpdated         EventType = "user.updated"
	EventPasswordChanged EventType = "user.password_changed"
	EventDeleted         EventType = "user.deleted"
)

// Event describes a committed change to, or use of, an account.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"userId"`
	UserType  UserType  `json:"userType,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHandler observes account events.
//
// Handlers are called synchronously, in registration order, after the change
// has been committed. A handler error is logged and never fails the
// operation that produced the event.
type EventHandler interface {
	HandleUserEvent(ctx context.Context, ev Event) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, ev Event) error

// HandleUserEvent calls f(ctx, ev).
func (f EventHandlerFunc) HandleUserEvent(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
