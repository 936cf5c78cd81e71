package device

import (
	"context"
	"time"
)

// EventType identifies a device lifecycle change.
type EventType string

// Device lifecycle events.
const (
	EventCreated EventType = "device.created"
	EventUpdated EventType = "device.updated"
	EventDeleted EventType = "device.deleted"
)

// Event describes a committed change to a device.
type Event struct {
	Type       EventType `json:"type"`
	DeviceID   string    `json:"deviceId"`
	OwnerID    string    `json:"ownerId"`
	Title      string    `json:"title,omitempty"`
	Price      float64   `json:"price,omitempty"`
	ImageCount int       `json:"imageCount"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventHandler observes device lifecycle events.
//
// Handlers are called synchronously, in registration order, after the change
// has been committed. A handler error is logged and never undoes or fails
// the operation that produced the event.
type EventHandler interface {
	HandleDeviceEvent(ctx context.Context, ev Event) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, ev Event) error

// HandleDeviceEvent calls f(ctx, ev).
func (f EventHandlerFunc) HandleDeviceEvent(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

func newEvent(t EventType, d *Device, at time.Time) Event {
	return Event{
		Type:       t,
		DeviceID:   d.ID,
		OwnerID:    d.OwnerID,
		Title:      d.Title,
		Price:      d.Price,
		ImageCount: len(d.Images),
		Timestamp:  at,
	}
}
