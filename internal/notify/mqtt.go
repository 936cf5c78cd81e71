package notify

import (
	"context"
	"fmt"

	"github.com/qrqwqeqt/GoF-Patt/internal/device"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/mqtt"
)

// JSONPublisher is the subset of *mqtt.Client used by MQTTPublisher.
type JSONPublisher interface {
	PublishJSON(topic string, v any) error
}

// MQTTPublisher publishes device events to the broker.
type MQTTPublisher struct {
	client JSONPublisher
	source string
}

// eventMessage is the MQTT payload for a device event.
type eventMessage struct {
	device.Event
	Source string `json:"source,omitempty"`
}

// NewMQTTPublisher creates a publisher. source identifies this instance in
// every payload and may be empty.
func NewMQTTPublisher(client JSONPublisher, source string) *MQTTPublisher {
	return &MQTTPublisher{client: client, source: source}
}

// HandleDeviceEvent publishes ev on its device topic.
func (p *MQTTPublisher) HandleDeviceEvent(_ context.Context, ev device.Event) error {
	topic := mqtt.Topics{}.DeviceEvent(string(ev.Type), ev.DeviceID)
	if err := p.client.PublishJSON(topic, eventMessage{Event: ev, Source: p.source}); err != nil {
		return fmt.Errorf("publishing %s for %s: %w", ev.Type, ev.DeviceID, err)
	}
	return nil
}
