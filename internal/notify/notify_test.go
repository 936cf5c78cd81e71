package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/qrqwqeqt/GoF-Patt/internal/device"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/influxdb"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/mqtt"
)

type fakePublisher struct {
	topic   string
	payload []byte
	err     error
}

func (f *fakePublisher) PublishJSON(topic string, v any) error {
	if f.err != nil {
		return f.err
	}
	f.topic = topic
	b, err := json.Marshal(v)
	f.payload = b
	return err
}

type fakeWriter struct {
	events []influxdb.DeviceEvent
}

func (f *fakeWriter) WriteDeviceEvent(ev influxdb.DeviceEvent) {
	f.events = append(f.events, ev)
}

func testEvent() device.Event {
	return device.Event{
		Type:       device.EventCreated,
		DeviceID:   "dev-42",
		OwnerID:    "usr-1",
		Title:      "Power bank",
		Price:      99.5,
		ImageCount: 3,
		Timestamp:  time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMQTTPublisher_PublishesOnDeviceTopic(t *testing.T) {
	pub := &fakePublisher{}
	p := NewMQTTPublisher(pub, "ecorent-01")

	if err := p.HandleDeviceEvent(context.Background(), testEvent()); err != nil {
		t.Fatalf("HandleDeviceEvent() error = %v", err)
	}
	want := mqtt.Topics{}.DeviceEvent("device.created", "dev-42")
	if pub.topic != want {
		t.Errorf("topic = %q, want %q", pub.topic, want)
	}

	var got map[string]any
	if err := json.Unmarshal(pub.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["type"] != "device.created" || got["deviceId"] != "dev-42" || got["source"] != "ecorent-01" {
		t.Errorf("payload = %v", got)
	}
	if got["imageCount"] != float64(3) {
		t.Errorf("imageCount = %v, want 3", got["imageCount"])
	}
}

func TestMQTTPublisher_WrapsError(t *testing.T) {
	pub := &fakePublisher{err: mqtt.ErrNotConnected}
	p := NewMQTTPublisher(pub, "")

	err := p.HandleDeviceEvent(context.Background(), testEvent())
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("HandleDeviceEvent() error = %v, want ErrNotConnected", err)
	}
}

func TestInfluxRecorder(t *testing.T) {
	w := &fakeWriter{}
	r := NewInfluxRecorder(w)

	if err := r.HandleDeviceEvent(context.Background(), testEvent()); err != nil {
		t.Fatalf("HandleDeviceEvent() error = %v", err)
	}
	if len(w.events) != 1 {
		t.Fatalf("events = %d, want 1", len(w.events))
	}
	got := w.events[0]
	if got.Type != "device.created" || got.DeviceID != "dev-42" || got.OwnerID != "usr-1" ||
		got.Price != 99.5 || got.ImageCount != 3 || !got.Timestamp.Equal(testEvent().Timestamp) {
		t.Errorf("event = %+v", got)
	}
}

func TestHandlersSatisfyDeviceEventHandler(t *testing.T) {
	var _ device.EventHandler = NewMQTTPublisher(&fakePublisher{}, "")
	var _ device.EventHandler = NewInfluxRecorder(&fakeWriter{})
}
