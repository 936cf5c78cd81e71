package notify

import (
	"context"

	"github.com/qrqwqeqt/GoF-Patt/internal/device"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/influxdb"
)

// EventWriter is the subset of *influxdb.Client used by InfluxRecorder.
type EventWriter interface {
	WriteDeviceEvent(ev influxdb.DeviceEvent)
}

// InfluxRecorder writes device events as time-series points.
type InfluxRecorder struct {
	writer EventWriter
}

// NewInfluxRecorder creates a recorder writing through w.
func NewInfluxRecorder(w EventWriter) *InfluxRecorder {
	return &InfluxRecorder{writer: w}
}

// HandleDeviceEvent queues ev for the next batch. Write failures surface
// asynchronously through the client's error callback, so it never fails.
func (r *InfluxRecorder) HandleDeviceEvent(_ context.Context, ev device.Event) error {
	r.writer.WriteDeviceEvent(influxdb.DeviceEvent{
		Type:       string(ev.Type),
		DeviceID:   ev.DeviceID,
		OwnerID:    ev.OwnerID,
		Price:      ev.Price,
		ImageCount: ev.ImageCount,
		Timestamp:  ev.Timestamp,
	})
	return nil
}
