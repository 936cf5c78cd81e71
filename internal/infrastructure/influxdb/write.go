package influxdb

import (
	"strconv"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementDeviceEvents = "device_events"
	MeasurementHTTPRequests = "http_requests"
)

// DeviceEvent is one device lifecycle change to record.
type DeviceEvent struct {
	Type       string // device.created, device.updated, device.deleted
	DeviceID   string
	OwnerID    string
	Price      float64
	ImageCount int
	Timestamp  time.Time
}

// WriteDeviceEvent records a device lifecycle change in device_events.
//
// The event type is a tag so listings activity can be grouped cheaply;
// device and owner IDs are fields to keep series cardinality low.
// The write is non-blocking; points are batched and sent asynchronously.
func (c *Client) WriteDeviceEvent(ev DeviceEvent) {
	if !c.IsConnected() {
		return
	}

	at := ev.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementDeviceEvents,
		map[string]string{
			"event": strings.TrimPrefix(ev.Type, "device."),
		},
		map[string]any{
			"device_id":   ev.DeviceID,
			"owner_id":    ev.OwnerID,
			"price":       ev.Price,
			"image_count": ev.ImageCount,
		},
		at,
	))
}

// WriteHTTPRequest records one served API request in http_requests.
//
// Parameters:
//   - method: HTTP method
//   - route: the matched route pattern (e.g. "/api/devices/getDevice/{id}"), not the raw path
//   - status: response status code
//   - duration: time spent serving the request
func (c *Client) WriteHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementHTTPRequests,
		map[string]string{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		},
		map[string]any{
			"duration_ms": float64(duration.Microseconds()) / 1000, //nolint:mnd // µs → ms
		},
		time.Now(),
	))
}
