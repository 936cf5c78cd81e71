// Package notify forwards device lifecycle events to external sinks.
//
// MQTTPublisher publishes each event as JSON on
// ecorent/devices/<created|updated|deleted>/<device-id>. InfluxRecorder
// writes each event as a device_events point. Both implement
// device.EventHandler and are registered on the device service at startup.
package notify
