// Package influxdb records EcoRent marketplace activity in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched writes and health monitoring.
//
// Two measurements are written:
//   - device_events: one point per device create, update or delete
//   - http_requests: latency and status of every served API request
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceEvent(influxdb.DeviceEvent{Type: "device.created", DeviceID: "dev-42"})
//
// Writes never block the caller. Batch failures are delivered to the
// SetOnError callback.
package influxdb
