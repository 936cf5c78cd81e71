// Package mqtt publishes EcoRent events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - A retained online/offline status with Last Will and Testament
//   - Connection health monitoring
//
// Device lifecycle events go to ecorent/devices/<type>/<device-id> so
// downstream consumers (search indexers, notification senders) can follow
// the catalogue without polling the HTTP API.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceEvent("device.created", "dev-42")
//	err = client.PublishJSON(topic, event)
package mqtt
