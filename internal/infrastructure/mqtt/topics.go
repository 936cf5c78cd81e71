package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for EcoRent MQTT traffic.
const (
	// TopicPrefix is the root of every EcoRent topic.
	TopicPrefix = "ecorent"

	// TopicPrefixDevices is the base for device lifecycle events.
	TopicPrefixDevices = TopicPrefix + "/devices"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = TopicPrefix + "/system"
)

// Topics provides builders for EcoRent MQTT topics.
//
//	topic := mqtt.Topics{}.DeviceEvent("device.created", "dev-42")
//	// Returns: "ecorent/devices/created/dev-42"
type Topics struct{}

// DeviceEvent returns the topic for a device lifecycle event. A "device."
// prefix on eventType is dropped.
//
// Example: ecorent/devices/updated/dev-42
func (Topics) DeviceEvent(eventType, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixDevices, strings.TrimPrefix(eventType, "device."), deviceID)
}

// AllDeviceEvents returns a wildcard topic matching every device event.
//
// Example: ecorent/devices/+/+
func (Topics) AllDeviceEvents() string {
	return TopicPrefixDevices + "/+/+"
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: ecorent/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
