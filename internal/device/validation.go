package device

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation limits.
const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxTextFieldLength   = 500
)

// ValidateDevice checks a device before it is stored.
// Returns an error wrapping ErrBadRequest describing the first failure found.
//
// When requirePolicyAgreement is set, the owner must have accepted the
// rental policy.
func ValidateDevice(d *Device, requirePolicyAgreement bool) error {
	if d == nil {
		return fmt.Errorf("%w: device is required", ErrBadRequest)
	}

	required := []struct {
		field string
		value string
		max   int
	}{
		{"title", d.Title, maxTitleLength},
		{"manufacturer", d.Manufacturer, maxTextFieldLength},
		{"deviceModel", d.DeviceModel, maxTextFieldLength},
		{"condition", d.Condition, maxTextFieldLength},
		{"remoteUse", d.RemoteUse, maxTextFieldLength},
		{"batteryType", d.BatteryType, maxTextFieldLength},
		{"signalShape", d.SignalShape, maxTextFieldLength},
		{"dimensions.length", d.Dimensions.Length, maxTextFieldLength},
		{"dimensions.width", d.Dimensions.Width, maxTextFieldLength},
		{"dimensions.height", d.Dimensions.Height, maxTextFieldLength},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrBadRequest, r.field)
		}
		if utf8.RuneCountInString(r.value) > r.max {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrBadRequest, r.field, r.max)
		}
	}

	if utf8.RuneCountInString(d.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrBadRequest, maxDescriptionLength)
	}
	if utf8.RuneCountInString(d.Additional) > maxDescriptionLength {
		return fmt.Errorf("%w: additional exceeds %d characters", ErrBadRequest, maxDescriptionLength)
	}

	numbers := []struct {
		field string
		value float64
	}{
		{"batteryCapacity", d.BatteryCapacity},
		{"weight", d.Weight},
		{"typeC", float64(d.TypeC)},
		{"typeA", float64(d.TypeA)},
		{"sockets", float64(d.Sockets)},
		{"price", d.Price},
		{"minRentTerm", float64(d.MinRentTerm)},
		{"maxRentTerm", float64(d.MaxRentTerm)},
	}
	for _, n := range numbers {
		if n.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrBadRequest, n.field)
		}
	}

	if d.MaxRentTerm > 0 && d.MinRentTerm > d.MaxRentTerm {
		return fmt.Errorf("%w: minRentTerm must not exceed maxRentTerm", ErrBadRequest)
	}

	for i, img := range d.Images {
		if img.URL == "" {
			return fmt.Errorf("%w: images[%d].url is required", ErrBadRequest, i)
		}
		if img.Width < 0 || img.Height < 0 {
			return fmt.Errorf("%w: images[%d] dimensions must not be negative", ErrBadRequest, i)
		}
	}

	if requirePolicyAgreement && !d.PolicyAgreement {
		return fmt.Errorf("%w: policyAgreement must be accepted", ErrBadRequest)
	}

	return nil
}

// ValidateImageDimensions checks caller-supplied attachment sizes before
// any attachment is uploaded.
func ValidateImageDimensions(dims []ImageDimensions) error {
	for i, dim := range dims {
		if dim.Width < 0 || dim.Height < 0 {
			return fmt.Errorf("%w: imageDimensions[%d] must not be negative", ErrBadRequest, i)
		}
	}
	return nil
}
