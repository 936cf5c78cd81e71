package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrForbidden is returned when the caller does not own the device.
	ErrForbidden = errors.New("device: forbidden")

	// ErrBadRequest is returned when input fails validation or coercion.
	ErrBadRequest = errors.New("device: bad request")

	// ErrUnavailable is returned when the document store or the object store fails.
	ErrUnavailable = errors.New("device: store unavailable")
)
