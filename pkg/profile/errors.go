package profile

import (
	"fmt"
)

// ParseError reports a malformed profile document.
type ParseError struct {
	ID     string
	Line   int // 0 when unknown
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("profile %q: parse error at line %d: %s", e.ID, e.Line, e.Reason)
	}
	return fmt.Sprintf("profile %q: parse error: %s", e.ID, e.Reason)
}

// LoadError reports a failure to obtain a profile document.
type LoadError struct {
	ID  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("profile %q: load failed: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// UnsupportedDeviceError means the manufacturer is known but no model
// pattern matched. Suggestion, when set, is the first profile sharing the
// manufacturer.
type UnsupportedDeviceError struct {
	Device     DeviceFingerprint
	Suggestion *ProfileRef
}

func (e *UnsupportedDeviceError) Error() string {
	if e.Suggestion != nil {
		return fmt.Sprintf("unsupported device %s %s (closest profile: %s)",
			e.Device.Manufacturer, e.Device.Model, e.Suggestion.ID)
	}
	return fmt.Sprintf("unsupported device %s %s", e.Device.Manufacturer, e.Device.Model)
}

// UnknownDeviceError means no profile matched and the manufacturer is not
// represented, or the fingerprint failed input validation.
type UnknownDeviceError struct {
	Device DeviceFingerprint
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown device %s %s", e.Device.Manufacturer, e.Device.Model)
}

// IdentificationError reports a failure to fingerprint a device at all.
type IdentificationError struct {
	Reason string
}

func (e *IdentificationError) Error() string {
	return fmt.Sprintf("device identification failed: %s", e.Reason)
}
