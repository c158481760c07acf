package profile_modbus

import (
	"fmt"

	"github.com/berfenger/sunflow2mqtt/pkg/profile"
)

// Sensor errors cover the register decoding path. Inside value extraction
// they are absorbed: a malformed sensor drops out of the result map instead
// of failing the read.

type InsufficientRegistersError struct {
	Expected int
	Got      int
}

func (e *InsufficientRegistersError) Error() string {
	return fmt.Sprintf("insufficient registers: expected %d, got %d", e.Expected, e.Got)
}

type RawValueOutOfRangeError struct {
	Value float64
	Min   *float64
	Max   *float64
}

func (e *RawValueOutOfRangeError) Error() string {
	return fmt.Sprintf("raw value %v outside range %s", e.Value, boundsString(e.Min, e.Max))
}

type ValueOutOfRangeError struct {
	Value float64
	Min   *float64
	Max   *float64
}

func (e *ValueOutOfRangeError) Error() string {
	return fmt.Sprintf("value %v outside validation window %s", e.Value, boundsString(e.Min, e.Max))
}

type InvalidUTF8Error struct{}

func (e *InvalidUTF8Error) Error() string {
	return "decoded string is not valid UTF-8"
}

type ControlCharacterError struct {
	Rune rune
}

func (e *ControlCharacterError) Error() string {
	return fmt.Sprintf("decoded string contains control character U+%04X", e.Rune)
}

type UnsupportedRuleError struct {
	Rule profile.ParseRule
}

func (e *UnsupportedRuleError) Error() string {
	return fmt.Sprintf("rule %d is not numeric", e.Rule)
}

func boundsString(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("[%v, %v]", *min, *max)
	case min != nil:
		return fmt.Sprintf("[%v, +inf)", *min)
	case max != nil:
		return fmt.Sprintf("(-inf, %v]", *max)
	}
	return "(-inf, +inf)"
}

// DriverErrorKind classifies a failed read at the orchestrator boundary.
type DriverErrorKind int

const (
	ErrConnectionFailed DriverErrorKind = iota
	ErrTimeout
	ErrCommunication
	ErrInvalidResponse
	ErrSensor
	ErrProfile
	ErrNoSensorsForGroups
)

func (k DriverErrorKind) String() string {
	switch k {
	case ErrConnectionFailed:
		return "connection_failed"
	case ErrTimeout:
		return "timeout"
	case ErrCommunication:
		return "communication_error"
	case ErrInvalidResponse:
		return "invalid_response"
	case ErrSensor:
		return "sensor_error"
	case ErrProfile:
		return "profile_error"
	case ErrNoSensorsForGroups:
		return "no_sensors_for_groups"
	default:
		return "unknown"
	}
}

// DriverError wraps any failure that escapes a read call.
type DriverError struct {
	Kind   DriverErrorKind
	Groups []SubsystemGroup
	Err    error
}

func (e *DriverError) Error() string {
	if len(e.Groups) > 0 {
		return fmt.Sprintf("driver: %s %v: %v", e.Kind, e.Groups, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("driver: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("driver: %s", e.Kind)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later attempt may succeed. Only timeouts and
// transient communication failures qualify.
func (e *DriverError) Retryable() bool {
	return e.Kind == ErrTimeout || e.Kind == ErrCommunication
}
