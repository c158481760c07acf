package profile

import (
	"strings"
)

// ParseRule selects how the raw registers of a sensor item are decoded.
type ParseRule uint8

const (
	RuleComputed ParseRule = 0
	RuleUint16   ParseRule = 1
	RuleInt16    ParseRule = 2
	RuleUint32   ParseRule = 3
	RuleInt32    ParseRule = 4
	RuleASCII    ParseRule = 5
	RuleBits     ParseRule = 6
	RuleVersion  ParseRule = 7
	RuleDateTime ParseRule = 8
	RuleTime     ParseRule = 9
	RuleRaw      ParseRule = 10
)

// IsNumeric reports whether the rule produces a float64 through the numeric
// convert path.
func (r ParseRule) IsNumeric() bool {
	switch r {
	case RuleUint16, RuleInt16, RuleUint32, RuleInt32, RuleTime:
		return true
	}
	return false
}

// MinRegisters is the minimum register count the rule can decode.
func (r ParseRule) MinRegisters() int {
	switch r {
	case RuleComputed:
		return 0
	case RuleUint32, RuleInt32:
		return 2
	case RuleDateTime:
		return 3
	default:
		return 1
	}
}

// Platform mirrors the entity kind declared by a profile item.
type Platform string

const (
	PlatformSensor       Platform = "sensor"
	PlatformBinarySensor Platform = "binary_sensor"
	PlatformNumber       Platform = "number"
	PlatformSelect       Platform = "select"
	PlatformSwitch       Platform = "switch"
	PlatformDateTime     Platform = "datetime"
	PlatformTime         Platform = "time"
	PlatformButton       Platform = "button"
)

// Writable reports whether the platform kind accepts values from the outside.
func (p Platform) Writable() bool {
	switch p {
	case PlatformNumber, PlatformSelect, PlatformSwitch, PlatformButton:
		return true
	}
	return false
}

type DeviceInfo struct {
	Manufacturer string
	Models       []string
}

type Defaults struct {
	UpdateInterval int
	Digits         int
}

// RequestBlock is a profile-declared read window. It is retained for
// authoring compatibility; the read path derives its own ranges.
type RequestBlock struct {
	Start    int
	Count    int
	Function string
	Name     string
}

type ParameterGroup struct {
	Group          string
	UpdateInterval int
	Items          []SensorItem
}

type LookupKind uint8

const (
	LookupSingle LookupKind = iota
	LookupMultiple
	LookupBit
	LookupDefault
)

type LookupEntry struct {
	Kind  LookupKind
	Key   int64
	Keys  []int64
	Bit   uint8
	Value string
}

// Matches reports whether a non-default entry matches the raw value.
// Bit entries at position 64 or above never match.
func (e LookupEntry) Matches(value int64) bool {
	switch e.Kind {
	case LookupSingle:
		return e.Key == value
	case LookupMultiple:
		for _, k := range e.Keys {
			if k == value {
				return true
			}
		}
		return false
	case LookupBit:
		if e.Bit > 63 {
			return false
		}
		return (uint64(value)>>e.Bit)&1 == 1
	}
	return false
}

type SubSensorOperator string

const (
	OperatorAdd      SubSensorOperator = "add"
	OperatorSubtract SubSensorOperator = "subtract"
	OperatorMultiply SubSensorOperator = "multiply"
	OperatorDivide   SubSensorOperator = "divide"
)

// SubSensor is one operand of a composite sensor.
type SubSensor struct {
	Registers []uint16
	Scale     float64
	Offset    float64
	Signed    bool
	Operator  SubSensorOperator
}

// SensorItem is a single register-backed (or computed) value declared by a
// device profile.
type SensorItem struct {
	Name string
	// ID is the normalized identifier derived from Name. Empty for
	// device-level placeholder items.
	ID        string
	Registers []uint16
	Rule      ParseRule
	Platform  Platform

	Class      string
	StateClass string
	UOM        string
	Icon       string

	Scale     float64
	Offset    float64
	Signed    bool
	Inverse   bool
	Magnitude bool

	Mask   *uint32
	Divide *uint32
	Bit    *uint8

	RangeMin     *float64
	RangeMax     *float64
	RangeDefault *float64

	ValidationMin *float64
	ValidationMax *float64

	Lookup  []LookupEntry
	Options []string
	Sensors []SubSensor

	// version rendering
	DigitDelimiter    string
	RegisterDelimiter string
	HexDigits         bool

	Attribute      bool
	Attributes     []string
	Description    string
	UpdateInterval int
}

// LookupValue walks the lookup entries in declared order. The default entry,
// if any, is consulted only after every other entry has failed.
func (item *SensorItem) LookupValue(value int64) (string, bool) {
	var def *LookupEntry
	for i := range item.Lookup {
		e := &item.Lookup[i]
		if e.Kind == LookupDefault {
			if def == nil {
				def = e
			}
			continue
		}
		if e.Matches(value) {
			return e.Value, true
		}
	}
	if def != nil {
		return def.Value, true
	}
	return "", false
}

// InverterDefinition is a fully-parsed device profile. Definitions are
// immutable once loaded.
type InverterDefinition struct {
	ID       string
	Info     DeviceInfo
	Defaults Defaults
	Requests []RequestBlock
	Groups   []ParameterGroup
}

// AllItems returns every sensor item in declaration order.
func (def *InverterDefinition) AllItems() []SensorItem {
	var items []SensorItem
	for _, g := range def.Groups {
		items = append(items, g.Items...)
	}
	return items
}

var nameReplacer = strings.NewReplacer(" ", "_", "-", "_")

// NormalizeName lowercases a sensor name and maps spaces and hyphens to
// underscores. The transform is idempotent.
func NormalizeName(name string) string {
	return nameReplacer.Replace(strings.ToLower(name))
}
