package profile_modbus

import (
	"strings"
	"time"

	"github.com/berfenger/sunflow2mqtt/pkg/profile"
)

// deviceTimeLayout matches the rule-8 datetime rendering, interpreted as UTC.
const deviceTimeLayout = "06/01/02 15:04:05"

// operatingStatusLabels maps vendor device-state labels onto the normalized
// run state. Labels are matched lowercased.
var operatingStatusLabels = map[string]OperatingStatus{
	"standby":  OperatingStatusStandby,
	"stand-by": OperatingStatusStandby,
	"waiting":  OperatingStatusStandby,

	"running":                OperatingStatusRunning,
	"normal":                 OperatingStatusRunning,
	"generating":             OperatingStatusRunning,
	"on-grid":                OperatingStatusRunning,
	"charging":               OperatingStatusRunning,
	"discharging":            OperatingStatusRunning,
	"charging check":         OperatingStatusRunning,
	"discharging check":      OperatingStatusRunning,
	"emergency power supply": OperatingStatusRunning,

	"fault":             OperatingStatusFault,
	"alarm":             OperatingStatusFault,
	"error":             OperatingStatusFault,
	"failure":           OperatingStatusFault,
	"permanent fault":   OperatingStatusFault,
	"recoverable fault": OperatingStatusFault,
}

// upsModeLabels maps device-state labels onto the backup-output mode.
var upsModeLabels = map[string]UPSMode{
	"emergency power supply": UPSModeBattery,
	"eps":                    UPSModeBattery,
	"off-grid":               UPSModeBattery,
	"discharging":            UPSModeBattery,

	"on-grid":        UPSModeStandby,
	"normal":         UPSModeStandby,
	"running":        UPSModeStandby,
	"standby":        UPSModeStandby,
	"stand-by":       UPSModeStandby,
	"waiting":        UPSModeStandby,
	"charging":       UPSModeStandby,
	"charging check": UPSModeStandby,

	"bypass": UPSModeBypass,
}

func buildInverter(c *collectedItems, regs map[uint16]uint16, values map[string]float64) *InverterStatus {
	inv := &InverterStatus{
		Power:       optIntValue(KeyInverterPower, values),
		Voltage:     optValue(KeyInverterVoltage, values),
		Current:     optValue(KeyInverterCurrent, values),
		Frequency:   optValue(KeyInverterFrequency, values),
		Temperature: optValue(KeyRadiatorTemp, values),
	}

	if item := c.itemForKey(KeySerialNumber); item != nil && item.Rule == profile.RuleASCII {
		if slice, ok := registerSlice(regs, item.Registers); ok {
			if s, err := DecodeString(slice); err == nil {
				inv.Serial = s
			}
		}
	}
	if item := c.itemForKey(KeyDeviceModel); item != nil && len(item.Lookup) > 0 {
		if raw, ok := lookupRawValue(regs, item); ok {
			if label, ok := item.LookupValue(raw); ok {
				inv.Model = label
			}
		}
	}
	if item := c.itemForKey(KeyFirmwareVersion); item != nil && item.Rule == profile.RuleVersion {
		if slice, ok := registerSlice(regs, item.Registers); ok {
			inv.Firmware = DecodeVersion(slice, item)
		}
	}

	if label, ok := deviceStateLabel(c, regs); ok {
		inv.StatusLabel = label
		inv.Status = operatingStatusForLabel(label)
	}

	if item := c.itemForKey(KeyDeviceAlarm); item != nil {
		inv.Alarms = decodeAlarmBits(regs, item)
	}
	if item := c.itemForKey(KeyDeviceFault); item != nil {
		inv.Faults = decodeAlarmBits(regs, item)
	}

	if item := c.itemForKey(KeyDeviceTime); item != nil && item.Rule == profile.RuleDateTime {
		if slice, ok := registerSlice(regs, item.Registers); ok {
			if s, ok := DecodeDateTime(slice); ok {
				if t, err := time.ParseInLocation(deviceTimeLayout, s, time.UTC); err == nil {
					inv.DeviceTime = &t
				}
			}
		}
	}

	if inv.Serial == "" && inv.Model == "" && inv.Firmware == "" && !hasAnyNumeric(inv) {
		return nil
	}
	return inv
}

func hasAnyNumeric(inv *InverterStatus) bool {
	return inv.Power != nil || inv.Voltage != nil || inv.Current != nil ||
		inv.Frequency != nil || inv.Temperature != nil
}

func operatingStatusForLabel(label string) OperatingStatus {
	if s, ok := operatingStatusLabels[strings.ToLower(label)]; ok {
		return s
	}
	return OperatingStatusUnknown
}

// deviceStateLabel resolves the device-state lookup, if the profile has one
// and its registers were read.
func deviceStateLabel(c *collectedItems, regs map[uint16]uint16) (string, bool) {
	item := c.itemForKey(KeyDeviceState)
	if item == nil || len(item.Lookup) == 0 {
		return "", false
	}
	raw, ok := lookupRawValue(regs, item)
	if !ok {
		return "", false
	}
	return item.LookupValue(raw)
}

// lookupRawValue assembles the raw integer a lookup operates on: one
// register as-is, two registers in CDAB order.
func lookupRawValue(regs map[uint16]uint16, item *profile.SensorItem) (int64, bool) {
	slice, ok := registerSlice(regs, item.Registers)
	if !ok {
		return 0, false
	}
	switch len(slice) {
	case 1:
		return int64(slice[0]), true
	default:
		return int64(uint32(slice[0]) | uint32(slice[1])<<16), true
	}
}

// decodeAlarmBits combines the item's registers into a 64-bit little-endian
// value (first register = least significant word) and emits one entry per
// set bit that has a matching bit lookup.
func decodeAlarmBits(regs map[uint16]uint16, item *profile.SensorItem) []DeviceAlarm {
	slice, ok := registerSlice(regs, item.Registers)
	if !ok {
		return nil
	}
	var combined uint64
	for i, v := range slice {
		if i >= 4 {
			break
		}
		combined |= uint64(v) << (16 * i)
	}
	var alarms []DeviceAlarm
	for _, entry := range item.Lookup {
		if entry.Kind != profile.LookupBit || entry.Bit > 63 {
			continue
		}
		if combined>>entry.Bit&1 == 1 {
			alarms = append(alarms, DeviceAlarm{Bit: int(entry.Bit), Message: entry.Value})
		}
	}
	return alarms
}

