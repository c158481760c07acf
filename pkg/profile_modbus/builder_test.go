package profile_modbus

import (
	"testing"
	"time"

	"github.com/berfenger/sunflow2mqtt/pkg/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numItem(group, name string, rule profile.ParseRule, regs []uint16, mod func(*profile.SensorItem)) profile.SensorItem {
	it := profile.SensorItem{
		Name:              name,
		ID:                profile.NormalizeName(name),
		Registers:         regs,
		Rule:              rule,
		Platform:          profile.PlatformSensor,
		Scale:             1.0,
		DigitDelimiter:    ".",
		RegisterDelimiter: "-",
		HexDigits:         true,
	}
	if mod != nil {
		mod(&it)
	}
	return it
}

func defWithGroups(groups ...profile.ParameterGroup) *profile.InverterDefinition {
	return &profile.InverterDefinition{
		ID:       "test",
		Info:     profile.DeviceInfo{Manufacturer: "TEST", Models: []string{"T-1000"}},
		Defaults: profile.Defaults{UpdateInterval: 5, Digits: 6},
		Groups:   groups,
	}
}

func TestBuildBatteryFromBundledProfile(t *testing.T) {
	def, err := profile.LoadBundled("deye_p3")
	require.NoError(t, err)

	regs := map[uint16]uint16{
		0x00B8: 95,   // soc
		0x00B7: 5328, // voltage, scale 0.01
		0x00BE: 9,    // power
	}

	status := NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupBattery})

	require.NotNil(t, status.Battery)
	assert.Equal(t, 95, status.Battery.SOC)
	assert.InDelta(t, 53.28, status.Battery.Voltage, 1e-9)
	assert.Equal(t, 9, status.Battery.Power)
	assert.InDelta(t, 9.0/53.28, status.Battery.Current, 1e-6)

	assert.Nil(t, status.Grid)
	assert.Nil(t, status.PV)
	assert.Nil(t, status.Load)
	assert.Nil(t, status.Inverter)
	assert.Nil(t, status.Generator)
	assert.Nil(t, status.UPS)
	assert.Nil(t, status.BMS)
	assert.Nil(t, status.TimeOfUse)
	assert.WithinDuration(t, time.Now().UTC(), status.Timestamp, 5*time.Second)
}

func TestBuildBatteryRequiresCoreSensors(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Battery", Items: []profile.SensorItem{
		numItem("Battery", "Battery SOC", profile.RuleUint16, []uint16{184}, nil),
		numItem("Battery", "Battery Voltage", profile.RuleUint16, []uint16{183}, nil),
	}})
	// power sensor missing entirely
	status := NewStatusBuilder(def).Build(map[uint16]uint16{184: 50, 183: 52}, []SubsystemGroup{GroupBattery})
	assert.Nil(t, status.Battery)
}

func TestBuildBatteryDirectCurrentWins(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Battery", Items: []profile.SensorItem{
		numItem("Battery", "Battery SOC", profile.RuleUint16, []uint16{1}, nil),
		numItem("Battery", "Battery Voltage", profile.RuleUint16, []uint16{2}, nil),
		numItem("Battery", "Battery Power", profile.RuleInt16, []uint16{3}, nil),
		numItem("Battery", "Battery Current", profile.RuleInt16, []uint16{4}, nil),
	}})
	status := NewStatusBuilder(def).Build(map[uint16]uint16{1: 80, 2: 52, 3: 520, 4: 10}, []SubsystemGroup{GroupBattery})
	require.NotNil(t, status.Battery)
	assert.Equal(t, float64(10), status.Battery.Current)
}

func TestBuildBatteryZeroVoltageCurrent(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Battery", Items: []profile.SensorItem{
		numItem("Battery", "Battery SOC", profile.RuleUint16, []uint16{1}, nil),
		numItem("Battery", "Battery Voltage", profile.RuleUint16, []uint16{2}, nil),
		numItem("Battery", "Battery Power", profile.RuleInt16, []uint16{3}, nil),
	}})
	status := NewStatusBuilder(def).Build(map[uint16]uint16{1: 80, 2: 0, 3: 100}, []SubsystemGroup{GroupBattery})
	require.NotNil(t, status.Battery)
	assert.Equal(t, float64(0), status.Battery.Current)
}

func TestBuildGridPhasesAndExternalCT(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Grid", Items: []profile.SensorItem{
		numItem("Grid", "Grid Power", profile.RuleInt16, []uint16{10}, nil),
		numItem("Grid", "Grid L1 Voltage", profile.RuleUint16, []uint16{11}, func(it *profile.SensorItem) { it.Scale = 0.1 }),
		numItem("Grid", "Grid L1 Power", profile.RuleInt16, []uint16{12}, nil),
		numItem("Grid", "Grid L2 Power", profile.RuleInt16, []uint16{13}, nil),
		numItem("Grid", "Grid Frequency", profile.RuleUint16, []uint16{14}, func(it *profile.SensorItem) { it.Scale = 0.01 }),
		numItem("Grid", "Grid CT L1 Power", profile.RuleInt16, []uint16{15}, nil),
		numItem("Grid", "Grid CT L2 Power", profile.RuleInt16, []uint16{16}, nil),
	}})
	regs := map[uint16]uint16{10: 1500, 11: 2302, 12: 800, 13: 700, 14: 5001, 15: 900, 16: 650}
	status := NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupGrid})

	grid := status.Grid
	require.NotNil(t, grid)
	assert.Equal(t, 1500, grid.Power)
	require.Len(t, grid.Phases, 2)
	assert.Equal(t, 1, grid.Phases[0].Phase)
	assert.InDelta(t, 230.2, *grid.Phases[0].Voltage, 1e-9)
	assert.Equal(t, 800, *grid.Phases[0].Power)
	assert.Equal(t, 2, grid.Phases[1].Phase)
	require.NotNil(t, grid.Frequency)
	assert.InDelta(t, 50.01, *grid.Frequency, 1e-9)

	require.NotNil(t, grid.ExternalCT)
	// no direct total: sum of phase powers
	assert.Equal(t, 1550, grid.ExternalCT.Power)
	require.Len(t, grid.ExternalCT.Phases, 2)
}

func TestBuildGridSinglePhaseFallback(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Grid", Items: []profile.SensorItem{
		numItem("Grid", "Grid Power", profile.RuleInt16, []uint16{10}, nil),
		numItem("Grid", "Grid Voltage", profile.RuleUint16, []uint16{11}, func(it *profile.SensorItem) { it.Scale = 0.1 }),
	}})
	status := NewStatusBuilder(def).Build(map[uint16]uint16{10: 400, 11: 2310}, []SubsystemGroup{GroupGrid})
	grid := status.Grid
	require.NotNil(t, grid)
	require.Len(t, grid.Phases, 1)
	assert.Equal(t, 1, grid.Phases[0].Phase)
	assert.InDelta(t, 231.0, *grid.Phases[0].Voltage, 1e-9)
	require.NotNil(t, grid.Phases[0].Power)
	assert.Equal(t, 400, *grid.Phases[0].Power)
	assert.Nil(t, grid.ExternalCT)
}

func TestBuildPVStrings(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "PV", Items: []profile.SensorItem{
		numItem("PV", "PV1 Power", profile.RuleUint16, []uint16{20}, nil),
		numItem("PV", "PV1 Voltage", profile.RuleUint16, []uint16{21}, func(it *profile.SensorItem) { it.Scale = 0.1 }),
		numItem("PV", "PV2 Power", profile.RuleUint16, []uint16{22}, nil),
	}})
	regs := map[uint16]uint16{20: 3000, 21: 6000, 22: 1200}
	status := NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupPV})

	pv := status.PV
	require.NotNil(t, pv)
	require.Len(t, pv.Strings, 2)
	assert.Equal(t, 1, pv.Strings[0].String)
	assert.InDelta(t, 600.0, pv.Strings[0].Voltage, 1e-9)
	// no direct current sensor: derived from power/voltage
	assert.InDelta(t, 5.0, pv.Strings[0].Current, 1e-9)
	assert.Equal(t, 3000, pv.Strings[0].Power)
	// string 2 has no voltage, current stays 0
	assert.Equal(t, float64(0), pv.Strings[1].Voltage)
	assert.Equal(t, float64(0), pv.Strings[1].Current)

	// no direct total: sum of strings
	assert.Equal(t, 4200, pv.Power)
}

func TestBuildPVDirectTotalWins(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "PV", Items: []profile.SensorItem{
		numItem("PV", "PV1 Power", profile.RuleUint16, []uint16{20}, nil),
		numItem("PV", "Total PV Power", profile.RuleUint16, []uint16{25}, nil),
	}})
	status := NewStatusBuilder(def).Build(map[uint16]uint16{20: 3000, 25: 3100}, []SubsystemGroup{GroupPV})
	require.NotNil(t, status.PV)
	assert.Equal(t, 3100, status.PV.Power)
}

func TestBuildLoadWithPhases(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Load", Items: []profile.SensorItem{
		numItem("Load", "Load Power", profile.RuleInt16, []uint16{30}, nil),
		numItem("Load", "Load L1 Power", profile.RuleInt16, []uint16{31}, nil),
		numItem("Load", "Load L3 Power", profile.RuleInt16, []uint16{33}, nil),
	}})
	status := NewStatusBuilder(def).Build(map[uint16]uint16{30: 900, 31: 400, 33: 500}, []SubsystemGroup{GroupLoad})
	load := status.Load
	require.NotNil(t, load)
	assert.Equal(t, 900, load.Power)
	require.Len(t, load.Phases, 2)
	assert.Equal(t, 1, load.Phases[0].Phase)
	assert.Equal(t, 3, load.Phases[1].Phase)
}

func TestBuildInverterStatusMapping(t *testing.T) {
	cases := []struct {
		label    string
		expected OperatingStatus
	}{
		{"standby", OperatingStatusStandby},
		{"Stand-by", OperatingStatusStandby},
		{"waiting", OperatingStatusStandby},
		{"normal", OperatingStatusRunning},
		{"On-Grid", OperatingStatusRunning},
		{"emergency power supply", OperatingStatusRunning},
		{"fault", OperatingStatusFault},
		{"Permanent Fault", OperatingStatusFault},
		{"self-check", OperatingStatusUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, operatingStatusForLabel(tc.label), tc.label)
	}
}

func TestBuildInverterFromSensors(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Info", Items: []profile.SensorItem{
		numItem("Info", "Serial Number", profile.RuleASCII, []uint16{3, 4}, nil),
		numItem("Info", "Firmware Version", profile.RuleVersion, []uint16{14}, nil),
		numItem("Info", "Device State", profile.RuleUint16, []uint16{500}, func(it *profile.SensorItem) {
			it.Lookup = []profile.LookupEntry{
				{Kind: profile.LookupSingle, Key: 0, Value: "standby"},
				{Kind: profile.LookupSingle, Key: 2, Value: "normal"},
				{Kind: profile.LookupDefault, Value: "unknown state"},
			}
		}),
		numItem("Info", "Device Time", profile.RuleDateTime, []uint16{62, 63, 64}, nil),
	}})
	regs := map[uint16]uint16{
		3: 0x3132, 4: 0x3334, // "1234"
		14:  0x0012,
		500: 2,
		62:  0x180C, 63: 0x0E0F, 64: 0x1E2D,
	}
	status := NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupInverter})

	inv := status.Inverter
	require.NotNil(t, inv)
	assert.Equal(t, "1234", inv.Serial)
	assert.Equal(t, "1.2", inv.Firmware)
	assert.Equal(t, OperatingStatusRunning, inv.Status)
	assert.Equal(t, "normal", inv.StatusLabel)
	require.NotNil(t, inv.DeviceTime)
	assert.Equal(t, time.Date(2024, 12, 14, 15, 30, 45, 0, time.UTC), *inv.DeviceTime)
}

func TestBuildInverterAlarmBits(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "InverterStatus", Items: []profile.SensorItem{
		numItem("InverterStatus", "Device Alarm", profile.RuleBits, []uint16{0x0229}, func(it *profile.SensorItem) {
			it.Lookup = []profile.LookupEntry{
				{Kind: profile.LookupBit, Bit: 1, Value: "Fan failure"},
				{Kind: profile.LookupBit, Bit: 2, Value: "Grid phase failure"},
			}
		}),
		numItem("InverterStatus", "Serial Number", profile.RuleASCII, []uint16{3}, nil),
	}})

	regs := map[uint16]uint16{0x0229: 0x0006, 3: 0x4142}
	status := NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupInverter})
	require.NotNil(t, status.Inverter)
	require.Len(t, status.Inverter.Alarms, 2)
	assert.Equal(t, DeviceAlarm{Bit: 1, Message: "Fan failure"}, status.Inverter.Alarms[0])
	assert.Equal(t, DeviceAlarm{Bit: 2, Message: "Grid phase failure"}, status.Inverter.Alarms[1])

	// all clear
	regs[0x0229] = 0x0000
	status = NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupInverter})
	require.NotNil(t, status.Inverter)
	assert.Empty(t, status.Inverter.Alarms)
}

func TestBuildInverterMultiWordFaultBits(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "InverterStatus", Items: []profile.SensorItem{
		numItem("InverterStatus", "Device Fault", profile.RuleBits, []uint16{555, 556, 557, 558}, func(it *profile.SensorItem) {
			it.Lookup = []profile.LookupEntry{
				{Kind: profile.LookupBit, Bit: 17, Value: "AC over-current fault of software"},
				{Kind: profile.LookupBit, Bit: 33, Value: "Parallel system fault"},
				{Kind: profile.LookupBit, Bit: 70, Value: "unreachable"},
			}
		}),
		numItem("InverterStatus", "Serial Number", profile.RuleASCII, []uint16{3}, nil),
	}})

	// first register is the least significant word
	regs := map[uint16]uint16{
		555: 0x0000,
		556: 0x0002, // bit 17
		557: 0x0002, // bit 33
		558: 0x0000,
		3:   0x4142,
	}
	status := NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupInverter})
	require.NotNil(t, status.Inverter)
	require.Len(t, status.Inverter.Faults, 2)
	assert.Equal(t, 17, status.Inverter.Faults[0].Bit)
	assert.Equal(t, 33, status.Inverter.Faults[1].Bit)
}

func TestBuildInverterRequiresIdentityOrNumeric(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Info", Items: []profile.SensorItem{
		numItem("Info", "Device State", profile.RuleUint16, []uint16{500}, func(it *profile.SensorItem) {
			it.Lookup = []profile.LookupEntry{{Kind: profile.LookupSingle, Key: 2, Value: "normal"}}
		}),
	}})
	status := NewStatusBuilder(def).Build(map[uint16]uint16{500: 2}, []SubsystemGroup{GroupInverter})
	assert.Nil(t, status.Inverter)
}

func TestBuildGeneratorAbsolutePower(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Generator", Items: []profile.SensorItem{
		numItem("Generator", "Generator Power", profile.RuleInt16, []uint16{40}, nil),
	}})
	status := NewStatusBuilder(def).Build(map[uint16]uint16{40: 0xFC18}, []SubsystemGroup{GroupGenerator}) // -1000
	require.NotNil(t, status.Generator)
	assert.Equal(t, 1000, status.Generator.Power)
	assert.True(t, status.Generator.IsRunning)

	status = NewStatusBuilder(def).Build(map[uint16]uint16{40: 0}, []SubsystemGroup{GroupGenerator})
	require.NotNil(t, status.Generator)
	assert.False(t, status.Generator.IsRunning)
}

func TestBuildUPSModeFromDeviceState(t *testing.T) {
	def := defWithGroups(
		profile.ParameterGroup{Group: "UPS", Items: []profile.SensorItem{
			numItem("UPS", "UPS Power", profile.RuleInt16, []uint16{50}, nil),
		}},
		profile.ParameterGroup{Group: "InverterStatus", Items: []profile.SensorItem{
			numItem("InverterStatus", "Device State", profile.RuleUint16, []uint16{500}, func(it *profile.SensorItem) {
				it.Lookup = []profile.LookupEntry{
					{Kind: profile.LookupSingle, Key: 3, Value: "emergency power supply"},
					{Kind: profile.LookupSingle, Key: 2, Value: "on-grid"},
				}
			}),
		}},
	)
	status := NewStatusBuilder(def).Build(map[uint16]uint16{50: 700, 500: 3}, []SubsystemGroup{GroupUPS, GroupInverter})
	require.NotNil(t, status.UPS)
	require.NotNil(t, status.UPS.Mode)
	assert.Equal(t, UPSModeBattery, *status.UPS.Mode)

	status = NewStatusBuilder(def).Build(map[uint16]uint16{50: 700, 500: 2}, []SubsystemGroup{GroupUPS, GroupInverter})
	require.NotNil(t, status.UPS)
	require.NotNil(t, status.UPS.Mode)
	assert.Equal(t, UPSModeStandby, *status.UPS.Mode)
}

func TestBuildBMSUnitsAndFallback(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "BMS", Items: []profile.SensorItem{
		numItem("BMS", "Battery 1 SOC", profile.RuleUint16, []uint16{60}, nil),
		numItem("BMS", "Battery 1 Voltage", profile.RuleUint16, []uint16{61}, func(it *profile.SensorItem) { it.Scale = 0.01 }),
		numItem("BMS", "Battery 1 Min Cell Voltage", profile.RuleUint16, []uint16{62}, func(it *profile.SensorItem) { it.Scale = 0.001 }),
		numItem("BMS", "Battery 1 Max Cell Voltage", profile.RuleUint16, []uint16{63}, func(it *profile.SensorItem) { it.Scale = 0.001 }),
	}})
	regs := map[uint16]uint16{60: 88, 61: 5250, 62: 3270, 63: 3321}
	status := NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupBMS})

	require.Len(t, status.BMS, 1)
	unit := status.BMS[0]
	assert.Equal(t, "battery_1", unit.Unit)
	assert.Equal(t, 88, unit.SOC)
	assert.Equal(t, float64(0), unit.Current)
	require.NotNil(t, unit.Cells)
	assert.Equal(t, 51, unit.Cells.VoltageDeltaMV)
	assert.Equal(t, 16, unit.Cells.CellCount)
}

func TestBuildBMSFallbackUnit(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "BMS", Items: []profile.SensorItem{
		numItem("BMS", "Battery BMS SOC", profile.RuleUint16, []uint16{60}, nil),
		numItem("BMS", "Battery BMS Voltage", profile.RuleUint16, []uint16{61}, func(it *profile.SensorItem) { it.Scale = 0.01 }),
	}})
	status := NewStatusBuilder(def).Build(map[uint16]uint16{60: 42, 61: 5100}, []SubsystemGroup{GroupBMS})
	require.Len(t, status.BMS, 1)
	assert.Equal(t, "battery_bms", status.BMS[0].Unit)
}

func TestBuildTimeOfUse(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Time of Use", Items: []profile.SensorItem{
		numItem("Time of Use", "Program 1 Time", profile.RuleTime, []uint16{250}, nil),
		numItem("Time of Use", "Program 1 SOC", profile.RuleUint16, []uint16{268}, nil),
		numItem("Time of Use", "Program 1 Grid Charge", profile.RuleUint16, []uint16{274}, nil),
		numItem("Time of Use", "Program 1 Days", profile.RuleUint16, []uint16{280}, nil),
		numItem("Time of Use", "Program 2 Time", profile.RuleTime, []uint16{251}, nil),
	}})
	regs := map[uint16]uint16{
		250: 630, // 06:30
		268: 80,
		274: 1,
		280: 0b1000011, // mon, tue, sun
		251: 2200,      // 22:00
	}
	status := NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupTimeOfUse})

	tou := status.TimeOfUse
	require.NotNil(t, tou)
	require.Len(t, tou.Slots, 2)

	slot1 := tou.Slots[0]
	assert.Equal(t, 1, slot1.Slot)
	assert.Equal(t, 390, slot1.StartMinutes)
	assert.True(t, slot1.IsEnabled)
	require.NotNil(t, slot1.Mode)
	assert.Equal(t, TOUModeGridCharge, *slot1.Mode)
	require.NotNil(t, slot1.TargetSOC)
	assert.Equal(t, 80, *slot1.TargetSOC)
	assert.Equal(t, []string{"monday", "tuesday", "sunday"}, slot1.Weekdays)

	slot2 := tou.Slots[1]
	assert.Equal(t, 2, slot2.Slot)
	assert.Equal(t, 1320, slot2.StartMinutes)
	// no charge flag: enabled by default, no mode
	assert.True(t, slot2.IsEnabled)
	assert.Nil(t, slot2.Mode)
}

func TestBuildTimeOfUseDisabledSlot(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Time of Use", Items: []profile.SensorItem{
		numItem("Time of Use", "Program 1 Time", profile.RuleTime, []uint16{250}, nil),
		numItem("Time of Use", "Program 1 Grid Charge", profile.RuleUint16, []uint16{274}, nil),
	}})
	status := NewStatusBuilder(def).Build(map[uint16]uint16{250: 100, 274: 0}, []SubsystemGroup{GroupTimeOfUse})
	require.NotNil(t, status.TimeOfUse)
	slot := status.TimeOfUse.Slots[0]
	assert.False(t, slot.IsEnabled)
	require.NotNil(t, slot.Mode)
	assert.Equal(t, TOUModeSelfConsumption, *slot.Mode)
}

func TestExtractValuesFirstOccurrenceWins(t *testing.T) {
	def := defWithGroups(
		profile.ParameterGroup{Group: "Battery", Items: []profile.SensorItem{
			numItem("Battery", "Battery SOC", profile.RuleUint16, []uint16{1}, nil),
		}},
		profile.ParameterGroup{Group: "Meter", Items: []profile.SensorItem{
			numItem("Meter", "Battery SOC", profile.RuleUint16, []uint16{2}, nil),
		}},
	)
	c := collectItems(def, []SubsystemGroup{GroupBattery})
	values := extractValues(map[uint16]uint16{1: 10, 2: 99}, c)
	assert.Equal(t, float64(10), values["battery_soc"])
}

func TestExtractValuesSkipsMissingRegisters(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Battery", Items: []profile.SensorItem{
		numItem("Battery", "Total Battery Charge", profile.RuleUint32, []uint16{72, 73}, nil),
	}})
	c := collectItems(def, []SubsystemGroup{GroupBattery})
	// second register missing: the item is skipped, not decoded short
	values := extractValues(map[uint16]uint16{72: 500}, c)
	assert.Empty(t, values)
}

func TestExtractValuesSkipsFailedConversions(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Battery", Items: []profile.SensorItem{
		numItem("Battery", "Battery SOC", profile.RuleUint16, []uint16{1}, func(it *profile.SensorItem) {
			it.ValidationMin = f64(0)
			it.ValidationMax = f64(100)
		}),
	}})
	c := collectItems(def, []SubsystemGroup{GroupBattery})
	values := extractValues(map[uint16]uint16{1: 200}, c)
	assert.Empty(t, values)
}

func TestExtractValuesComposite(t *testing.T) {
	def := defWithGroups(profile.ParameterGroup{Group: "Load", Items: []profile.SensorItem{
		numItem("Load", "Load Power", profile.RuleUint16, nil, func(it *profile.SensorItem) {
			it.Sensors = []profile.SubSensor{
				{Registers: []uint16{30}, Scale: 1, Operator: profile.OperatorAdd},
				{Registers: []uint16{31}, Scale: 1, Signed: true, Operator: profile.OperatorSubtract},
			}
		}),
	}})
	c := collectItems(def, []SubsystemGroup{GroupLoad})
	values := extractValues(map[uint16]uint16{30: 1000, 31: 0xFF9C}, c) // 1000 - (-100)
	assert.Equal(t, float64(1100), values["load_power"])
}

func TestBuildHonorsRequestedGroups(t *testing.T) {
	def, err := profile.LoadBundled("deye_p3")
	require.NoError(t, err)

	regs := map[uint16]uint16{
		0x00B8: 95, 0x00B7: 5328, 0x00BE: 9,
		653: 400, // load power
	}
	status := NewStatusBuilder(def).Build(regs, []SubsystemGroup{GroupLoad})
	assert.Nil(t, status.Battery)
	require.NotNil(t, status.Load)
	assert.Equal(t, 400, status.Load.Power)
}
