package profile_modbus

import (
	"math"
	"strings"
)

// touWeekdays is the weekly-schedule bitmask order, LSB first.
var touWeekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func buildGenerator(values map[string]float64) *GeneratorStatus {
	power, ok := KeyGeneratorPower.Lookup(values)
	if !ok {
		return nil
	}
	abs := roundInt(math.Abs(power))
	return &GeneratorStatus{
		Power:           abs,
		IsRunning:       abs > 0,
		DailyProduction: optValue(KeyDailyGeneratorProduction, values),
		TotalProduction: optValue(KeyTotalGeneratorProduction, values),
	}
}

func buildUPS(c *collectedItems, regs map[uint16]uint16, values map[string]float64) *UPSStatus {
	power, ok := KeyUPSPower.Lookup(values)
	if !ok {
		return nil
	}
	ups := &UPSStatus{
		Power:     roundInt(power),
		Voltage:   optValue(KeyUPSVoltage, values),
		Frequency: optValue(KeyUPSFrequency, values),
	}
	for phase := 1; phase <= 3; phase++ {
		v := optValue(keyPhaseVoltage("ups", phase), values)
		cur := optValue(keyPhaseCurrent("ups", phase), values)
		p := optIntValue(keyPhasePower("ups", phase), values)
		if v == nil && cur == nil && p == nil {
			continue
		}
		ups.Phases = append(ups.Phases, PhaseStatus{Phase: phase, Voltage: v, Current: cur, Power: p})
	}
	if label, ok := deviceStateLabel(c, regs); ok {
		if mode, ok := upsModeLabels[strings.ToLower(label)]; ok {
			ups.Mode = &mode
		}
	}
	return ups
}

func buildBMS(values map[string]float64) []BMSUnitStatus {
	var units []BMSUnitStatus
	for _, prefix := range []string{"battery_1", "battery_2"} {
		if unit := buildBMSUnit(prefix, values); unit != nil {
			units = append(units, *unit)
		}
	}
	if len(units) == 0 {
		if unit := buildBMSUnit("battery_bms", values); unit != nil {
			units = append(units, *unit)
		}
	}
	return units
}

func buildBMSUnit(prefix string, values map[string]float64) *BMSUnitStatus {
	soc, okSOC := keyBMSUnit(prefix, "soc").Lookup(values)
	voltage, okV := keyBMSUnit(prefix, "voltage").Lookup(values)
	if !okSOC || !okV {
		return nil
	}
	current, ok := keyBMSUnit(prefix, "current").Lookup(values)
	if !ok {
		current = 0
	}
	unit := &BMSUnitStatus{
		Unit:        prefix,
		SOC:         roundInt(soc),
		Voltage:     voltage,
		Current:     current,
		Power:       optIntValue(keyBMSUnit(prefix, "power"), values),
		Temperature: optValue(keyBMSUnit(prefix, "temperature"), values),
		SOH:         optValue(keyBMSUnit(prefix, "soh"), values),
	}

	minCell, okMin := keyBMSUnit(prefix, "min_cell_voltage").Lookup(values)
	maxCell, okMax := keyBMSUnit(prefix, "max_cell_voltage").Lookup(values)
	if okMin && okMax {
		cellCount := 16
		if v, ok := keyBMSUnit(prefix, "cell_count").Lookup(values); ok {
			cellCount = roundInt(v)
		}
		unit.Cells = &BMSCellInfo{
			MinCellVoltage: minCell,
			MaxCellVoltage: maxCell,
			VoltageDeltaMV: roundInt(math.Max((maxCell-minCell)*1000, 0)),
			CellCount:      cellCount,
		}
	}
	return unit
}

func buildTimeOfUse(values map[string]float64) *TimeOfUseStatus {
	var slots []TOUSlot
	for i := 1; i <= 6; i++ {
		start, ok := keyProgram(i, "time").Lookup(values)
		if !ok {
			continue
		}
		slot := TOUSlot{
			Slot:          i,
			StartMinutes:  roundInt(start),
			IsEnabled:     true,
			TargetSOC:     optIntValue(keyProgram(i, "soc"), values),
			ChargePower:   optIntValue(keyProgram(i, "power"), values),
			ChargeVoltage: optValue(keyProgram(i, "voltage"), values),
		}
		if flag, ok := keyProgram(i, "grid_charge").Lookup(values); ok {
			slot.IsEnabled = flag > 0
			mode := TOUModeSelfConsumption
			if flag > 0 {
				mode = TOUModeGridCharge
			}
			slot.Mode = &mode
		}
		if mask, ok := keyProgram(i, "days").Lookup(values); ok {
			bits := uint64(int64(mask))
			for bit, day := range touWeekdays {
				if bits>>uint(bit)&1 == 1 {
					slot.Weekdays = append(slot.Weekdays, day)
				}
			}
		}
		slots = append(slots, slot)
	}
	if len(slots) == 0 {
		return nil
	}
	return &TimeOfUseStatus{Slots: slots}
}
