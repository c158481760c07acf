package profile_modbus

import (
	"math"
	"time"

	"github.com/berfenger/sunflow2mqtt/pkg/profile"
)

// StatusBuilder assembles SolarStatus snapshots from a raw register map.
// The builder is stateless with respect to invocation and freely shareable.
type StatusBuilder struct {
	def *profile.InverterDefinition
}

func NewStatusBuilder(def *profile.InverterDefinition) *StatusBuilder {
	return &StatusBuilder{def: def}
}

// Build produces a snapshot for the requested subsystem groups. Subsystems
// whose required sensors are missing from the register map stay nil.
func (b *StatusBuilder) Build(regs map[uint16]uint16, groups []SubsystemGroup) *SolarStatus {
	if len(groups) == 0 {
		groups = DefaultGroups
	}
	c := collectItems(b.def, groups)
	values := extractValues(regs, c)

	status := &SolarStatus{Timestamp: time.Now().UTC()}
	for _, g := range groups {
		switch g {
		case GroupBattery:
			status.Battery = buildBattery(values)
		case GroupGrid:
			status.Grid = buildGrid(values)
		case GroupPV:
			status.PV = buildPV(values)
		case GroupLoad:
			status.Load = buildLoad(values)
		case GroupInverter:
			status.Inverter = buildInverter(c, regs, values)
		case GroupGenerator:
			status.Generator = buildGenerator(values)
		case GroupUPS:
			status.UPS = buildUPS(c, regs, values)
		case GroupBMS:
			status.BMS = buildBMS(values)
		case GroupTimeOfUse:
			status.TimeOfUse = buildTimeOfUse(values)
		}
	}
	return status
}

// extractValues converts every numeric item into the sensor-value map.
// Sensors are optional by design: an item whose registers are missing from
// the map, or whose conversion fails, is silently dropped.
func extractValues(regs map[uint16]uint16, c *collectedItems) map[string]float64 {
	values := make(map[string]float64)
	for _, item := range c.ordered {
		if item.ID == "" {
			continue
		}
		if _, exists := values[item.ID]; exists {
			continue
		}
		if len(item.Sensors) > 0 {
			if v, ok := computeComposite(regs, item); ok {
				values[item.ID] = v
			}
			continue
		}
		if !item.Rule.IsNumeric() {
			continue
		}
		slice, ok := registerSlice(regs, item.Registers)
		if !ok {
			continue
		}
		v, err := ConvertNumeric(slice, item)
		if err != nil {
			continue
		}
		values[item.ID] = v
	}
	return values
}

// registerSlice gathers the item's registers from the map. The transport may
// short-return, so every address is checked before decoding.
func registerSlice(regs map[uint16]uint16, addrs []uint16) ([]uint16, bool) {
	if len(addrs) == 0 {
		return nil, false
	}
	out := make([]uint16, len(addrs))
	for i, a := range addrs {
		v, ok := regs[a]
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// computeComposite folds the sub-sensor values with their declared
// operators.
func computeComposite(regs map[uint16]uint16, item *profile.SensorItem) (float64, bool) {
	total := 0.0
	for _, sub := range item.Sensors {
		slice, ok := registerSlice(regs, sub.Registers)
		if !ok {
			return 0, false
		}
		var raw float64
		switch len(slice) {
		case 1:
			if sub.Signed {
				raw = float64(int16(slice[0]))
			} else {
				raw = float64(slice[0])
			}
		default:
			u := uint32(slice[0]) | uint32(slice[1])<<16
			if sub.Signed {
				raw = float64(int32(u))
			} else {
				raw = float64(u)
			}
		}
		v := (raw - sub.Offset) * sub.Scale
		switch sub.Operator {
		case profile.OperatorSubtract:
			total -= v
		case profile.OperatorMultiply:
			total *= v
		case profile.OperatorDivide:
			if v == 0 {
				return 0, false
			}
			total /= v
		default:
			total += v
		}
	}
	if outOfBounds(total, item.ValidationMin, item.ValidationMax) {
		return 0, false
	}
	return total, true
}

func buildBattery(values map[string]float64) *BatteryStatus {
	soc, okSOC := KeyBatterySOC.Lookup(values)
	voltage, okV := KeyBatteryVoltage.Lookup(values)
	power, okP := KeyBatteryPower.Lookup(values)
	if !okSOC || !okV || !okP {
		return nil
	}

	current, ok := KeyBatteryCurrent.Lookup(values)
	if !ok {
		current = safeDivide(power, voltage)
	}

	return &BatteryStatus{
		SOC:            roundInt(soc),
		Voltage:        voltage,
		Current:        current,
		Power:          roundInt(power),
		Temperature:    optValue(KeyBatteryTemperature, values),
		SOH:            optValue(KeyBatterySOH, values),
		DailyCharge:    optValue(KeyDailyBatteryCharge, values),
		DailyDischarge: optValue(KeyDailyBatteryDischarge, values),
		TotalCharge:    optValue(KeyTotalBatteryCharge, values),
		TotalDischarge: optValue(KeyTotalBatteryDischarge, values),
	}
}

func buildGrid(values map[string]float64) *GridStatus {
	power, ok := KeyGridPower.Lookup(values)
	if !ok {
		return nil
	}

	grid := &GridStatus{
		Power:       roundInt(power),
		Frequency:   optValue(KeyGridFrequency, values),
		PowerFactor: optValue(KeyGridPowerFactor, values),
		DailyImport: optValue(KeyDailyImport, values),
		DailyExport: optValue(KeyDailyExport, values),
		TotalImport: optValue(KeyTotalImport, values),
		TotalExport: optValue(KeyTotalExport, values),
	}

	for phase := 1; phase <= 3; phase++ {
		v := optValue(keyPhaseVoltage("grid", phase), values)
		c := optValue(keyPhaseCurrent("grid", phase), values)
		p := optIntValue(keyPhasePower("grid", phase), values)
		if v == nil && c == nil && p == nil {
			continue
		}
		grid.Phases = append(grid.Phases, PhaseStatus{Phase: phase, Voltage: v, Current: c, Power: p})
	}
	if len(grid.Phases) == 0 {
		// single-phase fallback on the bare sensors
		v := optValue(KeyGridVoltage, values)
		c := optValue(KeyGridCurrent, values)
		if v != nil || c != nil {
			p := grid.Power
			grid.Phases = append(grid.Phases, PhaseStatus{Phase: 1, Voltage: v, Current: c, Power: &p})
		}
	}

	grid.ExternalCT = buildExternalCT(values)
	return grid
}

func buildExternalCT(values map[string]float64) *ExternalCTStatus {
	var phases []ExternalCTPhase
	sum := 0
	for phase := 1; phase <= 3; phase++ {
		p := optIntValue(keyCTPhasePower(phase), values)
		c := optValue(keyCTPhaseCurrent(phase), values)
		if p == nil && c == nil {
			continue
		}
		phases = append(phases, ExternalCTPhase{Phase: phase, Power: p, Current: c})
		if p != nil {
			sum += *p
		}
	}
	total, hasTotal := KeyGridCTPower.Lookup(values)
	if !hasTotal && len(phases) == 0 {
		return nil
	}
	ct := &ExternalCTStatus{Phases: phases}
	if hasTotal {
		ct.Power = roundInt(total)
	} else {
		ct.Power = sum
	}
	return ct
}

func buildPV(values map[string]float64) *PVStatus {
	var strings []PVStringStatus
	sum := 0
	for i := 1; i <= 4; i++ {
		power, ok := keyPVString(i, "power").Lookup(values)
		if !ok {
			continue
		}
		voltage := 0.0
		if v, ok := keyPVString(i, "voltage").Lookup(values); ok {
			voltage = v
		}
		current, ok := keyPVString(i, "current").Lookup(values)
		if !ok {
			current = safeDivide(power, voltage)
		}
		p := roundInt(power)
		strings = append(strings, PVStringStatus{String: i, Voltage: voltage, Current: current, Power: p})
		sum += p
	}

	total, hasTotal := KeyTotalPVPower.Lookup(values)
	if len(strings) == 0 && !hasTotal {
		return nil
	}
	pv := &PVStatus{
		Strings:         strings,
		DailyProduction: optValue(KeyDailyProduction, values),
		TotalProduction: optValue(KeyTotalProduction, values),
	}
	if hasTotal {
		pv.Power = roundInt(total)
	} else {
		pv.Power = sum
	}
	return pv
}

func buildLoad(values map[string]float64) *LoadStatus {
	power, ok := KeyLoadPower.Lookup(values)
	if !ok {
		return nil
	}
	load := &LoadStatus{
		Power:            roundInt(power),
		Frequency:        optValue(KeyLoadFrequency, values),
		DailyConsumption: optValue(KeyDailyLoadConsumption, values),
		TotalConsumption: optValue(KeyTotalLoadConsumption, values),
	}
	hasPhases := false
	for phase := 1; phase <= 3; phase++ {
		if _, ok := keyPhasePower("load", phase).Lookup(values); ok {
			hasPhases = true
			break
		}
	}
	if hasPhases {
		for phase := 1; phase <= 3; phase++ {
			v := optValue(keyPhaseVoltage("load", phase), values)
			c := optValue(keyPhaseCurrent("load", phase), values)
			p := optIntValue(keyPhasePower("load", phase), values)
			if v == nil && c == nil && p == nil {
				continue
			}
			load.Phases = append(load.Phases, PhaseStatus{Phase: phase, Voltage: v, Current: c, Power: p})
		}
	}
	return load
}

func safeDivide(power, voltage float64) float64 {
	if voltage <= 0 {
		return 0
	}
	return power / voltage
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func optValue(key SensorKey, values map[string]float64) *float64 {
	if v, ok := key.Lookup(values); ok {
		return &v
	}
	return nil
}

func optIntValue(key SensorKey, values map[string]float64) *int {
	if v, ok := key.Lookup(values); ok {
		i := roundInt(v)
		return &i
	}
	return nil
}
