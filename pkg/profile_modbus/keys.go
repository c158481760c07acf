package profile_modbus

import (
	"fmt"
)

// SensorKey binds a status-model slot to one primary sensor identifier plus
// ordered fallbacks. Vendors name the same measurement differently; the key
// is the decoupling layer between profile naming and the uniform output.
type SensorKey struct {
	Primary      string
	Alternatives []string
}

func Key(primary string, alternatives ...string) SensorKey {
	return SensorKey{Primary: primary, Alternatives: alternatives}
}

// Lookup resolves the primary identifier first, then each alternative in
// order. The first present value wins.
func (k SensorKey) Lookup(values map[string]float64) (float64, bool) {
	if v, ok := values[k.Primary]; ok {
		return v, true
	}
	for _, alt := range k.Alternatives {
		if v, ok := values[alt]; ok {
			return v, true
		}
	}
	return 0, false
}

// battery
var (
	KeyBatterySOC            = Key("battery_soc", "battery")
	KeyBatteryVoltage        = Key("battery_voltage")
	KeyBatteryPower          = Key("battery_power")
	KeyBatteryCurrent        = Key("battery_current")
	KeyBatteryTemperature    = Key("battery_temperature")
	KeyBatterySOH            = Key("battery_soh")
	KeyDailyBatteryCharge    = Key("daily_battery_charge", "day_battery_charge")
	KeyDailyBatteryDischarge = Key("daily_battery_discharge", "day_battery_discharge")
	KeyTotalBatteryCharge    = Key("total_battery_charge")
	KeyTotalBatteryDischarge = Key("total_battery_discharge")
)

// grid
var (
	KeyGridPower       = Key("grid_power", "total_grid_power", "grid_active_power")
	KeyGridVoltage     = Key("grid_voltage")
	KeyGridCurrent     = Key("grid_current")
	KeyGridFrequency   = Key("grid_frequency", "frequency")
	KeyGridPowerFactor = Key("grid_power_factor", "power_factor")
	KeyDailyImport     = Key("daily_energy_bought", "daily_energy_import", "daily_grid_import")
	KeyDailyExport     = Key("daily_energy_sold", "daily_energy_export", "daily_grid_export")
	KeyTotalImport     = Key("total_energy_bought", "total_energy_import", "total_grid_import")
	KeyTotalExport     = Key("total_energy_sold", "total_energy_export", "total_grid_export")
	KeyGridCTPower     = Key("grid_ct_power", "external_ct_power")
)

// pv
var (
	KeyTotalPVPower    = Key("total_pv_power", "pv_power")
	KeyDailyProduction = Key("daily_production", "daily_pv_production")
	KeyTotalProduction = Key("total_production", "total_pv_production")
)

// load
var (
	KeyLoadPower            = Key("load_power", "total_load_power", "essential_power")
	KeyLoadFrequency        = Key("load_frequency")
	KeyDailyLoadConsumption = Key("daily_load_consumption", "daily_consumption")
	KeyTotalLoadConsumption = Key("total_load_consumption", "total_consumption")
)

// inverter
var (
	KeySerialNumber      = Key("serial_number", "serial")
	KeyDeviceModel       = Key("device", "device_type")
	KeyFirmwareVersion   = Key("firmware_version", "software_version", "main_firmware_version")
	KeyDeviceState       = Key("device_state", "run_state", "overall_state")
	KeyDeviceAlarm       = Key("device_alarm", "warning")
	KeyDeviceFault       = Key("device_fault", "fault")
	KeyDeviceTime        = Key("device_time", "system_time")
	KeyInverterPower     = Key("inverter_power", "active_power", "output_power")
	KeyInverterVoltage   = Key("inverter_voltage", "inverter_l1_voltage")
	KeyInverterCurrent   = Key("inverter_current", "inverter_l1_current")
	KeyInverterFrequency = Key("inverter_frequency")
	KeyRadiatorTemp      = Key("radiator_temperature", "dc_temperature", "temperature")
	KeyACTemp            = Key("ac_temperature")
)

// generator
var (
	KeyGeneratorPower           = Key("generator_power", "gen_power")
	KeyDailyGeneratorProduction = Key("daily_generator_production", "daily_gen_energy")
	KeyTotalGeneratorProduction = Key("total_generator_production", "total_gen_energy")
)

// ups
var (
	KeyUPSPower     = Key("ups_power", "backup_power", "eps_power")
	KeyUPSVoltage   = Key("ups_voltage", "eps_voltage")
	KeyUPSFrequency = Key("ups_frequency", "eps_frequency")
)

// phase-indexed keys

func keyPhaseVoltage(prefix string, phase int) SensorKey {
	return Key(fmt.Sprintf("%s_l%d_voltage", prefix, phase))
}

func keyPhaseCurrent(prefix string, phase int) SensorKey {
	return Key(fmt.Sprintf("%s_l%d_current", prefix, phase))
}

func keyPhasePower(prefix string, phase int) SensorKey {
	return Key(fmt.Sprintf("%s_l%d_power", prefix, phase))
}

func keyPVString(index int, field string) SensorKey {
	return Key(fmt.Sprintf("pv%d_%s", index, field))
}

func keyCTPhasePower(phase int) SensorKey {
	return Key(fmt.Sprintf("grid_ct_l%d_power", phase), fmt.Sprintf("external_ct_l%d_power", phase))
}

func keyCTPhaseCurrent(phase int) SensorKey {
	return Key(fmt.Sprintf("grid_ct_l%d_current", phase), fmt.Sprintf("external_ct_l%d_current", phase))
}

func keyBMSUnit(prefix, field string) SensorKey {
	return Key(prefix + "_" + field)
}

func keyProgram(slot int, field string) SensorKey {
	return Key(fmt.Sprintf("program_%d_%s", slot, field), fmt.Sprintf("prog%d_%s", slot, field))
}
