package profile_modbus

import (
	"github.com/berfenger/sunflow2mqtt/pkg/profile"
)

// SubsystemGroup selects which part of the status model a read should
// populate.
type SubsystemGroup string

const (
	GroupBattery   SubsystemGroup = "battery"
	GroupGrid      SubsystemGroup = "grid"
	GroupPV        SubsystemGroup = "pv"
	GroupLoad      SubsystemGroup = "load"
	GroupInverter  SubsystemGroup = "inverter"
	GroupGenerator SubsystemGroup = "generator"
	GroupUPS       SubsystemGroup = "ups"
	GroupBMS       SubsystemGroup = "bms"
	GroupTimeOfUse SubsystemGroup = "time_of_use"
	GroupSettings  SubsystemGroup = "settings"
	GroupAlerts    SubsystemGroup = "alerts"
	GroupComputed  SubsystemGroup = "computed"
)

// DefaultGroups is the basic read set used when the caller requests nothing
// specific.
var DefaultGroups = []SubsystemGroup{GroupBattery, GroupGrid, GroupPV, GroupLoad}

// profileGroupNames maps each subsystem to the upstream parameter-group
// names that feed it. Vendors are wildly inconsistent here; the table lists
// every known name per subsystem, and the bundled profiles use only some.
var profileGroupNames = map[SubsystemGroup][]string{
	GroupBattery:   {"Battery", "Battery Energy", "Battery Meter", "Meter", "meter"},
	GroupGrid:      {"Grid", "grid", "AC", "Power Grid", "GridEPS", "Active Power", "Apparent Power", "Reactive Power", "Power Factor", "Voltage", "Current", "Frequency", "Meter", "meter"},
	GroupPV:        {"PV", "Solar", "DC", "InverterDC", "Production", "Meter", "meter"},
	GroupLoad:      {"Load", "load", "Consumption", "Electricity Consumption", "Output", "output", "Meter", "meter"},
	GroupInverter:  {"Info", "info", "Inverter", "Device", "Inverter Information", "InverterAC", "InverterStatus", "Control", "Status", "State"},
	GroupGenerator: {"Generator", "Gen", "Generator/SmartLoad/Microinverter", "Meter", "meter"},
	GroupUPS:       {"UPS", "Backup", "Output", "output", "EPS", "GridEPS"},
	GroupBMS:       {"BMS", "Battery Management", "Battery Module", "Battery 1", "Battery 2", "Battery 3", "Battery 4", "Battery 5", "Battery 6", "Battery 7", "Battery 8"},
	GroupTimeOfUse: {"Time of Use", "Schedule", "TOU", "Timed", "Work Mode"},
	GroupSettings:  {"Settings", "Parameters", "Configuration", "Work Mode", "Grid Parameters", "Passive mode settings"},
	GroupAlerts:    {"Alerts", "Alarm", "Fault", "faults", "State"},
	GroupComputed:  {"Computed", "Calculated", "Losses", "Other", "Energy"},
}

// ProfileGroupNames exposes the subsystem mapping table.
func ProfileGroupNames(group SubsystemGroup) []string {
	return profileGroupNames[group]
}

// collectedItems is the ordered union of sensor items for a set of
// subsystems. On normalized-id collisions the first occurrence wins.
type collectedItems struct {
	ordered []*profile.SensorItem
	byID    map[string]*profile.SensorItem
}

func collectItems(def *profile.InverterDefinition, groups []SubsystemGroup) *collectedItems {
	wanted := make(map[string]struct{})
	for _, g := range groups {
		for _, name := range profileGroupNames[g] {
			wanted[name] = struct{}{}
		}
	}

	c := &collectedItems{byID: make(map[string]*profile.SensorItem)}
	for gi := range def.Groups {
		group := &def.Groups[gi]
		if _, ok := wanted[group.Group]; !ok {
			continue
		}
		for ii := range group.Items {
			item := &group.Items[ii]
			c.ordered = append(c.ordered, item)
			if item.ID == "" {
				continue
			}
			if _, ok := c.byID[item.ID]; !ok {
				c.byID[item.ID] = item
			}
		}
	}
	return c
}

// itemForKey resolves a sensor key against the collected items.
func (c *collectedItems) itemForKey(key SensorKey) *profile.SensorItem {
	if item, ok := c.byID[key.Primary]; ok {
		return item
	}
	for _, alt := range key.Alternatives {
		if item, ok := c.byID[alt]; ok {
			return item
		}
	}
	return nil
}

// registers returns every register address referenced by the collected
// items, composite sub-sensors included.
func (c *collectedItems) registers() []uint16 {
	var regs []uint16
	for _, item := range c.ordered {
		regs = append(regs, item.Registers...)
		for _, sub := range item.Sensors {
			regs = append(regs, sub.Registers...)
		}
	}
	return regs
}
