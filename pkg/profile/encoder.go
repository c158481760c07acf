package profile

import (
	"gopkg.in/yaml.v3"
)

type encRange struct {
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	Default *float64 `yaml:"default,omitempty"`
}

type encLookup struct {
	Key   any    `yaml:"key,omitempty"`
	Bit   *int   `yaml:"bit,omitempty"`
	Value string `yaml:"value"`
}

type encSubSensor struct {
	Registers []uint16 `yaml:"registers"`
	Scale     *float64 `yaml:"scale,omitempty"`
	Offset    *float64 `yaml:"offset,omitempty"`
	Signed    bool     `yaml:"signed,omitempty"`
	Operator  string   `yaml:"operator,omitempty"`
}

type encDelimiter struct {
	Digit    string `yaml:"digit"`
	Register string `yaml:"register"`
}

type encItem struct {
	Name       string   `yaml:"name"`
	Rule       int      `yaml:"rule"`
	Registers  []uint16 `yaml:"registers,omitempty"`
	Platform   string   `yaml:"platform,omitempty"`
	Class      string   `yaml:"class,omitempty"`
	StateClass string   `yaml:"state_class,omitempty"`
	UOM        string   `yaml:"uom,omitempty"`
	Icon       string   `yaml:"icon,omitempty"`

	Scale     *float64 `yaml:"scale,omitempty"`
	Offset    *float64 `yaml:"offset,omitempty"`
	Signed    bool     `yaml:"signed,omitempty"`
	Inverse   bool     `yaml:"inverse,omitempty"`
	Magnitude bool     `yaml:"magnitude,omitempty"`

	Mask   *uint32 `yaml:"mask,omitempty"`
	Divide *uint32 `yaml:"divide,omitempty"`
	Bit    *uint8  `yaml:"bit,omitempty"`

	Range      *encRange `yaml:"range,omitempty"`
	Validation *encRange `yaml:"validation,omitempty"`

	Lookup  []encLookup    `yaml:"lookup,omitempty"`
	Options []string       `yaml:"options,omitempty"`
	Sensors []encSubSensor `yaml:"sensors,omitempty"`

	Attributes     []string      `yaml:"attributes,omitempty"`
	Attribute      bool          `yaml:"attribute,omitempty"`
	Description    string        `yaml:"description,omitempty"`
	UpdateInterval int           `yaml:"update_interval,omitempty"`
	Delimiter      *encDelimiter `yaml:"delimiter,omitempty"`
	Hex            *bool         `yaml:"hex,omitempty"`
}

type encGroup struct {
	Group          string    `yaml:"group"`
	UpdateInterval int       `yaml:"update_interval,omitempty"`
	Items          []encItem `yaml:"items"`
}

type encDocument struct {
	Info struct {
		Manufacturer string `yaml:"manufacturer"`
		Model        any    `yaml:"model"`
	} `yaml:"info"`
	Default struct {
		UpdateInterval int `yaml:"update_interval"`
		Digits         int `yaml:"digits"`
	} `yaml:"default"`
	Requests   []rawRequest `yaml:"requests,omitempty"`
	Parameters []encGroup   `yaml:"parameters"`
}

// Encode serializes a definition back to the on-disk YAML format. A single
// model pattern is emitted as a scalar, multiple patterns as a list.
func Encode(def *InverterDefinition) ([]byte, error) {
	var doc encDocument
	doc.Info.Manufacturer = def.Info.Manufacturer
	if len(def.Info.Models) == 1 {
		doc.Info.Model = def.Info.Models[0]
	} else {
		doc.Info.Model = def.Info.Models
	}
	doc.Default.UpdateInterval = def.Defaults.UpdateInterval
	doc.Default.Digits = def.Defaults.Digits

	for _, r := range def.Requests {
		doc.Requests = append(doc.Requests, rawRequest{
			Start:    r.Start,
			Count:    r.Count,
			Function: r.Function,
			Name:     r.Name,
		})
	}

	for _, g := range def.Groups {
		group := encGroup{Group: g.Group, UpdateInterval: g.UpdateInterval}
		for i := range g.Items {
			group.Items = append(group.Items, encodeItem(&g.Items[i]))
		}
		doc.Parameters = append(doc.Parameters, group)
	}

	return yaml.Marshal(&doc)
}

func encodeItem(item *SensorItem) encItem {
	e := encItem{
		Name:       item.Name,
		Rule:       int(item.Rule),
		Registers:  item.Registers,
		Class:      item.Class,
		StateClass: item.StateClass,
		UOM:        item.UOM,
		Icon:       item.Icon,

		Signed:    item.Signed,
		Inverse:   item.Inverse,
		Magnitude: item.Magnitude,

		Mask:   item.Mask,
		Divide: item.Divide,
		Bit:    item.Bit,

		Options: item.Options,

		Attributes:     item.Attributes,
		Attribute:      item.Attribute,
		Description:    item.Description,
		UpdateInterval: item.UpdateInterval,
	}
	if item.Platform != PlatformSensor {
		e.Platform = string(item.Platform)
	}
	if item.Scale != 1.0 {
		v := item.Scale
		e.Scale = &v
	}
	if item.Offset != 0.0 {
		v := item.Offset
		e.Offset = &v
	}
	if item.RangeMin != nil || item.RangeMax != nil || item.RangeDefault != nil {
		e.Range = &encRange{Min: item.RangeMin, Max: item.RangeMax, Default: item.RangeDefault}
	}
	if item.ValidationMin != nil || item.ValidationMax != nil {
		e.Validation = &encRange{Min: item.ValidationMin, Max: item.ValidationMax}
	}
	for _, l := range item.Lookup {
		enc := encLookup{Value: l.Value}
		switch l.Kind {
		case LookupSingle:
			// pointer so a zero key survives omitempty
			key := l.Key
			enc.Key = &key
		case LookupMultiple:
			enc.Key = l.Keys
		case LookupBit:
			b := int(l.Bit)
			enc.Bit = &b
		case LookupDefault:
			enc.Key = "default"
		}
		e.Lookup = append(e.Lookup, enc)
	}
	for _, s := range item.Sensors {
		enc := encSubSensor{Registers: s.Registers, Signed: s.Signed}
		if s.Scale != 1.0 {
			v := s.Scale
			enc.Scale = &v
		}
		if s.Offset != 0.0 {
			v := s.Offset
			enc.Offset = &v
		}
		if s.Operator != OperatorAdd {
			enc.Operator = string(s.Operator)
		}
		e.Sensors = append(e.Sensors, enc)
	}
	if item.DigitDelimiter != "." || item.RegisterDelimiter != "-" {
		e.Delimiter = &encDelimiter{Digit: item.DigitDelimiter, Register: item.RegisterDelimiter}
	}
	if !item.HexDigits {
		v := false
		e.Hex = &v
	}
	return e
}
