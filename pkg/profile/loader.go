package profile

import (
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MaxDocumentSize caps profile documents at 256 KiB. Larger documents are
// rejected before the YAML parser sees them.
const MaxDocumentSize = 262144

var yamlLineRegexp = regexp.MustCompile(`line (\d+):`)

// Decode parses and validates a profile document. The id is only used for
// error reporting and as the definition identity.
func Decode(id string, data []byte) (*InverterDefinition, error) {
	if len(data) > MaxDocumentSize {
		return nil, &ParseError{ID: id, Reason: fmt.Sprintf("document too large: %d bytes (max %d)", len(data), MaxDocumentSize)}
	}

	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, parseErrorFromYAML(id, err)
	}

	if doc.Info.Manufacturer == "" {
		return nil, &ParseError{ID: id, Reason: "missing info.manufacturer"}
	}
	if len(doc.Info.Model) == 0 {
		return nil, &ParseError{ID: id, Reason: "missing info.model"}
	}

	def := &InverterDefinition{
		ID: id,
		Info: DeviceInfo{
			Manufacturer: doc.Info.Manufacturer,
			Models:       doc.Info.Model,
		},
		Defaults: Defaults{
			UpdateInterval: 5,
			Digits:         6,
		},
	}
	if doc.Default != nil {
		if doc.Default.UpdateInterval != nil {
			def.Defaults.UpdateInterval = *doc.Default.UpdateInterval
		}
		if doc.Default.Digits != nil {
			def.Defaults.Digits = *doc.Default.Digits
		}
	}

	for _, r := range doc.Requests {
		def.Requests = append(def.Requests, RequestBlock{
			Start:    r.Start,
			Count:    r.Count,
			Function: r.Function,
			Name:     r.Name,
		})
	}

	for _, g := range doc.Parameters {
		group := ParameterGroup{
			Group:          g.Group,
			UpdateInterval: g.UpdateInterval,
		}
		for _, raw := range g.Items {
			item, err := buildItem(id, g.Group, raw)
			if err != nil {
				return nil, err
			}
			group.Items = append(group.Items, *item)
		}
		def.Groups = append(def.Groups, group)
	}

	return def, nil
}

func buildItem(profileID, group string, raw rawSensorItem) (*SensorItem, error) {
	if raw.Rule < 0 || raw.Rule > 10 {
		return nil, &ParseError{ID: profileID, Reason: fmt.Sprintf("group %q item %q: invalid rule %d", group, raw.Name, raw.Rule)}
	}
	if raw.Bit != nil && (*raw.Bit < 0 || *raw.Bit > 31) {
		return nil, &ParseError{ID: profileID, Reason: fmt.Sprintf("group %q item %q: bit position %d out of range 0..31", group, raw.Name, *raw.Bit)}
	}

	registers, err := registerAddresses(profileID, group, raw.Name, raw.Registers)
	if err != nil {
		return nil, err
	}

	item := &SensorItem{
		Name:       raw.Name,
		ID:         NormalizeName(raw.Name),
		Registers:  registers,
		Rule:       ParseRule(raw.Rule),
		Platform:   PlatformSensor,
		Class:      raw.Class,
		StateClass: raw.StateClass,
		UOM:        raw.UOM,
		Icon:       raw.Icon,

		Scale:     1.0,
		Signed:    raw.Signed,
		Inverse:   raw.Inverse,
		Magnitude: raw.Magnitude,

		Mask:   raw.Mask.ptr(),
		Divide: raw.Divide.ptr(),

		Options: raw.Options,

		DigitDelimiter:    ".",
		RegisterDelimiter: "-",
		HexDigits:         true,

		Attribute:      bool(raw.Attribute),
		Attributes:     raw.Attributes,
		Description:    raw.Description,
		UpdateInterval: raw.UpdateInterval,
	}
	if raw.Platform != "" {
		item.Platform = Platform(raw.Platform)
	}
	if v := raw.Scale.ptr(); v != nil {
		item.Scale = *v
	}
	if v := raw.Offset.ptr(); v != nil {
		item.Offset = *v
	}
	if raw.Bit != nil {
		b := uint8(*raw.Bit)
		item.Bit = &b
	}
	if raw.Range != nil {
		item.RangeMin = raw.Range.Min.ptr()
		item.RangeMax = raw.Range.Max.ptr()
		item.RangeDefault = raw.Range.Default.ptr()
	}
	if raw.Validation != nil {
		item.ValidationMin = raw.Validation.Min.ptr()
		item.ValidationMax = raw.Validation.Max.ptr()
	}
	if raw.Delimiter != nil {
		item.DigitDelimiter = raw.Delimiter.digit
		item.RegisterDelimiter = raw.Delimiter.register
	}
	if raw.Hex != nil {
		item.HexDigits = raw.Hex.value
	}

	for i, l := range raw.Lookup {
		entry, err := buildLookup(profileID, group, raw.Name, i, l)
		if err != nil {
			return nil, err
		}
		item.Lookup = append(item.Lookup, *entry)
	}

	for _, s := range raw.Sensors {
		regs, err := registerAddresses(profileID, group, raw.Name, s.Registers)
		if err != nil {
			return nil, err
		}
		sub := SubSensor{
			Registers: regs,
			Scale:     1.0,
			Signed:    s.Signed,
			Operator:  OperatorAdd,
		}
		if v := s.Scale.ptr(); v != nil {
			sub.Scale = *v
		}
		if v := s.Offset.ptr(); v != nil {
			sub.Offset = *v
		}
		if s.Operator != "" {
			switch op := SubSensorOperator(s.Operator); op {
			case OperatorAdd, OperatorSubtract, OperatorMultiply, OperatorDivide:
				sub.Operator = op
			default:
				return nil, &ParseError{ID: profileID, Reason: fmt.Sprintf("group %q item %q: invalid operator %q", group, raw.Name, s.Operator)}
			}
		}
		item.Sensors = append(item.Sensors, sub)
	}

	return item, nil
}

func buildLookup(profileID, group, item string, index int, raw rawLookup) (*LookupEntry, error) {
	entry := &LookupEntry{Value: string(raw.Value)}
	// presence of bit wins over key
	if raw.Bit != nil {
		entry.Kind = LookupBit
		b := *raw.Bit
		if b < 0 || b > 255 {
			b = 255 // unreachable position, never matches
		}
		entry.Bit = uint8(b)
		return entry, nil
	}
	if raw.Key == nil {
		return nil, &ParseError{ID: profileID, Reason: fmt.Sprintf("group %q item %q: lookup entry %d has neither key nor bit", group, item, index)}
	}
	switch {
	case raw.Key.isDefault:
		entry.Kind = LookupDefault
	case raw.Key.single != nil:
		entry.Kind = LookupSingle
		entry.Key = *raw.Key.single
	default:
		entry.Kind = LookupMultiple
		entry.Keys = raw.Key.multi
	}
	return entry, nil
}

func registerAddresses(profileID, group, item string, regs []int) ([]uint16, error) {
	if len(regs) == 0 {
		return nil, nil
	}
	out := make([]uint16, len(regs))
	for i, r := range regs {
		if r < 0 || r > 0xFFFF {
			return nil, &ParseError{ID: profileID, Reason: fmt.Sprintf("group %q item %q: register address %d out of range 0..65535", group, item, r)}
		}
		out[i] = uint16(r)
	}
	return out, nil
}

func parseErrorFromYAML(id string, err error) *ParseError {
	pe := &ParseError{ID: id, Reason: err.Error()}
	if m := yamlLineRegexp.FindStringSubmatch(err.Error()); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			pe.Line = line
		}
	}
	return pe
}
