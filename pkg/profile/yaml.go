package profile

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// The on-disk profile format is deliberately loose: several fields accept
// more than one YAML shape. Every union is normalized here, on the way in,
// so the in-memory model carries exactly one representation.

// flexFloat accepts a scalar or a list of scalars (first element wins).
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalYAML(node *yaml.Node) error {
	n := node
	if node.Kind == yaml.SequenceNode {
		if len(node.Content) == 0 {
			return nil
		}
		n = node.Content[0]
	}
	var v float64
	if err := n.Decode(&v); err != nil {
		return fmt.Errorf("expected number, got %q", n.Value)
	}
	f.value = v
	f.set = true
	return nil
}

func (f *flexFloat) ptr() *float64 {
	if f == nil || !f.set {
		return nil
	}
	v := f.value
	return &v
}

// flexUint32 accepts decimal or hexadecimal integer literals, quoted or not.
type flexUint32 struct {
	value uint32
	set   bool
}

func (f *flexUint32) UnmarshalYAML(node *yaml.Node) error {
	var u uint32
	if err := node.Decode(&u); err == nil {
		f.value = u
		f.set = true
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("expected integer literal, got %q", node.Value)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid integer literal %q", s)
	}
	f.value = uint32(v)
	f.set = true
	return nil
}

func (f *flexUint32) ptr() *uint32 {
	if f == nil || !f.set {
		return nil
	}
	v := f.value
	return &v
}

// stringOrList accepts a scalar or a list of scalars.
type stringOrList []string

func (s *stringOrList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	var single string
	if err := node.Decode(&single); err != nil {
		return err
	}
	*s = []string{single}
	return nil
}

// presentFlag is true when the key is present with any scalar value.
type presentFlag bool

func (f *presentFlag) UnmarshalYAML(node *yaml.Node) error {
	*f = node.Kind == yaml.ScalarNode
	return nil
}

// nullableBool treats an explicit null as true ("hex:" shorthand).
type nullableBool struct {
	value bool
	set   bool
}

func (b *nullableBool) UnmarshalYAML(node *yaml.Node) error {
	b.set = true
	if node.Tag == "!!null" {
		b.value = true
		return nil
	}
	return node.Decode(&b.value)
}

// rawDelimiter accepts a scalar (digit delimiter shorthand) or a
// {digit, register} mapping.
type rawDelimiter struct {
	digit    string
	register string
}

func (d *rawDelimiter) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.digit = node.Value
		d.register = "-"
		return nil
	}
	var m struct {
		Digit    *string `yaml:"digit"`
		Register *string `yaml:"register"`
	}
	if err := node.Decode(&m); err != nil {
		return err
	}
	d.digit = "."
	d.register = "-"
	if m.Digit != nil {
		d.digit = *m.Digit
	}
	if m.Register != nil {
		d.register = *m.Register
	}
	return nil
}

// rawLookupKey accepts an int, a list of ints, or the literal "default".
type rawLookupKey struct {
	isDefault bool
	single    *int64
	multi     []int64
}

func (k *rawLookupKey) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		if err := node.Decode(&k.multi); err != nil {
			return err
		}
		return nil
	}
	var v int64
	if err := node.Decode(&v); err == nil {
		k.single = &v
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("invalid lookup key %q", node.Value)
	}
	if s != "default" {
		return fmt.Errorf("invalid lookup key %q", s)
	}
	k.isDefault = true
	return nil
}

// scalarString captures any scalar verbatim.
type scalarString string

func (s *scalarString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar, got %v", node.Kind)
	}
	*s = scalarString(node.Value)
	return nil
}

type rawLookup struct {
	Key   *rawLookupKey `yaml:"key"`
	Bit   *int          `yaml:"bit"`
	Value scalarString  `yaml:"value"`
}

type rawRange struct {
	Min     *flexFloat `yaml:"min"`
	Max     *flexFloat `yaml:"max"`
	Default *flexFloat `yaml:"default"`
}

type rawValidation struct {
	Min *flexFloat `yaml:"min"`
	Max *flexFloat `yaml:"max"`
}

type rawSubSensor struct {
	Registers []int      `yaml:"registers"`
	Scale     *flexFloat `yaml:"scale"`
	Offset    *flexFloat `yaml:"offset"`
	Signed    bool       `yaml:"signed"`
	Operator  string     `yaml:"operator"`
}

type rawSensorItem struct {
	Name       string `yaml:"name"`
	Rule       int    `yaml:"rule"`
	Registers  []int  `yaml:"registers"`
	Platform   string `yaml:"platform"`
	Class      string `yaml:"class"`
	StateClass string `yaml:"state_class"`
	UOM        string `yaml:"uom"`
	Icon       string `yaml:"icon"`

	Scale     *flexFloat `yaml:"scale"`
	Offset    *flexFloat `yaml:"offset"`
	Signed    bool       `yaml:"signed"`
	Inverse   bool       `yaml:"inverse"`
	Magnitude bool       `yaml:"magnitude"`

	Mask   *flexUint32 `yaml:"mask"`
	Divide *flexUint32 `yaml:"divide"`
	Bit    *int        `yaml:"bit"`

	Range      *rawRange      `yaml:"range"`
	Validation *rawValidation `yaml:"validation"`

	Lookup  []rawLookup    `yaml:"lookup"`
	Options []string       `yaml:"options"`
	Sensors []rawSubSensor `yaml:"sensors"`

	Attributes     []string      `yaml:"attributes"`
	Attribute      presentFlag   `yaml:"attribute"`
	Description    string        `yaml:"description"`
	UpdateInterval int           `yaml:"update_interval"`
	Delimiter      *rawDelimiter `yaml:"delimiter"`
	Hex            *nullableBool `yaml:"hex"`
}

type rawGroup struct {
	Group          string          `yaml:"group"`
	UpdateInterval int             `yaml:"update_interval"`
	Items          []rawSensorItem `yaml:"items"`
}

type rawRequest struct {
	Start    int    `yaml:"start"`
	Count    int    `yaml:"count"`
	Function string `yaml:"function"`
	Name     string `yaml:"name"`
}

type rawInfo struct {
	Manufacturer string       `yaml:"manufacturer"`
	Model        stringOrList `yaml:"model"`
}

type rawDefaults struct {
	UpdateInterval *int `yaml:"update_interval"`
	Digits         *int `yaml:"digits"`
}

type rawDocument struct {
	Info       rawInfo      `yaml:"info"`
	Default    *rawDefaults `yaml:"default"`
	Requests   []rawRequest `yaml:"requests"`
	Parameters []rawGroup   `yaml:"parameters"`
}
