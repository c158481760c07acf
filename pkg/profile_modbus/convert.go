package profile_modbus

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/berfenger/sunflow2mqtt/pkg/profile"
)

// ConvertNumeric decodes a register slice into a float64 according to the
// item's parsing rule and transformation chain. The processing order is
// fixed: decode, raw range check, mask, bit extraction, affine transform,
// integer divide, validation.
func ConvertNumeric(regs []uint16, item *profile.SensorItem) (float64, error) {
	raw, err := decodeRaw(regs, item)
	if err != nil {
		return 0, err
	}

	// raw range filter, applied before any transformation
	if outOfBounds(raw, item.RangeMin, item.RangeMax) {
		if item.RangeDefault == nil {
			return 0, &RawValueOutOfRangeError{Value: raw, Min: item.RangeMin, Max: item.RangeMax}
		}
		raw = *item.RangeDefault
	}

	if item.Mask != nil {
		raw = float64(uint32(int64(raw)) & *item.Mask)
	}
	if item.Bit != nil {
		raw = float64((uint32(int64(raw)) >> *item.Bit) & 1)
	}

	value := (raw - item.Offset) * item.Scale
	if item.Inverse {
		value = -value
	}
	if item.Divide != nil && *item.Divide > 0 {
		value = float64(int64(math.Floor(value)) / int64(*item.Divide))
	}

	if outOfBounds(value, item.ValidationMin, item.ValidationMax) {
		return 0, &ValueOutOfRangeError{Value: value, Min: item.ValidationMin, Max: item.ValidationMax}
	}
	return value, nil
}

func decodeRaw(regs []uint16, item *profile.SensorItem) (float64, error) {
	min := item.Rule.MinRegisters()
	if len(regs) < min {
		return 0, &InsufficientRegistersError{Expected: min, Got: len(regs)}
	}
	switch item.Rule {
	case profile.RuleUint16:
		if item.Signed {
			return decode16(regs[0], item.Magnitude), nil
		}
		return float64(regs[0]), nil
	case profile.RuleInt16:
		return decode16(regs[0], item.Magnitude), nil
	case profile.RuleUint32:
		u := uint32(regs[0]) | uint32(regs[1])<<16
		if item.Signed {
			return decode32(u, item.Magnitude), nil
		}
		return float64(u), nil
	case profile.RuleInt32:
		u := uint32(regs[0]) | uint32(regs[1])<<16
		return decode32(u, item.Magnitude), nil
	case profile.RuleTime:
		// HHMM encoding, returned as minutes since midnight
		return float64(regs[0]/100)*60 + float64(regs[0]%100), nil
	}
	return 0, &UnsupportedRuleError{Rule: item.Rule}
}

// decode16 interprets a 16-bit word as two's complement, or sign-magnitude
// when requested (bit 15 = sign, low 15 bits = magnitude).
func decode16(v uint16, magnitude bool) float64 {
	if magnitude {
		m := float64(v & 0x7FFF)
		if v&0x8000 != 0 {
			return -m
		}
		return m
	}
	return float64(int16(v))
}

func decode32(v uint32, magnitude bool) float64 {
	if magnitude {
		m := float64(v & 0x7FFFFFFF)
		if v&0x80000000 != 0 {
			return -m
		}
		return m
	}
	return float64(int32(v))
}

func outOfBounds(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return true
	}
	if max != nil && v > *max {
		return true
	}
	return false
}

// DecodeString decodes registers as MSB-first ASCII pairs, stopping at the
// first zero byte. Control characters (C0, DEL, C1) are rejected.
func DecodeString(regs []uint16) (string, error) {
	buf := make([]byte, 0, len(regs)*2)
scan:
	for _, r := range regs {
		for _, b := range [2]byte{byte(r >> 8), byte(r)} {
			if b == 0 {
				break scan
			}
			buf = append(buf, b)
		}
	}
	if !utf8.Valid(buf) {
		return "", &InvalidUTF8Error{}
	}
	s := string(buf)
	for _, r := range s {
		if r < 0x20 || r == 0x7F || (r >= 0x80 && r <= 0x9F) {
			return "", &ControlCharacterError{Rune: r}
		}
	}
	return s, nil
}

// DecodeVersion renders each register as four nibbles joined by the digit
// delimiter, registers joined by the register delimiter, then trims leading
// zero parts.
func DecodeVersion(regs []uint16, item *profile.SensorItem) string {
	parts := make([]string, 0, len(regs))
	for _, r := range regs {
		nibbles := [4]uint16{r >> 12 & 0xF, r >> 8 & 0xF, r >> 4 & 0xF, r & 0xF}
		digits := make([]string, 4)
		for i, n := range nibbles {
			if item.HexDigits {
				digits[i] = fmt.Sprintf("%X", n)
			} else {
				digits[i] = fmt.Sprintf("%d", n)
			}
		}
		parts = append(parts, strings.Join(digits, item.DigitDelimiter))
	}
	version := strings.Join(parts, item.RegisterDelimiter)

	if item.DigitDelimiter == "" {
		return version
	}
	// drop leading zero components: "0.0.1.2" renders as "1.2"
	sep := string(item.DigitDelimiter[0])
	split := strings.Split(version, sep)
	start := 0
	for start < len(split)-1 && split[start] == "0" {
		start++
	}
	return strings.Join(split[start:], sep)
}

// DecodeDateTime renders 3-register (packed bytes) or 6-register (one
// component each) forms as "YY/MM/DD HH:MM:SS". No calendar validation is
// performed. Any other register count yields no value.
func DecodeDateTime(regs []uint16) (string, bool) {
	var y, mo, d, h, mi, s uint16
	switch len(regs) {
	case 3:
		y, mo = regs[0]>>8, regs[0]&0xFF
		d, h = regs[1]>>8, regs[1]&0xFF
		mi, s = regs[2]>>8, regs[2]&0xFF
	case 6:
		y, mo, d, h, mi, s = regs[0], regs[1], regs[2], regs[3], regs[4], regs[5]
	default:
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%02d %02d:%02d:%02d", y, mo, d, h, mi, s), true
}

// DecodeTimeString renders an HHMM-encoded register as "HH:MM" without
// validating hour or minute bounds.
func DecodeTimeString(reg uint16) string {
	return fmt.Sprintf("%02d:%02d", reg/100, reg%100)
}
