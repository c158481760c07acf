package profile_modbus

import (
	"context"
)

// TestRegisterReader serves reads from an in-memory register map. Unmapped
// addresses read as zero. Used in tests instead of a live device.
type TestRegisterReader struct {
	Registers map[uint16]uint16
	// Err, when set, fails every read.
	Err error
	// Short, when set, returns one register fewer than requested.
	Short bool

	Reads int
}

func CreateTestRegisterReader(registers map[uint16]uint16) *TestRegisterReader {
	return &TestRegisterReader{Registers: registers}
}

func (r *TestRegisterReader) ReadHoldingRegisters(ctx context.Context, start uint16, count uint16) ([]uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.Reads++
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Short && count > 0 {
		count--
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = r.Registers[start+uint16(i)]
	}
	return out, nil
}
