package profile_modbus

import (
	"context"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// ModbusTCPReader reads holding registers over Modbus TCP. It adds no
// locking of its own; the underlying modbus client runs one request at a
// time.
type ModbusTCPReader struct {
	client     *modbus.ModbusClient
	instrument []ModbusInstrument
}

// ModbusInstrument receives per-call transport timings.
type ModbusInstrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

func (r *ModbusTCPReader) Open() error {
	return r.client.Open()
}

func (r *ModbusTCPReader) Close() error {
	return r.client.Close()
}

func (r *ModbusTCPReader) ReadHoldingRegisters(ctx context.Context, start uint16, count uint16) ([]uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer recordTimer("ReadHoldingRegisters", r.instrument)()
	return r.client.ReadRegisters(start, count, modbus.HOLDING_REGISTER)
}

func recordTimer(name string, instrument []ModbusInstrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}

func traceLoggerInstrumentation(logger *zap.Logger) *ModbusInstrument {
	return &ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus call", zap.String("fn", fnName), zap.Int64("millis", readTime.Milliseconds()))
		},
	}
}

// CreateModbusTCPReader connects a reader to a Modbus TCP endpoint, usually
// a WiFi data-logging stick or an RS485 gateway.
func CreateModbusTCPReader(ip string, port uint, unitID uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *ModbusInstrument) (*ModbusTCPReader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", ip, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	// instrumentation
	var inst []ModbusInstrument
	logInst := traceLoggerInstrumentation(logger.With(zap.String("target", "inverter"), zap.Uint8("unit", unitID)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	// set device address
	if unitID > 0 {
		if err := client.SetUnitId(unitID); err != nil {
			return nil, err
		}
	}

	return &ModbusTCPReader{
		client:     client,
		instrument: inst,
	}, nil
}
