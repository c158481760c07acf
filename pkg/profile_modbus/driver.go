package profile_modbus

import (
	"context"
	"errors"
	"time"

	"github.com/berfenger/sunflow2mqtt/pkg/profile"

	"go.uber.org/zap"
)

// RegisterReader is the abstract transport. Implementations must serialize
// concurrent reads themselves; most field data loggers cannot handle
// overlapped requests.
type RegisterReader interface {
	// ReadHoldingRegisters reads count holding registers starting at start.
	ReadHoldingRegisters(ctx context.Context, start uint16, count uint16) ([]uint16, error)
}

// DriverInstrument receives read-cycle measurements.
type DriverInstrument struct {
	RecordRead func(batches int, registers int, readTime time.Duration)
}

// Driver runs the full read pipeline for one device: collect sensors, batch
// registers, read, decode, assemble. A Driver holds no mutable state; it is
// safe to share as long as the underlying reader serializes access.
type Driver struct {
	def        *profile.InverterDefinition
	reader     RegisterReader
	batcher    Batcher
	builder    *StatusBuilder
	logger     *zap.Logger
	instrument []DriverInstrument
}

func NewDriver(def *profile.InverterDefinition, reader RegisterReader, logger *zap.Logger, instrument ...DriverInstrument) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		def:        def,
		reader:     reader,
		batcher:    DefaultBatcher(),
		builder:    NewStatusBuilder(def),
		logger:     logger,
		instrument: instrument,
	}
}

// Definition returns the profile this driver reads with.
func (d *Driver) Definition() *profile.InverterDefinition {
	return d.def
}

// ReadStatus performs one full read. An empty group list selects the basic
// set {battery, grid, pv, load}.
func (d *Driver) ReadStatus(ctx context.Context, groups ...SubsystemGroup) (*SolarStatus, error) {
	if len(groups) == 0 {
		groups = DefaultGroups
	}

	c := collectItems(d.def, groups)
	addresses := c.registers()
	if len(addresses) == 0 {
		return nil, &DriverError{Kind: ErrNoSensorsForGroups, Groups: groups}
	}

	ranges := d.batcher.Batch(addresses)

	start := time.Now()
	regs := make(map[uint16]uint16)
	for _, r := range ranges {
		values, err := d.reader.ReadHoldingRegisters(ctx, r.Start, r.Count)
		if err != nil {
			return nil, mapTransportError(err)
		}
		if len(values) != int(r.Count) {
			return nil, &DriverError{Kind: ErrInvalidResponse,
				Err: errors.New("register read returned unexpected length")}
		}
		for i, v := range values {
			regs[r.Start+uint16(i)] = v
		}
	}
	readTime := time.Since(start)

	d.logger.Debug("register read cycle done",
		zap.Int("batches", len(ranges)),
		zap.Int("registers", len(regs)),
		zap.Duration("read_time", readTime))
	for i := range d.instrument {
		if d.instrument[i].RecordRead != nil {
			d.instrument[i].RecordRead(len(ranges), len(regs), readTime)
		}
	}

	return d.builder.Build(regs, groups), nil
}

func mapTransportError(err error) error {
	var derr *DriverError
	if errors.As(err, &derr) {
		return derr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &DriverError{Kind: ErrTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &DriverError{Kind: ErrConnectionFailed, Err: err}
	default:
		return &DriverError{Kind: ErrCommunication, Err: err}
	}
}
