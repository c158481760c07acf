package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/sunflow2mqtt/internal/core/domain"
	"github.com/berfenger/sunflow2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunflow2mqtt/pkg/profile_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// ModbusDevice is the transport lifecycle the actor manages; reads go
// through the profile-driven driver.
type ModbusDevice interface {
	Open() error
	Close() error
}

type ModbusActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	driver   *profile_modbus.Driver
	device   ModbusDevice
	timeout  time.Duration
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

// NewModbusActor wraps a driver. device may be nil when the reader needs no
// explicit open/close (test readers).
func NewModbusActor(driver *profile_modbus.Driver, device ModbusDevice, timeout time.Duration, logger *zap.Logger) *ModbusActor {
	act := &ModbusActor{
		driver:   driver,
		device:   device,
		timeout:  timeout,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_MODBUS, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *ModbusActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ModbusActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("modbus@starting started")
		if state.device != nil {
			if err := state.device.Open(); err != nil {
				panic(err)
			}
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		if state.device != nil {
			state.device.Close()
		}
	default:
		state.logger.Debug("modbus@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ModbusActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("modbus@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MODBUS,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetDeviceInfoRequest:
		state.logger.Debug("modbus@default: GetDeviceInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		def := state.driver.Definition()
		ctx.Send(sender, domain.GetDeviceInfoResponse{
			ProfileID: def.ID,
			Info:      &def.Info,
			Defaults:  &def.Defaults,
		})
	case domain.GetStatusRequest:
		state.logger.Debug("modbus@default: GetStatusRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		groups := msg.Groups

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.GetStatusResponse, error) {
			return state.readStatus(groups)
		}),
			mapTaskResult[domain.GetStatusResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetStatusResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case *actor.Stopping:
		if state.device != nil {
			state.device.Close()
		}
	default:
		state.logger.Debug("modbus@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ModbusActor) WaitingModbus(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("modbus@WaitingModbus backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		if state.device != nil {
			state.device.Close()
		}
	default:
		state.logger.Debug("modbus@WaitingModbus stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *ModbusActor) readStatus(groups []profile_modbus.SubsystemGroup) (*domain.GetStatusResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	status, err := a.driver.ReadStatus(ctx, groups...)
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetStatusResponse{
		Status: status,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
