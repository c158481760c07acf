package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/sunflow2mqtt/internal/config"
	"github.com/berfenger/sunflow2mqtt/internal/core/domain"
	"github.com/berfenger/sunflow2mqtt/internal/mqtt"
	"github.com/berfenger/sunflow2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config      *config.Config
	behavior    actor.Behavior
	stash       *actorutil.Stash
	client      *mqtt.MQTTClient
	eventStream *eventstream.EventStream
	sub         *eventstream.Subscription
	logger      *zap.Logger
}

type MQTTConnected struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	Error error
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config),
			func(_ pahomqtt.Client, err error) {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// forward status events to this actor
		self := ctx.Self()
		root := ctx.ActorSystem().Root
		state.sub = state.eventStream.Subscribe(func(evt any) {
			root.Send(self, evt)
		})

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "running",
		})
	case domain.StatusUpdateEvent:
		state.logger.Debug("mqtt@default StatusUpdateEvent")
		self := ctx.Self()
		root := ctx.ActorSystem().Root
		state.client.PublishStatus(msg.Status, func(err error) {
			root.Send(self, publishResult{Error: err})
		}, 2*time.Second)
	case domain.BridgeStateEvent:
		payload := mqtt.MQTT_PAYLOAD_OFFLINE
		if msg.Online {
			payload = mqtt.MQTT_PAYLOAD_ONLINE
		}
		state.client.Publish(state.client.BridgeStateTopic(), payload, 0, true, func(error) {}, 500*time.Millisecond)
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@default publish error", zap.Error(msg.Error))
		}
	case MQTTConnectionLost:
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		state.stop()
		panic(msg.Error)
	case *actor.Stopping:
		state.stop()
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) stop() {
	if state.sub != nil {
		state.eventStream.Unsubscribe(state.sub)
		state.sub = nil
	}
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect()
	}
}
