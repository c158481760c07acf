package domain

import (
	"github.com/berfenger/sunflow2mqtt/pkg/profile"
	"github.com/berfenger/sunflow2mqtt/pkg/profile_modbus"
)

const (
	ACTOR_ID_MASTER  = "master"
	ACTOR_ID_MODBUS  = "modbus"
	ACTOR_ID_MONITOR = "monitor"
	ACTOR_ID_MQTT    = "mqtt"
)

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

type GetDeviceInfoRequest struct {
	ActorRequestMixIn
}

type GetDeviceInfoResponse struct {
	ActorResponseMixIn
	ProfileID string
	Info      *profile.DeviceInfo
	Defaults  *profile.Defaults
}

type GetStatusRequest struct {
	ActorRequestMixIn
	Groups []profile_modbus.SubsystemGroup
}

type GetStatusResponse struct {
	ActorResponseMixIn
	Status *profile_modbus.SolarStatus
}

// StatusUpdateEvent is published on the eventstream after every successful
// poll cycle.
type StatusUpdateEvent struct {
	Status *profile_modbus.SolarStatus
}

// BridgeStateEvent signals connectivity changes to the MQTT side.
type BridgeStateEvent struct {
	Online bool
}
