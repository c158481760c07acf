package mqtt

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/berfenger/sunflow2mqtt/internal/config"
	"github.com/berfenger/sunflow2mqtt/pkg/profile_modbus"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("sunflow_%d", rand.Intn(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions,
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client: mqtt.NewClient(opts),
		cfg:    cfg.MQTT,
	}
}

type MQTTClient struct {
	client mqtt.Client
	cfg    config.MQTTConfig
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) StatusTopic() string {
	return fmt.Sprintf("%s/status", c.baseTopic())
}

func (c *MQTTClient) DeviceTopic() string {
	return fmt.Sprintf("%s/device", c.baseTopic())
}

// Connect starts the connection attempt and reports the outcome through fn.
func (c *MQTTClient) Connect(fn func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		if ok := token.WaitTimeout(timeout); !ok {
			fn(fmt.Errorf("mqtt connect timeout"))
			return
		}
		fn(token.Error())
	}()
}

func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(500)
}

// Publish sends a payload and reports the outcome through fn.
func (c *MQTTClient) Publish(topic string, payload string, qos byte, retain bool, fn func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		if ok := token.WaitTimeout(timeout); !ok {
			fn(fmt.Errorf("mqtt publish timeout"))
			return
		}
		fn(token.Error())
	}()
}

// PublishStatus serializes a snapshot and publishes it on the status topic.
func (c *MQTTClient) PublishStatus(status *profile_modbus.SolarStatus, fn func(error), timeout time.Duration) {
	payload, err := json.Marshal(status)
	if err != nil {
		fn(err)
		return
	}
	c.Publish(c.StatusTopic(), string(payload), 0, false, fn, timeout)
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
