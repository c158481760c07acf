package mqtt

import (
	"testing"

	"github.com/berfenger/sunflow2mqtt/internal/config"

	"github.com/stretchr/testify/assert"
)

func testClient() *MQTTClient {
	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "loremtopic",
		},
	}
	return CreateMQTTClient(cfg, OptsFromConfig(cfg), nil)
}

func TestTopics(t *testing.T) {

	assert := assert.New(t)

	c := testClient()

	assert.Equal("loremtopic/bridge/state", c.BridgeStateTopic(), "bridge state topic")
	assert.Equal("loremtopic/status", c.StatusTopic(), "status topic")
	assert.Equal("loremtopic/device", c.DeviceTopic(), "device topic")
}

func TestWillTopicMatchesBridgeState(t *testing.T) {

	assert := assert.New(t)

	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "loremtopic",
		},
	}
	opts := OptsFromConfig(cfg)

	assert.Equal("loremtopic/bridge/state", opts.WillTopic, "will topic")
	assert.Equal(MQTT_PAYLOAD_OFFLINE, string(opts.WillPayload), "will payload")
	assert.True(opts.WillRetained, "will retained")
}

func TestCheckMQTTTopic(t *testing.T) {

	assert := assert.New(t)

	topic, err := config.CheckMQTTTopic("SunFlow_1")
	assert.NoError(err)
	assert.Equal("sunflow_1", topic, "lowercased")

	_, err = config.CheckMQTTTopic("bad/topic")
	assert.Error(err, "slash rejected")

	_, err = config.CheckMQTTTopic("")
	assert.Error(err, "empty rejected")
}
