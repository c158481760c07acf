package util

import (
	"github.com/berfenger/sunflow2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		InverterModbusTcp: config.InverterModbusTCPConfig{
			Host:          "-.-.-.-",
			Port:          502,
			UnitId:        1,
			TimeoutMillis: 1000,
		},
		Device: config.DeviceConfig{
			Profile: "deye_p3",
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "sunflow",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 5000,
			Groups:             []string{"battery", "grid", "pv", "load"},
		},
		Port: 8080,
	}
}
