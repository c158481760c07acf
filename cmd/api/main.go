package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/sunflow2mqtt/internal/adapter/actor"
	"github.com/berfenger/sunflow2mqtt/internal/config"
	"github.com/berfenger/sunflow2mqtt/internal/core/actor"
	"github.com/berfenger/sunflow2mqtt/internal/server"
	"github.com/berfenger/sunflow2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunflow2mqtt/pkg/profile"
	"github.com/berfenger/sunflow2mqtt/pkg/profile_modbus"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// resolve device profile
	def, err := resolveProfile(cfg)
	if err != nil {
		logger.Error("profile resolution failed", zap.Error(err))
		return
	}
	logger.Info("using profile", zap.String("id", def.ID),
		zap.String("manufacturer", def.Info.Manufacturer))

	// init Modbus actor provider
	modbusProv, err := modbusActorProvider(cfg, def, logger)
	if err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterActor(*cfg, modbusProv, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => SUNFLOW_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("SUNFLOW_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("sunflow")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check bounds
	if cfg.MonitorConfig.PollIntervalMillis < 1000 {
		return nil, errors.New("config param monitor.poll_interval_millis should be >= 1000")
	}
	if cfg.InverterModbusTcp.TimeoutMillis < 100 {
		return nil, errors.New("config param inverter_modbus_tcp.timeout_millis should be >= 100")
	}
	if cfg.Device.Profile == "" && (cfg.Device.Manufacturer == "" || cfg.Device.Model == "") {
		return nil, errors.New("config param device.profile or device.manufacturer + device.model is required")
	}

	return &cfg, nil
}

// resolveProfile loads the explicitly configured profile, or matches the
// configured manufacturer/model against the bundled registry.
func resolveProfile(cfg *config.Config) (*profile.InverterDefinition, error) {
	if cfg.Device.Profile != "" {
		return profile.LoadBundled(cfg.Device.Profile)
	}
	registry, err := profile.BundledRegistry()
	if err != nil {
		return nil, err
	}
	ref, err := registry.Match(profile.DeviceFingerprint{
		Manufacturer: cfg.Device.Manufacturer,
		Model:        cfg.Device.Model,
	})
	if err != nil {
		return nil, err
	}
	return profile.LoadBundled(ref.ID)
}

func modbusActorProvider(cfg *config.Config, def *profile.InverterDefinition, logger *zap.Logger) (actor.ModbusActorProvider, error) {

	timeout := time.Duration(cfg.InverterModbusTcp.TimeoutMillis) * time.Millisecond

	reader, err := profile_modbus.CreateModbusTCPReader(cfg.InverterModbusTcp.Host,
		cfg.InverterModbusTcp.Port, uint8(cfg.InverterModbusTcp.UnitId), timeout, logger, nil)
	if err != nil {
		return nil, err
	}

	driver := profile_modbus.NewDriver(def, reader, logger)

	return func() *adactor.ModbusActor {
		return adactor.NewModbusActor(driver, reader, 30*time.Second, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.base_topic", "sunflow")
	viper.SetDefault("monitor.poll_interval_millis", 5000)
	viper.SetDefault("monitor.groups", []string{"battery", "grid", "pv", "load"})
	viper.SetDefault("inverter_modbus_tcp.port", 502)
	viper.SetDefault("inverter_modbus_tcp.timeout_millis", 1000)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
