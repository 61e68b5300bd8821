package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-attendance-client/capture"
	"go-attendance-client/logging"
	"go-attendance-client/models"
	"go-attendance-client/redis"
)

type CaptureConfig struct {
	PollIntervalMs int `json:"poll_interval_ms,omitempty"`
	DwellMs        int `json:"dwell_ms,omitempty"`
}

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`

	ApiBaseUrl  string `json:"api_base_url"`
	ProfileId   string `json:"profile_id,omitempty"`
	AccessToken string `json:"access_token,omitempty"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	StorageType         string                    `json:"storage_type"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty"`

	DeviceBackend    string                `json:"device_backend"`
	SimulatedDevices SimulatedDeviceConfig `json:"simulated_devices,omitempty"`

	Capture       CaptureConfig `json:"capture,omitempty"`
	RescanDelayMs int           `json:"rescan_delay_ms,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "Path for the config.json to use")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "please provide a config path using the --config flag")
		os.Exit(1)
	}

	config, err := readConfigFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read config file: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(config.LogLevel, config.LogFormat)
	slog.Info("Using config", "path", *configPath, "api_base_url", config.ApiBaseUrl)

	if err := run(config); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Agent stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(config Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := createSessionStore(&config)
	if err != nil {
		return fmt.Errorf("failed to instantiate session store: %w", err)
	}

	api := NewHTTPAttendanceClient(config.ApiBaseUrl)

	profileID := config.ProfileId
	if profileID == "" {
		profileID = "default"
	}
	sessions := NewSessionManager(api, store, profileID)
	if config.AccessToken != "" {
		if err := sessions.Start(ctx, config.AccessToken); err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
	}

	video, barcode, face, position, err := createDevices(&config)
	if err != nil {
		return fmt.Errorf("failed to instantiate devices: %w", err)
	}

	wizard := capture.NewFaceWizard(video, face, capture.WizardConfig{
		PollInterval:  time.Duration(config.Capture.PollIntervalMs) * time.Millisecond,
		DwellDuration: time.Duration(config.Capture.DwellMs) * time.Millisecond,
	})
	wizard.SetFeedback(func(msg string) {
		slog.Info("Face capture feedback", "message", msg)
	})

	scanner := capture.NewQRScanner(video, barcode)
	locator := capture.NewGeolocator(position)
	orchestrator := NewOrchestrator(api, locator, wizard)

	state := NewAgentState(sessions)
	server, err := NewStatusServer(state, config.ServerConfig)
	if err != nil {
		return fmt.Errorf("failed to create status server: %w", err)
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Status server failed", "error", err)
		}
	}()
	defer func() {
		if err := server.Stop(); err != nil {
			slog.Error("Failed to stop status server", "error", err)
		}
	}()

	go sessions.RunRefreshLoop(ctx)

	agent := NewAgent(scanner, orchestrator, sessions, state,
		time.Duration(config.RescanDelayMs)*time.Millisecond)
	return agent.Run(ctx)
}

func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)

	if err != nil {
		return Config{}, err
	}

	var config Config
	err = json.Unmarshal(configBytes, &config)

	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func createSessionStore(config *Config) (SessionStore, error) {
	if config.StorageType == "redis" {
		slog.Info("Using redis session store")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisSessionStore(client, config.RedisConfig.Namespace), nil
	}
	if config.StorageType == "redis_sentinel" {
		slog.Info("Using redis sentinel session store")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisSessionStore(client, config.RedisSentinelConfig.Namespace), nil
	}
	if config.StorageType == "" || config.StorageType == "memory" {
		slog.Info("Using in memory session store")
		return NewInMemorySessionStore(), nil
	}
	return nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}

func createDevices(config *Config) (capture.VideoSource, capture.BarcodeDetector, capture.FaceDetector, capture.PositionSource, error) {
	switch config.DeviceBackend {
	case "simulated":
		slog.Info("Using simulated device backend")
		sim := config.SimulatedDevices
		return simVideoSource{},
			simBarcodeDetector{payload: sim.QRPayload},
			simFaceDetector{},
			simPositionSource{loc: models.Location{Latitude: sim.Latitude, Longitude: sim.Longitude}},
			nil
	default:
		return nil, nil, nil, nil, fmt.Errorf("%v is not a valid device backend", config.DeviceBackend)
	}
}
