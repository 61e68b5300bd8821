package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server_config": {"host": "0.0.0.0", "port": 8080},
		"api_base_url": "https://attendance.example.com/api",
		"profile_id": "kiosk-front-door",
		"storage_type": "memory",
		"device_backend": "simulated",
		"simulated_devices": {"qr_payload": "42", "latitude": 52.0, "longitude": 4.3},
		"capture": {"poll_interval_ms": 500, "dwell_ms": 1000},
		"rescan_delay_ms": 3000
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := readConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", config.ServerConfig.Host)
	require.Equal(t, 8080, config.ServerConfig.Port)
	require.Equal(t, "https://attendance.example.com/api", config.ApiBaseUrl)
	require.Equal(t, "kiosk-front-door", config.ProfileId)
	require.Equal(t, "memory", config.StorageType)
	require.Equal(t, "simulated", config.DeviceBackend)
	require.Equal(t, "42", config.SimulatedDevices.QRPayload)
	require.Equal(t, 500, config.Capture.PollIntervalMs)
	require.Equal(t, 3000, config.RescanDelayMs)
}

func TestReadConfigFileMissing(t *testing.T) {
	_, err := readConfigFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestReadConfigFileInvalidJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := readConfigFile(path)
	require.Error(t, err)
}

func TestCreateSessionStoreDefaultsToMemory(t *testing.T) {
	store, err := createSessionStore(&Config{})
	require.NoError(t, err)
	require.IsType(t, &InMemorySessionStore{}, store)
}

func TestCreateSessionStoreRejectsUnknownType(t *testing.T) {
	_, err := createSessionStore(&Config{StorageType: "carrier-pigeon"})
	require.Error(t, err)
}

func TestCreateDevicesSimulatedBackend(t *testing.T) {
	config := &Config{
		DeviceBackend:    "simulated",
		SimulatedDevices: SimulatedDeviceConfig{QRPayload: "42", Latitude: 1, Longitude: 2},
	}
	video, barcode, face, position, err := createDevices(config)
	require.NoError(t, err)
	require.NotNil(t, video)
	require.NotNil(t, barcode)
	require.NotNil(t, face)
	require.NotNil(t, position)
}

func TestCreateDevicesRejectsUnknownBackend(t *testing.T) {
	_, _, _, _, err := createDevices(&Config{DeviceBackend: "webcam"})
	require.Error(t, err)
}
