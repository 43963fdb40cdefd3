package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.Strip.NumLEDs)
	assert.Equal(t, 0, cfg.Strip.NumSegments)
	assert.Equal(t, 127, cfg.BrightnessLevel())
	assert.Equal(t, DriverMemory, cfg.Strip.Driver)
	assert.Equal(t, "GRB", cfg.Strip.ChannelOrder)
	assert.Equal(t, 2*time.Second, cfg.StopTimeout())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "scripts", cfg.ScriptsDir)
	assert.Equal(t, "bling", cfg.MQTT.TopicPrefix)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
		"strip": {"num_leds": 60, "num_segments": 4, "brightness": 0, "driver": " LPD8806 ", "stop_timeout": "500ms"},
		"mqtt": {"enabled": true, "topic_prefix": "robot"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Strip.NumLEDs)
	assert.Equal(t, 4, cfg.Strip.NumSegments)
	assert.Equal(t, 0, cfg.BrightnessLevel(), "explicit zero brightness is kept")
	assert.Equal(t, DriverLPD8806, cfg.Strip.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.StopTimeout())
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "robot", cfg.MQTT.TopicPrefix)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"strip": {"num_leds": 60}}`)
	t.Setenv("BLING_LEDS", "120")
	t.Setenv("BLING_SEGMENTS", "2")
	t.Setenv("BLING_BRIGHTNESS", "200")
	t.Setenv("BLING_DRIVER", "terminal")
	t.Setenv("BLING_MQTT_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Strip.NumLEDs)
	assert.Equal(t, 2, cfg.Strip.NumSegments)
	assert.Equal(t, 200, cfg.BrightnessLevel())
	assert.Equal(t, DriverTerminal, cfg.Strip.Driver)
	assert.True(t, cfg.MQTT.Enabled)
}

func TestValidation(t *testing.T) {
	tests := map[string]string{
		"negative leds":  `{"strip": {"num_leds": -1}}`,
		"too many segs":  `{"strip": {"num_leds": 4, "num_segments": 5}}`,
		"brightness":     `{"strip": {"brightness": 256}}`,
		"driver":         `{"strip": {"driver": "dmx"}}`,
		"channel order":  `{"strip": {"channel_order": "XYZ"}}`,
		"duration":       `{"strip": {"stop_timeout": "soon"}}`,
		"rate limit":     `{"ble": {"command_rate_limit": -3}}`,
		"malformed json": `{"strip": `,
		"rgb order":      `{"ble": {"rgb_order": [1, 2]}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"ELK-BLEDOM   ", "BLEDOM"}, cfg.BLE.DeviceNames)
}

func TestBLEEnabledByDriver(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"strip": {"driver": "BLE"}, "ble": {"rgb_order": [3, 2, 1]}}`))
	require.NoError(t, err)
	assert.True(t, cfg.BLEEnabled())
	assert.Equal(t, []int{3, 2, 1}, cfg.BLE.RgbOrder)

	scan, connect, _, retry := cfg.BLEDurations()
	assert.Equal(t, 30*time.Second, scan)
	assert.Equal(t, 7*time.Second, connect)
	assert.Equal(t, 5*time.Second, retry)

	assert.False(t, Default().BLEEnabled())
}
