// Package config loads the controller configuration from a JSON file, with BLING_*
// environment variables taking precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bling-controller/internal/led"
)

// LED output drivers.
const (
	DriverMemory   = "memory"
	DriverLPD8806  = "lpd8806"
	DriverTerminal = "terminal"
	// DriverBLE keeps frames in memory and mirrors them onto the BLE controller only.
	DriverBLE = "ble"
)

// StripConfig describes the physical strip and how frames reach it.
type StripConfig struct {
	NumLEDs      int    `json:"num_leds"`
	NumSegments  int    `json:"num_segments"`
	Brightness   *int   `json:"brightness"`
	Driver       string `json:"driver"`
	Device       string `json:"device"`
	ChannelOrder string `json:"channel_order"`
	StopTimeout  string `json:"stop_timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string   `json:"port"`
	WebFilesDir    string   `json:"web_files_dir"`
	AllowedOrigins []string `json:"allowed_origins"`
	MetricsEnabled bool     `json:"metrics_enabled"`
}

// BLEConfig holds settings for mirroring the strip onto a Bluetooth LED controller.
type BLEConfig struct {
	Enabled           bool     `json:"enabled"`
	DeviceNames       []string `json:"device_names"`
	ScanTimeout       string   `json:"scan_timeout"`
	ConnectTimeout    string   `json:"connect_timeout"`
	HeartbeatInterval string   `json:"heartbeat_interval"`
	RetryDelay        string   `json:"retry_delay"`
	RateLimit         float64  `json:"command_rate_limit"`
	RateBurst         int      `json:"command_rate_burst"`
	RgbOrder          []int    `json:"rgb_order"`
}

// MQTTConfig holds MQTT and Home Assistant discovery settings.
type MQTTConfig struct {
	Enabled            bool   `json:"enabled"`
	Broker             string `json:"broker"` // tcp://IP:PORT
	Username           string `json:"username"`
	Password           string `json:"password"`
	ClientID           string `json:"client_id"`
	TopicPrefix        string `json:"topic_prefix"`
	HADiscoveryEnabled bool   `json:"ha_discovery_enabled"`
	HADiscoveryPrefix  string `json:"ha_discovery_prefix"`
}

// Config is the top-level configuration.
type Config struct {
	Strip  StripConfig  `json:"strip"`
	Server ServerConfig `json:"server"`
	BLE    BLEConfig    `json:"ble"`
	MQTT   MQTTConfig   `json:"mqtt"`

	ScriptsDir    string `json:"scripts_dir"`
	SchedulesFile string `json:"schedules_file"`
	Debug         bool   `json:"debug"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads path, applies environment overrides and defaults, and validates the result.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode json: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to open config file '%s': %w", path, err)
	}

	cfg.applyEnv()
	cfg.sanitize()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Strip.NumLEDs = getEnvInt("BLING_LEDS", c.Strip.NumLEDs)
	c.Strip.NumSegments = getEnvInt("BLING_SEGMENTS", c.Strip.NumSegments)
	if v, ok := os.LookupEnv("BLING_BRIGHTNESS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Strip.Brightness = &n
		}
	}
	c.Strip.Driver = getEnv("BLING_DRIVER", c.Strip.Driver)
	c.Strip.Device = getEnv("BLING_DEVICE", c.Strip.Device)
	c.Server.Port = getEnv("BLING_PORT", c.Server.Port)
	c.MQTT.Enabled = getEnvBool("BLING_MQTT_ENABLED", c.MQTT.Enabled)
	c.MQTT.Broker = getEnv("BLING_MQTT_BROKER", c.MQTT.Broker)
	c.ScriptsDir = getEnv("BLING_SCRIPTS_DIR", c.ScriptsDir)
}

func (c *Config) sanitize() {
	c.Strip.Driver = strings.ToLower(strings.TrimSpace(c.Strip.Driver))
	c.Strip.Device = strings.TrimSpace(c.Strip.Device)
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	c.Server.WebFilesDir = strings.TrimSpace(c.Server.WebFilesDir)
	c.ScriptsDir = strings.TrimSpace(c.ScriptsDir)
	c.SchedulesFile = strings.TrimSpace(c.SchedulesFile)
	// BLE device names are matched exactly, trailing spaces included.
}

func (c *Config) setDefaults() {
	if c.Strip.NumLEDs == 0 {
		c.Strip.NumLEDs = 48
	}
	if c.Strip.Brightness == nil {
		b := 127
		c.Strip.Brightness = &b
	}
	if c.Strip.Driver == "" {
		c.Strip.Driver = DriverMemory
	}
	if c.Strip.Device == "" {
		c.Strip.Device = "/dev/spidev0.0"
	}
	if c.Strip.ChannelOrder == "" {
		c.Strip.ChannelOrder = "GRB"
	}
	if c.Strip.StopTimeout == "" {
		c.Strip.StopTimeout = "2s"
	}

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.WebFilesDir == "" {
		c.Server.WebFilesDir = "./web"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:8080"}
	}

	if len(c.BLE.DeviceNames) == 0 {
		c.BLE.DeviceNames = []string{"ELK-BLEDOM   ", "BLEDOM"}
	}
	if c.BLE.ScanTimeout == "" {
		c.BLE.ScanTimeout = "30s"
	}
	if c.BLE.ConnectTimeout == "" {
		c.BLE.ConnectTimeout = "7s"
	}
	if c.BLE.HeartbeatInterval == "" {
		c.BLE.HeartbeatInterval = "60s"
	}
	if c.BLE.RetryDelay == "" {
		c.BLE.RetryDelay = "5s"
	}
	if c.BLE.RateLimit == 0 {
		c.BLE.RateLimit = 25.0
	}
	if c.BLE.RateBurst <= 0 {
		c.BLE.RateBurst = 25
	}

	if c.ScriptsDir == "" {
		c.ScriptsDir = "scripts"
	}
	if c.SchedulesFile == "" {
		c.SchedulesFile = "schedules.json"
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "bling-controller"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "bling"
	}
	if c.MQTT.HADiscoveryPrefix == "" {
		c.MQTT.HADiscoveryPrefix = "homeassistant"
	}
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if c.Strip.NumLEDs <= 0 {
		return fmt.Errorf("config error: 'num_leds' must be positive")
	}
	if c.Strip.NumSegments < 0 || c.Strip.NumSegments > c.Strip.NumLEDs {
		return fmt.Errorf("config error: 'num_segments' must be between 0 and num_leds")
	}
	if b := c.BrightnessLevel(); b < 0 || b > 255 {
		return fmt.Errorf("config error: 'brightness' must be 0-255, got %d", b)
	}
	switch c.Strip.Driver {
	case DriverMemory, DriverLPD8806, DriverTerminal, DriverBLE:
	default:
		return fmt.Errorf("config error: unknown driver %q", c.Strip.Driver)
	}
	if _, err := led.ParseChannelOrder(c.Strip.ChannelOrder); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	for name, v := range map[string]string{
		"stop_timeout":       c.Strip.StopTimeout,
		"scan_timeout":       c.BLE.ScanTimeout,
		"connect_timeout":    c.BLE.ConnectTimeout,
		"heartbeat_interval": c.BLE.HeartbeatInterval,
		"retry_delay":        c.BLE.RetryDelay,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config error: '%s': %w", name, err)
		}
	}
	if c.BLE.RateLimit <= 0 {
		return fmt.Errorf("config error: 'command_rate_limit' must be positive")
	}
	if n := len(c.BLE.RgbOrder); n != 0 && n != 3 {
		return fmt.Errorf("config error: 'rgb_order' needs 3 values, got %d", n)
	}
	return nil
}

// BrightnessLevel is the configured strip brightness.
func (c *Config) BrightnessLevel() int {
	if c.Strip.Brightness == nil {
		return 127
	}
	return *c.Strip.Brightness
}

// BLEEnabled reports whether frames should be mirrored to a BLE controller.
func (c *Config) BLEEnabled() bool {
	return c.BLE.Enabled || c.Strip.Driver == DriverBLE
}

// BLEDurations returns the parsed BLE connection timings.
func (c *Config) BLEDurations() (scan, connect, heartbeat, retry time.Duration) {
	return mustDuration(c.BLE.ScanTimeout, 30*time.Second),
		mustDuration(c.BLE.ConnectTimeout, 7*time.Second),
		mustDuration(c.BLE.HeartbeatInterval, 60*time.Second),
		mustDuration(c.BLE.RetryDelay, 5*time.Second)
}

// StopTimeout is the parsed animation stop timeout.
func (c *Config) StopTimeout() time.Duration {
	return mustDuration(c.Strip.StopTimeout, 2*time.Second)
}

func mustDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
