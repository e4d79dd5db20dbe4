package server

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/inventlabs/invent-dash/internal/ems"
)

// Config holds all dashboard configuration.
type Config struct {
	mu sync.RWMutex

	// Telemetry source
	Source SourceConfig `yaml:"source" json:"source"`

	// Display preferences
	Display DisplayConfig `yaml:"display" json:"display"`

	// Logging
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// MQTT publishing
	MQTT MQTTConfig `yaml:"mqtt" json:"mqtt"`

	// Server
	Server ServerConfig `yaml:"server" json:"server"`

	path string // file path for save/load
}

// SourceConfig selects where telemetry comes from.
type SourceConfig struct {
	Type   string           `yaml:"type" json:"type"` // "uart", "can" or "demo"
	Serial ems.SerialConfig `yaml:"serial" json:"serial"`
	CAN    ems.CANConfig    `yaml:"can" json:"can"`
	PollHz int              `yaml:"poll_hz" json:"pollHz"` // snapshot broadcast rate
}

type DisplayConfig struct {
	Units      UnitsConfig     `yaml:"units" json:"units"`
	Thresholds ThresholdConfig `yaml:"thresholds" json:"thresholds"`
	Layout     string          `yaml:"layout" json:"layout"` // "race", "street", "minimal"
}

type UnitsConfig struct {
	Temperature string `yaml:"temperature" json:"temperature"` // "C" or "F"
	Pressure    string `yaml:"pressure" json:"pressure"`       // "kpa", "psi", "bar"
	Speed       string `yaml:"speed" json:"speed"`             // "kph" or "mph"
	AFR         string `yaml:"afr" json:"afr"`                 // "afr" or "lambda"
}

type ThresholdConfig struct {
	RPMWarn        uint16  `yaml:"rpm_warn" json:"rpmWarn"`
	RPMDanger      uint16  `yaml:"rpm_danger" json:"rpmDanger"`
	RPMMax         uint16  `yaml:"rpm_max" json:"rpmMax"`
	CLTWarn        float64 `yaml:"clt_warn" json:"cltWarn"`     // °C
	CLTDanger      float64 `yaml:"clt_danger" json:"cltDanger"` // °C
	IATWarn        float64 `yaml:"iat_warn" json:"iatWarn"`     // °C
	LambdaLeanWarn float64 `yaml:"lambda_lean_warn" json:"lambdaLeanWarn"`
	LambdaRichWarn float64 `yaml:"lambda_rich_warn" json:"lambdaRichWarn"`
	OilPWarnBar    float64 `yaml:"oil_p_warn_bar" json:"oilPWarnBar"`
	BattLow        float64 `yaml:"batt_low" json:"battLow"`
	BattHigh       float64 `yaml:"batt_high" json:"battHigh"`
	KnockWarnV     float64 `yaml:"knock_warn_v" json:"knockWarnV"`
	EGTWarn        float64 `yaml:"egt_warn" json:"egtWarn"` // °C
}

type LoggingConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Path     string `yaml:"path" json:"path"`
	Interval int    `yaml:"interval_ms" json:"intervalMs"` // ms between log entries
}

// MQTTConfig configures the optional telemetry publisher.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Broker   string `yaml:"broker" json:"broker"` // e.g. tcp://localhost:1883
	ClientID string `yaml:"client_id" json:"clientId"`
	Topic    string `yaml:"topic" json:"topic"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Interval int    `yaml:"interval_ms" json:"intervalMs"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listenAddr"`
	Kiosk      bool   `yaml:"kiosk" json:"kiosk"` // Auto-launch Chromium
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Type: "demo",
			Serial: ems.SerialConfig{
				PortPath: "/dev/ttyECU",
				BaudRate: ems.BaudRate,
			},
			CAN: ems.CANConfig{
				Interface: "can0",
			},
			PollHz: 20,
		},
		Display: DisplayConfig{
			Units: UnitsConfig{
				Temperature: "C",
				Pressure:    "bar",
				Speed:       "kph",
				AFR:         "lambda",
			},
			Thresholds: ThresholdConfig{
				RPMWarn:        6000,
				RPMDanger:      7000,
				RPMMax:         8000,
				CLTWarn:        95,
				CLTDanger:      105,
				IATWarn:        60,
				LambdaLeanWarn: 1.05,
				LambdaRichWarn: 0.75,
				OilPWarnBar:    1.0,
				BattLow:        12.0,
				BattHigh:       15.5,
				KnockWarnV:     2.5,
				EGTWarn:        900,
			},
			Layout: "race",
		},
		Logging: LoggingConfig{
			Enabled:  false,
			Path:     "/var/log/invent-dash",
			Interval: 100,
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Broker:   "tcp://localhost:1883",
			ClientID: "invent-dash",
			Topic:    "vehicle/ems",
			Interval: 1000,
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
			Kiosk:      false,
		},
	}
}

// LoadConfig reads config from a YAML file, then applies .env and environment
// variable overrides. Falls back to defaults if YAML not found.
func LoadConfig(path string) *Config {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[config] no config at %s, using defaults", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("[config] error parsing %s: %v, using defaults", path, err)
		cfg = DefaultConfig()
		cfg.path = path
	} else {
		log.Printf("[config] loaded from %s", path)
	}

	// Load .env file from the same directory as the config, or from CWD
	envPaths := []string{
		filepath.Join(filepath.Dir(path), ".env"),
		".env",
	}
	for _, ep := range envPaths {
		loadEnvFile(ep)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()
	return cfg
}

// loadEnvFile reads a simple KEY=VALUE .env file and sets os env vars.
func loadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	log.Printf("[config] loading .env from %s", path)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		// Strip surrounding quotes
		val = strings.Trim(val, `"'`)
		// Only set if not already set in real env (real env takes precedence)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

// applyEnvOverrides reads environment variables and overrides config values.
// Supported: EMS_SOURCE, EMS_PORT, EMS_BAUD, EMS_CAN_IF, LISTEN_ADDR,
// TEMP_UNIT, PRESSURE_UNIT, SPEED_UNIT, LOG_ENABLED, LOG_PATH,
// LOG_INTERVAL_MS, MQTT_ENABLED, MQTT_BROKER, MQTT_TOPIC
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EMS_SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := os.Getenv("EMS_PORT"); v != "" {
		c.Source.Serial.PortPath = v
	}
	if v := os.Getenv("EMS_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Source.Serial.BaudRate = n
		}
	}
	if v := os.Getenv("EMS_CAN_IF"); v != "" {
		c.Source.CAN.Interface = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("TEMP_UNIT"); v != "" {
		c.Display.Units.Temperature = v
	}
	if v := os.Getenv("PRESSURE_UNIT"); v != "" {
		c.Display.Units.Pressure = v
	}
	if v := os.Getenv("SPEED_UNIT"); v != "" {
		c.Display.Units.Speed = v
	}
	// Logging
	if v := os.Getenv("LOG_ENABLED"); v != "" {
		c.Logging.Enabled = v == "1" || v == "true" || v == "yes"
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		c.Logging.Path = v
	}
	if v := os.Getenv("LOG_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Logging.Interval = n
		}
	}
	// MQTT
	if v := os.Getenv("MQTT_ENABLED"); v != "" {
		c.MQTT.Enabled = v == "1" || v == "true" || v == "yes"
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("MQTT_TOPIC"); v != "" {
		c.MQTT.Topic = v
	}
}

// Save writes the config to its YAML file.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.path == "" {
		c.path = "/etc/invent-dash/config.yaml"
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

// ToJSON serializes config for the API.
func (c *Config) ToJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(c)
}

// UpdateFromJSON applies a partial JSON config update by deep-merging
// incoming fields into the existing config. Fields not present in the
// incoming JSON are preserved (e.g. port paths, baud rates, logging).
func (c *Config) UpdateFromJSON(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Marshal current config to a generic map
	currentBytes, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal current config: %w", err)
	}
	var base map[string]interface{}
	if err := json.Unmarshal(currentBytes, &base); err != nil {
		return fmt.Errorf("unmarshal current config: %w", err)
	}

	// Unmarshal incoming partial update to a map
	var patch map[string]interface{}
	if err := json.Unmarshal(data, &patch); err != nil {
		return fmt.Errorf("unmarshal patch: %w", err)
	}

	// Deep merge patch into base
	deepMerge(base, patch)

	// Marshal merged result and unmarshal back into the config struct
	merged, err := json.Marshal(base)
	if err != nil {
		return fmt.Errorf("marshal merged config: %w", err)
	}
	return json.Unmarshal(merged, c)
}

// deepMerge recursively merges src into dst. For nested maps, values are
// merged rather than replaced. For all other types, src overwrites dst.
func deepMerge(dst, src map[string]interface{}) {
	for key, srcVal := range src {
		if srcMap, ok := srcVal.(map[string]interface{}); ok {
			if dstMap, ok := dst[key].(map[string]interface{}); ok {
				deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[key] = srcVal
	}
}
