package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the device configuration. Values come from an optional YAML
// file; flags given on the command line override it.
type Config struct {
	ConfigFile  string `yaml:"-"`
	DeviceID    string `yaml:"device_id"`
	Interactive bool   `yaml:"interactive"`

	Storage StorageConfig `yaml:"storage"`
	BLE     BLEConfig     `yaml:"ble"`
	Log     LogConfig     `yaml:"log"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Restore RestoreConfig `yaml:"restore"`
}

// StorageConfig configures the settings file.
type StorageConfig struct {
	Path       string `yaml:"path"`
	MaxRecords int    `yaml:"max_records"`
}

// BLEConfig configures the GATT server.
type BLEConfig struct {
	Enabled   bool   `yaml:"enabled"`
	LocalName string `yaml:"local_name"`
}

// LogConfig configures operational and protocol logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	ProtocolLog string `yaml:"protocol_log"`
}

// MQTTConfig configures the change publisher. An empty broker disables it.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

// RestoreConfig configures the boot time restore pass.
type RestoreConfig struct {
	Strict bool `yaml:"strict"`
}

// DefaultConfig returns the configuration used when nothing is given.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Path:       "otsetup/settings.cbor",
			MaxRecords: 64,
		},
		BLE: BLEConfig{
			Enabled:   true,
			LocalName: "OT Setup",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. Unknown keys are
// rejected.
func LoadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// parseFlags builds the configuration from defaults, the config file named
// by -config and the remaining flags, in that order of precedence.
func parseFlags(args []string) (Config, error) {
	var fromFlags Config
	fs := flag.NewFlagSet("otsetup-device", flag.ContinueOnError)
	fs.StringVar(&fromFlags.ConfigFile, "config", "", "Configuration file path")
	fs.StringVar(&fromFlags.DeviceID, "device-id", "", "Device ID (defaults to a machine derived ID)")
	fs.BoolVar(&fromFlags.Interactive, "interactive", false, "Run the interactive shell")
	fs.StringVar(&fromFlags.Storage.Path, "storage", "", "Settings file path")
	fs.IntVar(&fromFlags.Storage.MaxRecords, "max-records", 0, "Records before the settings file is compacted")
	fs.BoolVar(&fromFlags.BLE.Enabled, "ble", true, "Enable the BLE GATT server")
	fs.StringVar(&fromFlags.BLE.LocalName, "name", "", "Advertised BLE local name")
	fs.StringVar(&fromFlags.Log.Level, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&fromFlags.Log.ProtocolLog, "protocol-log", "", "Write GATT access events to this file")
	fs.StringVar(&fromFlags.MQTT.Broker, "mqtt", "", "MQTT broker URL for change notifications")
	fs.StringVar(&fromFlags.MQTT.Topic, "mqtt-topic", "", "MQTT topic for change notifications")
	fs.BoolVar(&fromFlags.Restore.Strict, "strict-restore", false, "Fail boot on unknown persisted keys")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if fromFlags.ConfigFile != "" {
		if err := LoadConfigFile(&cfg, fromFlags.ConfigFile); err != nil {
			return Config{}, err
		}
		cfg.ConfigFile = fromFlags.ConfigFile
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device-id":
			cfg.DeviceID = fromFlags.DeviceID
		case "interactive":
			cfg.Interactive = fromFlags.Interactive
		case "storage":
			cfg.Storage.Path = fromFlags.Storage.Path
		case "max-records":
			cfg.Storage.MaxRecords = fromFlags.Storage.MaxRecords
		case "ble":
			cfg.BLE.Enabled = fromFlags.BLE.Enabled
		case "name":
			cfg.BLE.LocalName = fromFlags.BLE.LocalName
		case "log-level":
			cfg.Log.Level = fromFlags.Log.Level
		case "protocol-log":
			cfg.Log.ProtocolLog = fromFlags.Log.ProtocolLog
		case "mqtt":
			cfg.MQTT.Broker = fromFlags.MQTT.Broker
		case "mqtt-topic":
			cfg.MQTT.Topic = fromFlags.MQTT.Topic
		case "strict-restore":
			cfg.Restore.Strict = fromFlags.Restore.Strict
		}
	})

	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the device cannot run with.
func (c Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.New("storage path must not be empty")
	}
	if c.Storage.MaxRecords < 0 {
		return fmt.Errorf("max records must not be negative, got %d", c.Storage.MaxRecords)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
}
