// Package config loads server and client configuration from flags,
// environment variables, and an optional YAML file, layered in that order
// of precedence.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// LoggingConfig controls logging behavior, shared by server and client.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig is mrdserver's configuration: host, port, verbose, logfile,
// savedata, savedataFolder.
type ServerConfig struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	Host    string `mapstructure:"host" validate:"required" yaml:"host"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
	LogFile string `mapstructure:"logfile" yaml:"logfile,omitempty"`

	SaveData       bool   `mapstructure:"savedata" yaml:"savedata"`
	SaveDataFolder string `mapstructure:"savedata_folder" yaml:"savedata_folder,omitempty"`

	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// ClientConfig is mrdclient's configuration: filename, address, port,
// outfile, in_group, out_group, config, config_local, verbose, logfile.
type ClientConfig struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Filename and OutFile are validated by the caller after CLI flag
	// overrides are applied (unlike the rest of this struct, they have no
	// sensible default), not by LoadClient itself.
	Filename string `mapstructure:"filename" yaml:"filename"`
	Address  string `mapstructure:"address" validate:"required" yaml:"address"`
	Port     int    `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`
	OutFile  string `mapstructure:"outfile" yaml:"outfile"`

	InGroup  string `mapstructure:"in_group" yaml:"in_group,omitempty"`
	OutGroup string `mapstructure:"out_group" yaml:"out_group,omitempty"`

	ConfigSelector string `mapstructure:"config" yaml:"config,omitempty"`
	ConfigLocal    string `mapstructure:"config_local" yaml:"config_local,omitempty"`

	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
	LogFile string `mapstructure:"logfile" yaml:"logfile,omitempty"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"required,gt=0" yaml:"connect_timeout"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
}

// LoadServer loads ServerConfig from configPath (optional), environment
// variables prefixed MRD_, and defaults, in that precedence order below
// explicit flag overrides (applied by the caller after Load returns).
func LoadServer(configPath string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := load(configPath, "MRD", cfg); err != nil {
		return nil, err
	}
	if err := validateServer(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient loads ClientConfig the same way as LoadServer.
func LoadClient(configPath string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := load(configPath, "MRD", cfg); err != nil {
		return nil, err
	}
	if err := validateClient(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateServer(cfg *ServerConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

func validateClient(cfg *ClientConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

func load(configPath, envPrefix string, dst any) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(dst, viper.DecodeHook(durationDecodeHook())); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}
	return nil
}

// durationDecodeHook lets config files and environment variables spell
// durations as "30s", "5m", "1h" instead of raw nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// DefaultServerConfig returns mrdserver's defaults (host 0.0.0.0, port
// 9002).
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Logging:         LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		Host:            "0.0.0.0",
		Port:            9002,
		SaveDataFolder:  "savedata",
		Metrics:         MetricsConfig{Enabled: false, Port: 9090},
		Telemetry:       TelemetryConfig{Enabled: false, Endpoint: "localhost:4317", Insecure: true, SampleRate: 1.0},
		ShutdownTimeout: 30 * time.Second,
	}
}

// DefaultClientConfig returns mrdclient's defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Logging:        LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		Address:        "127.0.0.1",
		Port:           9002,
		ConfigSelector: "simplefft",
		ConnectTimeout: 10 * time.Second,
	}
}
