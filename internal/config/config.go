// Package config provides configuration loading and validation for netmgrd.
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command-line flags (not handled here, see cmd/netmgrd/main.go)
//  2. Environment variables (NETMGRD_* prefix)
//  3. YAML config file (if specified with --config)
//  4. Hardcoded defaults
//
// Environment variables are mapped from NETMGRD_CATEGORY_SETTING format,
// e.g., NETMGRD_NETIO_LISTEN maps to netio.listen in YAML.
//
// All configuration is validated during Load() to ensure correctness early.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// initConfig sets up the config loader with defaults, env binding, and config file.
func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	// Environment variable binding
	// Uses NETMGRD_ prefix: NETMGRD_NETIO_LISTEN -> netio.listen
	v.SetEnvPrefix("NETMGRD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// setDefaults configures all default values.
func setDefaults(v *viper.Viper) {
	// Netio defaults
	v.SetDefault("netio.listen", "0.0.0.0:9911")
	v.SetDefault("netio.workers", "auto")
	v.SetDefault("netio.max_udp_size", 0)
	v.SetDefault("netio.send_buffer_bytes", 16*1024*1024)
	v.SetDefault("netio.recv_buffer_bytes", 16*1024*1024)
	v.SetDefault("netio.command_queue_len", 256)

	// OMP defaults
	v.SetDefault("omp.read_timeout", "10s")
	v.SetDefault("omp.idle_timeout", "5m")
	v.SetDefault("omp.max_message_size", 65535)
	v.SetDefault("omp.default_key_id", "")

	// Logging defaults
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})

	// Management API defaults. Default to disabled and bound to
	// localhost for safety.
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.api_key", "")

	// Audit ledger defaults
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.db_path", "netmgrd-audit.db")
}

// loadFromSource loads configuration from file and environment.
func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	loadNetioConfig(v, cfg)
	loadOMPConfig(v, cfg)
	loadLoggingConfig(v, cfg)
	loadAPIConfig(v, cfg)
	loadAuditConfig(v, cfg)

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadNetioConfig(v *viper.Viper, cfg *Config) {
	cfg.Netio.Listen = v.GetString("netio.listen")
	cfg.Netio.MaxUDPSize = v.GetInt("netio.max_udp_size")
	cfg.Netio.SendBufferBytes = v.GetInt("netio.send_buffer_bytes")
	cfg.Netio.RecvBufferBytes = v.GetInt("netio.recv_buffer_bytes")
	cfg.Netio.CommandQueueLen = v.GetInt("netio.command_queue_len")
	cfg.Netio.WorkersRaw = v.GetString("netio.workers")
	cfg.Netio.Workers = parseWorkers(cfg.Netio.WorkersRaw)
}

func loadOMPConfig(v *viper.Viper, cfg *Config) {
	cfg.OMP.ReadTimeout = v.GetString("omp.read_timeout")
	cfg.OMP.IdleTimeout = v.GetString("omp.idle_timeout")
	cfg.OMP.MaxMessageSize = v.GetInt("omp.max_message_size")
	cfg.OMP.DefaultKeyID = v.GetString("omp.default_key_id")
}

func loadLoggingConfig(v *viper.Viper, cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	cfg.Logging.Structured = v.GetBool("logging.structured")
	cfg.Logging.StructuredFormat = v.GetString("logging.structured_format")
	cfg.Logging.IncludePID = v.GetBool("logging.include_pid")
	cfg.Logging.ExtraFields = v.GetStringMapString("logging.extra_fields")
}

func loadAPIConfig(v *viper.Viper, cfg *Config) {
	cfg.API.Enabled = v.GetBool("api.enabled")
	cfg.API.Host = v.GetString("api.host")
	cfg.API.Port = v.GetInt("api.port")
	cfg.API.APIKey = v.GetString("api.api_key")
}

func loadAuditConfig(v *viper.Viper, cfg *Config) {
	cfg.Audit.Enabled = v.GetBool("audit.enabled")
	cfg.Audit.DBPath = v.GetString("audit.db_path")
}

// parseWorkers converts the workers string to WorkerSetting.
func parseWorkers(raw string) WorkerSetting {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" || raw == "auto" {
		return WorkerSetting{Mode: WorkersAuto}
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return WorkerSetting{Mode: WorkersFixed, Value: n}
	}
	return WorkerSetting{Mode: WorkersAuto}
}

// normalizeConfig validates and normalizes the configuration.
func normalizeConfig(cfg *Config) error {
	if _, _, err := splitHostPort(cfg.Netio.Listen); err != nil {
		return fmt.Errorf("netio.listen: %w", err)
	}

	if cfg.Netio.MaxUDPSize < 0 {
		return errors.New("netio.max_udp_size must be >= 0")
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
	}

	return nil
}

// splitHostPort validates a host:port address without requiring the host
// to resolve (the netio listener binds lazily per worker).
func splitHostPort(addr string) (string, string, error) {
	host, port, err := splitHostPortRaw(addr)
	if err != nil {
		return "", "", err
	}
	if port == "" {
		return "", "", errors.New("missing port")
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return "", "", errors.New("port must be 1..65535")
	}
	return host, port, nil
}

func splitHostPortRaw(addr string) (string, string, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", "", errors.New("address must be host:port")
	}
	return addr[:idx], addr[idx+1:], nil
}
