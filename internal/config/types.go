// Package config provides configuration loading for netmgrd using Viper.
// Configuration is loaded from YAML files with automatic environment variable binding.
//
// Environment variables use the NETMGRD_ prefix and underscore-separated keys:
//   - NETMGRD_NETIO_LISTEN -> netio.listen
//   - NETMGRD_NETIO_WORKERS -> netio.workers
//   - NETMGRD_API_ENABLED -> api.enabled
package config

import (
	"os"
	"strconv"
	"strings"
)

// WorkersMode specifies how worker count is determined.
type WorkersMode int

const (
	// WorkersAuto automatically determines worker count based on available CPUs.
	WorkersAuto WorkersMode = iota
	// WorkersFixed uses a specific worker count.
	WorkersFixed
)

// WorkerSetting represents the netio.workers configuration.
type WorkerSetting struct {
	Mode  WorkersMode
	Value int
}

// String returns the string representation of the worker setting.
func (w WorkerSetting) String() string {
	if w.Mode == WorkersAuto {
		return "auto"
	}
	return strconv.Itoa(w.Value)
}

// NetioConfig contains settings for the UDP listener fan-out core.
type NetioConfig struct {
	Listen          string        `yaml:"listen"            mapstructure:"listen"`
	Workers         WorkerSetting `yaml:"-"                 mapstructure:"-"`
	WorkersRaw      string        `yaml:"workers"           mapstructure:"workers"`
	MaxUDPSize      int           `yaml:"max_udp_size"      mapstructure:"max_udp_size"`
	SendBufferBytes int           `yaml:"send_buffer_bytes" mapstructure:"send_buffer_bytes"`
	RecvBufferBytes int           `yaml:"recv_buffer_bytes" mapstructure:"recv_buffer_bytes"`
	CommandQueueLen int           `yaml:"command_queue_len" mapstructure:"command_queue_len"`
}

// OMPConfig contains settings for the Object Management Protocol message engine.
type OMPConfig struct {
	ReadTimeout      string `yaml:"read_timeout"      mapstructure:"read_timeout"`
	IdleTimeout      string `yaml:"idle_timeout"      mapstructure:"idle_timeout"`
	MaxMessageSize   int    `yaml:"max_message_size"  mapstructure:"max_message_size"`
	DefaultKeyID     string `yaml:"default_key_id"    mapstructure:"default_key_id"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"             json:"level"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"        json:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format" json:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"       json:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"      json:"extra_fields,omitempty"`
}

// APIConfig contains management API settings.
//
// Note: APIKey is intentionally treated as a secret and should not be returned by API endpoints.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// AuditConfig controls the admin-operation audit ledger.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"  mapstructure:"enabled"`
	DBPath  string `yaml:"db_path"  mapstructure:"db_path"`
}

// Config is the root configuration structure.
type Config struct {
	Netio   NetioConfig   `yaml:"netio"   mapstructure:"netio"`
	OMP     OMPConfig     `yaml:"omp"     mapstructure:"omp"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	API     APIConfig     `yaml:"api"     mapstructure:"api"`
	Audit   AuditConfig   `yaml:"audit"   mapstructure:"audit"`
}

// ResolveConfigPath determines the config file path from flag or environment.
func ResolveConfigPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv("NETMGRD_CONFIG")); v != "" {
		return v
	}
	return ""
}

// Load loads configuration from a YAML file with environment variable overrides.
// This is the main entry point for loading configuration.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (NETMGRD_*)
//  2. Config file values
//  3. Default values
func Load(path string) (*Config, error) {
	return loadFromSource(path)
}
