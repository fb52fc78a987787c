package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerSettingString(t *testing.T) {
	tests := []struct {
		name string
		ws   WorkerSetting
		want string
	}{
		{"auto mode", WorkerSetting{Mode: WorkersAuto}, "auto"},
		{"fixed mode 4", WorkerSetting{Mode: WorkersFixed, Value: 4}, "4"},
		{"fixed mode 0", WorkerSetting{Mode: WorkersFixed, Value: 0}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ws.String()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		envValue string
		want     string
	}{
		{"flag takes precedence", "/path/from/flag", "/path/from/env", "/path/from/flag"},
		{"env when no flag", "", "/path/from/env", "/path/from/env"},
		{"empty when neither", "", "", ""},
		{"whitespace flag", "  ", "/path/from/env", "/path/from/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NETMGRD_CONFIG", tt.envValue)
			got := ResolveConfigPath(tt.flag)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9911", cfg.Netio.Listen)
	assert.Equal(t, WorkersAuto, cfg.Netio.Workers.Mode)
	assert.Equal(t, 0, cfg.Netio.MaxUDPSize)
	assert.False(t, cfg.API.Enabled)
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	content := `
netio:
  listen: "127.0.0.1:9911"
  workers: "2"
  max_udp_size: 512

omp:
  read_timeout: "5s"
  max_message_size: 4096

logging:
  level: "DEBUG"
  structured: true
  structured_format: "keyvalue"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9911", cfg.Netio.Listen)
	assert.Equal(t, WorkersFixed, cfg.Netio.Workers.Mode)
	assert.Equal(t, 2, cfg.Netio.Workers.Value)
	assert.Equal(t, 512, cfg.Netio.MaxUDPSize)
	assert.Equal(t, "5s", cfg.OMP.ReadTimeout)
	assert.Equal(t, 4096, cfg.OMP.MaxMessageSize)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Structured)
	assert.Equal(t, "keyvalue", cfg.Logging.StructuredFormat)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("netio:\n  max_udp_size: [invalid"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeInvalidListenAddr(t *testing.T) {
	content := `
netio:
  listen: "no-port-here"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeInvalidWorkers(t *testing.T) {
	content := `
netio:
  workers: "invalid"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// With Viper, invalid workers gracefully defaults to "auto"
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, WorkersAuto, cfg.Netio.Workers.Mode)
}

func TestNormalizeInvalidAPIPort(t *testing.T) {
	content := `
api:
  enabled: true
  port: 0
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NETMGRD_NETIO_LISTEN", "192.168.1.1:9911")
	t.Setenv("NETMGRD_NETIO_WORKERS", "8")
	t.Setenv("NETMGRD_NETIO_MAX_UDP_SIZE", "1024")
	t.Setenv("NETMGRD_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.1:9911", cfg.Netio.Listen)
	assert.Equal(t, WorkersFixed, cfg.Netio.Workers.Mode)
	assert.Equal(t, 8, cfg.Netio.Workers.Value)
	assert.Equal(t, 1024, cfg.Netio.MaxUDPSize)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}
