package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"WAVESPEED_API_KEY", "PORT", "KAFKA_BROKERS", "RELAY_MAX_ATTEMPTS", "RELAY_POLL_INTERVAL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	v, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Server.Timeout)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 100, cfg.Relay.MaxAttempts)
	assert.Equal(t, 4*time.Second, cfg.Relay.PollInterval)
	assert.Equal(t, 5, cfg.Relay.MaxConsecutiveErrors)
	assert.Empty(t, cfg.Wavespeed.APIKey)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "generation-jobs", cfg.Kafka.Topic)
}

func TestLoadConfigFromFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	yaml := `
server:
  port: "8081"
  timeout: 2m
relay:
  max_attempts: 10
  poll_interval: 1s
  request_timeout: 30s
  deadline: 90s
kafka:
  brokers: ["kafka:9092"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	v, err := LoadConfig(dir)
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Relay.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Relay.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.Relay.Deadline)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WAVESPEED_API_KEY", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("RELAY_MAX_ATTEMPTS", "50")

	v, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Wavespeed.APIKey)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Relay.MaxAttempts)
}

func TestLoadConfigBrokenFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [port"), 0o644))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{Port: "3000", Timeout: 10 * time.Minute},
		Relay: RelayConfig{
			MaxAttempts:    100,
			PollInterval:   4 * time.Second,
			RequestTimeout: 2 * time.Minute,
			Deadline:       9*time.Minute + 30*time.Second,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "server.port"},
		{name: "no attempts", mutate: func(c *Config) { c.Relay.MaxAttempts = 0 }, wantErr: "max_attempts"},
		{name: "negative interval", mutate: func(c *Config) { c.Relay.PollInterval = -time.Second }, wantErr: "poll_interval"},
		{name: "no request timeout", mutate: func(c *Config) { c.Relay.RequestTimeout = 0 }, wantErr: "request_timeout"},
		{
			name:    "poll ceiling outlives deadline",
			mutate:  func(c *Config) { c.Relay.Deadline = 8 * time.Minute },
			wantErr: "poll ceiling",
		},
		{
			name:    "deadline outlives server timeout",
			mutate:  func(c *Config) { c.Server.Timeout = 9 * time.Minute },
			wantErr: "server.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPollCeiling(t *testing.T) {
	r := RelayConfig{MaxAttempts: 100, PollInterval: 4 * time.Second, RequestTimeout: 2 * time.Minute}
	assert.Equal(t, 8*time.Minute+40*time.Second, r.PollCeiling())
}

func TestGetEnv(t *testing.T) {
	t.Setenv("GENRELAY_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("GENRELAY_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("GENRELAY_TEST_MISSING", "fallback"))
}
