package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	return cfg
}

func TestLoad(t *testing.T) {
	// Test loading default config
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify defaults
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 1500*time.Millisecond, cfg.Season.CacheTTL)
	assert.Equal(t, []BoardConfig{{Name: "leaderboard", MaxNum: 100}}, cfg.EffectiveBoards())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RANKKIT_SERVER_ADDR", ":7070")
	t.Setenv("RANKKIT_STORAGE_ADAPTER", "redis")
	t.Setenv("RANKKIT_REDIS_ADDR", "redis:6380")
	t.Setenv("RANKKIT_BOARD_NAME", "arena")
	t.Setenv("RANKKIT_BOARD_MAX_NUM", "25")
	t.Setenv("RANKKIT_BOARD_SEASONAL", "true")
	t.Setenv("RANKKIT_SEASON_PROVIDER", "fixed")
	t.Setenv("RANKKIT_SEASON_FIXED", "2024-q1")
	t.Setenv("RANKKIT_SEASON_CACHE_TTL", "3s")
	t.Setenv("RANKKIT_SECURITY_API_KEYS", "k1, k2")
	t.Setenv("RANKKIT_LOG_ATTRIBUTES", "service=rankkit,region=eu")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "redis", cfg.Storage.Adapter)
	assert.Equal(t, "redis:6380", cfg.Storage.Redis.Addr)
	assert.Equal(t, BoardConfig{Name: "arena", MaxNum: 25, Seasonal: true}, cfg.DefaultBoard)
	assert.Equal(t, "2024-q1", cfg.Season.Fixed)
	assert.Equal(t, 3*time.Second, cfg.Season.CacheTTL)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Security.APIKeys)
	assert.Equal(t, map[string]string{"service": "rankkit", "region": "eu"}, cfg.Logging.Attributes)
}

func TestLoadFromEnvInvalidValue(t *testing.T) {
	t.Setenv("RANKKIT_BOARD_MAX_NUM", "lots")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFromEnvSeasonEpoch(t *testing.T) {
	t.Setenv("RANKKIT_SEASON_PROVIDER", "periodic")
	t.Setenv("RANKKIT_SEASON_EPOCH", "2024-01-01T00:00:00Z")
	t.Setenv("RANKKIT_SEASON_PERIOD", "24h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Season.Epoch.UTC())
	assert.Equal(t, 24*time.Hour, cfg.Season.Period)

	t.Setenv("RANKKIT_SEASON_EPOCH", "yesterday")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	// Create a temporary config file
	configContent := `{
		"environment": "testing",
		"server": {
			"address": ":9090"
		},
		"storage": {
			"adapter": "memory"
		},
		"season": {
			"provider": "periodic",
			"epoch": "2024-01-01T00:00:00Z",
			"period": 604800000000000,
			"prefix": "week-"
		},
		"boards": [
			{"name": "global", "max_num": 50},
			{"name": "weekly", "max_num": 10, "seasonal": true, "archive_key": "history"}
		]
	}`

	tmpFile, err := os.CreateTemp("", "config_test_*.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	tmpFile.Close()

	// Load config from file
	cfg, err := LoadFromFile(tmpFile.Name())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify loaded values
	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.Equal(t, "periodic", cfg.Season.Provider)
	assert.Equal(t, 7*24*time.Hour, cfg.Season.Period)
	boards := cfg.EffectiveBoards()
	require.Len(t, boards, 2)
	assert.Equal(t, "history", boards[1].ArchiveKey)
	assert.True(t, boards[1].Seasonal)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "invalid environment", mutate: func(c *Config) { c.Environment = "" }, expectError: "environment"},
		{name: "invalid server timeout", mutate: func(c *Config) { c.Server.ReadTimeout = 0 }, expectError: "read_timeout"},
		{name: "unknown adapter", mutate: func(c *Config) { c.Storage.Adapter = "sql" }, expectError: "adapter"},
		{name: "empty file path", mutate: func(c *Config) { c.Storage.Adapter = "file"; c.Storage.File.Path = "" }, expectError: "path"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, expectError: "level"},
		{name: "rate limit without rpm", mutate: func(c *Config) {
			c.Security.EnableRateLimit = true
			c.Security.RateLimit.RequestsPerMinute = 0
		}, expectError: "requests_per_minute"},
		{name: "fixed season without id", mutate: func(c *Config) { c.Season.Provider = "fixed" }, expectError: "fixed season"},
		{name: "periodic without epoch", mutate: func(c *Config) { c.Season.Provider = "periodic" }, expectError: "epoch"},
		{name: "unknown provider", mutate: func(c *Config) { c.Season.Provider = "lunar" }, expectError: "provider"},
		{name: "seasonal board without provider", mutate: func(c *Config) { c.DefaultBoard.Seasonal = true }, expectError: "season provider"},
		{name: "zero max num", mutate: func(c *Config) { c.DefaultBoard.MaxNum = 0 }, expectError: "max_num"},
		{name: "board name with colon", mutate: func(c *Config) { c.DefaultBoard.Name = "a:b" }, expectError: "name"},
		{name: "duplicate boards", mutate: func(c *Config) {
			c.Boards = []BoardConfig{{Name: "a", MaxNum: 1}, {Name: "a", MaxNum: 2}}
		}, expectError: "duplicate"},
		{name: "bad webhook url", mutate: func(c *Config) { c.Webhooks.Endpoints = []string{"ftp://x"} }, expectError: "endpoints[0]"},
		{name: "unknown webhook event", mutate: func(c *Config) { c.Webhooks.Events = []string{"points_added"} }, expectError: "unknown event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_StringRedactsSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Redis.Password = "hunter2"
	cfg.Security.APIKeys = []string{"secret-key"}

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "secret-key")
	assert.True(t, strings.Contains(out, "[REDACTED]"))
	assert.Equal(t, "hunter2", cfg.Storage.Redis.Password)
	assert.Equal(t, []string{"secret-key"}, cfg.Security.APIKeys)
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name         string
		profileName  string
		expectConfig bool
		environment  Environment
	}{
		{"development", "development", true, EnvDevelopment},
		{"testing", "testing", true, EnvTesting},
		{"staging", "staging", true, EnvStaging},
		{"production", "production", true, EnvProduction},
		{"unknown", "unknown", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadProfile(tt.profileName)
			if tt.expectConfig {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				assert.Equal(t, tt.environment, cfg.Environment)
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			}
		})
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		expectError bool
		setup       func() string // returns path to cleanup
	}{
		{
			name:        "valid json file",
			path:        "config_test.json",
			expectError: false,
			setup: func() string {
				tmpFile, _ := os.CreateTemp("", "config_test_*.json")
				tmpFile.WriteString("{}")
				tmpFile.Close()
				return tmpFile.Name()
			},
		},
		{
			name:        "empty path",
			path:        "",
			expectError: true,
			setup:       func() string { return "" },
		},
		{
			name:        "path traversal",
			path:        "../../../etc/passwd",
			expectError: true,
			setup:       func() string { return "" },
		},
		{
			name:        "non-json file",
			path:        "config.txt",
			expectError: true,
			setup: func() string {
				tmpFile, _ := os.CreateTemp("", "config_test_*.txt")
				tmpFile.WriteString("{}")
				tmpFile.Close()
				return tmpFile.Name()
			},
		},
		{
			name:        "nonexistent file",
			path:        "nonexistent.json",
			expectError: true,
			setup:       func() string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanupPath := tt.setup()
			if cleanupPath != "" {
				defer os.Remove(cleanupPath)
				if tt.path == "config_test.json" || tt.path == "config.txt" {
					tt.path = cleanupPath
				}
			}

			err := validateConfigPath(tt.path)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
