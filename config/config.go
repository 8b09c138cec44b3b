package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rankkit/adapters/redis"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration
type Config struct {
	// Environment and profile settings
	Environment Environment `json:"environment" env:"RANKKIT_ENV"`
	Profile     string      `json:"profile" env:"RANKKIT_PROFILE"`

	// Server configuration
	Server ServerConfig `json:"server"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Metrics and monitoring
	Metrics MetricsConfig `json:"metrics"`

	// Security configuration
	Security SecurityConfig `json:"security"`

	// Season provider and rotation
	Season SeasonConfig `json:"season"`

	// Webhook delivery of board events
	Webhooks WebhookConfig `json:"webhooks"`

	// DefaultBoard is used when Boards is empty.
	DefaultBoard BoardConfig   `json:"default_board"`
	Boards       []BoardConfig `json:"boards,omitempty"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `json:"address" env:"RANKKIT_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" env:"RANKKIT_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" env:"RANKKIT_SERVER_CORS_ORIGIN"`
	ReadTimeout       time.Duration `json:"read_timeout" env:"RANKKIT_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" env:"RANKKIT_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" env:"RANKKIT_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" env:"RANKKIT_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" env:"RANKKIT_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig holds storage adapter configuration
type StorageConfig struct {
	Adapter string       `json:"adapter" env:"RANKKIT_STORAGE_ADAPTER"`
	Redis   redis.Config `json:"redis,omitempty"`
	File    FileConfig   `json:"file,omitempty"`
}

// FileConfig holds JSON file storage configuration
type FileConfig struct {
	Path string `json:"path" env:"RANKKIT_STORAGE_FILE_PATH"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" env:"RANKKIT_LOG_LEVEL"`
	Format     string            `json:"format" env:"RANKKIT_LOG_FORMAT"`
	Output     string            `json:"output" env:"RANKKIT_LOG_OUTPUT"`
	Attributes map[string]string `json:"attributes,omitempty" env:"RANKKIT_LOG_ATTRIBUTES"`
}

// MetricsConfig holds metrics and monitoring configuration
type MetricsConfig struct {
	Enabled       bool   `json:"enabled" env:"RANKKIT_METRICS_ENABLED"`
	Address       string `json:"address" env:"RANKKIT_METRICS_ADDR"`
	Path          string `json:"path" env:"RANKKIT_METRICS_PATH"`
	CollectSystem bool   `json:"collect_system" env:"RANKKIT_METRICS_COLLECT_SYSTEM"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" env:"RANKKIT_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty"`
	APIKeys         []string        `json:"api_keys,omitempty" env:"RANKKIT_SECURITY_API_KEYS"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute" env:"RANKKIT_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int           `json:"burst_size" env:"RANKKIT_SECURITY_RATE_LIMIT_BURST"`
	CleanupInterval   time.Duration `json:"cleanup_interval" env:"RANKKIT_SECURITY_RATE_LIMIT_CLEANUP"`
}

// SeasonConfig selects the season provider used by seasonal boards.
type SeasonConfig struct {
	// Provider is one of none, fixed, periodic.
	Provider    string        `json:"provider" env:"RANKKIT_SEASON_PROVIDER"`
	Fixed       string        `json:"fixed" env:"RANKKIT_SEASON_FIXED"`
	Epoch       time.Time     `json:"epoch" env:"RANKKIT_SEASON_EPOCH"`
	Period      time.Duration `json:"period" env:"RANKKIT_SEASON_PERIOD"`
	Prefix      string        `json:"prefix" env:"RANKKIT_SEASON_PREFIX"`
	CacheTTL    time.Duration `json:"cache_ttl" env:"RANKKIT_SEASON_CACHE_TTL"`
	RotateCheck time.Duration `json:"rotate_check" env:"RANKKIT_SEASON_ROTATE_CHECK"`
}

// WebhookConfig lists endpoints that receive board events.
type WebhookConfig struct {
	Endpoints []string      `json:"endpoints,omitempty" env:"RANKKIT_WEBHOOK_ENDPOINTS"`
	Events    []string      `json:"events,omitempty" env:"RANKKIT_WEBHOOK_EVENTS"`
	Timeout   time.Duration `json:"timeout" env:"RANKKIT_WEBHOOK_TIMEOUT"`
}

// BoardConfig describes one leaderboard.
type BoardConfig struct {
	Name       string `json:"name" env:"RANKKIT_BOARD_NAME"`
	RankKey    string `json:"rank_key,omitempty" env:"RANKKIT_BOARD_RANK_KEY"`
	DataKey    string `json:"data_key,omitempty" env:"RANKKIT_BOARD_DATA_KEY"`
	ArchiveKey string `json:"archive_key,omitempty" env:"RANKKIT_BOARD_ARCHIVE_KEY"`
	MaxNum     int64  `json:"max_num" env:"RANKKIT_BOARD_MAX_NUM"`
	Seasonal   bool   `json:"seasonal" env:"RANKKIT_BOARD_SEASONAL"`
}

// EffectiveBoards returns the configured boards, or the default board when none are listed.
func (c *Config) EffectiveBoards() []BoardConfig {
	if len(c.Boards) > 0 {
		return c.Boards
	}
	return []BoardConfig{c.DefaultBoard}
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load from environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return errors.New("config file must have .json extension")
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(path string) (*Config, error) {
	// Validate the path for security
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	// Open the file safely after validation
	file, err := os.Open(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Environment variables override file values
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Server: ServerConfig{
			Address:           ":8080",
			PathPrefix:        "/api",
			CORSOrigin:        "*",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: "memory",
			Redis:   redis.DefaultConfig(),
			File: FileConfig{
				Path: "./data/rankkit.json",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			Address:       ":9090",
			Path:          "/metrics",
			CollectSystem: true,
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
				CleanupInterval:   5 * time.Minute,
			},
			APIKeys: []string{},
		},
		Season: SeasonConfig{
			Provider:    "none",
			Period:      7 * 24 * time.Hour,
			CacheTTL:    1500 * time.Millisecond,
			RotateCheck: time.Minute,
		},
		Webhooks: WebhookConfig{
			Timeout: 2 * time.Second,
		},
		DefaultBoard: BoardConfig{
			Name:   "leaderboard",
			MaxNum: 100,
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	// Validate environment
	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	// Validate server config
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	// Validate storage config
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	// Validate logging config
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	// Validate metrics config
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("metrics config: %v", err))
	}

	// Validate security config
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Season.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("season config: %v", err))
	}

	if err := c.Webhooks.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("webhook config: %v", err))
	}

	seen := map[string]bool{}
	seasonal := false
	for i, b := range c.EffectiveBoards() {
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("boards[%d]: %v", i, err))
		}
		if seen[b.Name] {
			errs = append(errs, fmt.Sprintf("boards[%d]: duplicate name %q", i, b.Name))
		}
		seen[b.Name] = true
		seasonal = seasonal || b.Seasonal
	}
	if seasonal && c.Season.Provider == "none" {
		errs = append(errs, "seasonal boards require a season provider")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	// Create a copy for redaction
	cfg := *c

	// Redact sensitive information
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = "[REDACTED]"
	}
	if len(cfg.Security.APIKeys) > 0 {
		keys := make([]string, len(cfg.Security.APIKeys))
		for i := range keys {
			keys[i] = "[REDACTED]"
		}
		cfg.Security.APIKeys = keys
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
