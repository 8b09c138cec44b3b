package config

import (
	"fmt"
	"time"
)

// LoadProfile returns the defaults for a named deployment profile. Environment variables are
// not applied; use Load or LoadFromFile for that.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Profile = name
	switch name {
	case "development":
		cfg.Environment = EnvDevelopment
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	case "testing":
		cfg.Environment = EnvTesting
		cfg.Logging.Level = "warn"
		cfg.Server.ShutdownTimeout = 5 * time.Second
	case "staging":
		cfg.Environment = EnvStaging
		cfg.Storage.Adapter = "redis"
		cfg.Metrics.Enabled = true
	case "production":
		cfg.Environment = EnvProduction
		cfg.Storage.Adapter = "redis"
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
		cfg.Server.CORSOrigin = ""
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	return cfg, nil
}
