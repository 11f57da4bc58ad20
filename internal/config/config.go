// Package config loads the YAML configuration file, with ${ENV_VAR}
// placeholders expanded from the environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"domovoy/internal/store"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`

	Storage struct {
		// Backend is "json" or "sqlite".
		Backend string             `yaml:"backend"`
		Path    string             `yaml:"path"`
		Backup  store.BackupConfig `yaml:"backup"`
	} `yaml:"storage"`

	Engine struct {
		FailsafeMinutes       int `yaml:"failsafe_minutes"`
		FailsafeSnoozeMinutes int `yaml:"failsafe_snooze_minutes"`
	} `yaml:"engine"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Assist struct {
		Enabled         bool   `yaml:"enabled"`
		APIKey          string `yaml:"api_key"`
		BaseURL         string `yaml:"base_url"`
		Model           string `yaml:"model"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"assist"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Audit struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"audit"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "json"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/household.json"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FailsafeDelay is how long alarms may ring unattended before the engine
// snoozes them on its own.
func (c *Config) FailsafeDelay() time.Duration {
	if c.Engine.FailsafeMinutes <= 0 {
		return 3 * time.Minute
	}
	return time.Duration(c.Engine.FailsafeMinutes) * time.Minute
}

// FailsafeSnooze is the snooze applied by the unattended-alarm failsafe.
func (c *Config) FailsafeSnooze() time.Duration {
	if c.Engine.FailsafeSnoozeMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Engine.FailsafeSnoozeMinutes) * time.Minute
}

// AssistCacheTTL is how long parsed phrases stay cached.
func (c *Config) AssistCacheTTL() time.Duration {
	if c.Assist.CacheTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.Assist.CacheTTLSeconds) * time.Second
}
