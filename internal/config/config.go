package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"caredesk/internal/calendar"
	"caredesk/internal/database"
)

type Config struct {
	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
	} `yaml:"server"`

	Upstream struct {
		BaseURL           string  `yaml:"base_url"`
		APIKey            string  `yaml:"api_key"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		CacheTTLSeconds   int     `yaml:"cache_ttl_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"upstream"`

	Database struct {
		Path   string                `yaml:"path"`
		Backup database.BackupConfig `yaml:"backup"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Sync struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		WindowDays      int `yaml:"window_days"`
	} `yaml:"sync"`

	Audit struct {
		RetentionDays int    `yaml:"retention_days"`
		ExportDir     string `yaml:"export_dir"`
		ExportOnStart bool   `yaml:"export_on_start"`
	} `yaml:"audit"`

	Calendar calendar.Settings `yaml:"calendar"`
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

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/caredesk.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	// A missing calendar section falls back to defaults; a present but
	// malformed one is a hard error.
	if cfg.Calendar.StartHour == 0 && cfg.Calendar.EndHour == 0 {
		cfg.Calendar = calendar.DefaultSettings()
	}
	if err = cfg.Calendar.Validate(); err != nil {
		return nil, fmt.Errorf("calendar settings: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) UpstreamTimeout() time.Duration {
	if c.Upstream.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

func (c *Config) UpstreamCacheTTL() time.Duration {
	return time.Duration(c.Upstream.CacheTTLSeconds) * time.Second
}

func (c *Config) SyncInterval() time.Duration {
	if c.Sync.IntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Sync.IntervalMinutes) * time.Minute
}

func (c *Config) SyncWindow() time.Duration {
	if c.Sync.WindowDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.Sync.WindowDays) * 24 * time.Hour
}

func (c *Config) AuditRetention() time.Duration {
	if c.Audit.RetentionDays <= 0 {
		return 31 * 24 * time.Hour
	}
	return time.Duration(c.Audit.RetentionDays) * 24 * time.Hour
}
