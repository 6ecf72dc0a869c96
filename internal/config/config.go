package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Food      FoodConfig      `yaml:"food"`
	Strength  StrengthConfig  `yaml:"strength"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig is optional. Without a host, snapshot sync reports
// "not_configured" and the food cache stays in memory.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig protects the snapshot endpoints when APIKey is set.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type FoodConfig struct {
	FDCAPIKey   string        `yaml:"fdc_api_key"`
	FDCBaseURL  string        `yaml:"fdc_base_url"`
	OFFBaseURL  string        `yaml:"off_base_url"`
	UserAgent   string        `yaml:"user_agent"`
	CacheSizeMB int           `yaml:"cache_size_mb"`
	SearchTTL   time.Duration `yaml:"search_ttl"`
	BarcodeTTL  time.Duration `yaml:"barcode_ttl"`
}

// StrengthConfig overrides the data thresholds of the strength index.
// Zero keeps the built-in defaults.
type StrengthConfig struct {
	MinDistinctDays int `yaml:"min_distinct_days"`
	MinTotalEntries int `yaml:"min_total_entries"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix FLEXLOG_ and underscore-separated paths:
//
//	FLEXLOG_SERVER_HOST, FLEXLOG_SERVER_PORT,
//	FLEXLOG_DB_HOST, FLEXLOG_DB_PORT, FLEXLOG_DB_NAME,
//	FLEXLOG_DB_USER, FLEXLOG_DB_PASSWORD, FLEXLOG_DB_SSLMODE,
//	FLEXLOG_AUTH_API_KEY,
//	FLEXLOG_FDC_API_KEY (or USDA_FDC_API_KEY), FLEXLOG_OFF_USER_AGENT (or OFF_USER_AGENT),
//	FLEXLOG_TAILSCALE_ENABLED, FLEXLOG_TAILSCALE_HOSTNAME, FLEXLOG_TAILSCALE_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func envFirst(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLEXLOG_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FLEXLOG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FLEXLOG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FLEXLOG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FLEXLOG_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FLEXLOG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FLEXLOG_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FLEXLOG_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("FLEXLOG_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := envFirst("FLEXLOG_FDC_API_KEY", "USDA_FDC_API_KEY"); v != "" {
		cfg.Food.FDCAPIKey = v
	}
	if v := envFirst("FLEXLOG_OFF_USER_AGENT", "OFF_USER_AGENT"); v != "" {
		cfg.Food.UserAgent = v
	}
	if v := os.Getenv("FLEXLOG_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("FLEXLOG_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("FLEXLOG_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
}

func (c *Config) applyDefaults() {
	if c.Food.CacheSizeMB == 0 {
		c.Food.CacheSizeMB = 32
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "flexlog"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Enabled() {
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	}
	if c.Food.CacheSizeMB < 1 {
		return fmt.Errorf("food.cache_size_mb must be positive")
	}
	if c.Food.SearchTTL < 0 || c.Food.BarcodeTTL < 0 {
		return fmt.Errorf("food cache ttls must not be negative")
	}
	if c.Strength.MinDistinctDays < 0 || c.Strength.MinTotalEntries < 0 {
		return fmt.Errorf("strength thresholds must not be negative")
	}
	return nil
}
