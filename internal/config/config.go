// Package config provides YAML-based configuration loading for FleetBot.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level FleetBot configuration, loaded from fleetbot.yaml.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Reminder ReminderConfig `yaml:"reminder"`
	HTTP     HTTPConfig     `yaml:"http"`

	// DefaultReportedBy pre-fills the reporter name in the creation flow.
	DefaultReportedBy string `yaml:"default_reported_by"`
	// DialogTTLMin is the idle expiry for in-flight dialogs, in minutes.
	DialogTTLMin int `yaml:"dialog_ttl_min"`
}

// TelegramConfig holds bot credentials and the announcement group.
type TelegramConfig struct {
	Token string `yaml:"token"`
	// GroupChatID is the announcement group. Zero means "use the id linked
	// at runtime via /setgroup".
	GroupChatID int64 `yaml:"group_chat_id"`
}

// StorageConfig selects the key-value backend. At most one of SQLitePath,
// MySQLDSN or RedisAddr may be set; sqlite is the default.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	MySQLDSN   string `yaml:"mysql_dsn"`
	RedisAddr  string `yaml:"redis_addr"`
}

// ReminderConfig controls the reminder sweep cadence and thresholds.
type ReminderConfig struct {
	// Cron is a 5-field cron expression for the sweep schedule.
	Cron string `yaml:"cron"`
	// MinAgeMin is the minimum minutes since last update (and since the
	// previous reminder) before a report is nudged again.
	MinAgeMin int `yaml:"min_age_min"`
	// Key guards the manual /cron HTTP trigger.
	Key string `yaml:"key"`
}

// HTTPConfig holds the health/trigger server settings.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Storage.SQLitePath == "" && c.Storage.MySQLDSN == "" && c.Storage.RedisAddr == "" {
		c.Storage.SQLitePath = "fleetbot.db"
	}
	if c.Reminder.Cron == "" {
		c.Reminder.Cron = "*/15 * * * *"
	}
	if c.Reminder.MinAgeMin == 0 {
		c.Reminder.MinAgeMin = 60
	}
	if c.DialogTTLMin == 0 {
		c.DialogTTLMin = 30
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Telegram.Token == "" {
		errs = append(errs, "telegram.token is required")
	}
	backends := 0
	for _, set := range []bool{
		c.Storage.SQLitePath != "",
		c.Storage.MySQLDSN != "",
		c.Storage.RedisAddr != "",
	} {
		if set {
			backends++
		}
	}
	if backends > 1 {
		errs = append(errs, "storage: set only one of sqlite_path, mysql_dsn, redis_addr")
	}
	if c.Reminder.MinAgeMin < 0 {
		errs = append(errs, "reminder.min_age_min must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DialogTTL returns the dialog idle expiry as a duration.
func (c *Config) DialogTTL() time.Duration {
	return time.Duration(c.DialogTTLMin) * time.Minute
}

// ReminderMinAge returns the reminder threshold as a duration.
func (c *Config) ReminderMinAge() time.Duration {
	return time.Duration(c.Reminder.MinAgeMin) * time.Minute
}
