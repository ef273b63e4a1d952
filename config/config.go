// ABOUTME: Application configuration loading and validation
// ABOUTME: Reads YAML config with env overrides, validated via validator tags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings for the salon backend.
type Config struct {
	DBPath       string `yaml:"db_path"`
	ListenAddr   string `yaml:"listen_addr" validate:"required"`
	CalendarName string `yaml:"calendar_name" validate:"required"`

	// Sync window offsets from "now", in days. Appointments outside the
	// window are simply not kept in sync until they enter it.
	LookBackDays  int `yaml:"look_back_days" validate:"min=0"`
	LookAheadDays int `yaml:"look_ahead_days" validate:"min=1"`

	// Scheduled driver settings, in minutes.
	SyncIntervalMin int `yaml:"sync_interval_min" validate:"min=1"`
	BatchTimeoutMin int `yaml:"batch_timeout_min" validate:"min=1"`

	// Max appointments considered per reconciliation run. A throughput
	// ceiling, not a correctness requirement.
	MaxAppointments int `yaml:"max_appointments" validate:"min=1"`

	Google GoogleConfig `yaml:"google"`
}

// GoogleConfig holds the OAuth app credentials. Client ID/secret come from the
// environment when not set in the file.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

func (c *Config) LookBack() time.Duration {
	return time.Duration(c.LookBackDays) * 24 * time.Hour
}

func (c *Config) LookAhead() time.Duration {
	return time.Duration(c.LookAheadDays) * 24 * time.Hour
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMin) * time.Minute
}

func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.BatchTimeoutMin) * time.Minute
}

// DefaultPath returns the XDG-compliant config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "trimsalon", "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		CalendarName:    "TrimSalon Afspraken",
		LookBackDays:    7,
		LookAheadDays:   60,
		SyncIntervalMin: 120,
		BatchTimeoutMin: 10,
		MaxAppointments: 250,
		Google: GoogleConfig{
			RedirectURL: "http://localhost:8080/oauth/callback",
		},
	}
}

// Load reads the config file at path (defaults apply for anything unset),
// applies environment overrides, and validates the result. A missing file is
// not an error; defaults are used.
func Load(path string) (*Config, error) {
	// .env is optional; ignore absence
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("TRIMSALON_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TRIMSALON_DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
