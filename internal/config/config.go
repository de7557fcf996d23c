package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/terraincognita07/tukicale/internal/models"
	"github.com/terraincognita07/tukicale/internal/security"
	"github.com/terraincognita07/tukicale/internal/services"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "tukicale.yaml"

	BackendGoogle = "google"
	BackendICS    = "ics"
	BackendNone   = "none"
)

var (
	ErrEmptyPath      = errors.New("config path is empty")
	ErrNilConfig      = errors.New("config is nil")
	ErrInvalidBackend = errors.New("invalid calendar backend")
)

type CalendarConfig struct {
	// Backend selects the mirror: google, ics or none.
	Backend       string `yaml:"backend"`
	Name          string `yaml:"name"`
	LookbackYears int    `yaml:"lookback_years"`
	Concurrency   int    `yaml:"concurrency"`
	// ICSDir holds the generated .ics file for the ics backend.
	ICSDir string `yaml:"ics_dir"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// TokenFile is an optional JSON oauth2 token used to seed the sealed
	// credential on first start.
	TokenFile string `yaml:"token_file,omitempty"`
}

type SyncConfig struct {
	// Schedule is a cron spec for periodic full resyncs. Empty disables it.
	Schedule string              `yaml:"schedule"`
	Defaults models.SyncSettings `yaml:"defaults"`
}

type FeaturesConfig struct {
	IntimacyTracking bool `yaml:"intimacy_tracking"`
	HealthTracking   bool `yaml:"health_tracking"`
}

type Config struct {
	Listen    string         `yaml:"listen"`
	Timezone  string         `yaml:"timezone"`
	Language  string         `yaml:"language"`
	DBPath    string         `yaml:"db_path"`
	SecretKey string         `yaml:"secret_key"`
	Calendar  CalendarConfig `yaml:"calendar"`
	Google    GoogleConfig   `yaml:"google"`
	Sync      SyncConfig     `yaml:"sync"`
	Features  FeaturesConfig `yaml:"features"`
}

func DefaultConfig() *Config {
	return &Config{
		Listen:   ":8080",
		Timezone: "Asia/Tokyo",
		Language: "ja",
		DBPath:   filepath.Join("data", "tukicale.db"),
		Calendar: CalendarConfig{
			Backend:       BackendNone,
			Name:          services.DefaultCalendarName,
			LookbackYears: 1,
			Concurrency:   4,
			ICSDir:        "data",
		},
		Sync: SyncConfig{
			Defaults: models.DefaultSyncSettings(),
		},
		Features: FeaturesConfig{
			IntimacyTracking: true,
			HealthTracking:   true,
		},
	}
}

// Normalize fills zero values so older or partial files keep working.
func (c *Config) Normalize() {
	defaults := DefaultConfig()

	c.Listen = strings.TrimSpace(c.Listen)
	if c.Listen == "" {
		c.Listen = defaults.Listen
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = defaults.Timezone
	}
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	if c.Language == "" {
		c.Language = defaults.Language
	}
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = defaults.DBPath
	}

	c.Calendar.Backend = strings.ToLower(strings.TrimSpace(c.Calendar.Backend))
	if c.Calendar.Backend == "" {
		c.Calendar.Backend = BackendNone
	}
	if strings.TrimSpace(c.Calendar.Name) == "" {
		c.Calendar.Name = defaults.Calendar.Name
	}
	if c.Calendar.LookbackYears <= 0 {
		c.Calendar.LookbackYears = defaults.Calendar.LookbackYears
	}
	if c.Calendar.Concurrency <= 0 {
		c.Calendar.Concurrency = defaults.Calendar.Concurrency
	}
	if strings.TrimSpace(c.Calendar.ICSDir) == "" {
		c.Calendar.ICSDir = defaults.Calendar.ICSDir
	}
	c.Sync.Schedule = strings.TrimSpace(c.Sync.Schedule)
}

func (c *Config) Validate() error {
	switch c.Calendar.Backend {
	case BackendGoogle, BackendICS, BackendNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Calendar.Backend)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location falls back to UTC when the timezone cannot be loaded.
func (c *Config) Location() *time.Location {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("invalid timezone %q, falling back to UTC", c.Timezone)
		return time.UTC
	}
	return location
}

func (c *Config) FeatureFlags() services.FeatureFlags {
	return services.FeatureFlags{
		IntimacyTracking: c.Features.IntimacyTracking,
		HealthTracking:   c.Features.HealthTracking,
	}
}

func (c *Config) ReconcilerOptions() services.ReconcilerOptions {
	return services.ReconcilerOptions{
		CalendarName:  c.Calendar.Name,
		LookbackYears: c.Calendar.LookbackYears,
		Concurrency:   c.Calendar.Concurrency,
		Location:      c.Location(),
	}
}

// ResolvePath picks the explicit flag value, then TUKICALE_CONFIG, then the
// default file name.
func ResolvePath(flagValue string) string {
	if value := strings.TrimSpace(flagValue); value != "" {
		return value
	}
	return getEnv("TUKICALE_CONFIG", DefaultPath)
}

// Load reads the YAML file at path. On first run the file is created with
// defaults and a fresh secret key. Environment overrides are applied after
// the file is written, so they never leak into it.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := cfg.ensureSecretKey(); err != nil {
			return nil, err
		}
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		cfg.Normalize()
		if strings.TrimSpace(cfg.SecretKey) == "" {
			if err := cfg.ensureSecretKey(); err != nil {
				return nil, err
			}
			if err := Save(path, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvironment()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return ErrNilConfig
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tukicale-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func (c *Config) ensureSecretKey() error {
	if strings.TrimSpace(c.SecretKey) != "" {
		return nil
	}
	secret, err := security.NewSecretKey()
	if err != nil {
		return fmt.Errorf("generate secret key: %w", err)
	}
	c.SecretKey = secret
	return nil
}

func (c *Config) applyEnvironment() {
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	if port := getEnv("PORT", ""); port != "" {
		c.Listen = ":" + port
	}
	c.Timezone = getEnv("TZ", c.Timezone)
	c.SecretKey = getEnv("SECRET_KEY", c.SecretKey)
	c.Language = getEnv("DEFAULT_LANGUAGE", c.Language)
	c.Calendar.Backend = getEnv("CALENDAR_BACKEND", c.Calendar.Backend)
	c.Google.ClientID = getEnv("GOOGLE_CLIENT_ID", c.Google.ClientID)
	c.Google.ClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.Google.ClientSecret)
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
