// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TTL       time.Duration `yaml:"ttl"`
}

type LimitsConfig struct {
	FreeWeeklyAnswers    int           `yaml:"free_weekly_answers"`
	PremiumWeeklyAnswers int           `yaml:"premium_weekly_answers"`
	FreeSets             int           `yaml:"free_sets"`
	PremiumSets          int           `yaml:"premium_sets"`
	ResetPeriod          time.Duration `yaml:"reset_period"`
	SubmitPerMinute      int           `yaml:"submit_per_minute"` // redis throttle on the submit route
}

type StylesConfig struct {
	CatalogPath string `yaml:"catalog_path"`
}

type I18nConfig struct {
	Lang string `yaml:"lang"` // notification language, falls back to en
}

type ExportConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Limits   LimitsConfig   `yaml:"limits"`
	Styles   StylesConfig   `yaml:"styles"`
	Export   ExportConfig   `yaml:"export"`
	I18n     I18nConfig     `yaml:"i18n"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies an optional .env file and
// DIARY_* environment overrides, then fills defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	return load(path, dev, !dev)
}

// LoadToolConfig loads the config for offline commands (migrate, seed, maintenance)
// that never mint or verify tokens, so no jwt secret is required.
func LoadToolConfig(path string) (*Config, error) {
	return load(path, false, false)
}

func load(path string, dev, requireSecret bool) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" && requireSecret {
		return nil, errors.New("auth.jwt_secret is required")
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DIARY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DIARY_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("DIARY_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DIARY_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DIARY_HTTP_PORT: %w", err)
		}
		cfg.HTTP.Port = port
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.HTTP.ReadTimeout = orDuration(cfg.HTTP.ReadTimeout, 10*time.Second)
	cfg.HTTP.WriteTimeout = orDuration(cfg.HTTP.WriteTimeout, 30*time.Second)
	cfg.HTTP.RequestTimeout = orDuration(cfg.HTTP.RequestTimeout, 15*time.Second)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "diaryshare"
	}
	cfg.Auth.TTL = orDuration(cfg.Auth.TTL, 24*time.Hour)

	l := &cfg.Limits
	l.FreeWeeklyAnswers = orInt(l.FreeWeeklyAnswers, 5)
	l.PremiumWeeklyAnswers = orInt(l.PremiumWeeklyAnswers, 20)
	l.FreeSets = orInt(l.FreeSets, 1)
	l.PremiumSets = orInt(l.PremiumSets, 3)
	l.ResetPeriod = orDuration(l.ResetPeriod, 7*24*time.Hour)
	l.SubmitPerMinute = orInt(l.SubmitPerMinute, 10)

	cfg.Export.MaxConcurrent = orInt(cfg.Export.MaxConcurrent, 4)
	if cfg.I18n.Lang == "" {
		cfg.I18n.Lang = "en"
	}
	if cfg.Styles.CatalogPath == "" {
		cfg.Styles.CatalogPath = "styles.yaml"
	}
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
