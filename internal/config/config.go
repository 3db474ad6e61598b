package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	internalsettings "github.com/router-for-me/PlacesFinder/internal/settings"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath    = "CONFIG_PATH"
	EnvDBConnection  = "DB_CONNECTION"
	EnvMapsAPIKey    = "GOOGLE_MAPS_API_KEY"
	EnvPort          = "PORT"
	EnvLogLevel      = "LOG_LEVEL"
	EnvDailyAPILimit = "DAILY_API_LIMIT"
)

// ErrMissingAPIKey is reported by Validate when no Google Maps key is configured.
var ErrMissingAPIKey = errors.New("missing google maps api key (set `google-maps-api-key` or GOOGLE_MAPS_API_KEY)")

// QuotaConfig holds daily quota settings.
type QuotaConfig struct {
	DailyLimit int    `yaml:"daily-limit"`
	TimeZone   string `yaml:"time-zone"`
}

// SearchConfig holds nearby-search settings.
type SearchConfig struct {
	RadiusMeters  int `yaml:"radius-meters"`
	MaxResults    int `yaml:"max-results"`
	RatePerMinute int `yaml:"rate-per-minute"`
}

// DatabaseConfig holds the place-detail cache settings.
type DatabaseConfig struct {
	DSN      string        `yaml:"dsn"`
	CacheTTL time.Duration `yaml:"cache-ttl"`
}

// LoggingConfig holds log level and rotation settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
}

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string `yaml:"-"`

	Port        int            `yaml:"port"`
	MapsAPIKey  string         `yaml:"google-maps-api-key"`
	MapsBaseURL string         `yaml:"maps-base-url"`
	Quota       QuotaConfig    `yaml:"quota"`
	Search      SearchConfig   `yaml:"search"`
	Database    DatabaseConfig `yaml:"database"`
	Logging     LoggingConfig  `yaml:"logging"`
}

// Default returns the configuration used when nothing is set.
func Default() AppConfig {
	return AppConfig{
		Port:        internalsettings.DefaultPort,
		MapsBaseURL: internalsettings.DefaultMapsBaseURL,
		Quota: QuotaConfig{
			DailyLimit: internalsettings.DefaultDailyLimit,
			TimeZone:   internalsettings.DefaultTimeZone,
		},
		Search: SearchConfig{
			RadiusMeters:  internalsettings.DefaultSearchRadiusMeters,
			MaxResults:    internalsettings.DefaultMaxResults,
			RatePerMinute: internalsettings.DefaultSearchRatePerMinute,
		},
		Database: DatabaseConfig{CacheTTL: internalsettings.DefaultCacheTTL},
		Logging: LoggingConfig{
			Level:      internalsettings.DefaultLogLevel,
			MaxSizeMB:  internalsettings.DefaultLogMaxSizeMB,
			MaxBackups: internalsettings.DefaultLogMaxBackups,
		},
	}
}

// LoadDotEnv loads a local .env file into the process environment when present.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if _, errStat := os.Stat(path); errStat != nil {
		if errors.Is(errStat, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", errStat)
	}
	if errLoad := godotenv.Load(path); errLoad != nil {
		return fmt.Errorf("load env file: %w", errLoad)
	}
	log.Infof("loaded local env file %s", path)
	return nil
}

// Load reads the YAML config at configPath (missing file means defaults) and applies env overrides.
func Load(configPath string) (AppConfig, error) {
	cfg := Default()
	cfg.ConfigPath = ResolveConfigPath(configPath)

	data, errRead := os.ReadFile(cfg.ConfigPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return AppConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return AppConfig{}, fmt.Errorf("read config file: %w", errRead)
	}

	if errEnv := applyEnv(&cfg); errEnv != nil {
		return AppConfig{}, errEnv
	}
	cfg.normalize()
	return cfg, nil
}

// LoadFromEnv loads config from the file named by CONFIG_PATH.
func LoadFromEnv() (AppConfig, error) {
	return Load(os.Getenv(EnvConfigPath))
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

func applyEnv(cfg *AppConfig) error {
	if key := strings.TrimSpace(os.Getenv(EnvMapsAPIKey)); key != "" {
		cfg.MapsAPIKey = key
	}
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		cfg.Logging.Level = level
	}
	if raw := strings.TrimSpace(os.Getenv(EnvPort)); raw != "" {
		port, errParse := strconv.Atoi(raw)
		if errParse != nil {
			return fmt.Errorf("parse %s: %w", EnvPort, errParse)
		}
		cfg.Port = port
	}
	if raw := strings.TrimSpace(os.Getenv(EnvDailyAPILimit)); raw != "" {
		limit, errParse := strconv.Atoi(raw)
		if errParse != nil {
			return fmt.Errorf("parse %s: %w", EnvDailyAPILimit, errParse)
		}
		cfg.Quota.DailyLimit = limit
	}
	return nil
}

func (c *AppConfig) normalize() {
	c.MapsAPIKey = strings.TrimSpace(c.MapsAPIKey)
	c.MapsBaseURL = strings.TrimRight(strings.TrimSpace(c.MapsBaseURL), "/")
	if c.MapsBaseURL == "" {
		c.MapsBaseURL = internalsettings.DefaultMapsBaseURL
	}
	c.Quota.TimeZone = strings.TrimSpace(c.Quota.TimeZone)
	if c.Quota.TimeZone == "" {
		c.Quota.TimeZone = internalsettings.DefaultTimeZone
	}
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	if c.Database.CacheTTL <= 0 {
		c.Database.CacheTTL = internalsettings.DefaultCacheTTL
	}
	c.Logging.Level = strings.TrimSpace(c.Logging.Level)
	if c.Logging.Level == "" {
		c.Logging.Level = internalsettings.DefaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = internalsettings.DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c AppConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Quota.DailyLimit <= 0 {
		return fmt.Errorf("invalid daily limit: %d", c.Quota.DailyLimit)
	}
	if _, errZone := c.Location(); errZone != nil {
		return errZone
	}
	if c.Search.RadiusMeters <= 0 {
		return fmt.Errorf("invalid search radius: %d", c.Search.RadiusMeters)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("invalid max results: %d", c.Search.MaxResults)
	}
	if c.Search.RatePerMinute < 0 {
		return fmt.Errorf("invalid search rate: %d", c.Search.RatePerMinute)
	}
	if c.MapsAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Location resolves the quota time zone.
func (c AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Quota.TimeZone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, errLoad := time.LoadLocation(name)
	if errLoad != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, errLoad)
	}
	return loc, nil
}
