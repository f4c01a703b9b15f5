// Package config reads settings from the environment, an optional .env file
// and an optional YAML config file through viper.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Keys understood by Load. They double as environment variable names.
const (
	KeyDBDriver   = "db_driver"
	KeyDBHost     = "db_host"
	KeyDBPort     = "db_port"
	KeyDBUser     = "db_user"
	KeyDBPassword = "db_password"
	KeyDBName     = "db_name"

	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"

	KeyScraperTimeout  = "scraper_timeout"
	KeyScraperHeadless = "scraper_headless"
	KeyScraperMaxPages = "scraper_max_pages"

	KeyDashboardAddr     = "dashboard_addr"
	KeyDashboardCacheTTL = "dashboard_cache_ttl"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type Database struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string // file path for sqlite3
}

type Scraper struct {
	Timeout  time.Duration
	Headless bool
	MaxPages int
}

type Dashboard struct {
	Addr     string
	CacheTTL time.Duration
}

type Config struct {
	Database  Database
	Scraper   Scraper
	Dashboard Dashboard

	LogLevel  string
	LogFormat string
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDBDriver, DriverMySQL)
	v.SetDefault(KeyDBPort, "3306")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyScraperTimeout, 10*time.Second)
	v.SetDefault(KeyScraperHeadless, true)
	v.SetDefault(KeyScraperMaxPages, 0)
	v.SetDefault(KeyDashboardAddr, ":8501")
	v.SetDefault(KeyDashboardCacheTTL, 10*time.Minute)
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database: Database{
			Driver:   strings.ToLower(v.GetString(KeyDBDriver)),
			Host:     v.GetString(KeyDBHost),
			Port:     v.GetString(KeyDBPort),
			User:     v.GetString(KeyDBUser),
			Password: v.GetString(KeyDBPassword),
			Name:     v.GetString(KeyDBName),
		},
		Scraper: Scraper{
			Timeout:  v.GetDuration(KeyScraperTimeout),
			Headless: v.GetBool(KeyScraperHeadless),
			MaxPages: v.GetInt(KeyScraperMaxPages),
		},
		Dashboard: Dashboard{
			Addr:     v.GetString(KeyDashboardAddr),
			CacheTTL: v.GetDuration(KeyDashboardCacheTTL),
		},
		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),
	}

	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	if cfg.Scraper.Timeout <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyScraperTimeout, cfg.Scraper.Timeout)
	}
	if cfg.Scraper.MaxPages < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", KeyScraperMaxPages, cfg.Scraper.MaxPages)
	}
	if cfg.Dashboard.CacheTTL <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyDashboardCacheTTL, cfg.Dashboard.CacheTTL)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("%s: unsupported format %q, expected json or console", KeyLogFormat, cfg.LogFormat)
	}
	return cfg, nil
}

// Validate reports the settings a connection cannot do without.
func (d Database) Validate() error {
	var missing []string
	switch d.Driver {
	case DriverMySQL:
		for key, val := range map[string]string{KeyDBHost: d.Host, KeyDBUser: d.User, KeyDBName: d.Name} {
			if val == "" {
				missing = append(missing, strings.ToUpper(key))
			}
		}
	case DriverSQLite:
		if d.Name == "" {
			missing = append(missing, strings.ToUpper(KeyDBName))
		}
	default:
		return fmt.Errorf("%s: unsupported driver %q, expected %s or %s", KeyDBDriver, d.Driver, DriverMySQL, DriverSQLite)
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("database settings missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NewLogger builds a zap logger; format is json or console.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}

	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, errors.New("log format must be json or console")
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
