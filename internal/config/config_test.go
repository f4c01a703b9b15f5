package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "regsido")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "cars")
	t.Setenv("SCRAPER_TIMEOUT", "3s")
	t.Setenv("SCRAPER_HEADLESS", "false")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, Database{
		Driver:   DriverMySQL,
		Host:     "db.internal",
		Port:     "3306",
		User:     "regsido",
		Password: "secret",
		Name:     "cars",
	}, cfg.Database)
	assert.Equal(t, 3*time.Second, cfg.Scraper.Timeout)
	assert.False(t, cfg.Scraper.Headless)
	assert.Equal(t, 0, cfg.Scraper.MaxPages)
	assert.Equal(t, ":8501", cfg.Dashboard.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRequiresCredentials(t *testing.T) {
	v := newViper()
	v.Set(KeyDBPassword, "only-a-password")

	_, err := Load(v)
	assert.EqualError(t, err, "database settings missing: DB_HOST, DB_NAME, DB_USER")
}

func TestLoadSQLite(t *testing.T) {
	v := newViper()
	v.Set(KeyDBDriver, "SQLITE3")
	v.Set(KeyDBName, "regsido.db")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)

	v.Set(KeyDBName, "")
	_, err = Load(v)
	assert.EqualError(t, err, "database settings missing: DB_NAME")
}

func TestLoadRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  any
		msg  string
	}{
		{"driver", KeyDBDriver, "postgres", "unsupported driver"},
		{"timeout", KeyScraperTimeout, "0s", "scraper_timeout must be positive"},
		{"max pages", KeyScraperMaxPages, -1, "scraper_max_pages must not be negative"},
		{"cache ttl", KeyDashboardCacheTTL, "-1m", "dashboard_cache_ttl must be positive"},
		{"log format", KeyLogFormat, "xml", "unsupported format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := newViper()
			v.Set(KeyDBDriver, DriverSQLite)
			v.Set(KeyDBName, ":memory:")
			v.Set(tc.key, tc.val)

			_, err := Load(v)
			assert.ErrorContains(t, err, tc.msg)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)

	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}
