package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadJSONConfig_GroupedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"app": {"AppPort": "9090", "RateLimitPerMinute": 30, "AdminUsernames": ["root"], "TrustedProxies": ["10.0.0.0/8"]},
		"jwt": {"Secret": "s3cret", "ExpireHours": 12},
		"database": {"Driver": "sqlite", "SQLitePath": "tmp/blog.db"},
		"redis": {"RedisHost": "cache", "RedisPort": 6380},
		"cache": {"TTLSeconds": 60},
		"log": {"Level": "debug", "Compress": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))

	assert.Equal(t, "9090", c.AppPort)
	assert.Equal(t, 30, c.RateLimitPerMinute)
	assert.Equal(t, []string{"root"}, c.AdminUsernames)
	assert.Equal(t, []string{"10.0.0.0/8"}, c.TrustedProxies)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, 12, c.JWTExpireHours)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "tmp/blog.db", c.SQLitePath)
	assert.Equal(t, "cache", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
	assert.Equal(t, 60, c.CacheTTLSec)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
}

func TestLoadJSONConfig_MissingFileIgnored(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "nope.json"), &c))
	assert.Equal(t, AppConfig{}, c)
}

func TestLoadJSONConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var c AppConfig
	assert.Error(t, loadJSONConfig(path, &c))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "7000")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("JWT_EXPIRE_HOURS", "5")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ADMIN_USERNAMES", " alice , bob ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TRUSTED_PROXIES", "127.0.0.1, 10.0.0.0/8")
	t.Setenv("LOG_COMPRESS", "true")

	c := AppConfig{AppPort: "8080", JWTSecret: "from-file"}
	applyEnvOverrides(&c)

	assert.Equal(t, "7000", c.AppPort)
	assert.Equal(t, "from-env", c.JWTSecret)
	assert.Equal(t, 5, c.JWTExpireHours)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, []string{"alice", "bob"}, c.AdminUsernames)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, []string{"127.0.0.1", "10.0.0.0/8"}, c.TrustedProxies)
	assert.True(t, c.LogCompress)
}

func TestOverrideAppliesDefaults(t *testing.T) {
	Override(AppConfig{JWTSecret: "x"})
	got := Get()

	assert.Equal(t, "x", got.JWTSecret)
	assert.Equal(t, "8080", got.AppPort)
	assert.Equal(t, 72, got.JWTExpireHours)
	assert.Equal(t, "mysql", got.DBDriver)
	assert.Equal(t, []string{"*"}, got.AllowedOrigins)
	assert.Equal(t, 3600, got.CacheTTLSec)
}

func TestToGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, toGormLogLevel("debug"))
	assert.Equal(t, logger.Warn, toGormLogLevel(""))
	assert.Equal(t, logger.Error, toGormLogLevel("error"))
	assert.Equal(t, logger.Silent, toGormLogLevel("silent"))
	assert.Equal(t, logger.Warn, toGormLogLevel("bogus"))
}

func TestOpenDatabase_UnsupportedDriver(t *testing.T) {
	_, err := OpenDatabase(AppConfig{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenDatabase_SQLite(t *testing.T) {
	conn, err := OpenDatabase(AppConfig{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "db", "blog.db"), LogLevel: "silent"})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.NoError(t, sqlDB.Ping())
}
