package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv pins every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_DRIVER", "DATABASE_URL", "SQLITE_PATH", "DB_MAX_CONNS",
		"CORS_ORIGINS", "BCRYPT_COST", "STATS_TIMEZONE", "REDIS_ADDR",
		"REDIS_PASSWORD", "LOGIN_MAX_ATTEMPTS", "LOGIN_LOCKOUT_WINDOW",
		"ADMIN_TOKEN", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/potty")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/potty", cfg.DatabaseURL)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, time.UTC, cfg.StatsTZ)
	assert.Equal(t, "", cfg.RedisAddr)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LoginLockoutWindow)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/pb.db")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("STATS_TIMEZONE", "Europe/Riga")
	t.Setenv("LOGIN_LOCKOUT_WINDOW", "90s")
	t.Setenv("ADMIN_TOKEN", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/pb.db", cfg.SQLitePath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "Europe/Riga", cfg.StatsTZ.String())
	assert.Equal(t, 90*time.Second, cfg.LoginLockoutWindow)
	assert.NotContains(t, cfg.String(), "s3cret")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{}},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"bad int", map[string]string{"DB_DRIVER": "sqlite", "BCRYPT_COST": "ten"}},
		{"cost out of range", map[string]string{"DB_DRIVER": "sqlite", "BCRYPT_COST": "2"}},
		{"bad duration", map[string]string{"DB_DRIVER": "sqlite", "LOGIN_LOCKOUT_WINDOW": "soon"}},
		{"bad timezone", map[string]string{"DB_DRIVER": "sqlite", "STATS_TIMEZONE": "Mars/Olympus"}},
		{"zero pool", map[string]string{"DB_DRIVER": "sqlite", "DB_MAX_CONNS": "0"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
