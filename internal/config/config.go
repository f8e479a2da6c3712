package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string
	DBMaxConns  int32

	CORSOrigins []string
	BcryptCost  int
	StatsTZ     *time.Location

	RedisAddr          string
	RedisPassword      string
	LoginMaxAttempts   int
	LoginLockoutWindow time.Duration

	AdminToken string

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is a development convenience; its absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getenv("PORT", "3001"),
		DBDriver:      strings.ToLower(getenv("DB_DRIVER", DriverPostgres)),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		SQLitePath:    getenv("SQLITE_PATH", "potty-buddy.db"),
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		AdminToken:    getenv("ADMIN_TOKEN", ""),
		LogLevel:      strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(getenv("LOG_FORMAT", "json")),
	}

	maxConns, err := getenvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.DBMaxConns = int32(maxConns)

	if cfg.BcryptCost, err = getenvInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.LoginMaxAttempts, err = getenvInt("LOGIN_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.LoginLockoutWindow, err = getenvDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}

	tzName := getenv("STATS_TIMEZONE", "UTC")
	if cfg.StatsTZ, err = time.LoadLocation(tzName); err != nil {
		return nil, fmt.Errorf("invalid STATS_TIMEZONE %q: %w", tzName, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}

// String masks secrets so the config can be logged at startup.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, DB: %s, Redis: %q, StatsTZ: %s, Admin: %t}",
		c.Port, c.DBDriver, c.RedisAddr, c.StatsTZ, c.AdminToken != "")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
