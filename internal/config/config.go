package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL   string
	ServerAddr    string
	StoreDriver   string
	MigrationsDir string
	LogLevel      string

	JWTSecret []byte
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	BarterRetention time.Duration
	PurgeInterval   time.Duration

	AuditSigningKey []byte

	SentryDSN         string
	SentryEnvironment string
	MetricsEnabled    bool
}

var defaults = map[string]any{
	"SERVER_ADDR":        "0.0.0.0:8080",
	"STORE_DRIVER":       DriverPostgres,
	"MIGRATIONS_DIR":     "internal/migrations",
	"LOG_LEVEL":          "info",
	"JWT_TTL":            "24h",
	"REDIS_DB":           0,
	"STATS_CACHE_TTL":    "30s",
	"RATE_LIMIT_RPS":     5.0,
	"RATE_LIMIT_BURST":   10,
	"BARTER_RETENTION":   "720h",
	"PURGE_INTERVAL":     "1h",
	"SENTRY_ENVIRONMENT": "development",
	"METRICS_ENABLED":    true,
	"POSTGRES_USER":      "midas",
	"POSTGRES_PASSWORD":  "midas_pass",
	"POSTGRES_DB":        "midas_vault",
	"POSTGRES_HOST":      "localhost",
	"POSTGRES_PORT":      "5432",
	"DATABASE_SSLMODE":   "disable",
}

// Load reads configuration from a .env file (when present), an optional
// CONFIG_FILE, and the environment, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	dsn := v.GetString("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			v.GetString("POSTGRES_USER"), v.GetString("POSTGRES_PASSWORD"), v.GetString("POSTGRES_HOST"),
			v.GetString("POSTGRES_PORT"), v.GetString("POSTGRES_DB"), v.GetString("DATABASE_SSLMODE"))
	}

	cfg := &Config{
		DatabaseURL:       dsn,
		ServerAddr:        v.GetString("SERVER_ADDR"),
		StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		MigrationsDir:     v.GetString("MIGRATIONS_DIR"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		JWTSecret:         []byte(v.GetString("JWT_SECRET")),
		JWTTTL:            duration(v, "JWT_TTL"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		StatsCacheTTL:     duration(v, "STATS_CACHE_TTL"),
		RateLimitRPS:      v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:    v.GetInt("RATE_LIMIT_BURST"),
		BarterRetention:   duration(v, "BARTER_RETENTION"),
		PurgeInterval:     duration(v, "PURGE_INTERVAL"),
		SentryDSN:         v.GetString("SENTRY_DSN"),
		SentryEnvironment: v.GetString("SENTRY_ENVIRONMENT"),
		MetricsEnabled:    v.GetBool("METRICS_ENABLED"),
	}

	if raw := v.GetString("AUDIT_SIGNING_KEY"); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("AUDIT_SIGNING_KEY must be hex: %w", err)
		}
		cfg.AuditSigningKey = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// duration falls back to the registered default when the value does not parse.
func duration(v *viper.Viper, key string) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fmt.Sprint(defaults[key]))
	return d
}
