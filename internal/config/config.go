// Package config loads process configuration from flat environment
// variables, ported field-for-field from the reference Settings
// (pydantic BaseSettings) class.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds process configuration. Fields and env var names are ported
// from the reference Settings class rather than invented, so existing
// deployment tooling around that system carries over directly.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	Debug       bool        `envconfig:"DEBUG" default:"false"`
	Version     string      `envconfig:"VERSION" default:"dev"`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	DBUsername               string        `envconfig:"DB_USERNAME" default:"cidrfence"`
	DBPassword               string        `envconfig:"DB_PASSWORD" default:""`
	DBHost                   string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort                   int           `envconfig:"DB_PORT" default:"5432"`
	DBName                   string        `envconfig:"DB_NAME" default:"cidrfence"`
	DBPoolMinSize            int           `envconfig:"DB_POOL_MIN_SIZE" default:"1"`
	DBPoolMaxSize            int           `envconfig:"DB_POOL_MAX_SIZE" default:"10"`
	DBPoolMaxIdleTimeout     time.Duration `envconfig:"DB_POOL_MAX_IDLE_TIMEOUT" default:"5m"`
	DBPoolAcquireConnTimeout time.Duration `envconfig:"DB_POOL_ACQUIRE_CONN_TIMEOUT" default:"10s"`
	DBPoolCloseTimeout       time.Duration `envconfig:"DB_POOL_CLOSE_TIMEOUT" default:"5s"`

	JobQueueQueryInterval          time.Duration `envconfig:"JOB_QUEUE_QUERY_INTERVAL" default:"2s"`
	SchedulerDeleteExpiredInterval time.Duration `envconfig:"SCHEDULER_DELETE_EXPIRED_INTERVAL" default:"1m"`
	JobQueueBatchSize              int           `envconfig:"JOB_QUEUE_BATCH_SIZE" default:"100"`

	DefaultAdminUser         string `envconfig:"DEFAULT_ADMIN_USER" default:"admin"`
	DefaultAdminUserPassword string `envconfig:"DEFAULT_ADMIN_USER_PASSWORD" default:""`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	Algorithm       string        `envconfig:"ALGORITHM" default:"HS256"`
	APIKeyCookie    string        `envconfig:"API_KEY_COOKIE" default:"cidrfence_token"`
	DefaultTokenTTL time.Duration `envconfig:"DEFAULT_TOKEN_TTL_SECONDS" default:"3600s"`
	AuthCacheTTL    time.Duration `envconfig:"AUTH_CACHE_SECONDS" default:"30s"`

	OpenAPITitle        string `envconfig:"OPENAPI_TITLE" default:"cidrfence"`
	OpenAPIContactName  string `envconfig:"OPENAPI_CONTACT_NAME" default:""`
	OpenAPIContactEmail string `envconfig:"OPENAPI_CONTACT_EMAIL" default:""`
	OpenAPIPath         string `envconfig:"OPENAPI_PATH" default:"/schema"`
}

// New parses process configuration from the environment. Unlike the
// teacher's MEMORY_BACKEND_-prefixed variables, these names are flat
// (JWT_SECRET, DB_HOST, ...) to match the reference deployment's env
// contract directly.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Str("db_host", cfg.DBHost).
		Int("db_port", cfg.DBPort).
		Str("db_name", cfg.DBName).
		Dur("job_queue_interval", cfg.JobQueueQueryInterval).
		Dur("reaper_interval", cfg.SchedulerDeleteExpiredInterval).
		Msg("configuration loaded")

	return &cfg, nil
}

// NewForTesting returns a Config populated with values suitable for tests,
// bypassing the required JWT_SECRET environment lookup.
func NewForTesting() *Config {
	return &Config{
		Environment:                    EnvTesting,
		HTTPPort:                       8080,
		DBHost:                         "localhost",
		DBPort:                         5432,
		DBName:                         "cidrfence_test",
		DBPoolMinSize:                  1,
		DBPoolMaxSize:                  4,
		JobQueueQueryInterval:          100 * time.Millisecond,
		SchedulerDeleteExpiredInterval: time.Second,
		JobQueueBatchSize:              10,
		JWTSecret:                      "test-secret",
		Algorithm:                      "HS256",
		DefaultTokenTTL:                time.Hour,
		AuthCacheTTL:                   30 * time.Second,
	}
}

// IsTesting returns true if the environment is set to testing.
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server listen address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

// PostgresDSN builds a libpq-style connection string from the discrete
// DB_* fields, mirroring how the reference Settings assembles its asyncpg
// DSN from the same field set.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUsername, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
