// Package config provides configuration structures and validation for the
// application. It handles environment-based configuration for all major
// components: the HTTP server, data stores, the BBPS provider gateway and
// the money-movement tuning knobs.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field covers
// one subsystem and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	BBPS        BBPSConfig
	Ledger      LedgerConfig
	RateLimit   RateLimitConfig
	WorkerPool  WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration for the provider call log
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains Redis configuration for the rate limiter
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig contains Kafka configuration for the audit event sink
type KafkaConfig struct {
	Brokers           string
	AuditTopic        string
	NumPartitions     int
	ReplicationFactor int
	WriteTimeout      time.Duration
}

// BBPSConfig contains the external biller gateway settings
type BBPSConfig struct {
	BaseURL       string
	AgentID       string
	AuthToken     string
	Timeout       time.Duration // per-call timeout; exceeding it is a provider failure
	RetryAttempts int           // read-style calls only, never the payment invocation
	RetryBackoff  time.Duration
}

// LedgerConfig tunes the optimistic-concurrency retry loop of the wallet
// ledger store.
type LedgerConfig struct {
	RetryAttempts int
	RetryBackoff  time.Duration
}

// RateLimitConfig bounds bill payments per user and service in a rolling
// window.
type RateLimitConfig struct {
	MaxPerWindow int
	Window       time.Duration
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// validate performs comprehensive validation of all configuration values
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}

	if c.Redis.Addr == "" {
		validationErrors = append(validationErrors, "REDIS_ADDR is required")
	}

	if c.Kafka.Brokers == "" {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.AuditTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_AUDIT_TOPIC is required")
	}

	if c.BBPS.BaseURL == "" {
		validationErrors = append(validationErrors, "BBPS_BASE_URL is required")
	}
	if c.BBPS.AgentID == "" {
		validationErrors = append(validationErrors, "BBPS_AGENT_ID is required")
	}
	if c.BBPS.Timeout <= 0 {
		validationErrors = append(validationErrors, "BBPS_TIMEOUT must be greater than 0")
	}
	if c.BBPS.RetryAttempts <= 0 {
		validationErrors = append(validationErrors, "BBPS_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.Ledger.RetryAttempts <= 0 {
		validationErrors = append(validationErrors, "LEDGER_RETRY_ATTEMPTS must be greater than 0")
	}
	if c.Ledger.RetryBackoff <= 0 {
		validationErrors = append(validationErrors, "LEDGER_RETRY_BACKOFF must be greater than 0")
	}

	if c.RateLimit.MaxPerWindow <= 0 {
		validationErrors = append(validationErrors, "RATE_LIMIT_MAX_PER_WINDOW must be greater than 0")
	}
	if c.RateLimit.Window <= 0 {
		validationErrors = append(validationErrors, "RATE_LIMIT_WINDOW must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
