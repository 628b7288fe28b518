// Package config provides configuration structures and validation for the payment gateway.
// It handles environment-based configuration for the HTTP service, the background processor,
// their storage and messaging backends, and the ifthenpay aggregator client.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a major subsystem's configuration and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Ifthenpay   IfthenpayConfig
	Security    SecurityConfig
	Telemetry   TelemetryConfig
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
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	StateEventTopic   string // Topic carrying transaction state changes
	NumPartitions     int    // Number of partitions for topics
	ReplicationFactor int    // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains Redis configuration for the method catalogue cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Maximum number of retry attempts for outbox messages
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// IfthenpayConfig contains the aggregator client settings
type IfthenpayConfig struct {
	BaseURL            string
	CMS                string // Path segment used for integration lookup and callback activation
	CMSLabel           string // Value of the "cms" field on payment creation
	IntegrationTimeout time.Duration
	PaymentTimeout     time.Duration
	StatusTimeout      time.Duration
	ActivationTimeout  time.Duration
	MethodsTimeout     time.Duration
	PollMaxAttempts    int
	PollWait           time.Duration // Constant delay between status polls
	MethodsCacheTTL    time.Duration
	BreakerMaxFailures uint32        // Consecutive failures before the breaker opens
	BreakerOpenTimeout time.Duration // How long the breaker stays open
}

// SecurityConfig contains request protection settings
type SecurityConfig struct {
	InternalSecret      string
	CallbackAllowedIPs  []string // IPs or CIDRs allowed to call the webhook; empty allows all
	MaxRequestBodyBytes int64
}

// TelemetryConfig contains tracing settings
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
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

	// Validate Kafka config
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.StateEventTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_STATE_EVENT_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// Validate PostgreSQL config
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

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate Redis config
	if c.Redis.Addr == "" {
		validationErrors = append(validationErrors, "REDIS_ADDR is required")
	}
	if c.Redis.DB < 0 {
		validationErrors = append(validationErrors, "REDIS_DB must not be negative")
	}

	// Validate Outbox config
	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Validate ifthenpay config
	if c.Ifthenpay.BaseURL == "" {
		validationErrors = append(validationErrors, "IFTHENPAY_BASE_URL is required")
	}
	if c.Ifthenpay.CMS == "" {
		validationErrors = append(validationErrors, "IFTHENPAY_CMS is required")
	}
	if c.Ifthenpay.IntegrationTimeout <= 0 || c.Ifthenpay.PaymentTimeout <= 0 ||
		c.Ifthenpay.StatusTimeout <= 0 || c.Ifthenpay.ActivationTimeout <= 0 || c.Ifthenpay.MethodsTimeout <= 0 {
		validationErrors = append(validationErrors, "IFTHENPAY_*_TIMEOUT values must be greater than 0")
	}
	if c.Ifthenpay.PollMaxAttempts <= 0 {
		validationErrors = append(validationErrors, "IFTHENPAY_POLL_MAX_ATTEMPTS must be greater than 0")
	}
	if c.Ifthenpay.PollWait < 0 {
		validationErrors = append(validationErrors, "IFTHENPAY_POLL_WAIT must not be negative")
	}
	if c.Ifthenpay.BreakerMaxFailures == 0 {
		validationErrors = append(validationErrors, "IFTHENPAY_BREAKER_MAX_FAILURES must be greater than 0")
	}

	// Validate Security config
	if c.Security.MaxRequestBodyBytes <= 0 {
		validationErrors = append(validationErrors, "SECURITY_MAX_REQUEST_BODY_BYTES must be greater than 0")
	}
	if c.Application.Env == "production" && c.Security.InternalSecret == "" {
		validationErrors = append(validationErrors, "SECURITY_INTERNAL_SECRET is required in production")
	}

	// Validate Telemetry config
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		validationErrors = append(validationErrors, "TELEMETRY_OTLP_ENDPOINT is required when tracing is enabled")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
