package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/processor"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type Config struct {
	AppName                       string        `env:"APP_NAME" envDefault:"fern-api"`
	Port                          int           `env:"PORT" envDefault:"3004"`
	LogLevel                      string        `env:"LOG_LEVEL" envDefault:"info"`
	PrettyLogs                    bool          `env:"PRETTY_LOGS" envDefault:"false"`
	HttpServerWriteTimeoutSeconds int           `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" envDefault:"10"`
	HttpServerReadTimeoutSeconds  int           `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" envDefault:"10"`
	HttpServerIdleTimeoutSeconds  int           `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" envDefault:"10"`
	ShutdownTimeout               time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	StartupMaxAttempts            int           `env:"STARTUP_MAX_ATTEMPTS" envDefault:"5"`
	StartupBackoffUnit            time.Duration `env:"STARTUP_BACKOFF_UNIT" envDefault:"1s"`

	// PostgreSQL
	DatabaseDriver              string        `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" envDefault:"localhost"`
	DatabasePort                string        `env:"DB_PORT" envDefault:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" envDefault:""`
	DatabasePassword            string        `env:"DB_PASSWORD" envDefault:""`
	DatabaseName                string        `env:"DB_NAME" envDefault:"fern"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" envDefault:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"10m"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" envDefault:"db/pg"`
	DatabaseMigrationVersion    uint          `env:"DB_MIGRATION_VERSION" envDefault:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" envDefault:"0"`

	// Redis (region candidate cache and rematch locks)
	RedisEnabled      bool          `env:"REDIS_ENABLED" envDefault:"true"`
	RedisHost         string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	CandidateCacheTTL time.Duration `env:"CANDIDATE_CACHE_TTL" envDefault:"10m"`

	// Kafka Consumer (transaction records)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" envDefault:"transactions"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"fern-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" envDefault:"true"`

	// Kafka Producer (match outcomes)
	KafkaOutputTopic  string `env:"KAFKA_OUTPUT_TOPIC" envDefault:"transaction-match-outcomes"`
	KafkaBatchSize    int    `env:"KAFKA_BATCH_SIZE" envDefault:"100"`
	KafkaBatchTimeout int    `env:"KAFKA_BATCH_TIMEOUT_MS" envDefault:"100"`
	KafkaRequiredAcks int    `env:"KAFKA_REQUIRED_ACKS" envDefault:"1"`
	KafkaCompression  string `env:"KAFKA_COMPRESSION" envDefault:"snappy"`

	// Tracing
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTLPInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`

	// Matching
	MatchThreshold          float64       `env:"MATCH_THRESHOLD" envDefault:"85"`
	MatchAmbiguityMargin    float64       `env:"MATCH_AMBIGUITY_MARGIN" envDefault:"10"`
	MatchBuildYearTolerance int           `env:"MATCH_BUILD_YEAR_TOLERANCE" envDefault:"3"`
	MatchMaxCandidateNames  int           `env:"MATCH_MAX_CANDIDATE_NAMES" envDefault:"10"`
	NameCacheSize           int           `env:"NAME_CACHE_SIZE" envDefault:"50000"`
	MatchWorkerCount        int           `env:"MATCH_WORKER_COUNT" envDefault:"4"`
	RematchBatchSize        int           `env:"REMATCH_BATCH_SIZE" envDefault:"5000"`
	RematchLockTTL          time.Duration `env:"REMATCH_LOCK_TTL" envDefault:"5m"`
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects matching settings that would make every decision meaningless.
func (c Config) Validate() error {
	if c.MatchThreshold <= 0 || c.MatchThreshold > 100 {
		return fmt.Errorf("MATCH_THRESHOLD must be in (0, 100], got %v", c.MatchThreshold)
	}
	if c.MatchAmbiguityMargin < 0 {
		return fmt.Errorf("MATCH_AMBIGUITY_MARGIN must not be negative, got %v", c.MatchAmbiguityMargin)
	}
	if c.NameCacheSize < 0 {
		return fmt.Errorf("NAME_CACHE_SIZE must not be negative, got %d", c.NameCacheSize)
	}
	return nil
}

func (c Config) Database() database.Config {
	return database.Config{
		Driver:          c.DatabaseDriver,
		Host:            c.DatabaseHost,
		Port:            c.DatabasePort,
		UserName:        c.DatabaseUserName,
		Password:        c.DatabasePassword,
		Name:            c.DatabaseName,
		SSLMode:         c.DatabaseSSLMode,
		MaxOpenConns:    c.DatabaseMaxOpenConns,
		MaxIdleConns:    c.DatabaseMaxIdleConns,
		ConnMaxLifetime: c.DatabaseConnMaxLifetime,
	}
}

func (c Config) Migration() database.MigrationConfig {
	return database.MigrationConfig{
		MigrationFolderPath: c.DatabaseMigrationFolderPath,
		Version:             c.DatabaseMigrationVersion,
		Force:               c.DatabaseMigrationForce,
	}
}

func (c Config) Redis() redis.Config {
	return redis.Config{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (c Config) Consumer() kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		Brokers:       c.KafkaBrokers,
		Topic:         c.KafkaInputTopic,
		ConsumerGroup: c.KafkaConsumerGroup,
	}
}

func (c Config) Producer() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:      c.KafkaBrokers,
		Topic:        c.KafkaOutputTopic,
		BatchSize:    c.KafkaBatchSize,
		BatchTimeout: time.Duration(c.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: c.KafkaRequiredAcks,
		Compression:  c.KafkaCompression,
	}
}

func (c Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName: c.AppName,
		Endpoint:    c.OTLPEndpoint,
		Insecure:    c.OTLPInsecure,
	}
}

func (c Config) Matching() matching.Config {
	return matching.Config{
		Threshold:          c.MatchThreshold,
		AmbiguityMargin:    c.MatchAmbiguityMargin,
		BuildYearTolerance: c.MatchBuildYearTolerance,
		MaxCandidateNames:  c.MatchMaxCandidateNames,
	}
}

func (c Config) Processor() processor.Config {
	return processor.Config{
		Workers:   c.MatchWorkerCount,
		BatchSize: c.RematchBatchSize,
		LockTTL:   c.RematchLockTTL,
	}
}
