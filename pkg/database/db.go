// Package database holds the PostgreSQL connection, query builders and migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DB is the subset of *sqlx.DB the repositories use.
type DB interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Config holds PostgreSQL connection settings
type Config struct {
	Driver          string
	Host            string
	Port            string
	UserName        string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.UserName, c.Password, c.Name, c.SSLMode)
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

// NewDatabaseInstance wraps an open connection.
func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) *DatabaseInstance {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

// Connect opens and pings a connection pool.
func Connect(ctx context.Context, cfg Config, logger ectologger.Logger) (*DatabaseInstance, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	db, err := sqlx.ConnectContext(ctx, driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s at %s:%s: %w", cfg.Name, cfg.Host, cfg.Port, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.WithContext(ctx).Infof("Connected to database %s at %s:%s", cfg.Name, cfg.Host, cfg.Port)
	return NewDatabaseInstance(db, logger), nil
}
