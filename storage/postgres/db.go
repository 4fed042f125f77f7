package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*
var embeddedMigrations embed.FS

const (
	// The schedulers and the API share one pool; two polling loops plus a
	// handful of concurrent handlers never need more than this.
	maxPoolConns    = 8
	connectTimeout  = 10 * time.Second
	maxConnLifetime = 30 * time.Minute
)

type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend opens a connection pool against dsn, verifies it with a
// ping and applies pending migrations before returning.
func NewPostgresBackend(dsn string) (*PostgresBackend, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}
	poolCfg.MaxConns = maxPoolConns
	poolCfg.MaxConnLifetime = maxConnLifetime

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	logrus.Info("connecting to database")
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	backend := &PostgresBackend{
		pool: pool,
	}

	if err := backend.Migrate(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return backend, nil
}

func (p *PostgresBackend) Close() error {
	p.pool.Close()

	return nil
}

// Migrate applies the embedded goose migrations that have not run yet.
func (p *PostgresBackend) Migrate() error {
	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(p.pool)
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose up: %w", err)
	}
	logrus.Info("database schema up to date")
	return nil
}

func (p *PostgresBackend) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *PostgresBackend) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
