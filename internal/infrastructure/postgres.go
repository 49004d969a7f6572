package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}
	if err := client.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

// Migrate creates the waitlist and admins tables when missing.
func (p *PostgresClient) Migrate(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS waitlist (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT,
			email TEXT UNIQUE NOT NULL,
			interests JSONB NOT NULL DEFAULT '{}',
			welcome_sent BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("create waitlist table: %w", err)
	}

	if _, err := p.Pool.Exec(ctx,
		"CREATE INDEX IF NOT EXISTS waitlist_created_at_idx ON waitlist (created_at DESC);"); err != nil {
		return fmt.Errorf("create waitlist index: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS admins (
			id SERIAL PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("create admins table: %w", err)
	}

	var admins int
	if err := p.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM admins").Scan(&admins); err != nil {
		return err
	}
	if admins == 0 {
		log.Warn().Msg("admins table is empty; set ADMIN_EMAIL and ADMIN_PASSWORD to bootstrap an operator")
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
