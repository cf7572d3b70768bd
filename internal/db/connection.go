package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return p, nil
}

// EnsureSchema creates the journal tables if they do not exist yet.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	_, err := p.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS deposits (
			id         BIGSERIAL PRIMARY KEY,
			address    TEXT        NOT NULL,
			amount_wei TEXT        NOT NULL,
			usd_value  TEXT        NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_deposits_address ON deposits (address);

		CREATE TABLE IF NOT EXISTS withdrawals (
			id              BIGSERIAL PRIMARY KEY,
			owner           TEXT        NOT NULL,
			swept_wei       TEXT        NOT NULL,
			funders_cleared INTEGER     NOT NULL,
			timestamp       TIMESTAMPTZ NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
