package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgQuotaStore keeps the quota ledger in Postgres so multiple instances
// sharing one API key also share one daily budget.
type pgQuotaStore struct {
	pool *pgxpool.Pool
}

// NewPGQuotaStore creates a pgx pool against databaseURL and ensures the
// ledger table exists.
func NewPGQuotaStore(ctx context.Context, databaseURL string) (QuotaStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS trending_quota (
		id         INT PRIMARY KEY CHECK (id = 1),
		used       BIGINT NOT NULL,
		last_reset TIMESTAMPTZ NOT NULL
	)`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init quota schema: %w", err)
	}

	slog.Info("quota postgres connected", slog.String("addr", config.ConnConfig.Host))
	return &pgQuotaStore{pool: pool}, nil
}

func (s *pgQuotaStore) Load(ctx context.Context) (int64, time.Time, error) {
	var used int64
	var lastReset time.Time
	err := s.pool.QueryRow(ctx, `SELECT used, last_reset FROM trending_quota WHERE id = 1`).Scan(&used, &lastReset)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("quota store: load: %w", err)
	}
	return used, lastReset.UTC(), nil
}

func (s *pgQuotaStore) Save(ctx context.Context, used int64, lastReset time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trending_quota (id, used, last_reset) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET used = EXCLUDED.used, last_reset = EXCLUDED.last_reset`,
		used, lastReset.UTC())
	if err != nil {
		return fmt.Errorf("quota store: save: %w", err)
	}
	return nil
}

func (s *pgQuotaStore) Close() error {
	s.pool.Close()
	return nil
}
