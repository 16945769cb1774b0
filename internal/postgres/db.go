package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the two tables at startup. Timestamps are RFC3339
// text so ORDER BY created_at is chronological.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS purchases (
			id           BIGSERIAL PRIMARY KEY,
			user_id      BIGINT NOT NULL,
			order_id     TEXT NOT NULL UNIQUE,
			product_id   BIGINT NOT NULL,
			product_name TEXT NOT NULL,
			quantity     INT NOT NULL,
			price        NUMERIC(12,2) NOT NULL,
			total_price  NUMERIC(12,2) NOT NULL,
			status       TEXT NOT NULL,
			keys         TEXT,
			created_at   TEXT NOT NULL,
			completed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_user_id ON purchases(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_order_id ON purchases(order_id)`,
		`CREATE TABLE IF NOT EXISTS marketplace_links (
			external_id   TEXT NOT NULL,
			user_id       BIGINT NOT NULL,
			product_id    BIGINT NOT NULL,
			price_at_link NUMERIC(12,2) NOT NULL,
			created_at    TEXT NOT NULL,
			PRIMARY KEY (external_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_user_id ON marketplace_links(user_id)`,
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
