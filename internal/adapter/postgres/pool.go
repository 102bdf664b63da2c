// Package postgres holds the PostgreSQL plumbing shared by the catalog
// repositories: pool construction, migrations, transactions and error mapping.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/symbolset/pkg/config"
)

// errNoDSN is returned when a pool is requested for a disabled catalog.
var errNoDSN = errors.New("catalog: database.dsn is empty")

// NewPool opens the symbol catalog pool and pings it, so a bad DSN fails
// before any pipeline phase runs. MinConns is capped at MaxConns.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if !cfg.Enabled() {
		return nil, errNoDSN
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = min(cfg.MinConns, cfg.MaxConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("catalog: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("catalog: ping %s: %w", poolCfg.ConnConfig.Host, err)
	}
	return pool, nil
}
