package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coursemart/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewPool opens the Postgres connection pool used by the repositories.
func NewPool(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	dsn := cfg.DBConnectionString
	// Local Postgres runs without TLS; deployed connection strings carry their own sslmode.
	if cfg.IsDevelopment() {
		dsn = withSSLModeDisabled(dsn)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	// Transaction poolers like pgbouncer break server-side prepared statements.
	if !cfg.IsDevelopment() {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info().Uint16("db_port", poolCfg.ConnConfig.Port).Msg("Database connection successful")
	return pool, nil
}

// withSSLModeDisabled appends sslmode=disable unless the DSN already sets an sslmode.
// Both URL and keyword/value DSNs are handled.
func withSSLModeDisabled(dsn string) string {
	if strings.Contains(dsn, "sslmode") {
		return dsn
	}
	separator := " "
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		separator = "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
	}
	return dsn + separator + "sslmode=disable"
}
