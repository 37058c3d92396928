package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/theunknown2025/sympos-ai-sub004/internal/metrics"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the configured database and verifies the connection.
// poolSize caps both open and idle connections.
func Open(ctx context.Context, driver, dsn string, poolSize int, debug bool) (*bun.DB, error) {
	if poolSize <= 0 {
		poolSize = 1
	}

	var db *bun.DB
	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("db: unknown driver %q", driver)
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)

	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(debug),
		bundebug.WithVerbose(debug),
		bundebug.FromEnv("BUNDEBUG"),
	))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db: ping %s: %w", driver, err)
	}
	return db, nil
}

// Keepalive pings the database every interval until ctx is done, recording
// latency and liveness gauges.
func Keepalive(ctx context.Context, db *bun.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := db.PingContext(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("database ping failed", "error", err)
				metrics.DBUp.Set(0)
				continue
			}
			metrics.DBPingLatency.Set(time.Since(start).Seconds())
			metrics.DBUp.Set(1)
		}
	}
}
