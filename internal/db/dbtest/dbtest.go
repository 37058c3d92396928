// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/db"
)

// New returns a migrated in-memory SQLite database private to the test.
func New(t testing.TB) *bun.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	bdb, err := db.Open(context.Background(), db.DriverSQLite, dsn, 4, false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { bdb.Close() })
	if err := db.CreateSchema(context.Background(), bdb); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return bdb
}
