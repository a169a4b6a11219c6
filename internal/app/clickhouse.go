package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/mhorta/tfpulse/config"
	"github.com/mhorta/tfpulse/internal/storage"
)

// InitClickHouse opens a native-protocol ClickHouse connection and
// makes sure the bars schema exists.
//
// Unlike the Postgres backend, which is migrated with goose, ClickHouse
// DDL is applied here on startup: the statements are idempotent
// (CREATE ... IF NOT EXISTS) and need no migration history.
//
// Returns:
//   - clickhouse.Conn: a live connection pool (safe for concurrent use).
//   - error: if connecting or applying the schema fails.
func InitClickHouse(cfg config.Config) (clickhouse.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := storage.OpenClickHouse(ctx, cfg.ClickHouse.Addr, cfg.ClickHouse.DBName, cfg.ClickHouse.User, cfg.ClickHouse.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse: %w", err)
	}

	if err := storage.EnsureSchema(ctx, conn, cfg.ClickHouse.DBName); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ensure clickhouse schema: %w", err)
	}

	return conn, nil
}

// clickhouseOpener is an indirection used by OpenRepository; overridden in tests to avoid real connections.
var clickhouseOpener = InitClickHouse
