package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/shopspring/decimal"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// clickhouseBarRepository stores bars in ReplacingMergeTree tables, so
// re-inserting the same (symbol, timeframe, bar_time) row replaces it
// instead of duplicating it.
type clickhouseBarRepository struct {
	conn     clickhouse.Conn
	database string
}

// NewClickHouseBarRepository returns the ClickHouse-backed repository.
func NewClickHouseBarRepository(conn clickhouse.Conn, database string) BarRepository {
	return &clickhouseBarRepository{conn: conn, database: database}
}

// OpenClickHouse dials the native protocol endpoint and verifies the
// connection with a ping.
func OpenClickHouse(ctx context.Context, addr, database, user, password string) (clickhouse.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return conn, nil
}

// EnsureSchema creates the database and tables if missing. ClickHouse
// schema lives here rather than in the goose pipeline, which only
// targets PostgreSQL.
func EnsureSchema(ctx context.Context, conn clickhouse.Conn, database string) error {
	stmts := []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.bars (
				symbol      LowCardinality(String),
				timeframe   LowCardinality(String),
				bar_time    DateTime('UTC'),
				open        Decimal(18, 6),
				high        Decimal(18, 6),
				low         Decimal(18, 6),
				close       Decimal(18, 6),
				volume      Decimal(24, 6),
				inserted_at DateTime DEFAULT now(),
				version     UInt64
			) ENGINE = ReplacingMergeTree(version)
			ORDER BY (symbol, timeframe, bar_time)
		`, database),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.ingestion_log (
				filename    String,
				symbol      String,
				timeframe   String,
				row_count   UInt64,
				ingested_at DateTime DEFAULT now(),
				version     UInt64
			) ENGINE = ReplacingMergeTree(version)
			ORDER BY filename
		`, database),
	}
	for _, stmt := range stmts {
		if err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *clickhouseBarRepository) InsertBarsBatch(ctx context.Context, symbol string, tf models.Timeframe, bars []models.Bar) error {
	batch, err := r.conn.PrepareBatch(ctx,
		fmt.Sprintf(`INSERT INTO %s.bars SETTINGS insert_deduplicate=1`, r.database))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	now := time.Now().UTC()
	ver := uint64(now.UnixNano()) // same for this batch; ReplacingMergeTree keeps last

	label := tf.String()
	for _, b := range bars {
		if err := batch.Append(
			symbol,
			label,
			b.Time.UTC(),
			decimal.NewFromFloat(b.Open),
			decimal.NewFromFloat(b.High),
			decimal.NewFromFloat(b.Low),
			decimal.NewFromFloat(b.Close),
			decimal.NewFromFloat(b.Volume),
			now,
			ver,
		); err != nil {
			return fmt.Errorf("batch append: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("batch send: %w", err)
	}
	return nil
}

func (r *clickhouseBarRepository) GetBars(ctx context.Context, symbol string, tf models.Timeframe, start, end *time.Time) ([]models.Bar, error) {
	conditions := "symbol = ? AND timeframe = ?"
	args := []interface{}{symbol, tf.String()}
	if start != nil {
		conditions += " AND bar_time >= ?"
		args = append(args, *start)
	}
	if end != nil {
		conditions += " AND bar_time < ?"
		args = append(args, *end)
	}

	// FINAL collapses ReplacingMergeTree duplicates at read time.
	query := fmt.Sprintf(`
		SELECT bar_time, open, high, low, close, volume
		FROM %s.bars FINAL
		WHERE %s
		ORDER BY bar_time ASC
	`, r.database, conditions)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var (
			t             time.Time
			o, h, l, c, v decimal.Decimal
		)
		if err := rows.Scan(&t, &o, &h, &l, &c, &v); err != nil {
			return nil, err
		}
		bars = append(bars, models.Bar{
			Time:   t.UTC(),
			Open:   o.InexactFloat64(),
			High:   h.InexactFloat64(),
			Low:    l.InexactFloat64(),
			Close:  c.InexactFloat64(),
			Volume: v.InexactFloat64(),
		})
	}
	return bars, rows.Err()
}

func (r *clickhouseBarRepository) ListSymbols(ctx context.Context, tf models.Timeframe) ([]string, error) {
	rows, err := r.conn.Query(ctx,
		fmt.Sprintf(`SELECT DISTINCT symbol FROM %s.bars WHERE timeframe = ? ORDER BY symbol`, r.database),
		tf.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

func (r *clickhouseBarRepository) HasIngestionForFile(ctx context.Context, filename string) (bool, error) {
	var count uint64
	err := r.conn.QueryRow(ctx,
		fmt.Sprintf(`SELECT count() FROM %s.ingestion_log WHERE filename = ?`, r.database),
		filename).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpsertIngestionLog inserts a fresh row; ReplacingMergeTree keyed on
// filename keeps the one with the highest version.
func (r *clickhouseBarRepository) UpsertIngestionLog(ctx context.Context, filename, symbol string, tf models.Timeframe, rowCount int) error {
	now := time.Now().UTC()
	return r.conn.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s.ingestion_log (filename, symbol, timeframe, row_count, ingested_at, version) VALUES (?, ?, ?, ?, ?, ?)`, r.database),
		filename, symbol, tf.String(), uint64(rowCount), now, uint64(now.UnixNano()))
}

// DeleteBars issues a mutation; it is asynchronous on the server but
// adequate for re-ingest flows.
func (r *clickhouseBarRepository) DeleteBars(ctx context.Context, symbol string, tf models.Timeframe) error {
	return r.conn.Exec(ctx,
		fmt.Sprintf(`ALTER TABLE %s.bars DELETE WHERE symbol = ? AND timeframe = ?`, r.database),
		symbol, tf.String())
}
