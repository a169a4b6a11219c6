package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// BarRepository defines the contract for bar store operations.
//
// Bars are keyed by (symbol, timeframe, bar_time); the ingestion log
// records which files have already been loaded so re-runs are
// idempotent.
type BarRepository interface {
	InsertBarsBatch(ctx context.Context, symbol string, tf models.Timeframe, bars []models.Bar) error
	GetBars(ctx context.Context, symbol string, tf models.Timeframe, start, end *time.Time) ([]models.Bar, error)
	ListSymbols(ctx context.Context, tf models.Timeframe) ([]string, error)
	HasIngestionForFile(ctx context.Context, filename string) (bool, error)
	UpsertIngestionLog(ctx context.Context, filename, symbol string, tf models.Timeframe, rowCount int) error
	DeleteBars(ctx context.Context, symbol string, tf models.Timeframe) error
}

type barRepository struct {
	db *sql.DB
}

// NewBarRepository returns the PostgreSQL-backed repository.
func NewBarRepository(db *sql.DB) BarRepository {
	return &barRepository{db: db}
}

// InsertBarsBatch inserts bars for one symbol/timeframe in a single
// transaction via COPY.
func (r *barRepository) InsertBarsBatch(ctx context.Context, symbol string, tf models.Timeframe, bars []models.Bar) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"bars",
		"symbol",
		"timeframe",
		"bar_time",
		"open",
		"high",
		"low",
		"close",
		"volume",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	label := tf.String()
	for _, b := range bars {
		if _, err := stmt.Exec(
			symbol,
			label,
			b.Time.UTC(),
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.Volume,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.Exec(); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// GetBars returns the stored bars for a symbol/timeframe ordered by
// time, optionally clipped to the half-open window [start, end).
func (r *barRepository) GetBars(ctx context.Context, symbol string, tf models.Timeframe, start, end *time.Time) ([]models.Bar, error) {
	// Build dynamic conditions for the date range filter.
	// $1/$2 are always symbol and timeframe; subsequent placeholders
	// depend on provided bounds.
	conditions := "symbol = $1 AND timeframe = $2"
	args := []interface{}{symbol, tf.String()}
	if start != nil {
		conditions += fmt.Sprintf(" AND bar_time >= $%d", len(args)+1)
		args = append(args, *start)
	}
	if end != nil {
		conditions += fmt.Sprintf(" AND bar_time < $%d", len(args)+1)
		args = append(args, *end)
	}

	query := fmt.Sprintf(`
		SELECT bar_time, open, high, low, close, volume
		FROM bars
		WHERE %s
		ORDER BY bar_time ASC
	`, conditions)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Time = b.Time.UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ListSymbols returns the distinct symbols stored at a timeframe.
func (r *barRepository) ListSymbols(ctx context.Context, tf models.Timeframe) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM bars WHERE timeframe = $1 ORDER BY symbol`, tf.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

// HasIngestionForFile checks if a bar file was already loaded.
func (r *barRepository) HasIngestionForFile(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ingestion_log WHERE filename = $1)`, filename).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertIngestionLog records (or updates) an ingestion entry for a file.
func (r *barRepository) UpsertIngestionLog(ctx context.Context, filename, symbol string, tf models.Timeframe, rowCount int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingestion_log (filename, symbol, timeframe, row_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (filename)
		DO UPDATE SET symbol = EXCLUDED.symbol,
					  timeframe = EXCLUDED.timeframe,
					  row_count = EXCLUDED.row_count,
					  ingested_at = NOW()
	`, filename, symbol, tf.String(), rowCount)
	return err
}

// DeleteBars removes all bars for a symbol/timeframe.
func (r *barRepository) DeleteBars(ctx context.Context, symbol string, tf models.Timeframe) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM bars WHERE symbol = $1 AND timeframe = $2`, symbol, tf.String())
	return err
}
