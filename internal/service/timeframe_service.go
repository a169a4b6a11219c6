// Package service sits between the HTTP handlers and the storage and
// conversion layers, translating stored bars into series and driving
// the timeframe engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mhorta/tfpulse/internal/domain/models"
	"github.com/mhorta/tfpulse/internal/storage"
	"github.com/mhorta/tfpulse/internal/timeframe"
)

// TimeframeService defines business logic for serving, converting and
// merging bar series. This decouples HTTP handlers from data access.
type TimeframeService interface {
	// GetBars loads the stored series for one symbol and timeframe,
	// optionally bounded by [start, end).
	GetBars(ctx context.Context, symbol string, tf models.Timeframe, start, end *time.Time) (*models.Series, error)

	// Convert loads bars stored at the source timeframe and aggregates
	// them to the target.
	Convert(ctx context.Context, symbol string, from, to models.Timeframe, start, end *time.Time) (*models.Series, error)

	// ConvertBatch converts every requested symbol from one timeframe to
	// another. An empty symbol list means all symbols stored at the
	// source timeframe. Per-symbol failures land in their result slot.
	ConvertBatch(ctx context.Context, symbols []string, from, to models.Timeframe, start, end *time.Time) (map[string]timeframe.Result, error)

	// Merge joins one symbol's series across several timeframes into a
	// single frame on the finest timeframe's index. With fast=true
	// coarse series are aligned by forward-fill; otherwise they are
	// recomputed row by row so no value looks ahead of its own time.
	Merge(ctx context.Context, symbol string, tfs []models.Timeframe, start, end *time.Time, fast bool) (*models.Series, error)

	// ListSymbols returns the symbols stored at the given timeframe.
	ListSymbols(ctx context.Context, tf models.Timeframe) ([]string, error)
}

type timeframeService struct {
	repo storage.BarRepository
}

// NewTimeframeService wires the service to a bar repository.
func NewTimeframeService(repo storage.BarRepository) TimeframeService {
	return &timeframeService{repo: repo}
}

// loadSeries fetches bars and lays them out as a series. Zero rows map
// to models.ErrSymbolNotFound so callers can distinguish "nothing
// stored" from an empty but valid result.
func (s *timeframeService) loadSeries(ctx context.Context, symbol string, tf models.Timeframe, start, end *time.Time) (*models.Series, error) {
	bars, err := s.repo.GetBars(ctx, symbol, tf, start, end)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s bars: %w", symbol, tf, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no %s bars stored for %q", models.ErrSymbolNotFound, tf, symbol)
	}
	return models.NewSeries(bars), nil
}

func (s *timeframeService) GetBars(ctx context.Context, symbol string, tf models.Timeframe, start, end *time.Time) (*models.Series, error) {
	return s.loadSeries(ctx, symbol, tf, start, end)
}

func (s *timeframeService) Convert(ctx context.Context, symbol string, from, to models.Timeframe, start, end *time.Time) (*models.Series, error) {
	base, err := s.loadSeries(ctx, symbol, from, start, end)
	if err != nil {
		return nil, err
	}
	return timeframe.Convert(base, from, to)
}

func (s *timeframeService) ConvertBatch(ctx context.Context, symbols []string, from, to models.Timeframe, start, end *time.Time) (map[string]timeframe.Result, error) {
	if len(symbols) == 0 {
		all, err := s.repo.ListSymbols(ctx, from)
		if err != nil {
			return nil, fmt.Errorf("list symbols: %w", err)
		}
		symbols = all
	}

	// Missing symbols stay in the table as nil so ConvertMany records a
	// per-symbol error instead of failing the batch.
	table := make(models.SymbolTable, len(symbols))
	for _, sym := range symbols {
		series, err := s.loadSeries(ctx, sym, from, start, end)
		if err != nil {
			table[sym] = nil
			continue
		}
		table[sym] = series
	}

	return timeframe.ConvertMany(ctx, table, from, to, 0)
}

func (s *timeframeService) Merge(ctx context.Context, symbol string, tfs []models.Timeframe, start, end *time.Time, fast bool) (*models.Series, error) {
	if len(tfs) == 0 {
		return nil, timeframe.ErrNoTimeframes
	}

	finest := tfs[0]
	for _, tf := range tfs[1:] {
		if tf.Compare(finest) < 0 {
			finest = tf
		}
	}

	inputs := make([]timeframe.Input, 0, len(tfs))
	for _, tf := range tfs {
		if tf.Compare(finest) == 0 {
			base, err := s.loadSeries(ctx, symbol, tf, start, end)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, timeframe.Input{Series: base, Timeframe: tf})
			continue
		}

		// Coarse timeframes use stored bars when present; a nil series
		// tells Merge to derive them from the base instead.
		coarse, err := s.loadSeries(ctx, symbol, tf, start, end)
		if err != nil && !errors.Is(err, models.ErrSymbolNotFound) {
			return nil, err
		}
		inputs = append(inputs, timeframe.Input{Series: coarse, Timeframe: tf})
	}

	return timeframe.Merge(inputs, fast)
}

func (s *timeframeService) ListSymbols(ctx context.Context, tf models.Timeframe) ([]string, error) {
	return s.repo.ListSymbols(ctx, tf)
}
