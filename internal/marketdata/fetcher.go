package marketdata

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mhorta/tfpulse/internal/domain/models"
	"github.com/mhorta/tfpulse/internal/logger"
)

// ErrInvalidPeriod is returned when a lookback period string cannot be
// parsed.
var ErrInvalidPeriod = errors.New("invalid period")

// Fetcher resolves multi-symbol bar tables, serving from cache when the
// same request was downloaded before.
type Fetcher struct {
	provider Provider
	cache    *Cache
	parallel int
	log      zerolog.Logger
}

// NewFetcher wires a provider and cache together. parallel < 1 falls
// back to the number of CPUs.
func NewFetcher(provider Provider, cache *Cache, parallel int) *Fetcher {
	if parallel < 1 {
		parallel = runtime.NumCPU()
	}
	return &Fetcher{
		provider: provider,
		cache:    cache,
		parallel: parallel,
		log:      logger.With("marketdata"),
	}
}

// GetTable returns bars for all symbols at the given timeframe, using
// the cached download when one exists for the same request.
func (f *Fetcher) GetTable(ctx context.Context, symbols []string, tf models.Timeframe, period string) (models.SymbolTable, error) {
	key := f.cache.Key(symbols, tf, period)
	table, ok, err := f.cache.Load(key)
	if err != nil {
		return nil, err
	}
	if ok {
		f.log.Debug().Str("key", key[:8]).Int("symbols", len(table)).Msg("cache hit")
		return table, nil
	}
	return f.RefreshTable(ctx, symbols, tf, period)
}

// RefreshTable always downloads, then replaces the cached blob.
//
// Behavior:
//   - Symbols are fetched concurrently; the first failure cancels the
//     remaining fetches and fails the whole refresh.
//   - The cache is only written after every symbol succeeded, so a
//     partial download is never served later.
func (f *Fetcher) RefreshTable(ctx context.Context, symbols []string, tf models.Timeframe, period string) (models.SymbolTable, error) {
	if len(symbols) == 0 {
		return nil, errors.New("no symbols requested")
	}
	now := time.Now().UTC()
	from, err := periodStart(now, period)
	if err != nil {
		return nil, err
	}

	table := make(models.SymbolTable, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, f.parallel)
	results := make([]*models.Series, len(symbols))

	for i, sym := range symbols {
		idx := i
		symbol := sym
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			bars, err := f.provider.FetchBars(gctx, symbol, tf, from, now)
			if err != nil {
				return err
			}
			f.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("fetched")
			results[idx] = models.NewSeries(bars)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, sym := range symbols {
		table[sym] = results[i]
	}

	key := f.cache.Key(symbols, tf, period)
	if err := f.cache.Store(key, table); err != nil {
		return nil, err
	}
	f.log.Info().Int("symbols", len(table)).Str("timeframe", tf.String()).Msg("download cached")
	return table, nil
}

// periodStart resolves a lookback period such as "5d", "2w", "6mo" or
// "1y" against now.
func periodStart(now time.Time, period string) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	i := 0
	for i < len(p) && p[i] >= '0' && p[i] <= '9' {
		i++
	}
	if i == 0 || i == len(p) {
		return time.Time{}, fmt.Errorf("%w: %q (want e.g. 30d, 12w, 6mo, 1y)", ErrInvalidPeriod, period)
	}
	n, err := strconv.Atoi(p[:i])
	if err != nil || n < 1 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	switch p[i:] {
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "w":
		return now.AddDate(0, 0, -7*n), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	case "y":
		return now.AddDate(-n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q (want e.g. 30d, 12w, 6mo, 1y)", ErrInvalidPeriod, period)
}
