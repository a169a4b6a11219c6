package timeframe

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// Convert aggregates s from one timeframe to a coarser one.
//
// A minute target must be an exact multiple of the minute source
// (1min into 15min works, 5min into 12min does not); calendar targets
// are accepted from any source resolution. An empty series converts to
// an empty series without error.
func Convert(s *models.Series, from, to models.Timeframe) (*models.Series, error) {
	if err := checkConversion(from, to); err != nil {
		return nil, err
	}
	return Aggregate(s, to), nil
}

// checkConversion applies the intraday multiple-of rule.
func checkConversion(from, to models.Timeframe) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: %v to %v", ErrInvalidConversion, from, to)
	}
	if !to.Intraday() {
		return nil
	}
	if !from.Intraday() || to.N/from.N < 1 || to.N%from.N != 0 {
		return fmt.Errorf("%w: %s bars cannot be built from %s bars", ErrInvalidConversion, to, from)
	}
	return nil
}

// Result is the per-symbol outcome of ConvertMany.
type Result struct {
	Series *models.Series
	Err    error
}

// ConvertMany converts every series of a symbol table from one
// timeframe to another, fanning symbols out over a bounded worker
// pool.
//
// Behavior:
//   - The from/to pair is validated once up front; an invalid pair
//     fails the whole call before any work starts.
//   - Each symbol gets an independent result slot: one symbol's
//     failure (e.g. a nil series) is recorded in its slot and does not
//     stop the others.
//   - parallel caps the number of concurrent conversions; values < 1
//     fall back to the CPU count.
//
// The returned error is non-nil only when ctx is canceled.
func ConvertMany(ctx context.Context, table models.SymbolTable, from, to models.Timeframe, parallel int) (map[string]Result, error) {
	if err := checkConversion(from, to); err != nil {
		return nil, err
	}

	if parallel < 1 {
		parallel = runtime.NumCPU()
	}

	symbols := table.Symbols()
	results := make([]Result, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, parallel)

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

			s := table[symbol]
			if s == nil {
				results[idx] = Result{Err: fmt.Errorf("symbol %q: nil series", symbol)}
				return nil
			}
			out, err := Convert(s, from, to)
			results[idx] = Result{Series: out, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Result, len(symbols))
	for i, sym := range symbols {
		out[sym] = results[i]
	}
	return out, nil
}
