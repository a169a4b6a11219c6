// Package ingestion loads bar CSV files into the repository. Filenames
// carry the symbol and native timeframe ("PETR4_15min.csv"), and the
// ingestion log keeps re-runs idempotent.
package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mhorta/tfpulse/internal/domain/models"
	"github.com/mhorta/tfpulse/internal/logger"
	"github.com/mhorta/tfpulse/internal/storage"
)

const (
	fileSuffix       = ".csv"
	defaultBatchSize = 5000
	maxWorkers       = 8
)

// ProcessDirectory ingests every bar CSV found in dir.
//
//   - dir:  directory containing "<SYMBOL>_<TIMEFRAME>.csv" input files.
//   - repo: destination repository (PostgreSQL or ClickHouse backed).
//
// Behavior:
//   - Discovers *.csv files; the filename carries symbol and timeframe.
//   - Uses a concurrency limit based on CPU count (capped at 8).
//   - For each file, parses & inserts bars in batches via repository.
//   - Files already present in the ingestion log are skipped unless force;
//     with force, existing bars for that symbol/timeframe are deleted first.
//   - If any file returns error, cancels the rest and returns that error.
//
// Returns:
//   - error: first error encountered (if any).
func ProcessDirectory(ctx context.Context, dir string, repo storage.BarRepository, parallel int, force bool) error {
	files, err := filepath.Glob(filepath.Join(dir, "*"+fileSuffix))
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found in %s", fileSuffix, dir)
	}
	sort.Strings(files)

	// Validate all filenames upfront so a typo fails fast, before any
	// file is ingested.
	for _, f := range files {
		if _, _, err := parseBarFilename(filepath.Base(f)); err != nil {
			return err
		}
	}

	logger.L().Info().Int("files", len(files)).Str("dir", dir).Msg("ingestion start")

	maxParallel := maxWorkers
	if parallel > 0 {
		if parallel > maxWorkers {
			parallel = maxWorkers
		}
		maxParallel = parallel
	} else if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}

	logger.L().Info().Int("max_parallel", maxParallel).Msg("ingestion configured")

	// errgroup will cancel siblings on first error.
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxParallel)

	for i, file := range files {
		idx := i
		f := file
		sem <- struct{}{}

		g.Go(func() error {
			defer func() { <-sem }()
			start := time.Now()
			base := filepath.Base(f)
			logger.L().Info().Int("idx", idx+1).Int("total", len(files)).Str("file", base).Msg("file start")

			symbol, tf, err := parseBarFilename(base)
			if err != nil {
				return err
			}

			// Idempotency: skip if already ingested, unless force
			exists, err := repo.HasIngestionForFile(gctx, base)
			if err != nil {
				logger.L().Error().Str("file", base).Err(err).Msg("check ingestion log failed")
				return fmt.Errorf("file %s: check ingestion log: %w", f, err)
			}
			if exists && !force {
				logger.L().Info().Int("idx", idx+1).Int("total", len(files)).Str("file", base).Bool("skipped", true).Msg("already ingested")
				return nil
			}
			if exists && force {
				// Delete existing bars for that symbol/timeframe and reprocess
				if err := repo.DeleteBars(gctx, symbol, tf); err != nil {
					logger.L().Error().Str("file", base).Err(err).Msg("delete existing failed")
					return fmt.Errorf("file %s: delete existing: %w", f, err)
				}
			}

			total, err := parseAndPersistFile(gctx, f, repo, symbol, tf, defaultBatchSize)
			if err != nil {
				logger.L().Error().Str("file", base).Dur("elapsed", time.Since(start)).Err(err).Msg("file failed")
				return fmt.Errorf("file %s: %w", f, err)
			}
			if err := repo.UpsertIngestionLog(gctx, base, symbol, tf, total); err != nil {
				logger.L().Error().Str("file", base).Err(err).Msg("update ingestion log failed")
				return fmt.Errorf("file %s: upsert ingestion log: %w", f, err)
			}
			logger.L().Info().Int("idx", idx+1).Int("total", len(files)).Str("file", base).Str("symbol", symbol).Str("timeframe", tf.String()).Int("rows", total).Dur("elapsed", time.Since(start)).Bool("force", force).Msg("file done")
			return nil
		})
	}

	return g.Wait()
}

// parseBarFilename splits "<SYMBOL>_<TIMEFRAME>.csv" into its parts.
// The last underscore separates symbol from timeframe, so symbols may
// themselves contain underscores.
func parseBarFilename(base string) (string, models.Timeframe, error) {
	name := strings.TrimSuffix(base, fileSuffix)
	i := strings.LastIndex(name, "_")
	if i <= 0 || i == len(name)-1 {
		return "", models.Timeframe{}, fmt.Errorf("file %s: want <SYMBOL>_<TIMEFRAME>%s", base, fileSuffix)
	}
	symbol := name[:i]
	tf, err := models.ParseTimeframe(name[i+1:])
	if err != nil {
		return "", models.Timeframe{}, fmt.Errorf("file %s: %w", base, err)
	}
	return symbol, tf, nil
}
