package main

//
//  @title           tfpulse API
//  @version         1.0
//  @description     OHLCV timeframe conversion & merge service.
//  @termsOfService  https://github.com/mhorta/tfpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/mhorta/tfpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        bars
//  @tag.description Endpoints for serving stored bar series
//
//  @tag.name        convert
//  @tag.description Timeframe conversion endpoints
//
//  @tag.name        merge
//  @tag.description Multi-timeframe merge endpoint
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mhorta/tfpulse/config"
	_ "github.com/mhorta/tfpulse/docs" // swagger docs
	"github.com/mhorta/tfpulse/internal/app"
	"github.com/mhorta/tfpulse/internal/domain/models"
	"github.com/mhorta/tfpulse/internal/export"
	"github.com/mhorta/tfpulse/internal/ingestion"
	"github.com/mhorta/tfpulse/internal/logger"
	"github.com/mhorta/tfpulse/internal/marketdata"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runFetch downloads bars from the configured provider and then persists
// them, exports them to files, or both.
//
// Parameters:
//   - ctx: cancellation context shared by all symbol downloads.
//   - symbols: instrument symbols, already split and upper-cased.
//   - tf: native timeframe to request from the provider.
//   - period: lookback window, e.g. "30d", "12w", "6mo", "1y".
//   - refresh: bypass the on-disk cache and re-download.
//   - store: insert the fetched bars into the configured repository.
//   - out: when non-empty, write one export file per symbol into this directory.
//   - format: export format for --out (csv, json, parquet or arrow).
func runFetch(ctx context.Context, symbols []string, tf models.Timeframe, period string, refresh, store bool, out, format string) error {
	cfg := config.AppConfig
	if cfg.Provider.BaseURL == "" {
		return errors.New("PROVIDER_BASE_URL is not configured")
	}

	cache, err := marketdata.NewCache(cfg.Provider.CacheDir)
	if err != nil {
		return err
	}
	fetcher := marketdata.NewFetcher(marketdata.NewHTTPProvider(cfg.Provider), cache, 0)

	var table models.SymbolTable
	if refresh {
		table, err = fetcher.RefreshTable(ctx, symbols, tf, period)
	} else {
		table, err = fetcher.GetTable(ctx, symbols, tf, period)
	}
	if err != nil {
		return err
	}

	if store {
		repo, _, closeRepo, err := app.OpenRepository(cfg)
		if err != nil {
			return err
		}
		defer closeRepo()

		for _, symbol := range symbols {
			bars, ok := table[symbol].Bars()
			if !ok {
				return fmt.Errorf("fetched series for %s is not bar-shaped", symbol)
			}
			if err := repo.InsertBarsBatch(ctx, symbol, tf, bars); err != nil {
				return err
			}
			logger.L().Info().Str("symbol", symbol).Str("timeframe", tf.String()).Int("rows", len(bars)).Msg("stored")
		}
	}

	if out != "" {
		writer, err := export.NewSeriesWriter(format)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}
		for _, symbol := range symbols {
			path := filepath.Join(out, symbol+"_"+tf.String()+"."+writer.Extension())
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			err = writer.Write(f, symbol, table[symbol])
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			logger.L().Info().Str("symbol", symbol).Str("path", path).Msg("exported")
		}
	}

	return nil
}

// splitSymbols turns a comma-separated flag value into upper-cased
// symbols, dropping empty entries.
func splitSymbols(list string) []string {
	parts := strings.Split(list, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// main is the entry point of the tfpulse application.
//
// Modes (selected via --mode flag):
//   - ingest: Loads <SYMBOL>_<TIMEFRAME>.csv bar files from ./data/input/.
//   - fetch:  Downloads bars from the configured provider, then stores and/or exports them.
//   - api:    Starts the REST API serving conversion and merge queries.
//
// Flags:
//   - --mode:      Execution mode ("ingest", "fetch" or "api"). Default: "ingest".
//   - --dir:       Directory containing .csv input files. Default: "./data/input".
//   - --symbols:   Comma-separated symbols for fetch mode.
//   - --timeframe: Native timeframe for fetch mode. Default: "day".
//   - --period:    Lookback period for fetch mode. Default: "1y".
//   - --port:      Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "ingest", "Mode: ingest, fetch or api")
	dir := flag.String("dir", "./data/input", "Directory with .csv bar files")
	parallel := flag.Int("parallel", 0, "How many files to process concurrently (0=auto up to CPU, max 8)")
	force := flag.Bool("force", false, "Reprocess files even if already ingested (deletes existing bars first)")
	symbols := flag.String("symbols", "", "Comma-separated symbols to fetch")
	timeframe := flag.String("timeframe", "day", "Native timeframe to fetch (e.g. 15min, day)")
	period := flag.String("period", "1y", "Lookback period to fetch (e.g. 30d, 12w, 6mo, 1y)")
	refresh := flag.Bool("refresh", false, "Bypass the fetch cache and re-download")
	store := flag.Bool("store", true, "Persist fetched bars to the repository")
	out := flag.String("out", "", "Directory to export fetched series into (empty disables export)")
	format := flag.String("format", config.AppConfig.Export.Format, "Export format for --out: csv, json, parquet or arrow")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "ingest":
		// Ingestion mode: load bar CSV files into the repository
		logger.L().Info().Msg("running ingestion")

		repo, _, closeRepo, err := app.OpenRepository(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("storage connect error")
		}
		defer closeRepo()

		if err := ingestion.ProcessDirectory(ctx, *dir, repo, *parallel, *force); err != nil {
			logger.L().Fatal().Err(err).Msg("ingestion failed")
		}
		logger.L().Info().Msg("ingestion completed successfully")

	case "fetch":
		// Fetch mode: download bars from the remote provider
		logger.L().Info().Msg("running fetch")

		syms := splitSymbols(*symbols)
		if len(syms) == 0 {
			logger.L().Fatal().Msg("fetch mode requires --symbols")
		}
		tf, err := models.ParseTimeframe(*timeframe)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("invalid --timeframe")
		}

		if err := runFetch(ctx, syms, tf, *period, *refresh, *store, *out, *format); err != nil {
			logger.L().Fatal().Err(err).Msg("fetch failed")
		}
		logger.L().Info().Msg("fetch completed successfully")

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
