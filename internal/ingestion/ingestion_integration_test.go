//go:build integration
// +build integration

package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	goose "github.com/pressly/goose/v3"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mhorta/tfpulse/internal/storage"
)

// startPostgres spins up a Postgres container and returns a DSN and terminate func.
func startPostgres(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "tfpulse",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=tfpulse sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", host, port.Port(), "tfpulse")
	terminate = func() { _ = container.Terminate(context.Background()) }
	return dsn, terminate
}

func openDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return db
}

func runMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("dialect: %v", err)
	}
	// migrations path relative to this test file (internal/ingestion → ../../db/migrations)
	path := filepath.Join("..", "..", "db", "migrations")
	if err := goose.Up(db, path); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
}

// writeBarFile writes a 15-minute bar file for one symbol with rows bars
// starting at 2024-01-02 10:00 UTC.
func writeBarFile(t *testing.T, dir, symbol string, rows int) (string, int) {
	t.Helper()
	name := symbol + "_15min" + fileSuffix
	full := filepath.Join(dir, name)

	f, err := os.Create(full)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteString("time,open,high,low,close,volume\n"); err != nil {
		t.Fatalf("write header: %v", err)
	}

	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		ts := start.Add(time.Duration(i) * 15 * time.Minute)
		price := 10.0 + float64(i)
		line := fmt.Sprintf("%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			ts.Format("2006-01-02 15:04:05"),
			price, price+1, price-0.5, price+0.5, 100+i,
		)
		if _, err := f.WriteString(line); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}

	return full, rows
}

func TestIngestion_EndToEnd_ProcessDirectory(t *testing.T) {
	dsn, terminate := startPostgres(t)
	defer terminate()
	db := openDB(t, dsn)
	defer db.Close()
	runMigrations(t, db)

	tdir := t.TempDir()
	_, wrote := writeBarFile(t, tdir, "TEST4", 3)

	repo := storage.NewBarRepository(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ProcessDirectory(ctx, tdir, repo, 2, false); err != nil {
		t.Fatalf("ProcessDirectory: %v", err)
	}

	// Assert data inserted
	var cnt int
	if err := db.QueryRow("SELECT COUNT(*) FROM bars WHERE symbol='TEST4' AND timeframe='15min'").Scan(&cnt); err != nil {
		t.Fatalf("count bars: %v", err)
	}
	if cnt != wrote {
		t.Fatalf("expected %d bars, got %d", wrote, cnt)
	}

	// Assert ingestion log upserted
	var exists bool
	if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM ingestion_log WHERE filename=$1)", "TEST4_15min.csv").Scan(&exists); err != nil {
		t.Fatalf("check ingestion_log: %v", err)
	}
	if !exists {
		t.Fatalf("expected ingestion_log entry for TEST4_15min.csv")
	}

	// Second run without force must skip the file and keep the count.
	if err := ProcessDirectory(ctx, tdir, repo, 2, false); err != nil {
		t.Fatalf("ProcessDirectory rerun: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM bars WHERE symbol='TEST4'").Scan(&cnt); err != nil {
		t.Fatalf("count bars: %v", err)
	}
	if cnt != wrote {
		t.Fatalf("rerun should not duplicate bars, got %d", cnt)
	}

	// Forced run deletes and reloads.
	if err := ProcessDirectory(ctx, tdir, repo, 2, true); err != nil {
		t.Fatalf("ProcessDirectory force: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM bars WHERE symbol='TEST4'").Scan(&cnt); err != nil {
		t.Fatalf("count bars: %v", err)
	}
	if cnt != wrote {
		t.Fatalf("force rerun should end with %d bars, got %d", wrote, cnt)
	}
}
