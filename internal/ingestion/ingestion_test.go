package ingestion

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// fakeRepoIngestion implements minimal BarRepository for ProcessDirectory tests.
type fakeRepoIngestion struct {
	mu       sync.Mutex
	has      map[string]bool
	inserted int
	deleted  map[string]bool
}

func (f *fakeRepoIngestion) InsertBarsBatch(_ context.Context, _ string, _ models.Timeframe, bars []models.Bar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted += len(bars)
	return nil
}
func (f *fakeRepoIngestion) GetBars(context.Context, string, models.Timeframe, *time.Time, *time.Time) ([]models.Bar, error) {
	return nil, nil
}
func (f *fakeRepoIngestion) ListSymbols(context.Context, models.Timeframe) ([]string, error) {
	return nil, nil
}
func (f *fakeRepoIngestion) HasIngestionForFile(_ context.Context, filename string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.has[filename], nil
}
func (f *fakeRepoIngestion) UpsertIngestionLog(_ context.Context, filename string, _ string, _ models.Timeframe, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.has == nil {
		f.has = map[string]bool{}
	}
	f.has[filename] = true
	return nil
}
func (f *fakeRepoIngestion) DeleteBars(_ context.Context, symbol string, tf models.Timeframe) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleted == nil {
		f.deleted = map[string]bool{}
	}
	f.deleted[symbol+"|"+tf.String()] = true
	return nil
}

// two valid rows
func sampleCSV() string {
	return "time,open,high,low,close,volume\n" +
		"2024-01-02 10:00:00,10,11,9.5,10.5,100\n" +
		"2024-01-02 10:15:00,10.5,12,10,11,50\n"
}

func TestProcessDirectory_IngestsAllFiles(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "PETR4_15min.csv", []byte(sampleCSV()))
	writeTempFile(t, dir, "ABEV3_day.csv", []byte(sampleCSV()))

	fr := &fakeRepoIngestion{}
	if err := ProcessDirectory(context.Background(), dir, fr, 2, false); err != nil {
		t.Fatalf("ProcessDirectory err: %v", err)
	}
	if fr.inserted != 4 {
		t.Fatalf("expected 4 inserted rows, got %d", fr.inserted)
	}
	if !fr.has["PETR4_15min.csv"] || !fr.has["ABEV3_day.csv"] {
		t.Fatalf("expected both files logged, got %v", fr.has)
	}
}

func TestProcessDirectory_SkipIfAlreadyIngested(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "PETR4_15min.csv", []byte(sampleCSV()))

	fr := &fakeRepoIngestion{has: map[string]bool{"PETR4_15min.csv": true}}
	if err := ProcessDirectory(context.Background(), dir, fr, 1, false); err != nil {
		t.Fatalf("ProcessDirectory err: %v", err)
	}
	if fr.inserted != 0 {
		t.Fatalf("expected no inserts when already ingested, got %d", fr.inserted)
	}
}

func TestProcessDirectory_ForceReprocess(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "PETR4_15min.csv", []byte(sampleCSV()))

	fr := &fakeRepoIngestion{has: map[string]bool{"PETR4_15min.csv": true}}
	if err := ProcessDirectory(context.Background(), dir, fr, 1, true); err != nil {
		t.Fatalf("ProcessDirectory err: %v", err)
	}
	if !fr.deleted["PETR4|15min"] {
		t.Fatalf("expected delete for PETR4/15min, got %v", fr.deleted)
	}
	if fr.inserted != 2 {
		t.Fatalf("expected 2 inserted rows, got %d", fr.inserted)
	}
}

func TestProcessDirectory_NoFiles(t *testing.T) {
	dir := t.TempDir()
	err := ProcessDirectory(context.Background(), dir, &fakeRepoIngestion{}, 1, false)
	if err == nil || !strings.Contains(err.Error(), "no .csv files") {
		t.Fatalf("expected no files error, got %v", err)
	}
}

func TestProcessDirectory_BadFilenameFailsBeforeIngest(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "PETR4_15min.csv", []byte(sampleCSV()))
	writeTempFile(t, dir, "badname.csv", []byte(sampleCSV()))

	fr := &fakeRepoIngestion{}
	if err := ProcessDirectory(context.Background(), dir, fr, 1, false); err == nil {
		t.Fatalf("expected error for bad filename")
	}
	if fr.inserted != 0 {
		t.Fatalf("filename validation should run before any ingest, got %d rows", fr.inserted)
	}
}

// minimal fake repo to inject specific errors
type errRepo struct {
	fakeRepoIngestion
	hasErr    error
	upsertErr error
}

func (e *errRepo) HasIngestionForFile(context.Context, string) (bool, error) {
	if e.hasErr != nil {
		return false, e.hasErr
	}
	return false, nil
}
func (e *errRepo) UpsertIngestionLog(context.Context, string, string, models.Timeframe, int) error {
	return e.upsertErr
}

func TestProcessDirectory_HasIngestionError(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "PETR4_15min.csv", []byte(sampleCSV()))

	err := ProcessDirectory(context.Background(), dir, &errRepo{hasErr: context.DeadlineExceeded}, 1, false)
	if err == nil {
		t.Fatalf("expected error from HasIngestionForFile")
	}
}

func TestProcessDirectory_UpsertLogError(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "PETR4_15min.csv", []byte(sampleCSV()))

	err := ProcessDirectory(context.Background(), dir, &errRepo{upsertErr: context.Canceled}, 1, false)
	if err == nil {
		t.Fatalf("expected error from UpsertIngestionLog")
	}
}
