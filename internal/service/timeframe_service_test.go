package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhorta/tfpulse/internal/domain/models"
	"github.com/mhorta/tfpulse/internal/timeframe"
)

// stubRepo serves canned bars keyed by symbol and timeframe label.
type stubRepo struct {
	bars map[string][]models.Bar
	err  error
}

func key(symbol string, tf models.Timeframe) string { return symbol + "|" + tf.String() }

func (s *stubRepo) InsertBarsBatch(_ context.Context, _ string, _ models.Timeframe, _ []models.Bar) error {
	return nil
}

func (s *stubRepo) GetBars(_ context.Context, symbol string, tf models.Timeframe, start, end *time.Time) ([]models.Bar, error) {
	if s.err != nil {
		return nil, s.err
	}
	bars := s.bars[key(symbol, tf)]
	var out []models.Bar
	for _, b := range bars {
		if start != nil && b.Time.Before(*start) {
			continue
		}
		if end != nil && !b.Time.Before(*end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *stubRepo) ListSymbols(_ context.Context, tf models.Timeframe) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	suffix := "|" + tf.String()
	var out []string
	for k := range s.bars {
		if len(k) > len(suffix) && k[len(k)-len(suffix):] == suffix {
			out = append(out, k[:len(k)-len(suffix)])
		}
	}
	return out, nil
}

func (s *stubRepo) HasIngestionForFile(_ context.Context, _ string) (bool, error) { return false, nil }
func (s *stubRepo) UpsertIngestionLog(_ context.Context, _, _ string, _ models.Timeframe, _ int) error {
	return nil
}
func (s *stubRepo) DeleteBars(_ context.Context, _ string, _ models.Timeframe) error { return nil }

// dailyBars returns n consecutive daily bars starting at a Monday.
func dailyBars(n int) []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		f := float64(i)
		bars[i] = models.Bar{
			Time: start.AddDate(0, 0, i),
			Open: 10 + f, High: 11 + f, Low: 9 + f, Close: 10.5 + f,
			Volume: 100,
		}
	}
	return bars
}

func TestGetBars(t *testing.T) {
	repo := &stubRepo{bars: map[string][]models.Bar{
		key("PETR4", models.Days(1)): dailyBars(3),
	}}
	svc := NewTimeframeService(repo)

	s, err := svc.GetBars(context.Background(), "PETR4", models.Days(1), nil, nil)
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("want 3 rows got %d", s.Len())
	}

	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s, err = svc.GetBars(context.Background(), "PETR4", models.Days(1), &from, nil)
	if err != nil {
		t.Fatalf("GetBars bounded: %v", err)
	}
	if s.Len() != 2 || !s.Times[0].Equal(from) {
		t.Fatalf("bounded window wrong: len=%d first=%v", s.Len(), s.Times[0])
	}
}

func TestGetBars_UnknownSymbol(t *testing.T) {
	svc := NewTimeframeService(&stubRepo{bars: map[string][]models.Bar{}})
	_, err := svc.GetBars(context.Background(), "NOPE3", models.Days(1), nil, nil)
	if !errors.Is(err, models.ErrSymbolNotFound) {
		t.Fatalf("want ErrSymbolNotFound, got %v", err)
	}
}

func TestGetBars_RepoError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewTimeframeService(&stubRepo{err: boom})
	_, err := svc.GetBars(context.Background(), "PETR4", models.Days(1), nil, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped repo error, got %v", err)
	}
}

func TestConvert_DailyToWeekly(t *testing.T) {
	repo := &stubRepo{bars: map[string][]models.Bar{
		key("PETR4", models.Days(1)): dailyBars(10),
	}}
	svc := NewTimeframeService(repo)

	s, err := svc.Convert(context.Background(), "PETR4", models.Days(1), models.Weeks(1), nil, nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	// Ten days from Mon 2024-01-01 span two ISO weeks.
	if s.Len() != 2 {
		t.Fatalf("want 2 weekly rows got %d", s.Len())
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !s.Times[0].Equal(want) {
		t.Fatalf("first week label %v, want %v", s.Times[0], want)
	}
}

func TestConvert_InvalidPair(t *testing.T) {
	repo := &stubRepo{bars: map[string][]models.Bar{
		key("PETR4", models.Minutes(5)): dailyBars(3),
	}}
	svc := NewTimeframeService(repo)

	_, err := svc.Convert(context.Background(), "PETR4", models.Minutes(5), models.Minutes(12), nil, nil)
	if !errors.Is(err, timeframe.ErrInvalidConversion) {
		t.Fatalf("want ErrInvalidConversion, got %v", err)
	}
}

func TestConvertBatch_MixedOutcomes(t *testing.T) {
	repo := &stubRepo{bars: map[string][]models.Bar{
		key("PETR4", models.Days(1)): dailyBars(5),
		key("VALE3", models.Days(1)): dailyBars(5),
	}}
	svc := NewTimeframeService(repo)

	out, err := svc.ConvertBatch(context.Background(), []string{"PETR4", "GONE3"}, models.Days(1), models.Weeks(1), nil, nil)
	if err != nil {
		t.Fatalf("ConvertBatch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 results got %d", len(out))
	}
	if out["PETR4"].Err != nil || out["PETR4"].Series.Len() != 1 {
		t.Fatalf("PETR4 result wrong: %+v", out["PETR4"])
	}
	if out["GONE3"].Err == nil {
		t.Fatalf("expected per-symbol error for GONE3")
	}
}

func TestConvertBatch_AllStoredSymbols(t *testing.T) {
	repo := &stubRepo{bars: map[string][]models.Bar{
		key("PETR4", models.Days(1)): dailyBars(5),
		key("VALE3", models.Days(1)): dailyBars(5),
	}}
	svc := NewTimeframeService(repo)

	out, err := svc.ConvertBatch(context.Background(), nil, models.Days(1), models.Weeks(1), nil, nil)
	if err != nil {
		t.Fatalf("ConvertBatch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want both stored symbols, got %d", len(out))
	}
	for sym, res := range out {
		if res.Err != nil {
			t.Fatalf("%s: %v", sym, res.Err)
		}
	}
}

func TestMerge_DerivesMissingCoarseSeries(t *testing.T) {
	repo := &stubRepo{bars: map[string][]models.Bar{
		key("PETR4", models.Days(1)): dailyBars(10),
	}}
	svc := NewTimeframeService(repo)

	s, err := svc.Merge(context.Background(), "PETR4", []models.Timeframe{models.Days(1), models.Weeks(1)}, nil, nil, false)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if s.Len() != 10 {
		t.Fatalf("merged frame should keep the daily index, got %d rows", s.Len())
	}
	if _, ok := s.Column(models.ColumnKey{Group: models.PriceGroup, Field: "Open_week"}); !ok {
		t.Fatalf("missing weekly column; columns=%+v", s.Columns)
	}
}

func TestMerge_UsesStoredCoarseSeriesInFastMode(t *testing.T) {
	weekly := []models.Bar{{
		Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Open: 99, High: 99, Low: 99, Close: 99, Volume: 1,
	}}
	repo := &stubRepo{bars: map[string][]models.Bar{
		key("PETR4", models.Days(1)):  dailyBars(3),
		key("PETR4", models.Weeks(1)): weekly,
	}}
	svc := NewTimeframeService(repo)

	s, err := svc.Merge(context.Background(), "PETR4", []models.Timeframe{models.Days(1), models.Weeks(1)}, nil, nil, true)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	col, ok := s.Column(models.ColumnKey{Group: models.PriceGroup, Field: "Open_week"})
	if !ok {
		t.Fatalf("missing weekly column")
	}
	// Fast mode forward-fills the stored weekly bar, not a derived one.
	if col.Values[0] != 99 {
		t.Fatalf("want stored weekly open 99, got %v", col.Values[0])
	}
}

func TestMerge_BaseSeriesRequired(t *testing.T) {
	svc := NewTimeframeService(&stubRepo{bars: map[string][]models.Bar{}})
	_, err := svc.Merge(context.Background(), "PETR4", []models.Timeframe{models.Days(1), models.Weeks(1)}, nil, nil, true)
	if !errors.Is(err, models.ErrSymbolNotFound) {
		t.Fatalf("want ErrSymbolNotFound for missing base, got %v", err)
	}
}

func TestMerge_NoTimeframes(t *testing.T) {
	svc := NewTimeframeService(&stubRepo{})
	_, err := svc.Merge(context.Background(), "PETR4", nil, nil, nil, true)
	if !errors.Is(err, timeframe.ErrNoTimeframes) {
		t.Fatalf("want ErrNoTimeframes, got %v", err)
	}
}
