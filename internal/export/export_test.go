package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/parquet-go/parquet-go"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

func barSeries() *models.Series {
	return models.NewSeries([]models.Bar{
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9.5, Close: 10.5, Volume: 100},
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 10.5, High: 12, Low: 10, Close: 11, Volume: 200},
	})
}

// mergedSeries builds a two-column frame with a hole, the shape a
// multi-timeframe merge produces.
func mergedSeries() *models.Series {
	return &models.Series{
		Times: []time.Time{
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		},
		Columns: []models.Column{
			{
				Key:    models.ColumnKey{Group: models.PriceGroup, Field: "Close_day"},
				Role:   models.RoleLast,
				Values: []float64{10.5, 11},
			},
			{
				Key:    models.ColumnKey{Group: models.PriceGroup, Field: "Close_week"},
				Role:   models.RoleLast,
				Values: []float64{math.NaN(), 11},
			},
		},
	}
}

func TestNewSeriesWriter(t *testing.T) {
	for _, format := range []string{"csv", "JSON", " parquet ", "arrow"} {
		w, err := NewSeriesWriter(format)
		if err != nil || w == nil {
			t.Fatalf("NewSeriesWriter(%q): %v", format, err)
		}
	}
	if _, err := NewSeriesWriter("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("want ErrUnknownFormat, got %v", err)
	}
}

func TestCSVWriter_HolesBecomeEmptyCells(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSVWriter{}).Write(&buf, "PETR4", mergedSeries()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "time,Close_day,Close_week" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "2024-01-02T00:00:00Z,10.5," {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if lines[2] != "2024-01-03T00:00:00Z,11,11" {
		t.Fatalf("unexpected second row %q", lines[2])
	}
}

func TestJSONWriter_HolesBecomeNull(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONWriter{}).Write(&buf, "PETR4", mergedSeries()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded struct {
		Symbol  string `json:"symbol"`
		Times   []time.Time
		Columns []struct {
			Name   string     `json:"name"`
			Values []*float64 `json:"values"`
		} `json:"columns"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Symbol != "PETR4" || len(decoded.Columns) != 2 {
		t.Fatalf("unexpected payload %+v", decoded)
	}
	week := decoded.Columns[1]
	if week.Name != "Close_week" {
		t.Fatalf("unexpected column %q", week.Name)
	}
	if week.Values[0] != nil {
		t.Fatalf("want null hole, got %v", *week.Values[0])
	}
	if week.Values[1] == nil || *week.Values[1] != 11 {
		t.Fatalf("want 11, got %v", week.Values[1])
	}
}

func TestParquetWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := (ParquetWriter{}).Write(&buf, "PETR4", barSeries()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows, err := parquet.Read[exportBar](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows got %d", len(rows))
	}
	wantMs := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC).UnixMilli()
	if rows[1].TimeMs != wantMs || rows[1].High != 12 || rows[1].Volume != 200 {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}

func TestParquetWriter_RejectsMergedFrames(t *testing.T) {
	var buf bytes.Buffer
	if err := (ParquetWriter{}).Write(&buf, "PETR4", mergedSeries()); err == nil {
		t.Fatalf("expected error for non-OHLCV series")
	}
}

func TestArrowWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := (ArrowWriter{}).Write(&buf, "PETR4", mergedSeries()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rdr, err := ipc.NewReader(&buf)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer rdr.Release()

	if !rdr.Next() {
		t.Fatalf("want one record, got none (%v)", rdr.Err())
	}
	rec := rdr.Record()
	if rec.NumRows() != 2 || rec.NumCols() != 3 {
		t.Fatalf("want 2x3 record, got %dx%d", rec.NumRows(), rec.NumCols())
	}

	week, ok := rec.Column(2).(*array.Float64)
	if !ok {
		t.Fatalf("column 2 is %T", rec.Column(2))
	}
	if !week.IsNull(0) {
		t.Fatalf("want null hole at row 0")
	}
	if week.IsNull(1) || week.Value(1) != 11 {
		t.Fatalf("want 11 at row 1, got null=%v v=%v", week.IsNull(1), week.Value(1))
	}
}
