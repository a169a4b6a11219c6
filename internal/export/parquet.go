package export

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// exportBar is the flat Parquet row layout.
type exportBar struct {
	TimeMs int64   `parquet:"time_ms"`
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume float64 `parquet:"volume"`
}

// ParquetWriter renders plain OHLCV series. Merged frames carry
// arbitrary columns and are rejected, the schema here is static.
type ParquetWriter struct{}

func (ParquetWriter) Extension() string { return "parquet" }

func (ParquetWriter) ContentType() string { return "application/vnd.apache.parquet" }

func (ParquetWriter) Write(w io.Writer, symbol string, s *models.Series) error {
	bars, ok := s.Bars()
	if !ok {
		return fmt.Errorf("parquet export: series for %q is not a plain OHLCV series", symbol)
	}

	rows := make([]exportBar, len(bars))
	for i, b := range bars {
		rows[i] = exportBar{
			TimeMs: b.Time.UnixMilli(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}

	pw := parquet.NewGenericWriter[exportBar](w)
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return err
	}
	return pw.Close()
}
