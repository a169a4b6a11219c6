// Package export writes bar series to interchange formats. CSV, JSON
// and Arrow accept any column layout (including merged multi-timeframe
// frames with holes); Parquet requires a plain OHLCV series because its
// schema is fixed at compile time.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// ErrUnknownFormat is returned by NewSeriesWriter for formats it does
// not support.
var ErrUnknownFormat = errors.New("unknown export format")

// SeriesWriter renders one series for a symbol.
type SeriesWriter interface {
	Write(w io.Writer, symbol string, s *models.Series) error
	Extension() string
	ContentType() string
}

// NewSeriesWriter creates the writer for a format (csv, json, parquet,
// arrow).
func NewSeriesWriter(format string) (SeriesWriter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVWriter{}, nil
	case "json":
		return JSONWriter{}, nil
	case "parquet":
		return ParquetWriter{}, nil
	case "arrow":
		return ArrowWriter{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// columnLabel flattens a column key into a single header name.
// Canonical price columns keep their field name; anything else joins
// group and field.
func columnLabel(key models.ColumnKey) string {
	if key.Group == models.PriceGroup || key.Group == "" {
		return key.Field
	}
	return key.Group + "_" + key.Field
}
