package dto

import (
	"math"
	"time"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// BarDTO is one OHLCV bar as served by the API.
//
// Fields match the API contract and may differ from internal domain models.
// This ensures loose coupling between the API surface and business logic.
type BarDTO struct {
	Time   time.Time `json:"time" example:"2024-01-02T10:00:00Z"` // Bucket start, UTC
	Open   float64   `json:"open" example:"10.0"`
	High   float64   `json:"high" example:"15.0"`
	Low    float64   `json:"low" example:"10.0"`
	Close  float64   `json:"close" example:"14.0"`
	Volume float64   `json:"volume" example:"500"`
}

// SeriesResponse represents the JSON structure returned by the
// GET /api/v1/bars and GET /api/v1/convert endpoints.
//
// swagger:model SeriesResponse
type SeriesResponse struct {
	Symbol    string   `json:"symbol" example:"PETR4"`
	Timeframe string   `json:"timeframe" example:"week"`
	Count     int      `json:"count" example:"52"`
	Bars      []BarDTO `json:"bars"`
}

// NewSeriesResponse converts a canonical bar series to its API shape.
// It returns false when the series lacks the five price columns.
func NewSeriesResponse(symbol string, tf models.Timeframe, s *models.Series) (SeriesResponse, bool) {
	bars, ok := s.Bars()
	if !ok {
		return SeriesResponse{}, false
	}
	out := SeriesResponse{
		Symbol:    symbol,
		Timeframe: tf.String(),
		Count:     len(bars),
		Bars:      make([]BarDTO, len(bars)),
	}
	for i, b := range bars {
		out.Bars[i] = BarDTO{Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
	}
	return out, true
}

// SymbolResult is one symbol's outcome in a batch conversion: either a
// bar list or an error message, never both.
type SymbolResult struct {
	Count int      `json:"count" example:"52"`
	Bars  []BarDTO `json:"bars,omitempty"`
	Error string   `json:"error,omitempty" example:"symbol \"BROKE\": nil series"`
}

// BatchConvertResponse represents the JSON structure returned by the
// GET /api/v1/convert/batch endpoint. Results is keyed by symbol.
//
// swagger:model BatchConvertResponse
type BatchConvertResponse struct {
	From    string                  `json:"from" example:"day"`
	To      string                  `json:"to" example:"week"`
	Results map[string]SymbolResult `json:"results"`
}

// MergedColumn is one column of a merged frame. Values line up with
// the response's Times; a null marks a hole.
type MergedColumn struct {
	Group  string     `json:"group" example:"Price"`
	Field  string     `json:"field" example:"Open_week"`
	Values []*float64 `json:"values"`
}

// MergedResponse represents the JSON structure returned by the
// GET /api/v1/merge endpoint: a columnar frame on the base timeframe's
// index with one column per source timeframe and field.
//
// swagger:model MergedResponse
type MergedResponse struct {
	Symbol  string         `json:"symbol" example:"PETR4"`
	Mode    string         `json:"mode" example:"accurate"`
	Count   int            `json:"count" example:"260"`
	Times   []time.Time    `json:"times"`
	Columns []MergedColumn `json:"columns"`
}

// NewMergedResponse converts a merged frame to its API shape, mapping
// NaN holes to JSON nulls.
func NewMergedResponse(symbol, mode string, s *models.Series) MergedResponse {
	out := MergedResponse{
		Symbol:  symbol,
		Mode:    mode,
		Count:   s.Len(),
		Times:   s.Times,
		Columns: make([]MergedColumn, len(s.Columns)),
	}
	for i, c := range s.Columns {
		col := MergedColumn{Group: c.Key.Group, Field: c.Key.Field, Values: make([]*float64, len(c.Values))}
		for j, v := range c.Values {
			if !math.IsNaN(v) {
				val := v
				col.Values[j] = &val
			}
		}
		out.Columns[i] = col
	}
	return out
}
