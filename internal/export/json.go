package export

import (
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

type jsonColumn struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

type jsonSeries struct {
	Symbol  string       `json:"symbol"`
	Times   []time.Time  `json:"times"`
	Columns []jsonColumn `json:"columns"`
}

// JSONWriter renders the series column-wise. Holes become JSON null,
// which encoding/json can represent where NaN cannot.
type JSONWriter struct{}

func (JSONWriter) Extension() string { return "json" }

func (JSONWriter) ContentType() string { return "application/json" }

func (JSONWriter) Write(w io.Writer, symbol string, s *models.Series) error {
	payload := jsonSeries{
		Symbol:  symbol,
		Times:   make([]time.Time, len(s.Times)),
		Columns: make([]jsonColumn, 0, len(s.Columns)),
	}
	for i, t := range s.Times {
		payload.Times[i] = t.UTC()
	}
	for _, col := range s.Columns {
		jc := jsonColumn{Name: columnLabel(col.Key), Values: make([]*float64, len(col.Values))}
		for i, v := range col.Values {
			if !math.IsNaN(v) {
				value := v
				jc.Values[i] = &value
			}
		}
		payload.Columns = append(payload.Columns, jc)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
