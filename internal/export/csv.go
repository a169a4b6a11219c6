package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// CSVWriter renders the series row by row with one column per series
// column. Holes become empty cells.
type CSVWriter struct{}

func (CSVWriter) Extension() string { return "csv" }

func (CSVWriter) ContentType() string { return "text/csv" }

func (CSVWriter) Write(w io.Writer, _ string, s *models.Series) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := make([]string, 0, len(s.Columns)+1)
	header = append(header, "time")
	for _, col := range s.Columns {
		header = append(header, columnLabel(col.Key))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, t := range s.Times {
		row[0] = t.UTC().Format(time.RFC3339)
		for j, col := range s.Columns {
			v := col.Values[i]
			if math.IsNaN(v) {
				row[j+1] = ""
			} else {
				row[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
