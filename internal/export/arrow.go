package export

import (
	"io"
	"math"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// ArrowWriter renders the series as a single-record Arrow IPC stream.
// Holes map to Arrow nulls through the validity bitmap.
type ArrowWriter struct{}

func (ArrowWriter) Extension() string { return "arrow" }

func (ArrowWriter) ContentType() string { return "application/vnd.apache.arrow.stream" }

func (ArrowWriter) Write(w io.Writer, _ string, s *models.Series) error {
	pool := memory.NewGoAllocator()

	fields := make([]arrow.Field, 0, len(s.Columns)+1)
	fields = append(fields, arrow.Field{Name: "time_ms", Type: arrow.PrimitiveTypes.Int64})
	for _, col := range s.Columns {
		fields = append(fields, arrow.Field{
			Name:     columnLabel(col.Key),
			Type:     arrow.PrimitiveTypes.Float64,
			Nullable: true,
		})
	}
	schema := arrow.NewSchema(fields, nil)

	times := make([]int64, len(s.Times))
	for i, t := range s.Times {
		times[i] = t.UnixMilli()
	}
	timeBuilder := array.NewInt64Builder(pool)
	timeBuilder.AppendValues(times, nil)
	arrays := []arrow.Array{timeBuilder.NewInt64Array()}

	for _, col := range s.Columns {
		valid := make([]bool, len(col.Values))
		for i, v := range col.Values {
			valid[i] = !math.IsNaN(v)
		}
		b := array.NewFloat64Builder(pool)
		b.AppendValues(col.Values, valid)
		arrays = append(arrays, b.NewFloat64Array())
	}

	record := array.NewRecord(schema, arrays, int64(s.Len()))
	defer record.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema))
	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}
