package timeframe

import (
	"github.com/mhorta/tfpulse/internal/domain/models"
)

// AccurateReaggregate recomputes s on a coarser timeframe without
// look-ahead: output row i is the aggregate of the rows of i's bucket
// up to and including i, so every row shows the coarse bar exactly as
// it looked at that moment. The output keeps s's index.
//
// The whole series is one sweep with running accumulators that reset
// at bucket boundaries.
func AccurateReaggregate(s *models.Series, to models.Timeframe) *models.Series {
	out := &models.Series{Times: s.Times, Columns: make([]models.Column, len(s.Columns))}
	for i, c := range s.Columns {
		out.Columns[i] = models.Column{Key: c.Key, Role: c.Role, Values: make([]float64, s.Len())}
	}
	if s.Len() == 0 {
		return out
	}

	accs := newAccumulators(s.Columns)

	bucket := to.Truncate(s.Times[0])
	for i, t := range s.Times {
		if b := to.Truncate(t); !b.Equal(bucket) {
			bucket = b
			for j := range accs {
				accs[j].reset()
			}
		}
		for j := range accs {
			accs[j].add(s.Columns[j].Values[i])
			out.Columns[j].Values[i] = accs[j].val
		}
	}

	return out
}
