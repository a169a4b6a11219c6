// Package timeframe converts OHLCV bar series between resolutions and
// merges series of different resolutions into a single frame.
//
// Buckets are left-closed and left-labeled: a row belongs to the bucket
// whose start is the latest one at or before the row's time, and the
// output row carries that start as its timestamp.
package timeframe

import (
	"math"
	"time"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// accumulator folds one column's values over the rows of a bucket
// according to the column's role. NaN inputs are skipped the way
// dataframe reducers skip missing values; a bucket that saw only NaN
// yields NaN.
type accumulator struct {
	role models.Role
	seen bool
	val  float64
}

func (a *accumulator) reset() {
	a.seen = false
	a.val = math.NaN()
}

func (a *accumulator) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	if !a.seen {
		a.seen = true
		a.val = v
		return
	}
	switch a.role {
	case models.RoleFirst:
		// first value already captured
	case models.RoleMax:
		if v > a.val {
			a.val = v
		}
	case models.RoleMin:
		if v < a.val {
			a.val = v
		}
	case models.RoleSum:
		a.val += v
	default: // RoleLast
		a.val = v
	}
}

func newAccumulators(cols []models.Column) []accumulator {
	accs := make([]accumulator, len(cols))
	for i := range cols {
		accs[i].role = cols[i].Role
		accs[i].reset()
	}
	return accs
}

// Aggregate groups the rows of s into buckets of tf and reduces every
// column by its role in a single pass. Output rows are labeled with
// their bucket start. Buckets with no rows never appear, and a bucket
// whose columns are all NaN is dropped too.
func Aggregate(s *models.Series, tf models.Timeframe) *models.Series {
	out := &models.Series{Columns: make([]models.Column, len(s.Columns))}
	for i, c := range s.Columns {
		out.Columns[i] = models.Column{Key: c.Key, Role: c.Role}
	}
	if s.Len() == 0 {
		return out
	}

	accs := newAccumulators(s.Columns)

	flush := func(label time.Time) {
		empty := true
		for i := range accs {
			if accs[i].seen {
				empty = false
				break
			}
		}
		if !empty {
			out.Times = append(out.Times, label)
			for i := range accs {
				out.Columns[i].Values = append(out.Columns[i].Values, accs[i].val)
			}
		}
		for i := range accs {
			accs[i].reset()
		}
	}

	bucket := tf.Truncate(s.Times[0])
	for i, t := range s.Times {
		if b := tf.Truncate(t); !b.Equal(bucket) {
			flush(bucket)
			bucket = b
		}
		for j := range accs {
			accs[j].add(s.Columns[j].Values[i])
		}
	}
	flush(bucket)

	return out
}
