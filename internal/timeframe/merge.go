package timeframe

import (
	"fmt"
	"math"
	"time"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// Input is one series entering a merge, tagged with its timeframe. A
// nil Series is derived from the base series during the merge.
type Input struct {
	Series    *models.Series
	Timeframe models.Timeframe
}

// Merge joins series of different timeframes into a single frame on
// the finest timeframe's index. The finest input is the base; every
// column is renamed with its timeframe suffix (Open becomes Open_day,
// Open_week, ...) so sources stay distinguishable.
//
// Behavior:
//   - fast aligns each coarse series by forward-fill: a base row takes
//     the latest coarse bar labeled at or before it. Bars labeled at a
//     period's start therefore leak the whole period into its early
//     rows; this is the cheap, look-ahead-biased mode.
//   - accurate ignores supplied coarse series and recomputes each
//     coarse column from the base series row by row (see
//     AccurateReaggregate), so no row sees past its own time.
//   - Inputs at the base timeframe beyond the first are skipped. A nil
//     coarse series is derived from the base via Convert.
//
// Errors: ErrNoTimeframes for an empty input list, ErrMissingBaseSeries
// when the finest input has a nil series, and ErrInvalidConversion when
// a coarse timeframe cannot be derived from the base resolution.
func Merge(inputs []Input, fast bool) (*models.Series, error) {
	if len(inputs) == 0 {
		return nil, ErrNoTimeframes
	}

	base := inputs[0]
	for _, in := range inputs[1:] {
		if in.Timeframe.Compare(base.Timeframe) < 0 {
			base = in
		}
	}
	if base.Series == nil {
		return nil, fmt.Errorf("%w: no series for finest timeframe %s", ErrMissingBaseSeries, base.Timeframe)
	}

	result := base.Series.WithSuffix(base.Timeframe.String())

	for _, in := range inputs {
		if in.Timeframe.Compare(base.Timeframe) == 0 {
			continue
		}

		var aligned *models.Series
		if fast {
			coarse := in.Series
			if coarse == nil {
				derived, err := Convert(base.Series, base.Timeframe, in.Timeframe)
				if err != nil {
					return nil, err
				}
				coarse = derived
			}
			aligned = forwardFill(coarse, base.Series.Times)
		} else {
			if err := checkConversion(base.Timeframe, in.Timeframe); err != nil {
				return nil, err
			}
			aligned = AccurateReaggregate(base.Series, in.Timeframe)
		}

		result = outerJoin(result, aligned.WithSuffix(in.Timeframe.String()))
	}

	return result, nil
}

// forwardFill projects a coarse series onto index: each output row
// takes the last coarse row labeled at or before it, NaN before the
// first label.
func forwardFill(s *models.Series, index []time.Time) *models.Series {
	out := &models.Series{Times: index, Columns: make([]models.Column, len(s.Columns))}
	for i, c := range s.Columns {
		out.Columns[i] = models.Column{Key: c.Key, Role: c.Role, Values: make([]float64, len(index))}
	}

	j := -1
	for i, t := range index {
		for j+1 < s.Len() && !s.Times[j+1].After(t) {
			j++
		}
		for k := range out.Columns {
			if j < 0 {
				out.Columns[k].Values[i] = math.NaN()
			} else {
				out.Columns[k].Values[i] = s.Columns[k].Values[j]
			}
		}
	}
	return out
}

// outerJoin unions two frames on their time index. A row present on
// one side only gets NaN in the other side's columns. Both indexes
// must be ascending, which every series in this package maintains.
func outerJoin(a, b *models.Series) *models.Series {
	type rowRef struct{ ai, bi int }

	times := make([]time.Time, 0, a.Len())
	refs := make([]rowRef, 0, a.Len())

	var i, j int
	for i < a.Len() || j < b.Len() {
		switch {
		case j >= b.Len() || (i < a.Len() && a.Times[i].Before(b.Times[j])):
			times = append(times, a.Times[i])
			refs = append(refs, rowRef{ai: i, bi: -1})
			i++
		case i >= a.Len() || b.Times[j].Before(a.Times[i]):
			times = append(times, b.Times[j])
			refs = append(refs, rowRef{ai: -1, bi: j})
			j++
		default:
			times = append(times, a.Times[i])
			refs = append(refs, rowRef{ai: i, bi: j})
			i++
			j++
		}
	}

	out := &models.Series{Times: times, Columns: make([]models.Column, 0, len(a.Columns)+len(b.Columns))}
	for _, c := range a.Columns {
		vals := make([]float64, len(times))
		for r, ref := range refs {
			if ref.ai < 0 {
				vals[r] = math.NaN()
			} else {
				vals[r] = c.Values[ref.ai]
			}
		}
		out.Columns = append(out.Columns, models.Column{Key: c.Key, Role: c.Role, Values: vals})
	}
	for _, c := range b.Columns {
		vals := make([]float64, len(times))
		for r, ref := range refs {
			if ref.bi < 0 {
				vals[r] = math.NaN()
			} else {
				vals[r] = c.Values[ref.bi]
			}
		}
		out.Columns = append(out.Columns, models.Column{Key: c.Key, Role: c.Role, Values: vals})
	}
	return out
}
