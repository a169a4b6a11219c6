package models

import (
	"sort"
	"strings"
	"time"
)

// PriceGroup is the column group assigned to bar fields.
const PriceGroup = "Price"

// Canonical bar field names used by NewSeries and Bars.
const (
	FieldOpen   = "Open"
	FieldHigh   = "High"
	FieldLow    = "Low"
	FieldClose  = "Close"
	FieldVolume = "Volume"
)

// Role determines how a column's values combine when rows are grouped
// into a coarser period.
type Role int

const (
	RoleFirst Role = iota
	RoleMax
	RoleMin
	RoleLast
	RoleSum
)

// RoleFor infers the aggregation role from a field name: open maps to
// first, high to max, low to min, close to last, and names containing
// "volume" are summed. Any other field keeps its last value in the
// period.
func RoleFor(field string) Role {
	f := strings.ToLower(field)
	switch {
	case strings.Contains(f, "open"):
		return RoleFirst
	case strings.Contains(f, "high"):
		return RoleMax
	case strings.Contains(f, "low"):
		return RoleMin
	case strings.Contains(f, "close"):
		return RoleLast
	case strings.Contains(f, "volume"):
		return RoleSum
	}
	return RoleLast
}

// ColumnKey identifies one column of a Series. Group carries the
// source grouping ("Price" for bar fields) and Field the name within
// it. Merging suffixes Field with the source timeframe label, so the
// pair stays unambiguous when several timeframes share one frame.
type ColumnKey struct {
	Group string
	Field string
}

// Column is one float64 column of a Series. Missing values are NaN.
type Column struct {
	Key    ColumnKey
	Role   Role
	Values []float64
}

// Series is a time-indexed columnar frame.
//
// Times is strictly ascending and every column holds exactly
// len(Times) values. NaN marks holes, such as rows introduced by an
// outer join where one side had no bar.
type Series struct {
	Times   []time.Time
	Columns []Column
}

// NewSeries lays bars out as a series with the five canonical price
// columns. Bars are sorted by time (stably) first, so callers may pass
// them in any order.
func NewSeries(bars []Bar) *Series {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	n := len(sorted)
	times := make([]time.Time, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closing := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range sorted {
		times[i] = b.Time.UTC()
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		closing[i] = b.Close
		volume[i] = b.Volume
	}

	return &Series{
		Times: times,
		Columns: []Column{
			{Key: ColumnKey{PriceGroup, FieldOpen}, Role: RoleFirst, Values: open},
			{Key: ColumnKey{PriceGroup, FieldHigh}, Role: RoleMax, Values: high},
			{Key: ColumnKey{PriceGroup, FieldLow}, Role: RoleMin, Values: low},
			{Key: ColumnKey{PriceGroup, FieldClose}, Role: RoleLast, Values: closing},
			{Key: ColumnKey{PriceGroup, FieldVolume}, Role: RoleSum, Values: volume},
		},
	}
}

// Len returns the number of rows.
func (s *Series) Len() int { return len(s.Times) }

// Column returns the column with the given key, or false when the
// series has no such column.
func (s *Series) Column(key ColumnKey) (*Column, bool) {
	for i := range s.Columns {
		if s.Columns[i].Key == key {
			return &s.Columns[i], true
		}
	}
	return nil, false
}

// Bars converts the series back to row form. It returns false when any
// of the five canonical price columns is missing, which is the case for
// merged frames.
func (s *Series) Bars() ([]Bar, bool) {
	fields := [5]string{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}
	var cols [5]*Column
	for i, f := range fields {
		c, ok := s.Column(ColumnKey{PriceGroup, f})
		if !ok {
			return nil, false
		}
		cols[i] = c
	}

	bars := make([]Bar, s.Len())
	for i := range bars {
		bars[i] = Bar{
			Time:   s.Times[i],
			Open:   cols[0].Values[i],
			High:   cols[1].Values[i],
			Low:    cols[2].Values[i],
			Close:  cols[3].Values[i],
			Volume: cols[4].Values[i],
		}
	}
	return bars, true
}

// WithSuffix returns a copy of the series with every column renamed by
// a timeframe label: (Group, Field) becomes (Group, Field_suffix). A
// column with an empty group becomes (Field, suffix), keeping the pair
// two-level. Values are shared with the receiver, not copied.
func (s *Series) WithSuffix(suffix string) *Series {
	out := &Series{Times: s.Times, Columns: make([]Column, len(s.Columns))}
	for i, c := range s.Columns {
		key := ColumnKey{Group: c.Key.Group, Field: c.Key.Field + "_" + suffix}
		if c.Key.Group == "" {
			key = ColumnKey{Group: c.Key.Field, Field: suffix}
		}
		out.Columns[i] = Column{Key: key, Role: c.Role, Values: c.Values}
	}
	return out
}
