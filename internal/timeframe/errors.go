package timeframe

import "errors"

// Sentinel errors returned by conversion and merge operations. Callers
// match them with errors.Is; wrapped messages carry the offending
// detail.
var (
	// ErrInvalidConversion is returned when the target timeframe cannot
	// be built from the source resolution, e.g. 5-minute bars into
	// 12-minute bars.
	ErrInvalidConversion = errors.New("invalid timeframe conversion")

	// ErrNoTimeframes is returned by Merge when the input list is empty.
	ErrNoTimeframes = errors.New("no timeframes to merge")

	// ErrMissingBaseSeries is returned by Merge when the finest
	// timeframe, which every other input aligns to, has no series.
	ErrMissingBaseSeries = errors.New("missing base series")
)
