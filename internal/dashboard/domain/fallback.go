package domain

// TrendFallback supplies a baseline consumption value for a trend bucket
// whose live data is empty or entirely non-positive. The default covers
// historical ranges known to predate real metering data so the dashboard
// never shows a spurious flat zero line.
type TrendFallback interface {
	Value(bucket int) float64
}

// FixedSeries is a TrendFallback backed by a fixed baseline series,
// indexed by bucket position.
type FixedSeries []float64

func (s FixedSeries) Value(bucket int) float64 {
	if len(s) == 0 {
		return 0
	}
	return s[bucket%len(s)]
}
