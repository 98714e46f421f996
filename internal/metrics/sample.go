package metrics

import "math"

// Sample represents a single metric measurement at a point in time.
// Timestamps are seconds since the Unix epoch.
type Sample struct {
	Timestamp uint64
	Value     float64
}

// IsValid returns true if the sample has usable values.
// A sample is invalid if the value is Inf, NaN, or the timestamp is zero.
func (s Sample) IsValid() bool {
	if s.Timestamp == 0 {
		return false
	}
	if math.IsInf(s.Value, 0) || math.IsNaN(s.Value) {
		return false
	}
	return true
}

// NewSample creates a new Sample with the given timestamp and value.
func NewSample(timestamp uint64, value float64) Sample {
	return Sample{Timestamp: timestamp, Value: value}
}
