// Package metrics provides bounded time-series storage and analysis for
// monitored service metrics.
package metrics

import (
	"errors"
	"math"

	"github.com/VividCortex/ewma"
)

// DefaultCapacity is the default maximum number of samples per series.
// 300 samples covers five minutes at the fastest polling interval.
const DefaultCapacity = 300

// ErrInvalidCapacity is returned when a series is constructed with a
// non-positive capacity.
var ErrInvalidCapacity = errors.New("metrics: capacity must be positive")

// MetricStats summarizes a series snapshot. All fields are zero for an
// empty series.
type MetricStats struct {
	Mean     float64
	Min      float64
	Max      float64
	StdDev   float64
	Count    int
	Current  float64
	Smoothed float64
}

// TimeSeries is a fixed-capacity ring buffer of Samples ordered by
// timestamp. Insertion is append-only; when full, the oldest sample is
// evicted. A series is owned by a single goroutine and is not safe for
// concurrent use.
type TimeSeries struct {
	data     []Sample
	capacity int
	head     int // next write position
	size     int
	smoothed ewma.MovingAverage
}

// NewTimeSeries creates an empty series with the given capacity.
func NewTimeSeries(capacity int) (*TimeSeries, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &TimeSeries{
		data:     make([]Sample, capacity),
		capacity: capacity,
		smoothed: ewma.NewMovingAverage(),
	}, nil
}

// Push appends a sample, evicting the oldest if at capacity. Invalid
// samples and samples older than the newest stored sample are dropped,
// keeping timestamps non-decreasing.
func (s *TimeSeries) Push(value float64, timestamp uint64) {
	sample := Sample{Timestamp: timestamp, Value: value}
	if !sample.IsValid() {
		return
	}
	if latest, ok := s.Latest(); ok && timestamp < latest.Timestamp {
		return
	}

	s.data[s.head] = sample
	s.head = (s.head + 1) % s.capacity
	if s.size < s.capacity {
		s.size++
	}
	s.smoothed.Add(value)
}

// Trim removes every sample with timestamp < cutoff from the old end.
// Trimming twice with a non-decreasing cutoff is idempotent.
func (s *TimeSeries) Trim(cutoff uint64) {
	for s.size > 0 {
		oldest := (s.head - s.size + s.capacity) % s.capacity
		if s.data[oldest].Timestamp >= cutoff {
			break
		}
		s.data[oldest] = Sample{}
		s.size--
	}
}

// Len returns the current number of samples.
func (s *TimeSeries) Len() int { return s.size }

// Cap returns the fixed capacity.
func (s *TimeSeries) Cap() int { return s.capacity }

// IsEmpty returns true if the series holds no samples.
func (s *TimeSeries) IsEmpty() bool { return s.size == 0 }

// Latest returns the most recent sample, if any.
func (s *TimeSeries) Latest() (Sample, bool) {
	if s.size == 0 {
		return Sample{}, false
	}
	idx := (s.head - 1 + s.capacity) % s.capacity
	return s.data[idx], true
}

// Oldest returns the least recent sample, if any.
func (s *TimeSeries) Oldest() (Sample, bool) {
	if s.size == 0 {
		return Sample{}, false
	}
	idx := (s.head - s.size + s.capacity) % s.capacity
	return s.data[idx], true
}

// Samples returns all samples in chronological order, oldest first.
func (s *TimeSeries) Samples() []Sample {
	if s.size == 0 {
		return nil
	}
	result := make([]Sample, s.size)
	oldest := (s.head - s.size + s.capacity) % s.capacity
	for i := 0; i < s.size; i++ {
		result[i] = s.data[(oldest+i)%s.capacity]
	}
	return result
}

// Values returns all values in chronological order. The result is
// suitable for passing directly to asciigraph.Plot.
func (s *TimeSeries) Values() []float64 {
	if s.size == 0 {
		return nil
	}
	result := make([]float64, s.size)
	oldest := (s.head - s.size + s.capacity) % s.capacity
	for i := 0; i < s.size; i++ {
		result[i] = s.data[(oldest+i)%s.capacity].Value
	}
	return result
}

// Stats computes summary statistics over the current samples. An empty
// series yields the zero MetricStats with Count=0.
func (s *TimeSeries) Stats() MetricStats {
	if s.size == 0 {
		return MetricStats{}
	}

	values := s.Values()
	sum := 0.0
	min := math.Inf(1)
	max := math.Inf(-1)
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	count := float64(len(values))
	mean := sum / count

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= count

	return MetricStats{
		Mean:     mean,
		Min:      min,
		Max:      max,
		StdDev:   math.Sqrt(variance),
		Count:    len(values),
		Current:  values[len(values)-1],
		Smoothed: s.smoothed.Value(),
	}
}
