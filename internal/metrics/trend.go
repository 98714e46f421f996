package metrics

import "math"

// Trend classifies the short-term direction of a series.
type Trend int

const (
	TrendInsufficient Trend = iota
	TrendStable
	TrendIncreasing
	TrendDecreasing
)

// String returns a display label.
func (t Trend) String() string {
	switch t {
	case TrendIncreasing:
		return "increasing"
	case TrendDecreasing:
		return "decreasing"
	case TrendStable:
		return "stable"
	default:
		return "insufficient data"
	}
}

// Arrow returns a single-character indicator for status lines.
func (t Trend) Arrow() string {
	switch t {
	case TrendIncreasing:
		return "↑"
	case TrendDecreasing:
		return "↓"
	case TrendStable:
		return "→"
	default:
		return ""
	}
}

const (
	// Preferred lookback windows for slope computation, widest first.
	trendWindowSecs      = 30
	trendShortWindowSecs = 15

	trendMinSamples = 3

	// Values whose spread is below this are treated as a flat line.
	trendFlatEpsilon = 1e-6

	anomalyMinPrior   = 5
	anomalyWindow     = 10
	anomalyHighFactor = 1.5
	anomalyLowFactor  = 0.5
)

// ClassifyTrend derives the short-term trend of a series from a
// time-windowed slope. It prefers the widest lookback window holding at
// least three samples, falling back to the full series span, and compares
// the slope against an adaptive threshold scaled to the signal magnitude.
func ClassifyTrend(s *TimeSeries) Trend {
	samples := s.Samples()
	if len(samples) < trendMinSamples {
		return TrendInsufficient
	}

	window := selectWindow(samples)
	first := window[0]
	last := window[len(window)-1]
	elapsed := float64(last.Timestamp - first.Timestamp)
	if elapsed <= 0 {
		return TrendStable
	}

	min := math.Inf(1)
	max := math.Inf(-1)
	magnitude := 0.0
	for _, sm := range window {
		if sm.Value < min {
			min = sm.Value
		}
		if sm.Value > max {
			max = sm.Value
		}
		if a := math.Abs(sm.Value); a > magnitude {
			magnitude = a
		}
	}
	// Flat line: slope noise on near-identical values must not flap
	// between increasing and decreasing.
	if max-min < trendFlatEpsilon {
		return TrendStable
	}

	slope := (last.Value - first.Value) / elapsed
	threshold := math.Max(magnitude*0.05, 0.01) / elapsed
	if elapsed < trendWindowSecs {
		// Short windows are noisy; demand a steeper slope.
		threshold *= 1.5
	}

	switch {
	case slope > threshold:
		return TrendIncreasing
	case slope < -threshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// selectWindow returns the suffix of samples inside the widest preferred
// lookback window that still holds enough samples, or the full series if
// neither window qualifies.
func selectWindow(samples []Sample) []Sample {
	newest := samples[len(samples)-1].Timestamp
	for _, windowSecs := range []uint64{trendWindowSecs, trendShortWindowSecs} {
		var cutoff uint64
		if newest > windowSecs {
			cutoff = newest - windowSecs
		}
		start := len(samples)
		for i, sm := range samples {
			if sm.Timestamp >= cutoff {
				start = i
				break
			}
		}
		if len(samples)-start >= trendMinSamples {
			return samples[start:]
		}
	}
	return samples
}

// IsAnomalous reports whether current deviates sharply from recent
// history: above 1.5x or below 0.5x the mean of the most recent samples,
// excluding current itself. Requires at least five prior samples.
// stored states whether current is already the newest sample in the
// series; the baseline then excludes that position. A query that merely
// coincides in value with the latest sample keeps its full baseline.
func IsAnomalous(s *TimeSeries, current float64, stored bool) bool {
	samples := s.Samples()
	if n := len(samples); stored && n > 0 {
		samples = samples[:n-1]
	}
	if len(samples) < anomalyMinPrior {
		return false
	}

	if len(samples) > anomalyWindow {
		samples = samples[len(samples)-anomalyWindow:]
	}
	sum := 0.0
	for _, sm := range samples {
		sum += sm.Value
	}
	mean := sum / float64(len(samples))
	if mean == 0 {
		return false
	}

	return current > mean*anomalyHighFactor || current < mean*anomalyLowFactor
}
