package metrics

import (
	"math"
	"testing"
)

func TestNewTimeSeries_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -300} {
		if _, err := NewTimeSeries(capacity); err == nil {
			t.Errorf("expected error for capacity %d", capacity)
		}
	}
}

func TestTimeSeries_Push(t *testing.T) {
	s, err := NewTimeSeries(3)
	if err != nil {
		t.Fatalf("NewTimeSeries: %v", err)
	}

	s.Push(1.0, 100)
	if s.Len() != 1 {
		t.Errorf("expected len 1, got %d", s.Len())
	}

	s.Push(2.0, 200)
	s.Push(3.0, 300)
	if s.Len() != 3 {
		t.Errorf("expected len 3, got %d", s.Len())
	}
}

func TestTimeSeries_Eviction(t *testing.T) {
	s, _ := NewTimeSeries(3)

	s.Push(1.0, 100)
	s.Push(2.0, 200)
	s.Push(3.0, 300)
	s.Push(4.0, 400)

	if s.Len() != 3 {
		t.Fatalf("expected len 3 after eviction, got %d", s.Len())
	}

	expected := []float64{2.0, 3.0, 4.0}
	for i, v := range s.Values() {
		if v != expected[i] {
			t.Errorf("expected value[%d]=%f, got %f", i, expected[i], v)
		}
	}

	stats := s.Stats()
	if stats.Mean != 3.0 {
		t.Errorf("expected mean 3.0, got %f", stats.Mean)
	}
	if stats.Min != 2.0 {
		t.Errorf("expected min 2.0, got %f", stats.Min)
	}
	if stats.Max != 4.0 {
		t.Errorf("expected max 4.0, got %f", stats.Max)
	}
}

func TestTimeSeries_BoundedAfterManyPushes(t *testing.T) {
	const capacity = 5
	s, _ := NewTimeSeries(capacity)

	for i := 1; i <= 100; i++ {
		s.Push(float64(i), uint64(i))
	}

	if s.Len() != capacity {
		t.Fatalf("expected len %d, got %d", capacity, s.Len())
	}
	expected := []float64{96, 97, 98, 99, 100}
	for i, v := range s.Values() {
		if v != expected[i] {
			t.Errorf("expected value[%d]=%f, got %f", i, expected[i], v)
		}
	}
}

func TestTimeSeries_RejectsInvalidSamples(t *testing.T) {
	s, _ := NewTimeSeries(10)

	s.Push(math.NaN(), 100)
	s.Push(math.Inf(1), 200)
	s.Push(1.0, 0) // zero timestamp
	if s.Len() != 0 {
		t.Errorf("expected invalid samples to be dropped, len=%d", s.Len())
	}

	s.Push(1.0, 300)
	s.Push(2.0, 250) // out of order
	if s.Len() != 1 {
		t.Errorf("expected out-of-order sample to be dropped, len=%d", s.Len())
	}
}

func TestTimeSeries_Trim(t *testing.T) {
	s, _ := NewTimeSeries(10)
	for i := 1; i <= 5; i++ {
		s.Push(float64(i), uint64(i*100))
	}

	s.Trim(300)
	if s.Len() != 3 {
		t.Fatalf("expected 3 samples after trim, got %d", s.Len())
	}
	if first, _ := s.Oldest(); first.Timestamp != 300 {
		t.Errorf("expected oldest timestamp 300, got %d", first.Timestamp)
	}

	// Idempotent: trimming again with the same cutoff changes nothing.
	s.Trim(300)
	if s.Len() != 3 {
		t.Errorf("expected trim to be idempotent, got len %d", s.Len())
	}

	s.Trim(1000)
	if !s.IsEmpty() {
		t.Errorf("expected empty series after full trim, got len %d", s.Len())
	}
}

func TestTimeSeries_PushAfterTrim(t *testing.T) {
	s, _ := NewTimeSeries(4)
	for i := 1; i <= 6; i++ {
		s.Push(float64(i), uint64(i*10))
	}
	s.Trim(45)

	s.Push(7.0, 70)
	s.Push(8.0, 80)

	expected := []float64{5, 6, 7, 8}
	values := s.Values()
	if len(values) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(values))
	}
	for i, v := range values {
		if v != expected[i] {
			t.Errorf("expected value[%d]=%f, got %f", i, expected[i], v)
		}
	}
}

func TestTimeSeries_StatsEmpty(t *testing.T) {
	s, _ := NewTimeSeries(10)

	stats := s.Stats()
	if stats.Count != 0 || stats.Mean != 0 || stats.Min != 0 || stats.Max != 0 || stats.StdDev != 0 || stats.Smoothed != 0 {
		t.Errorf("expected all-zero stats on empty series, got %+v", stats)
	}
}

func TestTimeSeries_StatsSmoothed(t *testing.T) {
	s, _ := NewTimeSeries(30)
	for i := 1; i <= 20; i++ {
		s.Push(5.0, uint64(i))
	}

	stats := s.Stats()
	if math.Abs(stats.Smoothed-5.0) > 1e-9 {
		t.Errorf("expected smoothed value to settle on 5.0, got %f", stats.Smoothed)
	}

	// A spike moves the average only part of the way toward itself.
	s.Push(50.0, 21)
	stats = s.Stats()
	if stats.Smoothed <= 5.0 || stats.Smoothed >= 50.0 {
		t.Errorf("expected smoothed value between baseline and spike, got %f", stats.Smoothed)
	}
}

func TestTimeSeries_StatsStdDev(t *testing.T) {
	s, _ := NewTimeSeries(10)
	for i, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Push(v, uint64(i+1))
	}

	stats := s.Stats()
	if stats.Mean != 5.0 {
		t.Errorf("expected mean 5.0, got %f", stats.Mean)
	}
	if math.Abs(stats.StdDev-2.0) > 1e-9 {
		t.Errorf("expected stddev 2.0, got %f", stats.StdDev)
	}
	if stats.Current != 9.0 {
		t.Errorf("expected current 9.0, got %f", stats.Current)
	}
}
