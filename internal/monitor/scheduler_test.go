package monitor

import (
	"testing"
	"time"
)

func TestScheduler_IdleByDefault(t *testing.T) {
	s := NewScheduler()
	if s.Mode() != ModeIdle {
		t.Errorf("expected idle mode, got %v", s.Mode())
	}
	if s.Interval() != IdleInterval {
		t.Errorf("expected %v, got %v", IdleInterval, s.Interval())
	}
}

func TestScheduler_ActivitySwitchesMode(t *testing.T) {
	s := NewScheduler()
	now := time.Now()

	if got := s.Advance(now, false, true); got != ModeActive {
		t.Errorf("expected active with activity, got %v", got)
	}
	if s.Interval() != ActiveInterval {
		t.Errorf("expected %v, got %v", ActiveInterval, s.Interval())
	}
	if got := s.Advance(now.Add(time.Second), false, false); got != ModeIdle {
		t.Errorf("expected idle without activity, got %v", got)
	}
}

func TestScheduler_StateChangeEntersStarting(t *testing.T) {
	s := NewScheduler()
	now := time.Now()

	if got := s.Advance(now, true, false); got != ModeStarting {
		t.Fatalf("expected starting after state change, got %v", got)
	}
	if s.Interval() != StartingInterval {
		t.Errorf("expected %v, got %v", StartingInterval, s.Interval())
	}

	// Activity cannot pull the scheduler out before the dwell elapses.
	if got := s.Advance(now.Add(2*time.Second), false, true); got != ModeStarting {
		t.Errorf("expected to hold starting inside dwell, got %v", got)
	}

	// After the dwell, activity decides.
	if got := s.Advance(now.Add(6*time.Second), false, true); got != ModeActive {
		t.Errorf("expected active after dwell with activity, got %v", got)
	}
}

func TestScheduler_DwellEndsIdleWithoutActivity(t *testing.T) {
	s := NewScheduler()
	now := time.Now()

	s.Advance(now, true, false)
	if got := s.Advance(now.Add(6*time.Second), false, false); got != ModeIdle {
		t.Errorf("expected idle after dwell without activity, got %v", got)
	}
}

func TestScheduler_StateChangeRestartsDwell(t *testing.T) {
	s := NewScheduler()
	now := time.Now()

	s.Advance(now, true, false)
	// A second change 4s in restarts the dwell timer.
	s.Advance(now.Add(4*time.Second), true, false)

	// 6s after the first change is only 2s after the second: still
	// inside the restarted dwell.
	if got := s.Advance(now.Add(6*time.Second), false, true); got != ModeStarting {
		t.Errorf("expected restarted dwell to hold starting, got %v", got)
	}
	if got := s.Advance(now.Add(10*time.Second), false, true); got != ModeActive {
		t.Errorf("expected active after restarted dwell, got %v", got)
	}
}
