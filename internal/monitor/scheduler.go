package monitor

import "time"

// PollingMode selects how aggressively the control loop polls.
type PollingMode int

const (
	ModeIdle     PollingMode = iota // no activity, slow polling
	ModeActive                      // work in flight, fast polling
	ModeStarting                    // state just changed, medium polling
)

// Poll intervals per mode and the minimum time spent in ModeStarting
// after a state change.
const (
	IdleInterval     = 3 * time.Second
	ActiveInterval   = 1 * time.Second
	StartingInterval = 2 * time.Second
	StartingDwell    = 5 * time.Second
)

// String returns a display label.
func (m PollingMode) String() string {
	switch m {
	case ModeActive:
		return "active"
	case ModeStarting:
		return "starting"
	default:
		return "idle"
	}
}

// Interval returns the poll interval for the mode.
func (m PollingMode) Interval() time.Duration {
	switch m {
	case ModeActive:
		return ActiveInterval
	case ModeStarting:
		return StartingInterval
	default:
		return IdleInterval
	}
}

// Scheduler decides the next poll interval from state-change and
// activity signals. It never sleeps itself; the control loop reads
// Interval and waits. After any state change it holds ModeStarting for a
// minimum dwell so a flapping service cannot make the poll rate
// oscillate. A state change arriving while already in ModeStarting
// restarts the dwell timer.
type Scheduler struct {
	mode       PollingMode
	dwell      time.Duration
	dwellStart time.Time
}

// NewScheduler creates a scheduler in ModeIdle with the default dwell.
func NewScheduler() *Scheduler {
	return &Scheduler{mode: ModeIdle, dwell: StartingDwell}
}

// Advance evaluates the transition rule for one cycle and returns the
// resulting mode.
func (s *Scheduler) Advance(now time.Time, stateChanged, hasActivity bool) PollingMode {
	switch {
	case stateChanged:
		s.mode = ModeStarting
		s.dwellStart = now
	case s.mode == ModeStarting && now.Sub(s.dwellStart) < s.dwell:
		// Hold regardless of activity until the dwell elapses.
	case hasActivity:
		s.mode = ModeActive
	default:
		s.mode = ModeIdle
	}
	return s.mode
}

// Mode returns the current polling mode.
func (s *Scheduler) Mode() PollingMode { return s.mode }

// Interval returns the current poll interval.
func (s *Scheduler) Interval() time.Duration { return s.mode.Interval() }
