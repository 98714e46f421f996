package monitor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/swapwatch/swapwatch/internal/metrics"
	"github.com/swapwatch/swapwatch/internal/probe"
)

// AgentDwell is how long liveness must hold before Starting commits to
// Running.
const AgentDwell = 5 * time.Second

// Config holds the construction-time invariants of a Monitor. Violations
// are hard errors: a malformed Monitor never exists.
type Config struct {
	Capacity   int           // samples per series
	Retention  time.Duration // sample age bound
	AgentDwell time.Duration // minimum time in Starting before Running
}

// DefaultConfig returns the standard monitor configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:   metrics.DefaultCapacity,
		Retention:  metrics.DefaultRetention,
		AgentDwell: AgentDwell,
	}
}

// Monitor is the root aggregate one control loop owns: the current
// status snapshot, derived states, bounded metric history, and the
// polling scheduler. It is mutated only through Update, once per
// iteration, and is not safe for concurrent use — it is owned by a
// single goroutine by design.
type Monitor struct {
	status    ServiceStatus
	agent     AgentState
	entities  map[string]EntityState
	history   *metrics.History
	scheduler *Scheduler
	logger    *slog.Logger

	current         *probe.Result
	agentDwell      time.Duration
	dwellStart      time.Time
	lastStateChange time.Time
	probeErrors     uint
}

// New creates a Monitor. The initial agent state is the most
// conservative one; the first Update corrects it from real signals.
func New(cfg Config, logger *slog.Logger) (*Monitor, error) {
	if cfg.AgentDwell <= 0 {
		return nil, fmt.Errorf("monitor: agent dwell must be positive, got %v", cfg.AgentDwell)
	}
	history, err := metrics.NewHistory(cfg.Capacity, cfg.Retention)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		agent:      NotReady(ReasonBinaryMissing),
		entities:   make(map[string]EntityState),
		history:    history,
		scheduler:  NewScheduler(),
		logger:     logger,
		agentDwell: cfg.AgentDwell,
	}, nil
}

// Update runs one monitoring iteration. All fields change together
// within the call, so readers between iterations never observe a mix of
// old and new snapshots. Probe failures are absorbed here: they become
// state, never errors.
func (m *Monitor) Update(now time.Time, result *probe.Result, probeErr error, status ServiceStatus) {
	ts := uint64(now.Unix())

	if probeErr != nil {
		m.probeErrors++
		// Entity states can no longer be verified; the current snapshot
		// is cleared but history is preserved within its window. A
		// partial result still carries host gauges worth recording.
		m.current = nil
		m.entities = make(map[string]EntityState)
		if result != nil {
			m.ingestSystem(result.System, ts)
		}
		m.logger.Warn("probe failed",
			"error", probeErr,
			"consecutive_errors", m.probeErrors,
			"agent_state", m.agent.String())
	} else {
		m.probeErrors = 0
		m.current = result
		m.ingest(result, ts)
		m.refreshEntities(result)
	}

	m.history.Trim(ts)
	m.status = status

	prev := m.agent
	dwellElapsed := !m.dwellStart.IsZero() && now.Sub(m.dwellStart) >= m.agentDwell
	next := DeriveAgentState(status, prev, dwellElapsed)
	if next != prev {
		if next.Kind == AgentStarting && prev.Kind != AgentStarting {
			m.dwellStart = now
		}
		m.lastStateChange = now
		m.logger.Info("agent state changed", "old", prev.String(), "new", next.String())
	}
	m.agent = next

	m.scheduler.Advance(now, next != prev, m.HasActivity())
}

// ingest records one probe result into the history.
func (m *Monitor) ingest(result *probe.Result, ts uint64) {
	m.ingestSystem(result.System, ts)

	for _, entity := range result.Entities {
		m.history.PushFor(entity.Name, metrics.EntitySample{
			GenTPS:     entity.GenTPS,
			PromptTPS:  entity.PromptTPS,
			MemoryMB:   entity.MemoryMB,
			QueueDepth: entity.QueueDepth(),
		}, ts)
	}
}

// ingestSystem records the system-level gauges.
func (m *Monitor) ingestSystem(system probe.SystemMetrics, ts uint64) {
	m.history.Record(metrics.MetricCPUPercent, system.CPUPercent, ts)
	m.history.Record(metrics.MetricMemoryPercent, system.MemoryPercent, ts)
	m.history.Record(metrics.MetricUsedMemoryGB, system.UsedMemoryGB, ts)
	m.history.Record(metrics.MetricServiceMemoryMB, system.ServiceMemoryMB, ts)
}

// refreshEntities rebuilds the entity state map from this cycle's probe
// output: entities absent from the output are removed, present ones are
// reclassified.
func (m *Monitor) refreshEntities(result *probe.Result) {
	next := make(map[string]EntityState, len(result.Entities))
	for _, entity := range result.Entities {
		next[entity.Name] = ParseEntityState(entity.State)
	}
	m.entities = next
}

// HasActivity reports whether the current snapshot shows requests in
// flight or queued.
func (m *Monitor) HasActivity() bool {
	return m.current.HasActivity()
}

// DisplayState returns the combined classification for renderers.
func (m *Monitor) DisplayState() DisplayState {
	return DeriveDisplayState(m.agent, m.entities, m.HasActivity())
}

// Agent returns the current agent state.
func (m *Monitor) Agent() AgentState { return m.agent }

// Status returns the current service status snapshot.
func (m *Monitor) Status() ServiceStatus { return m.status }

// ErrorCount returns the number of consecutive probe failures.
func (m *Monitor) ErrorCount() uint { return m.probeErrors }

// NextInterval returns the interval the control loop should wait before
// the next iteration.
func (m *Monitor) NextInterval() time.Duration {
	return m.scheduler.Interval()
}

// PollingMode returns the current scheduling mode.
func (m *Monitor) PollingMode() PollingMode {
	return m.scheduler.Mode()
}

// LastStateChange returns when the agent state last changed.
func (m *Monitor) LastStateChange() time.Time { return m.lastStateChange }

// Current returns the latest successful probe result, or nil after a
// failure.
func (m *Monitor) Current() *probe.Result { return m.current }

// History exposes the metric history for rendering and persistence.
func (m *Monitor) History() *metrics.History { return m.history }

// EntityStates returns a copy of the per-entity state map.
func (m *Monitor) EntityStates() map[string]EntityState {
	states := make(map[string]EntityState, len(m.entities))
	for name, state := range m.entities {
		states[name] = state
	}
	return states
}

// SystemStats returns statistics for a system-level metric.
func (m *Monitor) SystemStats(name string) metrics.MetricStats {
	return m.history.SystemStats(name)
}

// EntityStats returns statistics for one series of one entity.
func (m *Monitor) EntityStats(entity, series string) metrics.MetricStats {
	return m.history.EntityStats(entity, series)
}

// SystemTrend classifies the short-term trend of a system-level metric.
func (m *Monitor) SystemTrend(name string) metrics.Trend {
	s := m.history.System(name)
	if s == nil {
		return metrics.TrendInsufficient
	}
	return metrics.ClassifyTrend(s)
}

// EntityTrend classifies the short-term trend of one entity series.
func (m *Monitor) EntityTrend(entity, series string) metrics.Trend {
	bundle, ok := m.history.Entity(entity)
	if !ok {
		return metrics.TrendInsufficient
	}
	s := bundle.Series(series)
	if s == nil {
		return metrics.TrendInsufficient
	}
	return metrics.ClassifyTrend(s)
}
