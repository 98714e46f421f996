package metrics

import (
	"errors"
	"sort"
	"time"
)

// System-level metric names.
const (
	MetricCPUPercent      = "cpu_percent"
	MetricMemoryPercent   = "memory_percent"
	MetricUsedMemoryGB    = "used_memory_gb"
	MetricServiceMemoryMB = "service_memory_mb"
)

// Per-entity metric names.
const (
	MetricGenTPS     = "gen_tps"
	MetricPromptTPS  = "prompt_tps"
	MetricEntityMem  = "memory_mb"
	MetricQueueDepth = "queue_depth"
)

// DefaultRetention is how long samples are kept before being aged out.
const DefaultRetention = 5 * time.Minute

// ErrInvalidRetention is returned when a history is constructed with a
// non-positive retention window.
var ErrInvalidRetention = errors.New("metrics: retention window must be positive")

// EntitySample carries one cycle's metric values for a single entity.
type EntitySample struct {
	GenTPS     float64
	PromptTPS  float64
	MemoryMB   float64
	QueueDepth float64
}

// EntityHistory bundles the per-entity series tracked for one entity.
type EntityHistory struct {
	GenTPS     *TimeSeries
	PromptTPS  *TimeSeries
	MemoryMB   *TimeSeries
	QueueDepth *TimeSeries
}

func newEntityHistory(capacity int) *EntityHistory {
	// capacity was validated by the owning History
	gen, _ := NewTimeSeries(capacity)
	prompt, _ := NewTimeSeries(capacity)
	mem, _ := NewTimeSeries(capacity)
	queue, _ := NewTimeSeries(capacity)
	return &EntityHistory{GenTPS: gen, PromptTPS: prompt, MemoryMB: mem, QueueDepth: queue}
}

// Series returns the named series within the bundle, or nil for an
// unknown name.
func (h *EntityHistory) Series(name string) *TimeSeries {
	switch name {
	case MetricGenTPS:
		return h.GenTPS
	case MetricPromptTPS:
		return h.PromptTPS
	case MetricEntityMem:
		return h.MemoryMB
	case MetricQueueDepth:
		return h.QueueDepth
	default:
		return nil
	}
}

func (h *EntityHistory) isEmpty() bool {
	return h.GenTPS.IsEmpty() && h.PromptTPS.IsEmpty() &&
		h.MemoryMB.IsEmpty() && h.QueueDepth.IsEmpty()
}

func (h *EntityHistory) trim(cutoff uint64) {
	h.GenTPS.Trim(cutoff)
	h.PromptTPS.Trim(cutoff)
	h.MemoryMB.Trim(cutoff)
	h.QueueDepth.Trim(cutoff)
}

// History owns all metric series for one monitored system: a fixed set of
// system-level series plus one EntityHistory per dynamically named entity.
// Both bounds hold simultaneously: every series is capped at capacity, and
// samples older than the retention window are trimmed each cycle.
type History struct {
	system    map[string]*TimeSeries
	entities  map[string]*EntityHistory
	capacity  int
	retention time.Duration
}

// NewHistory creates a History with the given per-series capacity and
// retention window. Both are construction-time invariants: violations are
// hard errors, never clamped.
func NewHistory(capacity int, retention time.Duration) (*History, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if retention <= 0 {
		return nil, ErrInvalidRetention
	}

	h := &History{
		system:    make(map[string]*TimeSeries),
		entities:  make(map[string]*EntityHistory),
		capacity:  capacity,
		retention: retention,
	}
	for _, name := range []string{
		MetricCPUPercent, MetricMemoryPercent, MetricUsedMemoryGB, MetricServiceMemoryMB,
	} {
		s, err := NewTimeSeries(capacity)
		if err != nil {
			return nil, err
		}
		h.system[name] = s
	}
	return h, nil
}

// Retention returns the configured retention window.
func (h *History) Retention() time.Duration { return h.retention }

// Record appends a value to the named system-level series. Unknown names
// are created lazily so callers can track additional gauges.
func (h *History) Record(name string, value float64, timestamp uint64) {
	s, ok := h.system[name]
	if !ok {
		s, _ = NewTimeSeries(h.capacity)
		h.system[name] = s
	}
	s.Push(value, timestamp)
}

// PushFor appends one cycle's values to the entity's series bundle,
// creating the bundle on first use.
func (h *History) PushFor(entity string, sample EntitySample, timestamp uint64) {
	bundle, ok := h.entities[entity]
	if !ok {
		bundle = newEntityHistory(h.capacity)
		h.entities[entity] = bundle
	}
	bundle.GenTPS.Push(sample.GenTPS, timestamp)
	bundle.PromptTPS.Push(sample.PromptTPS, timestamp)
	bundle.MemoryMB.Push(sample.MemoryMB, timestamp)
	bundle.QueueDepth.Push(sample.QueueDepth, timestamp)
}

// Trim ages out samples older than the retention window, then drops any
// entity bundle whose series are all empty. Entities that vanished from
// probe output keep their history visible until the window expires; a
// flapping probe never wipes context.
func (h *History) Trim(now uint64) {
	var cutoff uint64
	if window := uint64(h.retention / time.Second); now > window {
		cutoff = now - window
	}

	for _, s := range h.system {
		s.Trim(cutoff)
	}
	for name, bundle := range h.entities {
		bundle.trim(cutoff)
		if bundle.isEmpty() {
			delete(h.entities, name)
		}
	}
}

// System returns the named system-level series, or nil.
func (h *History) System(name string) *TimeSeries {
	return h.system[name]
}

// Entity returns the series bundle for an entity.
func (h *History) Entity(name string) (*EntityHistory, bool) {
	bundle, ok := h.entities[name]
	return bundle, ok
}

// Entities returns tracked entity names in sorted order.
func (h *History) Entities() []string {
	names := make([]string, 0, len(h.entities))
	for name := range h.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SystemStats returns statistics for a system-level series. Unknown names
// yield zero stats.
func (h *History) SystemStats(name string) MetricStats {
	s, ok := h.system[name]
	if !ok {
		return MetricStats{}
	}
	return s.Stats()
}

// EntityStats returns statistics for one series of one entity. Unknown
// entities or series names yield zero stats.
func (h *History) EntityStats(entity, name string) MetricStats {
	bundle, ok := h.entities[entity]
	if !ok {
		return MetricStats{}
	}
	s := bundle.Series(name)
	if s == nil {
		return MetricStats{}
	}
	return s.Stats()
}
