// Package render produces the plain-text status report.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"

	"github.com/swapwatch/swapwatch/internal/metrics"
	"github.com/swapwatch/swapwatch/internal/monitor"
)

var (
	goodFormat     = color.New(color.FgGreen).SprintFunc()
	busyFormat     = color.New(color.FgCyan).SprintFunc()
	warningFormat  = color.New(color.FgHiYellow).SprintFunc()
	criticalFormat = color.New(color.FgHiRed).SprintFunc()
	mutedFormat    = color.New(color.FgHiBlack).SprintFunc()
	boldFormat     = color.New(color.FgHiWhite).SprintFunc()
)

// Options controls report layout.
type Options struct {
	ChartWidth  int
	ChartHeight int
	NoColor     bool
}

// DefaultOptions returns the standard report layout.
func DefaultOptions() Options {
	return Options{ChartWidth: 60, ChartHeight: 5}
}

// Renderer writes status reports for one monitor.
type Renderer struct {
	w    io.Writer
	opts Options
}

// New creates a Renderer writing to w.
func New(w io.Writer, opts Options) *Renderer {
	if opts.ChartWidth <= 0 {
		opts.ChartWidth = 60
	}
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = 5
	}
	if opts.NoColor {
		color.NoColor = true
	}
	return &Renderer{w: w, opts: opts}
}

// Report writes one full status report.
func (r *Renderer) Report(m *monitor.Monitor, now time.Time) {
	display := m.DisplayState()

	fmt.Fprintf(r.w, "%s %s\n", statusDot(display), boldFormat(strings.ToUpper(display.String())))
	fmt.Fprintf(r.w, "service: %s\n", m.Status().Description())
	fmt.Fprintf(r.w, "agent: %s  polling: %s (every %s)\n",
		m.Agent(), m.PollingMode(), m.NextInterval())
	if last := m.LastStateChange(); !last.IsZero() {
		fmt.Fprintf(r.w, "last state change: %s\n", humanize.Time(last))
	}
	if errs := m.ErrorCount(); errs > 0 {
		fmt.Fprintf(r.w, "%s\n", criticalFormat(fmt.Sprintf("probe failures: %d consecutive", errs)))
	}

	fmt.Fprintln(r.w)
	r.systemSection(m)
	r.entitySection(m)
}

func (r *Renderer) systemSection(m *monitor.Monitor) {
	fmt.Fprintln(r.w, boldFormat("system"))
	rows := []struct {
		label, name, unit string
	}{
		{"cpu", metrics.MetricCPUPercent, "%"},
		{"memory", metrics.MetricMemoryPercent, "%"},
		{"used mem", metrics.MetricUsedMemoryGB, " GB"},
		{"svc mem", metrics.MetricServiceMemoryMB, " MB"},
	}
	for _, row := range rows {
		stats := m.SystemStats(row.name)
		if stats.Count == 0 {
			fmt.Fprintf(r.w, "  %-9s %s\n", row.label, mutedFormat("no data"))
			continue
		}
		series := m.History().System(row.name)
		fmt.Fprintf(r.w, "  %-9s %7.1f%s ~%.1f %s %s  %s\n",
			row.label, stats.Current, row.unit, stats.Smoothed,
			m.SystemTrend(row.name).Arrow(),
			anomalyMark(series, stats.Current),
			sparkline(series.Values(), 20))
	}

	// Full chart for the busiest signal.
	if series := m.History().System(metrics.MetricCPUPercent); series != nil && series.Len() >= 2 {
		fmt.Fprintln(r.w)
		chart := asciigraph.Plot(resample(series.Values(), r.opts.ChartWidth),
			asciigraph.Height(r.opts.ChartHeight),
			asciigraph.Width(r.opts.ChartWidth),
			asciigraph.Caption("cpu %"))
		fmt.Fprintln(r.w, chart)
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) entitySection(m *monitor.Monitor) {
	names := m.History().Entities()
	if len(names) == 0 {
		fmt.Fprintln(r.w, mutedFormat("no models tracked"))
		return
	}

	states := m.EntityStates()
	fmt.Fprintln(r.w, boldFormat("models"))
	for _, name := range names {
		state, tracked := states[name]
		label := "gone"
		if tracked {
			label = state.String()
		}

		gen := m.EntityStats(name, metrics.MetricGenTPS)
		prompt := m.EntityStats(name, metrics.MetricPromptTPS)
		mem := m.EntityStats(name, metrics.MetricEntityMem)
		queue := m.EntityStats(name, metrics.MetricQueueDepth)

		fmt.Fprintf(r.w, "  %s %s\n", entityDot(tracked, state), boldFormat(name))
		fmt.Fprintf(r.w, "    state %s  gen %.1f tok/s (~%.1f) %s  prompt %.1f tok/s  mem %s  queue %.0f %s\n",
			label,
			gen.Current, gen.Smoothed, m.EntityTrend(name, metrics.MetricGenTPS).Arrow(),
			prompt.Current,
			humanize.IBytes(uint64(mem.Current)*1024*1024),
			queue.Current, m.EntityTrend(name, metrics.MetricQueueDepth).Arrow())
		if bundle, ok := m.History().Entity(name); ok && bundle.GenTPS.Len() > 1 {
			fmt.Fprintf(r.w, "    gen %s\n", sparkline(bundle.GenTPS.Values(), 30))
		}
	}
}

func statusDot(d monitor.DisplayState) string {
	switch d {
	case monitor.DisplayEntityReady:
		return goodFormat("●")
	case monitor.DisplayEntityProcessing:
		return busyFormat("●")
	case monitor.DisplayEntityLoading, monitor.DisplayAgentStarting, monitor.DisplayNoEntities:
		return warningFormat("●")
	default:
		return criticalFormat("●")
	}
}

func entityDot(tracked bool, state monitor.EntityState) string {
	if !tracked {
		return mutedFormat("○")
	}
	switch state {
	case monitor.EntityRunning:
		return goodFormat("●")
	case monitor.EntityLoading:
		return warningFormat("●")
	default:
		return mutedFormat("●")
	}
}

func anomalyMark(series *metrics.TimeSeries, current float64) string {
	// current is the latest stored sample here, so the baseline must
	// exclude that position.
	if series != nil && metrics.IsAnomalous(series, current, true) {
		return criticalFormat("!")
	}
	return " "
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline renders values as a single-line block chart, resampled to
// at most width characters.
func sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}
	values = resample(values, width)

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	var sb strings.Builder
	span := max - min
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - min) / span * float64(len(sparkBlocks)-1))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		sb.WriteRune(sparkBlocks[idx])
	}
	return sb.String()
}

// resample reduces data to width points by averaging buckets.
func resample(data []float64, width int) []float64 {
	if width <= 0 || len(data) <= width {
		return data
	}
	out := make([]float64, width)
	bucket := float64(len(data)) / float64(width)
	for i := 0; i < width; i++ {
		start := int(float64(i) * bucket)
		end := int(float64(i+1) * bucket)
		if end > len(data) {
			end = len(data)
		}
		if start >= end {
			start = end - 1
		}
		sum := 0.0
		for _, v := range data[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
