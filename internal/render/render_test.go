package render

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/swapwatch/swapwatch/internal/monitor"
	"github.com/swapwatch/swapwatch/internal/probe"
)

func TestSparkline(t *testing.T) {
	if got := sparkline(nil, 10); got != "" {
		t.Errorf("expected empty sparkline for no data, got %q", got)
	}

	flat := sparkline([]float64{5, 5, 5}, 10)
	if flat != "▁▁▁" {
		t.Errorf("expected flat sparkline, got %q", flat)
	}

	ramp := sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 10)
	if len([]rune(ramp)) != 8 {
		t.Fatalf("expected 8 cells, got %q", ramp)
	}
	runes := []rune(ramp)
	if runes[0] != '▁' || runes[len(runes)-1] != '█' {
		t.Errorf("expected ramp from lowest to highest block, got %q", ramp)
	}
}

func TestResample(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i)
	}

	out := resample(data, 10)
	if len(out) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			t.Errorf("expected monotone bucket means, got %v", out)
		}
	}

	short := []float64{1, 2, 3}
	if got := resample(short, 10); len(got) != 3 {
		t.Errorf("expected short data unchanged, got %v", got)
	}
}

func TestRenderer_Report(t *testing.T) {
	m, err := monitor.New(monitor.DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Unix(1000, 0)
	status := monitor.ServiceStatus{InstallPresent: true, Registered: true, ProcessAlive: true, APIResponsive: true}
	result := &probe.Result{
		Entities: []probe.EntityMetrics{{Name: "llama3", State: "ready", GenTPS: 24.5, MemoryMB: 4096}},
		System:   probe.SystemMetrics{CPUPercent: 37.5, MemoryPercent: 61, UsedMemoryGB: 19.4, ServiceMemoryMB: 4200},
	}
	for i := 0; i < 3; i++ {
		m.Update(now.Add(time.Duration(i)*time.Second), result, nil, status)
	}

	var buf bytes.Buffer
	r := New(&buf, Options{NoColor: true})
	r.Report(m, now.Add(3*time.Second))

	out := buf.String()
	for _, want := range []string{"AGENT STARTING", "llama3", "cpu", "37.5", "~37.5", "gen 24.5 tok/s (~24.5)"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderer_ReportNoData(t *testing.T) {
	m, err := monitor.New(monitor.DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	r := New(&buf, Options{NoColor: true})
	r.Report(m, time.Now())

	out := buf.String()
	if !strings.Contains(out, "no data") || !strings.Contains(out, "no models tracked") {
		t.Errorf("expected empty-state markers, got:\n%s", out)
	}
}
