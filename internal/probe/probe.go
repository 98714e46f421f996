// Package probe implements the HTTP transport that retrieves health and
// metric data from the monitored llama-swap service. It decodes the
// /running endpoint and the per-model Prometheus metric endpoints into a
// plain Result aggregate; the monitor core never performs I/O itself.
package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every probe request. The service is local, so a
// slow response is as good as a failure.
const DefaultTimeout = 1 * time.Second

// EntityMetrics holds one cycle's decoded metrics for a single entity
// (a loaded model).
type EntityMetrics struct {
	Name               string
	State              string // raw state string as reported by the service
	PromptTPS          float64
	GenTPS             float64
	RequestsProcessing uint32
	RequestsDeferred   uint32
	DecodeTotal        uint32
	MemoryMB           float64
}

// QueueDepth returns the combined processing and deferred request count.
func (e EntityMetrics) QueueDepth() float64 {
	return float64(e.RequestsProcessing + e.RequestsDeferred)
}

// SystemMetrics holds system-level gauges decoded alongside the entity
// metrics.
type SystemMetrics struct {
	CPUPercent      float64
	MemoryPercent   float64
	UsedMemoryGB    float64
	ServiceMemoryMB float64
}

// Result is the aggregate a single probe produces.
type Result struct {
	Entities []EntityMetrics
	System   SystemMetrics
}

// HasActivity reports whether any entity has requests in flight or
// queued.
func (r *Result) HasActivity() bool {
	if r == nil {
		return false
	}
	for _, e := range r.Entities {
		if e.RequestsProcessing > 0 || e.RequestsDeferred > 0 {
			return true
		}
	}
	return false
}

// runningResponse mirrors the service's /running JSON payload.
type runningResponse struct {
	Running []runningModel `json:"running"`
}

type runningModel struct {
	Model string `json:"model"`
	State string `json:"state"`
}

// Prober fetches metrics from the local service API.
type Prober struct {
	client  *http.Client
	baseURL string
	sampler SystemSampler
}

// SystemSampler supplies system-level gauges independently of the service
// API, so CPU and memory history survive API outages.
type SystemSampler interface {
	Sample() SystemMetrics
}

// Option configures a Prober.
type Option func(*Prober)

// WithClient sets the HTTP client, primarily for tests.
func WithClient(client *http.Client) Option {
	return func(p *Prober) {
		p.client = client
	}
}

// WithSystemSampler sets the system metrics source.
func WithSystemSampler(s SystemSampler) Option {
	return func(p *Prober) {
		p.sampler = s
	}
}

// New creates a Prober against the given base URL, e.g.
// "http://127.0.0.1:45786".
func New(baseURL string, opts ...Option) *Prober {
	p := &Prober{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe performs one full probe: the running-models list, then metrics
// for each model reported ready. Any failure on the primary endpoint is
// returned as an opaque error; per-model metric failures degrade to empty
// metrics rather than failing the probe. When a system sampler is
// configured, even a failed probe returns a partial Result carrying the
// system gauges, so host history survives API outages.
func (p *Prober) Probe() (*Result, error) {
	resp, err := p.client.Get(p.baseURL + "/running")
	if err != nil {
		return p.failed(fmt.Errorf("probe: connect API: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return p.failed(fmt.Errorf("probe: API returned status %d", resp.StatusCode))
	}

	var running runningResponse
	if err := json.NewDecoder(resp.Body).Decode(&running); err != nil {
		return p.failed(fmt.Errorf("probe: parse JSON: %w", err))
	}

	result := &Result{}
	for _, model := range running.Running {
		entity := EntityMetrics{Name: model.Model, State: model.State}
		// Only ready models serve a metrics endpoint; loading or unknown
		// models keep zero metrics.
		if model.State == "ready" {
			if values := p.fetchModelMetrics(model.Model); values != nil {
				entity.PromptTPS = values["prompt_tokens_per_sec"]
				entity.GenTPS = values["predicted_tokens_per_sec"]
				entity.RequestsProcessing = uint32(values["requests_processing"])
				entity.RequestsDeferred = uint32(values["requests_deferred"])
				entity.DecodeTotal = uint32(values["n_decode_total"])
			}
		}
		result.Entities = append(result.Entities, entity)
	}

	if p.sampler != nil {
		result.System = p.sampler.Sample()
	}
	return result, nil
}

// failed builds the partial result for a failed probe.
func (p *Prober) failed(err error) (*Result, error) {
	if p.sampler == nil {
		return nil, err
	}
	return &Result{System: p.sampler.Sample()}, err
}

// fetchModelMetrics retrieves and parses one model's Prometheus metrics.
// Returns nil on any failure; the caller treats that as empty metrics.
func (p *Prober) fetchModelMetrics(model string) map[string]float64 {
	endpoint := fmt.Sprintf("%s/upstream/%s/metrics", p.baseURL, url.PathEscape(model))
	resp, err := p.client.Get(endpoint)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return ParseMetrics(string(body))
}
