package probe

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProbe_DecodesRunningModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/running":
			w.Write([]byte(`{"running":[{"model":"llama3","state":"ready"},{"model":"phi4","state":"starting"}]}`))
		case "/upstream/llama3/metrics":
			w.Write([]byte("llamacpp:predicted_tokens_seconds 25.0\nllamacpp:requests_processing 1\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := New(server.URL)
	result, err := p.Probe()
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if len(result.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(result.Entities))
	}

	ready := result.Entities[0]
	if ready.Name != "llama3" || ready.State != "ready" {
		t.Errorf("unexpected first entity: %+v", ready)
	}
	if ready.GenTPS != 25.0 {
		t.Errorf("expected GenTPS 25.0, got %f", ready.GenTPS)
	}
	if ready.RequestsProcessing != 1 {
		t.Errorf("expected 1 request processing, got %d", ready.RequestsProcessing)
	}

	// Loading models never hit the metrics endpoint and keep zero metrics.
	loading := result.Entities[1]
	if loading.State != "starting" || loading.GenTPS != 0 {
		t.Errorf("unexpected loading entity: %+v", loading)
	}

	if !result.HasActivity() {
		t.Error("expected activity with one request processing")
	}
}

func TestProbe_MetricsEndpointFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/running" {
			w.Write([]byte(`{"running":[{"model":"llama3","state":"ready"}]}`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	result, err := New(server.URL).Probe()
	if err != nil {
		t.Fatalf("expected degraded success, got error: %v", err)
	}
	if len(result.Entities) != 1 || result.Entities[0].GenTPS != 0 {
		t.Errorf("expected entity with empty metrics, got %+v", result.Entities)
	}
}

func TestProbe_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := New(server.URL).Probe(); err == nil {
		t.Error("expected error on non-200 API response")
	}
}

func TestProbe_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	if _, err := New(server.URL).Probe(); err == nil {
		t.Error("expected error when the service is unreachable")
	}
}

func TestResult_HasActivity_Nil(t *testing.T) {
	var r *Result
	if r.HasActivity() {
		t.Error("nil result must report no activity")
	}
}
