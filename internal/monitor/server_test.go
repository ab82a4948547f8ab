package monitor

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) (*Server, *Health) {
	t.Helper()
	h := NewHealth()
	return &Server{
		Health:         h,
		Metrics:        NewMetrics(),
		DriftThreshold: 2500 * time.Millisecond,
		Client:         &http.Client{Timeout: time.Second},
	}, h
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLivez(t *testing.T) {
	s, h := newTestServer(t)
	handler := s.Handler()

	if rec := get(t, handler, "/livez"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("livez before first poll = %d, want 503", rec.Code)
	}

	h.SetResponding(1000, 900)
	if rec := get(t, handler, "/livez"); rec.Code != http.StatusOK {
		t.Fatalf("livez while responding = %d, want 200", rec.Code)
	}

	h.SetNotResponding(2000)
	if rec := get(t, handler, "/livez"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("livez while not responding = %d, want 503", rec.Code)
	}
}

func TestReadyzDriftThreshold(t *testing.T) {
	s, h := newTestServer(t)
	handler := s.Handler()

	// Not responding at all: unhealthy regardless of drift.
	if rec := get(t, handler, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before first poll = %d, want 503", rec.Code)
	}

	// Responding with 1000ms drift, threshold 2500ms: ready.
	h.SetResponding(10_000, 9_000)
	if rec := get(t, handler, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz with small drift = %d, want 200", rec.Code)
	}

	// Responding but 3000ms behind: not ready.
	h.SetResponding(10_000, 7_000)
	if rec := get(t, handler, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with 3000ms drift = %d, want 503", rec.Code)
	}

	// Node ahead of system clock clamps to zero drift.
	h.SetResponding(10_000, 11_000)
	if rec := get(t, handler, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz with node ahead = %d, want 200", rec.Code)
	}
}

func TestMetricsExposition(t *testing.T) {
	s, h := newTestServer(t)
	h.SetResponding(1000, 900)
	s.Metrics.NodeResponding.Set(1)

	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"hl_node_responding", "hl_node_time_drift", "hl_bootstrap_prune_files_removed_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("exposition missing %s:\n%s", name, body)
		}
	}
}

func TestProxyForwardsBodyVerbatim(t *testing.T) {
	payload := []byte(`{"type":"exchangeStatus","raw":"\u0000bytes"}`)

	var upstreamGot []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamGot, _ = io.ReadAll(r.Body)
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("node says hi"))
	}))
	defer upstream.Close()

	s, _ := newTestServer(t)
	s.NodeURL = upstream.URL

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/info", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)

	if !bytes.Equal(upstreamGot, payload) {
		t.Fatalf("upstream got %q, want %q", upstreamGot, payload)
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status not relayed: %d", rec.Code)
	}
	if rec.Header().Get("X-Upstream") != "yes" {
		t.Fatalf("upstream header not relayed")
	}
	if rec.Body.String() != "node says hi" {
		t.Fatalf("body not relayed: %q", rec.Body.String())
	}
}

func TestProxyUnreachableUpstreamIsBadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close() // now nothing listens there

	s, _ := newTestServer(t)
	s.NodeURL = url

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/info", strings.NewReader("{}")))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("unreachable upstream = %d, want 502", rec.Code)
	}
}
