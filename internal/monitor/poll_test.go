package monitor

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newTestPoller(nodeURL string) *Poller {
	return &Poller{
		Client:  &http.Client{Timeout: time.Second},
		NodeURL: nodeURL,
		Health:  NewHealth(),
		Metrics: NewMetrics(),
	}
}

func TestTickSuccess(t *testing.T) {
	nodeTime := time.Now().UnixMilli() - 1200
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"time": ` + timeStr(nodeTime) + `}`))
	}))
	defer srv.Close()

	p := newTestPoller(srv.URL)
	p.tick()

	if !p.Health.Responding() {
		t.Fatalf("health should be responding")
	}
	drift := p.Health.Drift()
	if drift < time.Second || drift > 5*time.Second {
		t.Fatalf("drift = %v, expected roughly 1.2s", drift)
	}
}

func TestTickUnreachableNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := newTestPoller(url)
	p.tick()

	if p.Health.Responding() {
		t.Fatalf("unreachable node must read as not responding")
	}
	if p.consecutiveFailures != 0 {
		t.Fatalf("transport failures must not count toward the warn limiter")
	}
}

func TestTickBadStatusCountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newTestPoller(srv.URL)
	p.tick()
	p.tick()

	if p.Health.Responding() {
		t.Fatalf("bad status must read as not responding")
	}
	if p.consecutiveFailures != 2 {
		t.Fatalf("consecutiveFailures = %d, want 2", p.consecutiveFailures)
	}
}

func TestTickRecoveryResetsFailureCount(t *testing.T) {
	healthy := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"time": ` + timeStr(time.Now().UnixMilli()) + `}`))
	}))
	defer srv.Close()

	p := newTestPoller(srv.URL)
	p.tick()
	if p.consecutiveFailures != 1 {
		t.Fatalf("consecutiveFailures = %d, want 1", p.consecutiveFailures)
	}

	healthy = true
	p.tick()
	if !p.Health.Responding() {
		t.Fatalf("health should recover")
	}
	if p.consecutiveFailures != 0 {
		t.Fatalf("failure streak should reset on success")
	}
}

func TestTickParseErrorIsNotResponding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	p := newTestPoller(srv.URL)
	p.tick()

	if p.Health.Responding() {
		t.Fatalf("parse error must read as not responding")
	}
	if p.consecutiveFailures != 1 {
		t.Fatalf("parse errors count toward the warn limiter")
	}
}

func timeStr(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
