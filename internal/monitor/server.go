package monitor

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the poller's published state over HTTP. It holds no state
// of its own: every handler reads Health/Metrics and nothing else.
type Server struct {
	Health         *Health
	Metrics        *Metrics
	DriftThreshold time.Duration
	NodeURL        string
	Client         *http.Client
	Logger         *log.Logger
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /livez", s.livez)
	mux.HandleFunc("GET /readyz", s.readyz)
	mux.HandleFunc("GET /info", s.proxyInfo)
	mux.HandleFunc("POST /info", s.proxyInfo)
	return mux
}

// Run blocks serving the monitoring surface until the listener fails.
func (s *Server) Run(addr string) error {
	s.logf("[monitor] starting metrics server on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) livez(w http.ResponseWriter, r *http.Request) {
	if s.Health.Responding() {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.Health.Responding() && s.Health.Drift() < s.DriftThreshold {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
}

// proxyInfo relays the request to the node's own /info endpoint verbatim,
// so operators can query node status through the monitoring port.
func (s *Server) proxyInfo(w http.ResponseWriter, r *http.Request) {
	nodeURL := s.NodeURL
	if nodeURL == "" {
		nodeURL = DefaultNodeURL
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logf("[monitor] failed to read request body: %v", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, nodeURL+"/info", bytes.NewReader(body))
	if err != nil {
		http.Error(w, "failed to build upstream request", http.StatusInternalServerError)
		return
	}
	for key, values := range r.Header {
		if skipProxyHeader(key) {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		s.logf("[monitor] failed to proxy request to node: %v", err)
		http.Error(w, "failed to connect to node: "+err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if skipProxyHeader(key) {
			continue
		}
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logf("[monitor] failed to relay response body: %v", err)
	}
}

func skipProxyHeader(key string) bool {
	switch strings.ToLower(key) {
	case "host", "connection", "content-length":
		return true
	}
	return false
}

func (s *Server) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
