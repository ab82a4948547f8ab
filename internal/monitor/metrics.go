package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns the registry and every collector this process exports. It is
// constructed once at startup and handed to whoever needs it; there are no
// package-level registrations.
type Metrics struct {
	Registry *prometheus.Registry

	NodeSystemTime prometheus.Gauge
	NodeTime       prometheus.Gauge
	NodeResponding prometheus.Gauge
	NodeTimeDrift  prometheus.Histogram

	SeedPeersSelected prometheus.Gauge
	PruneRemoved      prometheus.Counter
	PruneFailed       prometheus.Counter
	WorkerRestarts    prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		NodeSystemTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hl_node_system_time",
			Help: "Last reported system time in milliseconds since Unix epoch",
		}),
		NodeTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hl_node_exchange_time",
			Help: "Last reported HyperCore exchange time in milliseconds since Unix epoch",
		}),
		NodeResponding: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hl_node_responding",
			Help: "Whether HyperCore info endpoint is responding",
		}),
		NodeTimeDrift: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hl_node_time_drift",
			Help:    "HyperCore exchange time difference from system time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1.0, 1.25, 48),
		}),
		SeedPeersSelected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hl_bootstrap_seed_peers_selected",
			Help: "Seed peers selected during the last bootstrap run",
		}),
		PruneRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hl_bootstrap_prune_files_removed_total",
			Help: "Files removed by the data prune worker",
		}),
		PruneFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hl_bootstrap_prune_files_failed_total",
			Help: "File removals that failed during pruning",
		}),
		WorkerRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hl_bootstrap_worker_restarts_total",
			Help: "Background worker cycles recovered after a panic",
		}),
	}

	m.Registry.MustRegister(
		m.NodeSystemTime,
		m.NodeTime,
		m.NodeResponding,
		m.NodeTimeDrift,
		m.SeedPeersSelected,
		m.PruneRemoved,
		m.PruneFailed,
		m.WorkerRestarts,
	)
	return m
}
