package bootnode

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"hl-bootstrap/internal/gossipcfg"
	"hl-bootstrap/internal/monitor"
	"hl-bootstrap/internal/netx"
	"hl-bootstrap/internal/probe"
	"hl-bootstrap/internal/probestore"
	"hl-bootstrap/internal/prune"
	"hl-bootstrap/internal/seeds"
	"hl-bootstrap/internal/sysctl"
)

const nodeBinary = "hl-visor"

type App struct {
	cfg    Config
	logger *log.Logger

	metrics *monitor.Metrics
	health  *monitor.Health

	fetchClient *http.Client
	store       *probestore.Store
}

func New(cfg Config, logger *log.Logger) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		metrics: monitor.NewMetrics(),
		health:  monitor.NewHealth(),
		fetchClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Prepare runs the one-shot bootstrap pipeline: resolve the network, bail
// out early when the existing config is fresh, otherwise discover, probe,
// select and persist a new seed peer set. It must complete before the node
// is started.
func (a *App) Prepare(ctx context.Context) error {
	a.warnIPv6()

	chain, err := a.resolveChain()
	if err != nil {
		return err
	}
	a.logf("[bootstrap] preparing hl-node configuration for %s", chain)

	if !gossipcfg.ShouldRefresh(a.cfg.GossipConfigPath, a.cfg.GossipConfigMaxAge) {
		a.logf("[bootstrap] %s modified within %s, not updating seed peers",
			a.cfg.GossipConfigPath, a.cfg.GossipConfigMaxAge)
		return nil
	}

	if a.cfg.ProbeStorePath != "" {
		store, err := probestore.Open(a.cfg.ProbeStorePath)
		if err != nil {
			a.logf("[bootstrap] probe store unavailable, continuing without: %v", err)
		} else {
			a.store = store
			defer func() {
				_ = store.Close()
				a.store = nil
			}()
		}
	}

	ignored := seeds.NewIgnoreSet(a.cfg.SeedPeersIgnored)
	candidates, err := seeds.Union(ctx, a.logger, a.sources(chain, ignored)...)
	if err != nil {
		return err
	}
	a.logf("[bootstrap] got %d seed node candidates for %s", len(candidates), chain)

	if len(a.cfg.SeedPeersExtra) > 0 {
		a.logf("[bootstrap] including %d extra seed peers from args", len(a.cfg.SeedPeersExtra))
		for _, ip := range a.cfg.SeedPeersExtra {
			candidates = append(candidates, seeds.Peer{Operator: "manual", IP: ip})
		}
	}

	prober := &probe.Prober{
		Dialer:   netx.NewTCPDialer(),
		Recorder: a.recorder(),
		Logger:   a.logger,
		Debug:    a.cfg.Debug,
	}
	picked := prober.Pick(ctx, candidates, a.cfg.SeedPeersAmount, a.cfg.SeedPeersMaxLatency)
	if len(picked) == 0 {
		return fmt.Errorf("no seed nodes passed latency threshold, try increasing threshold (current: %s)",
			a.cfg.SeedPeersMaxLatency)
	}
	a.metrics.SeedPeersSelected.Set(float64(len(picked)))

	config := gossipcfg.New(chain)
	ips := make([]netip.Addr, 0, len(picked))
	for _, r := range picked {
		ips = append(ips, r.Peer.IP)
	}
	config.SetPeers(ips)

	if err := config.Persist(a.cfg.GossipConfigPath); err != nil {
		return err
	}
	a.logf("[bootstrap] wrote %d seed peers to %s", len(config.RootNodeIPs), a.cfg.GossipConfigPath)
	return nil
}

// Run starts the supervised node (when args were given) and keeps the
// background workers alive for its lifetime. Without background work it
// execs straight into hl-visor, replacing this process.
func (a *App) Run() error {
	if len(a.cfg.Args) == 0 {
		a.logf("[bootstrap] setup done")
		return nil
	}

	supervise := a.cfg.PruneInterval > 0 || a.cfg.MetricsListenAddr != ""
	if !supervise {
		return execNode(a.cfg.Args)
	}

	a.logf("[bootstrap] setup done, executing %s", nodeBinary)

	child := exec.Command(nodeBinary, a.cfg.Args...)
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Stdin = os.Stdin
	if err := child.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", nodeBinary, err)
	}

	a.startWorkers()

	if err := child.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", nodeBinary, err)
	}
	return nil
}

// startWorkers launches the background loops as detached goroutines. They
// are never joined: their lifetime is the process lifetime, and failures
// are observable through logs and metrics only.
func (a *App) startWorkers() {
	if a.cfg.PruneInterval > 0 {
		wd, err := os.Getwd()
		if err != nil {
			a.logf("[bootstrap] cannot determine working directory, prune disabled: %v", err)
		} else {
			worker := &prune.Worker{
				Root:      filepath.Join(wd, "hl", "data"),
				Interval:  a.cfg.PruneInterval,
				OlderThan: a.cfg.PruneOlderThan,
				Logger:    a.logger,
				Debug:     a.cfg.Debug,
				Removed:   a.metrics.PruneRemoved,
				Failed:    a.metrics.PruneFailed,
				Restarts:  a.metrics.WorkerRestarts,
			}
			go worker.Run()
		}
	}

	if a.cfg.MetricsListenAddr != "" {
		poller := &monitor.Poller{
			Client:   &http.Client{Timeout: 100 * time.Millisecond},
			NodeURL:  a.cfg.NodeURL,
			Interval: a.cfg.StatusPollInterval,
			Health:   a.health,
			Metrics:  a.metrics,
			Logger:   a.logger,
		}
		go poller.Run()

		server := &monitor.Server{
			Health:         a.health,
			Metrics:        a.metrics,
			DriftThreshold: a.cfg.HealthyDriftThreshold,
			NodeURL:        a.cfg.NodeURL,
			Client:         &http.Client{Timeout: 30 * time.Second},
			Logger:         a.logger,
		}
		go func() {
			if err := server.Run(a.cfg.MetricsListenAddr); err != nil {
				a.logf("[bootstrap] metrics server failed: %v", err)
			}
		}()
	}
}

// sources assembles the fetch strategies for the chain. Mainnet unions the
// API, the README table and previously probed peers; testnet trusts the
// hosted config alone, so its failure fails the pipeline.
func (a *App) sources(chain gossipcfg.Chain, ignored seeds.IgnoreSet) []seeds.Source {
	switch chain {
	case gossipcfg.ChainTestnet:
		return []seeds.Source{
			&seeds.HostedSource{Client: a.fetchClient, Ignored: ignored, Logger: a.logger, Debug: a.cfg.Debug},
		}
	default:
		srcs := []seeds.Source{
			&seeds.APISource{Client: a.fetchClient, Ignored: ignored, Logger: a.logger, Debug: a.cfg.Debug},
			&seeds.ReadmeSource{Client: a.fetchClient, Ignored: ignored, Logger: a.logger, Debug: a.cfg.Debug},
		}
		if a.store != nil {
			srcs = append(srcs, &seeds.ProbeStoreSource{
				Store:       a.store,
				MaxFailures: 3,
				Limit:       32,
				Ignored:     ignored,
			})
		}
		return srcs
	}
}

func (a *App) recorder() probe.Recorder {
	if a.store == nil {
		return nil
	}
	return a.store
}

func (a *App) resolveChain() (gossipcfg.Chain, error) {
	if a.cfg.Network != "" {
		return gossipcfg.ParseChain(a.cfg.Network)
	}
	cfg, err := gossipcfg.ReadVisorConfig(a.cfg.VisorConfigPath)
	if err != nil {
		return 0, fmt.Errorf("no network specified and visor config unusable: %w", err)
	}
	return cfg.Chain, nil
}

// warnIPv6 flags enabled IPv6: hl-node is known to misbehave when IPv6 is
// available.
func (a *App) warnIPv6() {
	if a.cfg.IgnoreIPv6Enabled {
		return
	}
	const key = "net.ipv6.conf.all.disable_ipv6"
	value, err := sysctl.Read(key)
	if err == nil && value == "0" {
		a.logf("[bootstrap] %s=0: ipv6 appears to be enabled, node might not start up properly", key)
	}
}

func (a *App) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
