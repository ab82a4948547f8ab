package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"hl-bootstrap/internal/bootnode"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// hl-bootstrap usually sits in ENTRYPOINT; when the first argument is
	// obviously not an hl-visor run mode (e.g. someone runs bash through the
	// image), hand the process over untouched.
	if len(cfg.Args) > 0 && cfg.Args[0] != "run-non-validator" && cfg.Args[0] != "run-validator" {
		if err := bootnode.ExecPassthrough(cfg.Args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger := log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

	app := bootnode.New(cfg, logger)
	if err := app.Prepare(context.Background()); err != nil {
		logger.Fatalf("bootstrap failed: %v", err)
	}
	if err := app.Run(); err != nil {
		logger.Fatalf("%v", err)
	}
}

func parseFlags(args []string) (bootnode.Config, error) {
	fs := flag.NewFlagSet("hl-bootstrap", flag.ContinueOnError)

	var cfg bootnode.Config
	fs.StringVar(&cfg.Network, "network",
		os.Getenv("HL_BOOTSTRAP_NETWORK"),
		"chain to set up configuration for (mainnet or testnet; default: read from visor.json)")
	fs.StringVar(&cfg.VisorConfigPath, "visor-config-path",
		os.Getenv("HL_BOOTSTRAP_VISOR_CONFIG_PATH"),
		"visor.json path, used to determine the network to use")
	fs.StringVar(&cfg.GossipConfigPath, "override-gossip-config-path",
		envOr("HL_BOOTSTRAP_OVERRIDE_GOSSIP_CONFIG_PATH", "./override_gossip_config.json"),
		"override_gossip_config.json path")
	fs.DurationVar(&cfg.GossipConfigMaxAge, "override-gossip-config-max-age",
		envDuration("HL_BOOTSTRAP_OVERRIDE_GOSSIP_CONFIG_MAX_AGE", 15*time.Minute),
		"config max age before new peers are checked and set up")
	fs.IntVar(&cfg.SeedPeersAmount, "seed-peers-amount",
		envInt("HL_BOOTSTRAP_SEED_PEERS_AMOUNT", 5),
		"how many seed peers to keep in the configuration")
	fs.DurationVar(&cfg.SeedPeersMaxLatency, "seed-peers-max-latency",
		envDuration("HL_BOOTSTRAP_SEED_PEERS_MAX_LATENCY", 80*time.Millisecond),
		"maximum latency of seed peers to consider (80ms keeps connections on-continent)")
	ignored := fs.String("seed-peers-ignored",
		os.Getenv("HL_BOOTSTRAP_SEED_PEERS_IGNORED"),
		"comma-separated known bad seed peer IPs to ignore")
	extra := fs.String("seed-peers-extra",
		os.Getenv("HL_BOOTSTRAP_SEED_PEERS_EXTRA"),
		"comma-separated extra seed peer IPs to consider")
	fs.StringVar(&cfg.ProbeStorePath, "probe-store-path",
		envOr("HL_BOOTSTRAP_PROBE_STORE_PATH", ".hl-bootstrap/probes.db"),
		"path of the probe history database (empty disables it)")
	fs.BoolVar(&cfg.IgnoreIPv6Enabled, "ignore-ipv6-enabled",
		os.Getenv("HL_BOOTSTRAP_IGNORE_IPV6_ENABLED") == "true", // hl-node bug: available IPv6 breaks it
		"suppress the warning when net.ipv6.conf.all.disable_ipv6 == 0")
	fs.DurationVar(&cfg.PruneInterval, "prune-data-interval",
		envDuration("HL_BOOTSTRAP_PRUNE_DATA_INTERVAL", 0),
		"data directory prune interval (0 disables pruning)")
	fs.DurationVar(&cfg.PruneOlderThan, "prune-data-older-than",
		envDuration("HL_BOOTSTRAP_PRUNE_DATA_OLDER_THAN", 4*time.Hour),
		"prune data files older than this")
	fs.StringVar(&cfg.MetricsListenAddr, "metrics-listen-address",
		os.Getenv("HL_BOOTSTRAP_METRICS_LISTEN_ADDRESS"),
		"listen address for the metrics/health server (empty disables it)")
	fs.DurationVar(&cfg.StatusPollInterval, "metrics-status-poll-interval",
		envDuration("HL_BOOTSTRAP_METRICS_STATUS_POLL_INTERVAL", 100*time.Millisecond),
		"how often the /info exchangeStatus request is done")
	fs.DurationVar(&cfg.HealthyDriftThreshold, "metrics-healthy-drift-threshold",
		envDuration("HL_BOOTSTRAP_METRICS_HEALTHY_DRIFT_THRESHOLD", 2500*time.Millisecond),
		"how far the node may lag behind system time before it is reported unhealthy")
	fs.BoolVar(&cfg.Debug, "debug", os.Getenv("HL_BOOTSTRAP_DEBUG") == "true", "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	var err error
	if cfg.SeedPeersIgnored, err = parseIPList(*ignored); err != nil {
		return cfg, fmt.Errorf("-seed-peers-ignored: %w", err)
	}
	if cfg.SeedPeersExtra, err = parseIPList(*extra); err != nil {
		return cfg, fmt.Errorf("-seed-peers-extra: %w", err)
	}

	cfg.NodeURL = os.Getenv("HL_BOOTSTRAP_NODE_URL")
	cfg.Args = fs.Args()
	return cfg, nil
}

func parseIPList(s string) ([]netip.Addr, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []netip.Addr
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ip, err := netip.ParseAddr(part)
		if err != nil {
			return nil, err
		}
		out = append(out, ip)
	}
	return out, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
