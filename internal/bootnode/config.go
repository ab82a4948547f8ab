package bootnode

import (
	"net/netip"
	"time"
)

// Config carries every recognized option. cmd/hl-bootstrap populates it
// from flags and environment; nothing here reads the environment itself.
type Config struct {
	// Network is "mainnet"/"testnet"; empty means infer from visor.json.
	Network         string
	VisorConfigPath string

	GossipConfigPath   string
	GossipConfigMaxAge time.Duration

	SeedPeersAmount     int
	SeedPeersMaxLatency time.Duration
	SeedPeersIgnored    []netip.Addr
	SeedPeersExtra      []netip.Addr

	// ProbeStorePath enables the persistent probe history; empty disables.
	ProbeStorePath string

	IgnoreIPv6Enabled bool

	// PruneInterval of zero disables the prune worker.
	PruneInterval  time.Duration
	PruneOlderThan time.Duration

	// MetricsListenAddr of "" disables the poller and HTTP surface.
	MetricsListenAddr     string
	StatusPollInterval    time.Duration
	HealthyDriftThreshold time.Duration
	NodeURL               string

	Debug bool

	// Args are passed through to hl-visor after setup.
	Args []string
}
