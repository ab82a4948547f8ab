package gossipcfg

import (
	"encoding/json"
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"time"
)

const (
	// hl-node only honors n_gossip_peers in [1, 100]. Below the threshold
	// the field is left unset so the node's own default applies.
	gossipPeersThreshold = 8
	gossipPeersMax       = 100
)

type NodeIP struct {
	IP netip.Addr `json:"Ip"`
}

// Config is the override_gossip_config.json document. Top-level keys this
// tool does not understand are carried in Unknown so that loading and
// re-saving an externally authored file never drops data.
type Config struct {
	RootNodeIPs  []NodeIP
	TryNewPeers  bool
	Chain        Chain
	NGossipPeers *uint16
	Unknown      map[string]json.RawMessage
}

func New(chain Chain) *Config {
	return &Config{
		TryNewPeers: true,
		Chain:       chain,
	}
}

// SetPeers replaces the root node list, dropping duplicate addresses while
// keeping first-seen order, and derives n_gossip_peers from the final count.
func (c *Config) SetPeers(ips []netip.Addr) {
	seen := make(map[netip.Addr]struct{}, len(ips))
	c.RootNodeIPs = c.RootNodeIPs[:0]
	for _, ip := range ips {
		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		c.RootNodeIPs = append(c.RootNodeIPs, NodeIP{IP: ip})
	}

	if n := len(c.RootNodeIPs); n > gossipPeersThreshold {
		v := uint16(min(n, gossipPeersMax))
		c.NGossipPeers = &v
	} else {
		c.NGossipPeers = nil
	}
}

func (c *Config) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.Unknown)+4)
	for k, v := range c.Unknown {
		out[k] = v
	}

	ips := c.RootNodeIPs
	if ips == nil {
		ips = []NodeIP{}
	}
	var err error
	if out["root_node_ips"], err = json.Marshal(ips); err != nil {
		return nil, err
	}
	if out["try_new_peers"], err = json.Marshal(c.TryNewPeers); err != nil {
		return nil, err
	}
	if out["chain"], err = json.Marshal(c.Chain); err != nil {
		return nil, err
	}
	if c.NGossipPeers != nil {
		if out["n_gossip_peers"], err = json.Marshal(*c.NGossipPeers); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

func (c *Config) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*c = Config{}
	if raw, ok := fields["root_node_ips"]; ok {
		if err := json.Unmarshal(raw, &c.RootNodeIPs); err != nil {
			return fmt.Errorf("root_node_ips: %w", err)
		}
		delete(fields, "root_node_ips")
	}
	if raw, ok := fields["try_new_peers"]; ok {
		if err := json.Unmarshal(raw, &c.TryNewPeers); err != nil {
			return fmt.Errorf("try_new_peers: %w", err)
		}
		delete(fields, "try_new_peers")
	}
	raw, ok := fields["chain"]
	if !ok {
		return fmt.Errorf("missing chain field")
	}
	if err := json.Unmarshal(raw, &c.Chain); err != nil {
		return fmt.Errorf("chain: %w", err)
	}
	delete(fields, "chain")
	if raw, ok := fields["n_gossip_peers"]; ok {
		if err := json.Unmarshal(raw, &c.NGossipPeers); err != nil {
			return fmt.Errorf("n_gossip_peers: %w", err)
		}
		if c.NGossipPeers != nil && (*c.NGossipPeers < 1 || *c.NGossipPeers > gossipPeersMax) {
			return fmt.Errorf("n_gossip_peers %d out of range [1, %d]", *c.NGossipPeers, gossipPeersMax)
		}
		delete(fields, "n_gossip_peers")
	}
	if len(fields) > 0 {
		c.Unknown = fields
	}
	return nil
}

func Decode(r io.Reader) (*Config, error) {
	var c Config
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// ShouldRefresh reports whether the file at path is missing or older than
// maxAge. A fresh file short-circuits the whole bootstrap pipeline.
func ShouldRefresh(path string, maxAge time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return true
	}
	return time.Since(info.ModTime()) > maxAge
}

// Persist writes the document to a sibling temporary file and renames it
// into place, so a reader never observes a partially written config.
func (c *Config) Persist(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".override_gossip_config-*")
	if err != nil {
		return fmt.Errorf("create temp config in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(c); err != nil {
		tmp.Close()
		return fmt.Errorf("write new configuration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
