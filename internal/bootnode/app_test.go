package bootnode

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hl-bootstrap/internal/gossipcfg"
)

func TestPrepareShortCircuitsOnFreshConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override_gossip_config.json")
	content := []byte(`{"root_node_ips":[],"try_new_peers":true,"chain":"Mainnet"}`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	app := New(Config{
		Network:            "mainnet",
		GossipConfigPath:   path,
		GossipConfigMaxAge: 15 * time.Minute,
		IgnoreIPv6Enabled:  true,
	}, nil)

	// A fresh config must succeed without touching the network; the
	// pipeline would fail loudly here otherwise (no sources reachable).
	if err := app.Prepare(context.Background()); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(after) != string(content) {
		t.Fatalf("fresh config was rewritten")
	}
}

func TestResolveChainFromFlagBeatsVisorConfig(t *testing.T) {
	app := New(Config{Network: "testnet"}, nil)
	chain, err := app.resolveChain()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if chain != gossipcfg.ChainTestnet {
		t.Fatalf("chain = %v", chain)
	}
}

func TestResolveChainFromVisorConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "visor.json")
	if err := os.WriteFile(path, []byte(`{"chain": "Testnet"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	app := New(Config{VisorConfigPath: path}, nil)
	chain, err := app.resolveChain()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if chain != gossipcfg.ChainTestnet {
		t.Fatalf("chain = %v", chain)
	}
}

func TestResolveChainRejectsUnknownNetwork(t *testing.T) {
	app := New(Config{Network: "devnet"}, nil)
	if _, err := app.resolveChain(); err == nil {
		t.Fatalf("expected error for unknown network")
	}
}
