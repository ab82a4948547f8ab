package seeds

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"hl-bootstrap/internal/gossipcfg"
)

const DefaultHostedURL = "https://hyperliquid-testnet.imperator.co/peers.json"

// HostedSource fetches a full gossip config document published by a node
// operator and re-derives candidate peers from its root_node_ips. It is the
// authoritative testnet source.
type HostedSource struct {
	Client   *http.Client
	URL      string
	Operator string
	Ignored  IgnoreSet
	Logger   *log.Logger
	Debug    bool
}

func (s *HostedSource) Name() string { return "hosted" }

func (s *HostedSource) Discover(ctx context.Context) ([]Peer, error) {
	url := s.URL
	if url == "" {
		url = DefaultHostedURL
	}
	operator := s.Operator
	if operator == "" {
		operator = "Imperator.co"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get hosted seed nodes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get hosted seed nodes: unexpected status %s", resp.Status)
	}

	cfg, err := gossipcfg.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse hosted override_gossip_config: %w", err)
	}

	peers := make([]Peer, 0, len(cfg.RootNodeIPs))
	for _, node := range cfg.RootNodeIPs {
		if s.Ignored.Contains(node.IP) {
			if s.Debug && s.Logger != nil {
				s.Logger.Printf("[seeds] hosted: skipping ignored seed node %s", node.IP)
			}
			continue
		}
		peers = append(peers, Peer{Operator: operator, IP: node.IP})
	}
	return peers, nil
}
