package seeds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/netip"
)

const DefaultAPIURL = "https://api.hyperliquid.xyz/info"

// APISource asks the Hyperliquid info API for the current gossip root IPs.
type APISource struct {
	Client  *http.Client
	URL     string
	Ignored IgnoreSet
	Logger  *log.Logger
	Debug   bool
}

func (s *APISource) Name() string { return "api" }

func (s *APISource) Discover(ctx context.Context) ([]Peer, error) {
	url := s.URL
	if url == "" {
		url = DefaultAPIURL
	}

	body := bytes.NewReader([]byte(`{"type":"gossipRootIps"}`))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get mainnet seed nodes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get mainnet seed nodes: unexpected status %s", resp.Status)
	}

	var raw []string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse mainnet seed nodes: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("no seed peers were given from Hyperliquid API")
	}

	peers := make([]Peer, 0, len(raw))
	for _, v := range raw {
		ip, err := netip.ParseAddr(v)
		if err != nil || !ip.Is4() {
			return nil, fmt.Errorf("parse mainnet seed nodes: bad address %q", v)
		}
		if s.Ignored.Contains(ip) {
			if s.Debug && s.Logger != nil {
				s.Logger.Printf("[seeds] api: skipping ignored seed node %s", ip)
			}
			continue
		}
		peers = append(peers, Peer{Operator: "Hyperliquid API-provided IP", IP: ip})
	}
	return peers, nil
}
