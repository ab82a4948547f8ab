package seeds

import (
	"context"
	"net/netip"
)

// CandidateStore is satisfied by probestore.Store.
type CandidateStore interface {
	Candidates(maxFailures, limit int) ([]netip.Addr, error)
}

// ProbeStoreSource replays peers that probed well in previous bootstrap
// runs, so a flaky upstream source does not leave the node without
// candidates. It sits behind the live sources and is never fatal.
type ProbeStoreSource struct {
	Store       CandidateStore
	MaxFailures int
	Limit       int
	Ignored     IgnoreSet
}

func (s *ProbeStoreSource) Name() string { return "probestore" }

func (s *ProbeStoreSource) Discover(ctx context.Context) ([]Peer, error) {
	ips, err := s.Store.Candidates(s.MaxFailures, s.Limit)
	if err != nil {
		return nil, err
	}
	peers := make([]Peer, 0, len(ips))
	for _, ip := range ips {
		if s.Ignored.Contains(ip) {
			continue
		}
		peers = append(peers, Peer{Operator: "previously probed", IP: ip})
	}
	return peers, nil
}
