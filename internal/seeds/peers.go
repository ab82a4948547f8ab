package seeds

import (
	"context"
	"net/netip"
)

// Peer is a candidate seed node. Identity is the IP alone; Operator is
// provenance kept for logs and nothing else.
type Peer struct {
	Operator string
	IP       netip.Addr
}

// IgnoreSet holds operator-supplied addresses that must never be proposed,
// no matter which source produced them. Fixed for the process lifetime.
type IgnoreSet map[netip.Addr]struct{}

func NewIgnoreSet(ips []netip.Addr) IgnoreSet {
	s := make(IgnoreSet, len(ips))
	for _, ip := range ips {
		s[ip] = struct{}{}
	}
	return s
}

func (s IgnoreSet) Contains(ip netip.Addr) bool {
	_, ok := s[ip]
	return ok
}

// Source is one strategy for discovering candidate seed peers.
type Source interface {
	// Discover returns candidate peers, already filtered against the
	// source's ignore set.
	Discover(ctx context.Context) ([]Peer, error)
	Name() string
}
