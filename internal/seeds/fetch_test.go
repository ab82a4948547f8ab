package seeds

import (
	"context"
	"errors"
	"net/netip"
	"testing"
)

type stubSource struct {
	name  string
	peers []Peer
	err   error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Discover(ctx context.Context) ([]Peer, error) {
	return s.peers, s.err
}

func peer(op, ip string) Peer {
	return Peer{Operator: op, IP: netip.MustParseAddr(ip)}
}

func TestUnionDedupsByAddress(t *testing.T) {
	a := &stubSource{name: "a", peers: []Peer{peer("a", "1.1.1.1"), peer("a", "2.2.2.2")}}
	b := &stubSource{name: "b", peers: []Peer{peer("b", "2.2.2.2"), peer("b", "3.3.3.3")}}

	got, err := Union(context.Background(), nil, a, b)
	if err != nil {
		t.Fatalf("union: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d peers, want 3: %+v", len(got), got)
	}
	// First-seen wins, including its operator label.
	if got[1].Operator != "a" || got[1].IP != netip.MustParseAddr("2.2.2.2") {
		t.Fatalf("dedup did not keep first occurrence: %+v", got[1])
	}
}

func TestUnionToleratesPartialFailure(t *testing.T) {
	a := &stubSource{name: "a", err: errors.New("boom")}
	b := &stubSource{name: "b", peers: []Peer{peer("b", "3.3.3.3")}}

	got, err := Union(context.Background(), nil, a, b)
	if err != nil {
		t.Fatalf("one healthy source should be enough: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d peers, want 1", len(got))
	}
}

func TestUnionAllSourcesFailed(t *testing.T) {
	a := &stubSource{name: "a", err: errors.New("boom a")}
	b := &stubSource{name: "b", err: errors.New("boom b")}

	_, err := Union(context.Background(), nil, a, b)
	if err == nil {
		t.Fatalf("expected error when every source fails")
	}
}

func TestUnionEmptyResultIsError(t *testing.T) {
	a := &stubSource{name: "a"}
	if _, err := Union(context.Background(), nil, a); err == nil {
		t.Fatalf("expected error when sources return nothing")
	}
}

func TestUnionSingleSourcePropagatesFailure(t *testing.T) {
	// Testnet mode: one authoritative source, its failure is fatal.
	hosted := &stubSource{name: "hosted", err: errors.New("upstream down")}
	_, err := Union(context.Background(), nil, hosted)
	if err == nil {
		t.Fatalf("expected error from single failing source")
	}
}
