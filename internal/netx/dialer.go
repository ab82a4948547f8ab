package netx

import (
	"context"
	"net"
)

// Dialer is the seam between the latency prober and the real network.
// Tests swap in a fake; production uses TCPDialer.
type Dialer interface {
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

type tcpDialer struct {
	d net.Dialer
}

func NewTCPDialer() Dialer {
	return &tcpDialer{}
}

func (t *tcpDialer) Dial(ctx context.Context, addr string) (net.Conn, error) {
	return t.d.DialContext(ctx, "tcp", addr)
}
