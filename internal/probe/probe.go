package probe

import (
	"context"
	"errors"
	"log"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"hl-bootstrap/internal/netx"
	"hl-bootstrap/internal/seeds"
)

const (
	// Gossip port used by hl-node, could change in the future.
	DefaultPort = 4001

	DefaultConcurrency = 64
)

// Result is a candidate that completed a TCP connect, with the observed
// wall-clock latency. Ordering is ascending latency, ties kept in discovery
// order.
type Result struct {
	Peer    seeds.Peer
	Latency time.Duration
}

// Recorder receives probe outcomes; satisfied by probestore.Store.
type Recorder interface {
	NoteSuccess(ip netip.Addr, latency time.Duration) error
	NoteFailure(ip netip.Addr) error
}

// Prober measures reachability of candidate peers under a concurrency cap.
type Prober struct {
	Dialer      netx.Dialer
	Port        uint16
	Concurrency int64
	Recorder    Recorder // optional
	Logger      *log.Logger
	Debug       bool
}

// Pick probes every candidate and returns the n lowest-latency peers. Probe
// failures are never retried; if nothing succeeds the result is empty, not
// an error — the caller decides whether that is fatal.
func (p *Prober) Pick(ctx context.Context, candidates []seeds.Peer, n int, timeout time.Duration) []Result {
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	p.logf("[probe] testing latency to %d seed nodes (concurrency %d)", len(candidates), concurrency)

	type outcome struct {
		latency time.Duration
		err     error
	}
	outcomes := make([]outcome, len(candidates))

	sem := semaphore.NewWeighted(concurrency)
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, ip netip.Addr) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[i] = outcome{err: err}
				return
			}
			defer sem.Release(1)

			d, err := p.measure(ctx, ip, port, timeout)
			outcomes[i] = outcome{latency: d, err: err}
		}(i, c.IP)
	}
	wg.Wait()

	results := make([]Result, 0, len(candidates))
	failed := 0
	for i, c := range candidates {
		o := outcomes[i]
		if o.err != nil {
			failed++
			reason := "io error"
			if errors.Is(o.err, context.DeadlineExceeded) {
				reason = "timeout"
			}
			p.debugf("[probe] %s (%s): latency test failed (%s): %v", c.IP, c.Operator, reason, o.err)
			if p.Recorder != nil {
				_ = p.Recorder.NoteFailure(c.IP)
			}
			continue
		}
		p.debugf("[probe] %s (%s): latency %s", c.IP, c.Operator, o.latency)
		if p.Recorder != nil {
			_ = p.Recorder.NoteSuccess(c.IP, o.latency)
		}
		results = append(results, Result{Peer: c, Latency: o.latency})
	}

	p.logf("[probe] latency test complete: %d ok, %d failed", len(results), failed)

	sortByLatency(results)
	if len(results) > n {
		results = results[:n]
	}
	for i, r := range results {
		p.logf("[probe] picked seed node %d: %s (%s) latency %s", i, r.Peer.IP, r.Peer.Operator, r.Latency)
	}
	return results
}

func (p *Prober) measure(ctx context.Context, ip netip.Addr, port uint16, timeout time.Duration) (time.Duration, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
	start := time.Now()
	conn, err := p.Dialer.Dial(dialCtx, addr)
	if err != nil {
		// Surface the deadline rather than the wrapped dial error so
		// timeouts stay distinguishable from refused connections.
		if dialCtx.Err() != nil {
			return 0, dialCtx.Err()
		}
		return 0, err
	}
	elapsed := time.Since(start)
	_ = conn.Close()
	return elapsed, nil
}

func (p *Prober) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}

func (p *Prober) debugf(format string, args ...any) {
	if p.Debug && p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}
