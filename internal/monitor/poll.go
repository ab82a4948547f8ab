package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const DefaultNodeURL = "http://127.0.0.1:3001"

// warnEvery rate-limits the poll failure log: the node being down for a
// while is expected during sync and restart.
const warnEvery = 50

// Poller samples the supervised node's self-reported exchange time and
// publishes the outcome to Health and Metrics. It is the single writer of
// both.
type Poller struct {
	Client   *http.Client
	NodeURL  string
	Interval time.Duration
	Health   *Health
	Metrics  *Metrics
	Logger   *log.Logger

	consecutiveFailures int
}

// Run loops until the process exits. Ticks missed while a slow poll is in
// flight are dropped, not queued.
func (p *Poller) Run() {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.tick()
	for range ticker.C {
		p.tick()
	}
}

func (p *Poller) tick() {
	defer func() {
		if r := recover(); r != nil {
			if p.Logger != nil {
				p.Logger.Printf("[monitor] poll tick panicked: %v", r)
			}
			p.Metrics.WorkerRestarts.Inc()
		}
	}()

	systemNowMS := time.Now().UnixMilli()
	p.Metrics.NodeSystemTime.Set(float64(systemNowMS))

	nodeTimeMS, err := p.requestExchangeTime()
	if err != nil {
		p.Health.SetNotResponding(systemNowMS)
		p.Metrics.NodeResponding.Set(0)

		var unreachable *unreachableError
		if !errors.As(err, &unreachable) {
			p.consecutiveFailures++
			if p.consecutiveFailures%warnEvery == 0 && p.Logger != nil {
				p.Logger.Printf("[monitor] unable to request exchange status from hl-node: %v", err)
			}
		}
		return
	}
	p.consecutiveFailures = 0

	p.Health.SetResponding(systemNowMS, nodeTimeMS)
	p.Metrics.NodeResponding.Set(1)
	p.Metrics.NodeTime.Set(float64(nodeTimeMS))

	drift := systemNowMS - nodeTimeMS
	if drift < 0 {
		drift = 0
	}
	p.Metrics.NodeTimeDrift.Observe(float64(drift))
}

// unreachableError marks transport-level failures: the node process simply
// is not there, which is not worth logging at all.
type unreachableError struct{ err error }

func (e *unreachableError) Error() string { return e.err.Error() }
func (e *unreachableError) Unwrap() error { return e.err }

func (p *Poller) requestExchangeTime() (int64, error) {
	nodeURL := p.NodeURL
	if nodeURL == "" {
		nodeURL = DefaultNodeURL
	}

	req, err := http.NewRequest(http.MethodPost, nodeURL+"/info", strings.NewReader(`{"type":"exchangeStatus"}`))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, &unreachableError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("exchange status: unexpected status %s", resp.Status)
	}

	var status struct {
		Time int64 `json:"time"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return 0, fmt.Errorf("parse exchange status: %w", err)
	}
	return status.Time, nil
}
