package monitor

import (
	"sync/atomic"
	"time"
)

// Health is the process-wide node health state. The poller is the only
// writer; HTTP handlers read it concurrently. Every poll tick overwrites
// unconditionally, so there are no read-modify-write races to guard.
type Health struct {
	systemTimeMS atomic.Int64
	nodeTimeMS   atomic.Int64
	responding   atomic.Bool
}

// NewHealth starts out as "not responding" until the first successful poll.
func NewHealth() *Health {
	return &Health{}
}

func (h *Health) SetNotResponding(systemTimeMS int64) {
	h.systemTimeMS.Store(systemTimeMS)
	h.responding.Store(false)
}

func (h *Health) SetResponding(systemTimeMS, nodeTimeMS int64) {
	h.systemTimeMS.Store(systemTimeMS)
	h.nodeTimeMS.Store(nodeTimeMS)
	h.responding.Store(true)
}

func (h *Health) Responding() bool {
	return h.responding.Load()
}

// Drift is how far the node's self-reported clock lags the last wall-clock
// sample, clamped to zero when the node runs ahead.
func (h *Health) Drift() time.Duration {
	d := h.systemTimeMS.Load() - h.nodeTimeMS.Load()
	if d < 0 {
		d = 0
	}
	return time.Duration(d) * time.Millisecond
}
