package prune

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// visor_child_stderr is actively written by hl-visor and must survive
// every prune cycle regardless of age.
const protectedName = "visor_child_stderr"

// Worker periodically deletes stale files under Root, the moral equivalent
// of: find Root -mindepth 2 -type f -not -name visor_child_stderr -mmin +N.
// Directories are never removed.
type Worker struct {
	Root      string
	Interval  time.Duration
	OlderThan time.Duration
	Logger    *log.Logger
	Debug     bool

	// Optional counters; nil disables them.
	Removed  prometheus.Counter
	Failed   prometheus.Counter
	Restarts prometheus.Counter
}

// Run loops forever; the caller starts it as a detached goroutine that ends
// with the process. The first cycle runs immediately. A slow cycle drops
// the ticks it missed instead of queueing them, and a panicking cycle is
// recovered so one bad walk cannot kill supervision.
func (w *Worker) Run() {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.logf("[prune] pruning %s, retention %s, every %s", w.Root, w.OlderThan, w.Interval)
	w.cycle()

	for range ticker.C {
		w.cycle()
	}
}

func (w *Worker) cycle() {
	defer func() {
		if r := recover(); r != nil {
			w.logf("[prune] cycle panicked: %v", r)
			if w.Restarts != nil {
				w.Restarts.Inc()
			}
		}
	}()

	if err := w.RunOnce(); err != nil {
		w.logf("[prune] cycle failed: %v", err)
	}
}

// RunOnce performs a single prune cycle: walk, mark, then delete.
func (w *Worker) RunOnce() error {
	now := time.Now()
	targets := w.collect(now)

	removed, failed := 0, 0
	for _, path := range targets {
		if err := os.Remove(path); err != nil {
			w.logf("[prune] failed to remove %s: %v", path, err)
			failed++
			continue
		}
		w.debugf("[prune] removed %s", path)
		removed++
	}

	if w.Removed != nil {
		w.Removed.Add(float64(removed))
	}
	if w.Failed != nil {
		w.Failed.Add(float64(failed))
	}
	w.logf("[prune] cycle complete: %d removed, %d failed", removed, failed)
	return nil
}

// collect walks the tree depth-first with an explicit directory stack and
// returns the files due for deletion. Unreadable directories are skipped,
// not fatal.
func (w *Worker) collect(now time.Time) []string {
	var targets []string

	stack := []string{w.Root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			w.logf("[prune] failed to read directory %s: %v", dir, err)
			continue
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			if entry.IsDir() {
				stack = append(stack, path)
				continue
			}
			if !entry.Type().IsRegular() {
				continue
			}
			// Files directly in the watched root are never pruned.
			if dir == w.Root {
				continue
			}
			if entry.Name() == protectedName {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				w.logf("[prune] failed to stat %s: %v", path, err)
				continue
			}
			if now.Sub(info.ModTime()) > w.OlderThan {
				targets = append(targets, path)
			}
		}
	}
	return targets
}

func (w *Worker) logf(format string, args ...any) {
	if w.Logger != nil {
		w.Logger.Printf(format, args...)
	}
}

func (w *Worker) debugf(format string, args ...any) {
	if w.Debug && w.Logger != nil {
		w.Logger.Printf(format, args...)
	}
}
