package probestore

import (
	"encoding/json"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"hl-bootstrap/internal/seeds"
)

const (
	bPeers = "peers"

	defaultTO = 2 * time.Second
)

type record struct {
	IP            string `json:"ip"`
	LastLatencyMS int64  `json:"last_latency_ms"`
	LastOK        int64  `json:"last_ok"`
	Failures      int    `json:"failures"`
}

// Store keeps per-peer probe history across bootstrap runs, backed by
// BoltDB. It feeds the probestore seed source and is strictly best-effort:
// callers treat open/update failures as a downgrade, not an error.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: defaultTO})
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bPeers))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// NoteSuccess records a completed probe, resetting the failure streak.
func (s *Store) NoteSuccess(ip netip.Addr, latency time.Duration) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bPeers))
		r := load(b, ip)
		r.LastLatencyMS = latency.Milliseconds()
		r.LastOK = time.Now().Unix()
		r.Failures = 0
		return put(b, r)
	})
}

// NoteFailure bumps the peer's failure streak.
func (s *Store) NoteFailure(ip netip.Addr) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bPeers))
		r := load(b, ip)
		r.Failures++
		return put(b, r)
	})
}

// Candidates returns known peers whose failure streak is within
// maxFailures, best recorded latency first, capped at limit (0 = no cap).
func (s *Store) Candidates(maxFailures, limit int) ([]netip.Addr, error) {
	var recs []record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bPeers)).ForEach(func(k, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				// Corruption: skip the record, don't brick bootstrap.
				return nil
			}
			if r.Failures > maxFailures || r.LastOK == 0 {
				return nil
			}
			recs = append(recs, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].LastLatencyMS < recs[j].LastLatencyMS
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	out := make([]netip.Addr, 0, len(recs))
	for _, r := range recs {
		ip, err := netip.ParseAddr(r.IP)
		if err != nil {
			continue
		}
		out = append(out, ip)
	}
	return out, nil
}

func load(b *bolt.Bucket, ip netip.Addr) record {
	r := record{IP: ip.String()}
	if raw := b.Get([]byte(r.IP)); raw != nil {
		_ = json.Unmarshal(raw, &r)
		r.IP = ip.String()
	}
	return r
}

func put(b *bolt.Bucket, r record) error {
	val, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return b.Put([]byte(r.IP), val)
}

// Compile-time check that Store satisfies the seed source interface.
var _ seeds.CandidateStore = (*Store)(nil)
