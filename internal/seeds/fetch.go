package seeds

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Union gathers candidates from every source, tolerating individual source
// failures, and dedups by address keeping first-seen order. It fails only
// when the merged result is empty: either every source errored, or the
// survivors contributed nothing usable.
func Union(ctx context.Context, logger *log.Logger, sources ...Source) ([]Peer, error) {
	var (
		peers []Peer
		errs  []error
	)
	seen := make(map[string]struct{})

	for _, s := range sources {
		found, err := s.Discover(ctx)
		if err != nil {
			if logger != nil {
				logger.Printf("[seeds] %s: discover failed: %v", s.Name(), err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		for _, p := range found {
			key := p.IP.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			peers = append(peers, p)
		}
	}

	if len(peers) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("no usable seed peers: %w", errors.Join(errs...))
		}
		return nil, errors.New("no usable seed peers found")
	}
	return peers, nil
}
