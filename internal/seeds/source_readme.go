package seeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/netip"
	"strings"
)

const (
	DefaultReadmeURL = "https://github.com/hyperliquid-dex/node/raw/refs/heads/main/README.md"

	seedPeersHeading = "## Mainnet Non-Validator Seed Peers"
)

// ReadmeSource scrapes the seed peer table published in the hyperliquid-dex
// node README. It is the last-resort mainnet source: the table format is not
// a contract, so parsing is tolerant and skips malformed rows rather than
// failing the whole fetch.
type ReadmeSource struct {
	Client  *http.Client
	URL     string
	Ignored IgnoreSet
	Logger  *log.Logger
	Debug   bool
}

func (s *ReadmeSource) Name() string { return "readme" }

func (s *ReadmeSource) Discover(ctx context.Context) ([]Peer, error) {
	url := s.URL
	if url == "" {
		url = DefaultReadmeURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch README: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read README: %w", err)
	}

	return s.parsePeerTable(string(content))
}

func (s *ReadmeSource) parsePeerTable(content string) ([]Peer, error) {
	_, section, found := strings.Cut(content, seedPeersHeading)
	if !found {
		return nil, fmt.Errorf("could not find %q section in README", strings.TrimPrefix(seedPeersHeading, "## "))
	}

	// Truncate at the next section so only the peer table remains.
	if next := strings.Index(section, "##"); next >= 0 {
		section = section[:next]
	}

	var (
		peers       []Peer
		inTable     bool
		headerFound bool
	)

	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") {
			if inTable {
				// First non-row line after rows began: table is over.
				break
			}
			continue
		}

		if isSeparatorRow(trimmed) {
			inTable = true
			continue
		}

		cells := splitRow(trimmed)

		if !headerFound && len(cells) >= 2 && looksLikeHeader(cells) {
			headerFound = true
			inTable = true
			continue
		}

		if !inTable || !headerFound || len(cells) < 2 {
			continue
		}

		operator := cells[0]
		ip, err := netip.ParseAddr(cells[1])
		if err != nil || !ip.Is4() {
			if s.Debug && s.Logger != nil {
				s.Logger.Printf("[seeds] readme: failed to parse ip %q: %v", cells[1], err)
			}
			continue
		}
		if s.Ignored.Contains(ip) {
			if s.Debug && s.Logger != nil {
				s.Logger.Printf("[seeds] readme: skipping ignored seed node %s (%s)", ip, operator)
			}
			continue
		}
		peers = append(peers, Peer{Operator: operator, IP: ip})
	}

	if len(peers) == 0 {
		return nil, errors.New("no valid seed peers found in markdown table")
	}
	return peers, nil
}

// isSeparatorRow matches rows made of only pipes, dashes and whitespace,
// e.g. | --- | --- |.
func isSeparatorRow(row string) bool {
	for _, r := range row {
		if r != '|' && r != '-' && r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

func splitRow(row string) []string {
	parts := strings.Split(row, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

func looksLikeHeader(cells []string) bool {
	c0 := strings.ToLower(cells[0])
	c1 := strings.ToLower(cells[1])
	return strings.Contains(c0, "operator") ||
		strings.Contains(c1, "root") ||
		strings.Contains(c1, "ip")
}
