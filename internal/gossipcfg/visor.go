package gossipcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// VisorConfig is the part of visor.json this tool cares about: which
// network the supervised node is configured for.
type VisorConfig struct {
	Chain Chain `json:"chain"`
}

// ReadVisorConfig loads visor.json from path. When path is empty, hl-visor
// is located on PATH and visor.json is expected next to the binary.
func ReadVisorConfig(path string) (*VisorConfig, error) {
	if path == "" {
		bin, err := exec.LookPath("hl-visor")
		if err != nil {
			return nil, fmt.Errorf("locate hl-visor: %w", err)
		}
		path = filepath.Join(filepath.Dir(bin), "visor.json")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hl-visor config at %s: %w", path, err)
	}
	defer f.Close()

	var cfg VisorConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse hl-visor config at %s: %w", path, err)
	}
	return &cfg, nil
}
