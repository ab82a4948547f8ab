package sysctl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Read returns the trimmed value of a sysctl key (dotted form, e.g.
// net.ipv6.conf.all.disable_ipv6) from /proc/sys.
func Read(key string) (string, error) {
	path := filepath.Join("/proc/sys", strings.ReplaceAll(key, ".", "/"))
	value, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read sysctl %s: %w", key, err)
	}
	return strings.TrimSpace(string(value)), nil
}
