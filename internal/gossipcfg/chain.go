package gossipcfg

import (
	"fmt"
	"strings"
)

// Chain selects which Hyperliquid network the configuration targets.
type Chain int

const (
	ChainMainnet Chain = iota
	ChainTestnet
)

// ParseChain is case-insensitive. Unknown values are an error, never a
// silent default.
func ParseChain(s string) (Chain, error) {
	switch strings.ToLower(s) {
	case "mainnet":
		return ChainMainnet, nil
	case "testnet":
		return ChainTestnet, nil
	default:
		return 0, fmt.Errorf("unsupported chain %q", s)
	}
}

func (c Chain) String() string {
	switch c {
	case ChainMainnet:
		return "Mainnet"
	case ChainTestnet:
		return "Testnet"
	default:
		return fmt.Sprintf("Chain(%d)", int(c))
	}
}

func (c Chain) MarshalText() ([]byte, error) {
	switch c {
	case ChainMainnet, ChainTestnet:
		return []byte(c.String()), nil
	default:
		return nil, fmt.Errorf("unsupported chain %d", int(c))
	}
}

func (c *Chain) UnmarshalText(b []byte) error {
	parsed, err := ParseChain(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
