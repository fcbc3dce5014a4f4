package wallet

import "fmt"

// NetworkParams carries the explicit parameters needed to register a chain:
// the same fields a wallet add-chain request would take.
type NetworkParams struct {
	ChainID     uint64
	Name        string
	Currency    string
	RPCURL      string
	ExplorerURL string
}

// Sepolia is the platform's default network.
var Sepolia = NetworkParams{
	ChainID:     11155111,
	Name:        "Sepolia",
	Currency:    "ETH",
	ExplorerURL: "https://sepolia.etherscan.io",
}

// NetworkTable maps chain ids to registered network parameters.
type NetworkTable map[uint64]NetworkParams

// Lookup returns the params for a chain id, or ErrUnknownNetwork-compatible
// failure data for the caller to surface.
func (t NetworkTable) Lookup(chainID uint64) (NetworkParams, bool) {
	params, ok := t[chainID]
	return params, ok
}

func (p NetworkParams) String() string {
	return fmt.Sprintf("%s (chain %d, %s)", p.Name, p.ChainID, p.Currency)
}
