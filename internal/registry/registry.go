// Package registry maps logical contract names to deployed addresses.
// The mapping is populated once at startup and immutable afterwards; an
// absent entry means the capability is unavailable, not an error.
package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"launchpad/internal/cerrors"
)

// Logical contract names.
const (
	TokenSaleFactory = "TOKEN_SALE_FACTORY"
	StakingContract  = "STAKING_CONTRACT"
	StakingToken     = "STAKING_TOKEN"
	TierSystem       = "TIER_SYSTEM"
	TierNFT          = "TIER_NFT"
	Vesting          = "VESTING"
)

// Registry holds the logical-name to address mapping.
type Registry struct {
	addrs map[string]common.Address
}

// New builds a registry from configured address strings. Empty or invalid
// strings leave the capability unset.
func New(addresses map[string]string) *Registry {
	addrs := make(map[string]common.Address, len(addresses))
	for name, raw := range addresses {
		if raw == "" || !common.IsHexAddress(raw) {
			continue
		}
		addrs[name] = common.HexToAddress(raw)
	}
	return &Registry{addrs: addrs}
}

// Address returns the deployed address for a logical name.
func (r *Registry) Address(name string) (common.Address, bool) {
	addr, ok := r.addrs[name]
	return addr, ok
}

// Require returns the address or a classified CapabilityUnavailable error.
func (r *Registry) Require(name string) (common.Address, error) {
	addr, ok := r.addrs[name]
	if !ok {
		return common.Address{}, cerrors.Unavailable(name)
	}
	return addr, nil
}

// Available reports whether the logical contract is configured.
func (r *Registry) Available(name string) bool {
	_, ok := r.addrs[name]
	return ok
}

// Names lists the configured logical names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.addrs))
	for name := range r.addrs {
		names = append(names, name)
	}
	return names
}
