package registry

import (
	"errors"
	"testing"

	"launchpad/internal/cerrors"
)

func TestRegistryLookup(t *testing.T) {
	reg := New(map[string]string{
		TokenSaleFactory: "0x1111111111111111111111111111111111111111",
		StakingContract:  "",
		TierSystem:       "not-an-address",
	})

	addr, ok := reg.Address(TokenSaleFactory)
	if !ok {
		t.Fatal("factory should be configured")
	}
	if addr.Hex() != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("unexpected address %s", addr.Hex())
	}

	if reg.Available(StakingContract) {
		t.Fatal("empty address should be unavailable")
	}
	if reg.Available(TierSystem) {
		t.Fatal("invalid address should be unavailable")
	}
}

func TestRequireClassifiesMissing(t *testing.T) {
	reg := New(nil)
	_, err := reg.Require(Vesting)
	if !errors.Is(err, cerrors.ErrCapabilityUnavailable) {
		t.Fatalf("err = %v, want ErrCapabilityUnavailable", err)
	}
}
