package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestABIParses(t *testing.T) {
	if _, err := FactoryABI(); err != nil {
		t.Fatalf("factory abi: %v", err)
	}
	if _, err := StakingABI(); err != nil {
		t.Fatalf("staking abi: %v", err)
	}
	if _, err := TierSystemABI(); err != nil {
		t.Fatalf("tier system abi: %v", err)
	}
	if _, err := VestingABI(); err != nil {
		t.Fatalf("vesting abi: %v", err)
	}
	if _, err := ERC20ABI(); err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	if _, err := ERC721ABI(); err != nil {
		t.Fatalf("erc721 abi: %v", err)
	}
}

func TestGetSaleInfoABIRoundTrip(t *testing.T) {
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}

	token := common.HexToAddress("0x1111111111111111111111111111111111111111")
	creator := common.HexToAddress("0x2222222222222222222222222222222222222222")
	outputs := parsed.Methods["getSaleInfo"].Outputs
	packed, err := outputs.Pack(
		token, creator,
		big.NewInt(1e15), big.NewInt(100), big.NewInt(40),
		big.NewInt(10), big.NewInt(100),
		big.NewInt(1_700_000_000), big.NewInt(1_700_600_000),
		uint8(SaleTypeDutch), uint8(SaleActive), big.NewInt(7),
	)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	values, err := parsed.Unpack("getSaleInfo", packed)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}

	info, err := DecodeSaleInfo(values)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Token != token || info.Creator != creator {
		t.Fatalf("address mismatch: %+v", info)
	}
	if info.SaleType != SaleTypeDutch || info.Status != SaleActive {
		t.Fatalf("enum mismatch: %+v", info)
	}
	if info.SoldAmount.Int64() != 40 || info.ParticipantCount.Int64() != 7 {
		t.Fatalf("value mismatch: %+v", info)
	}
}

func TestDecodeStakeInfo(t *testing.T) {
	values := []interface{}{
		big.NewInt(500), big.NewInt(1_700_000_000), uint8(2),
		big.NewInt(12), big.NewInt(40), big.NewInt(28), big.NewInt(1_700_700_000),
	}
	info, err := DecodeStakeInfo(values)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Tier != 2 || info.StakedAmount.Int64() != 500 || info.UnlockTime.Int64() != 1_700_700_000 {
		t.Fatalf("mismatch: %+v", info)
	}
}

func TestDecodeVestingScheduleInvariant(t *testing.T) {
	beneficiary := common.HexToAddress("0x3333333333333333333333333333333333333333")
	token := common.HexToAddress("0x4444444444444444444444444444444444444444")

	values := []interface{}{
		beneficiary, big.NewInt(100), big.NewInt(30),
		big.NewInt(1_700_000_000), big.NewInt(86400), big.NewInt(864000),
		true, false, token,
	}
	sched, err := DecodeVestingSchedule(values)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sched.Beneficiary != beneficiary || !sched.Revocable || sched.Revoked {
		t.Fatalf("mismatch: %+v", sched)
	}

	// claimed > total must fail decode
	values[2] = big.NewInt(101)
	if _, err := DecodeVestingSchedule(values); err == nil {
		t.Fatal("expected invariant violation")
	}
}

func TestDecodeWrongArity(t *testing.T) {
	if _, err := DecodeSaleInfo(make([]interface{}, 3)); err == nil {
		t.Fatal("expected arity error")
	}
	if _, err := DecodeStakeInfo(nil); err == nil {
		t.Fatal("expected arity error")
	}
	if _, err := DecodeNextUnlock([]interface{}{big.NewInt(1)}); err == nil {
		t.Fatal("expected arity error")
	}
}

func TestSaleEnumStrings(t *testing.T) {
	if SaleTypeFixed.String() != "fixed" || SaleTypeLottery.String() != "lottery" {
		t.Fatal("sale type strings")
	}
	if SaleUpcoming.String() != "upcoming" || SaleCancelled.String() != "cancelled" {
		t.Fatal("sale status strings")
	}
}
