package vesting

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/internal/cerrors"
	"launchpad/internal/chain/chaintest"
	"launchpad/internal/contracts"
	"launchpad/internal/registry"
	"launchpad/internal/txmgr"
	"launchpad/internal/wallet"
)

const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	vestingAddr = common.HexToAddress("0x00000000000000000000000000000000000000f5")
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	userAddr    = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

func newService(t *testing.T) (*Service, *chaintest.Backend) {
	t.Helper()

	backend := chaintest.New(int64(wallet.Sepolia.ChainID))
	backend.AutoMine = true

	signer, err := wallet.NewSignerFromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	connector := wallet.NewConnector(backend, signer, wallet.Sepolia, nil, nil, nil)
	if _, err := connector.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	journal, err := txmgr.OpenJournal(filepath.Join(t.TempDir(), "journal.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	mgr := txmgr.New(connector, nil, journal, nil, txmgr.Options{
		PollInterval: time.Millisecond,
		MineTimeout:  time.Second,
	})

	reg := registry.New(map[string]string{
		registry.Vesting: vestingAddr.Hex(),
	})
	svc, err := NewService(connector, reg, mgr, nil)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := contracts.VestingABI()
	if err != nil {
		t.Fatal(err)
	}
	backend.Register(vestingAddr, parsed)
	return svc, backend
}

func scheduleID(b byte) [32]byte {
	var id [32]byte
	id[31] = b
	return id
}

func TestScheduleRead(t *testing.T) {
	svc, backend := newService(t)

	backend.Handle(vestingAddr, "getVestingSchedule", func([]interface{}) ([]interface{}, error) {
		return []interface{}{
			userAddr,
			big.NewInt(10_000), big.NewInt(2_500),
			big.NewInt(1_700_000_000), big.NewInt(86_400), big.NewInt(864_000),
			true, false,
			tokenAddr,
		}, nil
	})

	sched, err := svc.Schedule(context.Background(), scheduleID(1))
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if sched.Beneficiary != userAddr || sched.TotalAmount.Int64() != 10_000 {
		t.Fatalf("schedule = %+v", sched)
	}
	if sched.ClaimedAmount.Int64() != 2_500 || !sched.Revocable || sched.Revoked {
		t.Fatalf("schedule = %+v", sched)
	}
}

func TestUserSchedules(t *testing.T) {
	svc, backend := newService(t)

	ids := [][32]byte{scheduleID(1), scheduleID(2)}
	backend.Handle(vestingAddr, "getUserVestingSchedules", func([]interface{}) ([]interface{}, error) {
		return []interface{}{ids}, nil
	})

	got, err := svc.UserSchedules(context.Background(), userAddr)
	if err != nil {
		t.Fatalf("UserSchedules: %v", err)
	}
	if len(got) != 2 || got[0] != ids[0] || got[1] != ids[1] {
		t.Fatalf("schedules = %v", got)
	}
}

func TestClaimRequiresUnlockedTokens(t *testing.T) {
	svc, backend := newService(t)

	claimable := big.NewInt(0)
	backend.Handle(vestingAddr, "getClaimableAmount", func([]interface{}) ([]interface{}, error) {
		return []interface{}{new(big.Int).Set(claimable)}, nil
	})
	backend.Handle(vestingAddr, "claimTokens", func([]interface{}) ([]interface{}, error) {
		return nil, nil
	})

	_, err := svc.ClaimTokens(context.Background(), scheduleID(1))
	if !errors.Is(err, cerrors.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount with nothing unlocked", err)
	}
	for _, entry := range backend.Log {
		if strings.HasPrefix(entry, "send:") {
			t.Fatalf("empty claim was broadcast: %v", backend.Log)
		}
	}

	claimable.SetInt64(500)
	if _, err := svc.ClaimTokens(context.Background(), scheduleID(1)); err != nil {
		t.Fatalf("ClaimTokens: %v", err)
	}
	found := false
	for _, entry := range backend.Log {
		if entry == "send:claimTokens" {
			found = true
		}
	}
	if !found {
		t.Fatalf("claim was never broadcast: %v", backend.Log)
	}
}

func TestNextUnlock(t *testing.T) {
	svc, backend := newService(t)

	backend.Handle(vestingAddr, "getNextUnlock", func([]interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(1_800_000_000), big.NewInt(750)}, nil
	})

	unlock, err := svc.NextUnlock(context.Background(), scheduleID(1))
	if err != nil {
		t.Fatalf("NextUnlock: %v", err)
	}
	if unlock.Time.Int64() != 1_800_000_000 || unlock.Amount.Int64() != 750 {
		t.Fatalf("unlock = %+v", unlock)
	}
}

func TestCreateScheduleApprovesFirst(t *testing.T) {
	svc, backend := newService(t)

	erc20, err := contracts.ERC20ABI()
	if err != nil {
		t.Fatal(err)
	}
	backend.Register(tokenAddr, erc20)
	backend.Handle(tokenAddr, "allowance", func([]interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(0)}, nil
	})
	backend.Handle(tokenAddr, "approve", func([]interface{}) ([]interface{}, error) {
		return []interface{}{true}, nil
	})
	backend.Handle(vestingAddr, "createVestingSchedule", func([]interface{}) ([]interface{}, error) {
		return nil, nil
	})

	_, err = svc.CreateSchedule(context.Background(), userAddr,
		big.NewInt(10_000), big.NewInt(1_700_000_000),
		big.NewInt(86_400), big.NewInt(864_000), true, tokenAddr)
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	approveAt, createAt := -1, -1
	for i, entry := range backend.Log {
		switch entry {
		case "send:approve":
			approveAt = i
		case "send:createVestingSchedule":
			createAt = i
		}
	}
	if approveAt == -1 || createAt == -1 || approveAt > createAt {
		t.Fatalf("expected approve before create, log = %v", backend.Log)
	}
}

func TestVestingUnavailable(t *testing.T) {
	svc, _ := newService(t)
	svcNoVesting := *svc
	empty := registry.New(nil)
	svcNoVesting.registry = empty

	if _, err := svcNoVesting.ClaimableAmount(context.Background(), scheduleID(1)); !errors.Is(err, cerrors.ErrCapabilityUnavailable) {
		t.Fatalf("err = %v, want ErrCapabilityUnavailable", err)
	}
}
