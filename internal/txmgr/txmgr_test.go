package txmgr

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"launchpad/internal/cerrors"
	"launchpad/internal/chain/chaintest"
	"launchpad/internal/contracts"
	"launchpad/internal/wallet"
)

const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	spenderAddr = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func newHarness(t *testing.T, approver Approver) (*Manager, *chaintest.Backend) {
	t.Helper()

	backend := chaintest.New(int64(wallet.Sepolia.ChainID))
	backend.AutoMine = true

	signer, err := wallet.NewSignerFromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	connector := wallet.NewConnector(backend, signer, wallet.Sepolia, nil, nil, nil)
	if _, err := connector.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	journal, err := OpenJournal(filepath.Join(t.TempDir(), "journal.jsonl"))
	if err != nil {
		t.Fatal(err)
	}

	mgr := New(connector, approver, journal, nil, Options{
		PollInterval: time.Millisecond,
		MineTimeout:  time.Second,
	})
	return mgr, backend
}

func erc20ABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := contracts.ERC20ABI()
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func approveCall(t *testing.T) Call {
	return Call{
		To:     tokenAddr,
		ABI:    erc20ABI(t),
		Method: "approve",
		Args:   []interface{}{spenderAddr, big.NewInt(1000)},
	}
}

func registerToken(t *testing.T, backend *chaintest.Backend) {
	backend.Register(tokenAddr, erc20ABI(t))
	backend.Handle(tokenAddr, "approve", func([]interface{}) ([]interface{}, error) {
		return []interface{}{true}, nil
	})
}

func TestSubmitPipelineOrder(t *testing.T) {
	mgr, backend := newHarness(t, nil)
	registerToken(t, backend)

	tx, err := mgr.Submit(context.Background(), approveCall(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// 100k estimate with the 20% buffer applied
	if tx.Gas() != 120_000 {
		t.Fatalf("gas limit = %d, want 120000", tx.Gas())
	}

	estimateAt, sendAt := -1, -1
	for i, entry := range backend.Log {
		switch entry {
		case "estimate:approve":
			if estimateAt == -1 {
				estimateAt = i
			}
		case "send:approve":
			sendAt = i
		}
	}
	if estimateAt == -1 || sendAt == -1 || estimateAt > sendAt {
		t.Fatalf("expected estimate before send, log = %v", backend.Log)
	}

	pending := mgr.Journal().All()
	if len(pending) != 1 || pending[0].Method != "approve" {
		t.Fatalf("journal = %+v, want one approve record", pending)
	}
	if pending[0].Status != StatusPending {
		t.Fatalf("status = %s before WaitMined", pending[0].Status)
	}

	if _, err := mgr.WaitMined(context.Background(), tx.Hash()); err != nil {
		t.Fatalf("WaitMined: %v", err)
	}
	if got := mgr.Journal().All()[0].Status; got != StatusMined {
		t.Fatalf("status = %s after mining", got)
	}
}

func TestApproverDeclineAbortsBeforeSigning(t *testing.T) {
	decline := ApproverFunc(func(context.Context, Preview) (bool, error) {
		return false, nil
	})
	mgr, backend := newHarness(t, decline)
	registerToken(t, backend)

	_, err := mgr.Submit(context.Background(), approveCall(t))
	if !errors.Is(err, cerrors.ErrUserRejected) {
		t.Fatalf("err = %v, want ErrUserRejected", err)
	}
	if len(backend.Sent) != 0 {
		t.Fatal("declined call was still broadcast")
	}
	for _, entry := range backend.Log {
		if strings.HasPrefix(entry, "send:") {
			t.Fatalf("unexpected broadcast in log: %v", backend.Log)
		}
	}
	if got := mgr.Journal().All(); len(got) != 0 {
		t.Fatalf("declined call was journaled: %+v", got)
	}
}

func TestSubmitClassifiesEstimationRevert(t *testing.T) {
	mgr, backend := newHarness(t, nil)
	registerToken(t, backend)
	backend.EstimateErr = errors.New("execution reverted: exceeds available supply")

	_, err := mgr.Submit(context.Background(), approveCall(t))
	if !errors.Is(err, cerrors.ErrContractCall) {
		t.Fatalf("err = %v, want ErrContractCall", err)
	}
	if !strings.Contains(err.Error(), "not enough tokens available") {
		t.Fatalf("revert was not translated: %v", err)
	}
	if len(backend.Sent) != 0 {
		t.Fatal("failed estimation still broadcast")
	}
}

func TestWaitMinedRevertedTransaction(t *testing.T) {
	mgr, backend := newHarness(t, nil)
	registerToken(t, backend)
	backend.AutoMineStatus = types.ReceiptStatusFailed

	tx, err := mgr.Submit(context.Background(), approveCall(t))
	if err != nil {
		t.Fatal(err)
	}
	_, err = mgr.WaitMined(context.Background(), tx.Hash())
	if !errors.Is(err, cerrors.ErrTransactionFailed) {
		t.Fatalf("err = %v, want ErrTransactionFailed", err)
	}
	if got := mgr.Journal().All()[0].Status; got != StatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}

func TestEnsureAllowance(t *testing.T) {
	mgr, backend := newHarness(t, nil)
	registerToken(t, backend)

	allowance := big.NewInt(0)
	backend.Handle(tokenAddr, "allowance", func([]interface{}) ([]interface{}, error) {
		return []interface{}{new(big.Int).Set(allowance)}, nil
	})

	if err := mgr.EnsureAllowance(context.Background(), tokenAddr, spenderAddr, big.NewInt(500)); err != nil {
		t.Fatalf("EnsureAllowance: %v", err)
	}
	if len(backend.Sent) != 1 {
		t.Fatalf("sent %d transactions, want 1 approve", len(backend.Sent))
	}

	allowance.SetInt64(500)
	before := len(backend.Sent)
	if err := mgr.EnsureAllowance(context.Background(), tokenAddr, spenderAddr, big.NewInt(500)); err != nil {
		t.Fatal(err)
	}
	if len(backend.Sent) != before {
		t.Fatal("sufficient allowance still triggered an approve")
	}
}

func TestEnsureAllowanceAbortsOnRevertedApprove(t *testing.T) {
	mgr, backend := newHarness(t, nil)
	registerToken(t, backend)
	backend.Handle(tokenAddr, "allowance", func([]interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(0)}, nil
	})
	backend.AutoMineStatus = types.ReceiptStatusFailed

	err := mgr.EnsureAllowance(context.Background(), tokenAddr, spenderAddr, big.NewInt(500))
	if !errors.Is(err, cerrors.ErrTransactionFailed) {
		t.Fatalf("err = %v, want ErrTransactionFailed from the approve", err)
	}
}

func TestJournalSurvivesRestartAndReconciles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.jsonl")

	backend := chaintest.New(int64(wallet.Sepolia.ChainID))

	first, err := OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	hash := common.HexToHash("0xdead")
	record := Record{
		OpID:      "op-1",
		Hash:      hash,
		Method:    "stake",
		Submitted: time.Now().UTC(),
		Status:    StatusPending,
	}
	if err := first.Append(record); err != nil {
		t.Fatal(err)
	}

	// a fresh open must rediscover the pending entry
	second, err := OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	pending := second.Pending()
	if len(pending) != 1 || pending[0].OpID != "op-1" {
		t.Fatalf("pending after reopen = %+v", pending)
	}

	backend.SetReceipt(hash, types.ReceiptStatusSuccessful)
	still, err := second.Reconcile(context.Background(), backend, nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(still) != 0 {
		t.Fatalf("still pending after reconcile: %+v", still)
	}
	if got := second.Pending(); len(got) != 0 {
		t.Fatalf("journal still pending: %+v", got)
	}
}
