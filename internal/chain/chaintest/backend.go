// Package chaintest provides a scripted in-memory Backend for tests.
// Contract methods are registered per address; the fake decodes incoming
// calldata, dispatches to the handler, and records every interaction so
// tests can assert ordering and counts.
package chaintest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"launchpad/internal/chain"
)

// Handler produces the unpacked output values for one contract method.
type Handler func(args []interface{}) ([]interface{}, error)

type contractEntry struct {
	abi      abi.ABI
	handlers map[string]Handler
}

// Backend is a fake chain.Backend.
type Backend struct {
	mu        sync.Mutex
	chainID   *big.Int
	contracts map[common.Address]*contractEntry
	receipts  map[common.Hash]*types.Receipt
	nonce     uint64
	gasPrice  *big.Int
	gasLimit  uint64

	// EstimateErr, when set, fails every gas estimation with this error.
	EstimateErr error
	// SendErr, when set, fails every transaction broadcast.
	SendErr error
	// AutoMine mines every broadcast transaction immediately with
	// AutoMineStatus, so WaitMined resolves on its first poll.
	AutoMine       bool
	AutoMineStatus uint64

	// Log records every backend interaction in order, entries like
	// "call:getSaleInfo", "estimate:buyTokens", "send:stake", "receipt".
	Log []string
	// Sent holds every broadcast transaction in order.
	Sent []*types.Transaction
}

var _ chain.Backend = (*Backend)(nil)

// New builds an empty fake on the given chain id.
func New(chainID int64) *Backend {
	return &Backend{
		chainID:   big.NewInt(chainID),
		contracts: make(map[common.Address]*contractEntry),
		receipts:  make(map[common.Hash]*types.Receipt),
		gasPrice:  big.NewInt(1_000_000_000),
		gasLimit:  100_000,

		AutoMineStatus: types.ReceiptStatusSuccessful,
	}
}

// Register installs a contract ABI at an address.
func (b *Backend) Register(addr common.Address, parsed abi.ABI) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contracts[addr] = &contractEntry{abi: parsed, handlers: make(map[string]Handler)}
}

// Handle sets the handler for one method of a registered contract.
func (b *Backend) Handle(addr common.Address, method string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.contracts[addr]
	if !ok {
		panic(fmt.Sprintf("chaintest: contract %s not registered", addr.Hex()))
	}
	entry.handlers[method] = fn
}

// MineAll marks every sent transaction as mined with the given status.
func (b *Backend) MineAll(status uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tx := range b.Sent {
		if _, ok := b.receipts[tx.Hash()]; !ok {
			b.receipts[tx.Hash()] = &types.Receipt{Status: status, TxHash: tx.Hash()}
		}
	}
}

// SetReceipt installs a receipt for a hash.
func (b *Backend) SetReceipt(hash common.Hash, status uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receipts[hash] = &types.Receipt{Status: status, TxHash: hash}
}

func (b *Backend) record(entry string) {
	b.Log = append(b.Log, entry)
}

func (b *Backend) resolve(to *common.Address, data []byte) (*contractEntry, *abi.Method, []interface{}, error) {
	if to == nil {
		return nil, nil, nil, errors.New("chaintest: contract creation not supported")
	}
	entry, ok := b.contracts[*to]
	if !ok {
		return nil, nil, nil, fmt.Errorf("chaintest: no contract at %s", to.Hex())
	}
	if len(data) < 4 {
		return nil, nil, nil, errors.New("chaintest: calldata too short")
	}
	for name := range entry.abi.Methods {
		method := entry.abi.Methods[name]
		if bytes.Equal(method.ID, data[:4]) {
			args, err := method.Inputs.Unpack(data[4:])
			if err != nil {
				return nil, nil, nil, fmt.Errorf("chaintest: unpack %s: %w", name, err)
			}
			return entry, &method, args, nil
		}
	}
	return nil, nil, nil, errors.New("chaintest: unknown method selector")
}

func (b *Backend) dispatch(kind string, to *common.Address, data []byte) ([]byte, error) {
	entry, method, args, err := b.resolve(to, data)
	if err != nil {
		b.record(kind + ":unresolved")
		return nil, err
	}
	b.record(kind + ":" + method.Name)

	handler, ok := entry.handlers[method.Name]
	if !ok {
		return nil, fmt.Errorf("chaintest: no handler for %s", method.Name)
	}
	values, err := handler(args)
	if err != nil {
		return nil, err
	}
	out, err := method.Outputs.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("chaintest: pack %s outputs: %w", method.Name, err)
	}
	return out, nil
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dispatch("call", msg.To, msg.Data)
}

func (b *Backend) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("balance")
	return big.NewInt(1_000_000_000_000_000_000), nil
}

func (b *Backend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("nonce")
	return b.nonce, nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("gasPrice")
	return new(big.Int).Set(b.gasPrice), nil
}

func (b *Backend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, method, _, err := b.resolve(msg.To, msg.Data); err == nil {
		b.record("estimate:" + method.Name)
	} else {
		b.record("estimate:unresolved")
	}
	if b.EstimateErr != nil {
		return 0, b.EstimateErr
	}
	return b.gasLimit, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, method, _, err := b.resolve(tx.To(), tx.Data()); err == nil {
		b.record("send:" + method.Name)
	} else {
		b.record("send:unresolved")
	}
	if b.SendErr != nil {
		return b.SendErr
	}
	b.Sent = append(b.Sent, tx)
	b.nonce++
	if b.AutoMine {
		b.receipts[tx.Hash()] = &types.Receipt{Status: b.AutoMineStatus, TxHash: tx.Hash()}
	}
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("receipt")
	receipt, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (b *Backend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("header")
	return &types.Header{Number: big.NewInt(1)}, nil
}

// InteractionCount returns how many backend interactions were recorded.
func (b *Backend) InteractionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Log)
}
