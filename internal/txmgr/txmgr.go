// Package txmgr orchestrates state-changing transactions: gas estimation
// with a safety buffer, operator approval, signing, broadcast, journaling,
// and mining confirmation.
package txmgr

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"launchpad/internal/cerrors"
	"launchpad/internal/contracts"
	"launchpad/internal/wallet"
)

// Gas estimates get a 20% buffer so marginal estimates do not fail on
// state drift between estimation and inclusion.
const (
	gasBufferNum = 120
	gasBufferDen = 100
)

// Call describes one contract invocation to submit.
type Call struct {
	To     common.Address
	ABI    abi.ABI
	Method string
	Args   []interface{}
	// Value is the native amount attached, nil for none.
	Value *big.Int
}

// Preview is what the approver sees before anything is signed.
type Preview struct {
	OpID     string
	Method   string
	To       common.Address
	From     common.Address
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
}

// Approver decides whether a previewed transaction may be signed and
// broadcast. A false return aborts before signing.
type Approver interface {
	Approve(ctx context.Context, preview Preview) (bool, error)
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(ctx context.Context, preview Preview) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, preview Preview) (bool, error) {
	return f(ctx, preview)
}

// AutoApprove accepts every preview. Used when no interactive approval
// is configured.
var AutoApprove = ApproverFunc(func(context.Context, Preview) (bool, error) {
	return true, nil
})

// Options tunes confirmation polling.
type Options struct {
	PollInterval time.Duration
	MineTimeout  time.Duration
}

// Manager submits and confirms transactions through the connector's
// active backend, so chain switches are picked up transparently.
type Manager struct {
	connector *wallet.Connector
	approver  Approver
	journal   *Journal
	logger    *zap.Logger

	pollInterval time.Duration
	mineTimeout  time.Duration
}

// New builds a manager. journal may be nil to disable journaling,
// approver may be nil to auto-approve.
func New(connector *wallet.Connector, approver Approver, journal *Journal, logger *zap.Logger, opts Options) *Manager {
	if approver == nil {
		approver = AutoApprove
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.MineTimeout <= 0 {
		opts.MineTimeout = 3 * time.Minute
	}
	return &Manager{
		connector:    connector,
		approver:     approver,
		journal:      journal,
		logger:       logger,
		pollInterval: opts.PollInterval,
		mineTimeout:  opts.MineTimeout,
	}
}

// Submit runs the full pipeline for one call: estimate, buffer, approve,
// sign, journal, broadcast. It returns the broadcast transaction without
// waiting for it to mine.
func (m *Manager) Submit(ctx context.Context, call Call) (*types.Transaction, error) {
	session, err := m.connector.RequireConnected()
	if err != nil {
		return nil, err
	}
	backend := m.connector.Backend()
	signer := m.connector.Signer()

	data, err := call.ABI.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", call.Method, err)
	}

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}

	msg := ethereum.CallMsg{
		From:  session.Address,
		To:    &call.To,
		Data:  data,
		Value: value,
	}
	estimate, err := backend.EstimateGas(ctx, msg)
	if err != nil {
		return nil, classifyCallFailure(call.Method, err)
	}
	gasLimit := estimate * gasBufferNum / gasBufferDen

	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, cerrors.CallError(call.Method, err)
	}

	opID := uuid.NewString()
	preview := Preview{
		OpID:     opID,
		Method:   call.Method,
		To:       call.To,
		From:     session.Address,
		Value:    value,
		GasLimit: gasLimit,
		GasPrice: gasPrice,
	}
	ok, err := m.approver.Approve(ctx, preview)
	if err != nil {
		return nil, fmt.Errorf("approval: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s declined", cerrors.ErrUserRejected, call.Method)
	}

	nonce, err := backend.PendingNonceAt(ctx, session.Address)
	if err != nil {
		return nil, cerrors.CallError(call.Method, err)
	}

	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &call.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := signer.SignTx(unsigned, session.ChainID)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", call.Method, err)
	}

	if m.journal != nil {
		record := Record{
			OpID:      opID,
			Hash:      signed.Hash(),
			Method:    call.Method,
			To:        call.To,
			Value:     value.String(),
			Submitted: time.Now().UTC(),
			Status:    StatusPending,
		}
		if err := m.journal.Append(record); err != nil {
			m.logger.Warn("journal append failed", zap.Error(err))
		}
	}

	if err := backend.SendTransaction(ctx, signed); err != nil {
		m.updateJournal(signed.Hash(), StatusFailed)
		if cerrors.IsRejection(err.Error()) {
			return nil, fmt.Errorf("%w: %s", cerrors.ErrUserRejected, call.Method)
		}
		return nil, classifyCallFailure(call.Method, err)
	}

	m.logger.Info("transaction submitted",
		zap.String("op_id", opID),
		zap.String("method", call.Method),
		zap.String("hash", signed.Hash().Hex()),
		zap.Uint64("gas_limit", gasLimit))
	return signed, nil
}

// WaitMined polls for the receipt until it lands or the timeout elapses.
// A reverted transaction yields ErrTransactionFailed.
func (m *Manager) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	backend := m.connector.Backend()
	if backend == nil {
		return nil, cerrors.ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, m.mineTimeout)
	defer cancel()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := backend.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				m.updateJournal(hash, StatusFailed)
				return receipt, fmt.Errorf("%w: %s reverted on-chain", cerrors.ErrTransactionFailed, hash.Hex())
			}
			m.updateJournal(hash, StatusMined)
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			m.logger.Warn("receipt poll failed", zap.String("hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Execute is Submit followed by WaitMined.
func (m *Manager) Execute(ctx context.Context, call Call) (*types.Receipt, error) {
	tx, err := m.Submit(ctx, call)
	if err != nil {
		return nil, err
	}
	return m.WaitMined(ctx, tx.Hash())
}

// EnsureAllowance checks the ERC20 allowance the spender holds on the
// session account and, when short, submits an approve for the exact
// amount and waits for it to mine before returning.
func (m *Manager) EnsureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	session, err := m.connector.RequireConnected()
	if err != nil {
		return err
	}
	backend := m.connector.Backend()

	erc20, err := contracts.ERC20ABI()
	if err != nil {
		return fmt.Errorf("erc20 abi: %w", err)
	}
	data, err := erc20.Pack("allowance", session.Address, spender)
	if err != nil {
		return fmt.Errorf("pack allowance: %w", err)
	}
	resp, err := backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return cerrors.ReadError("allowance", err)
	}
	values, err := erc20.Unpack("allowance", resp)
	if err != nil || len(values) != 1 {
		return cerrors.ReadError("allowance", fmt.Errorf("unpack: %v", err))
	}
	allowance, ok := values[0].(*big.Int)
	if !ok {
		return cerrors.ReadError("allowance", fmt.Errorf("unsupported type %T", values[0]))
	}

	if allowance.Cmp(amount) >= 0 {
		return nil
	}

	m.logger.Info("allowance short, approving",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("amount", amount.String()))

	receipt, err := m.Execute(ctx, Call{
		To:     token,
		ABI:    erc20,
		Method: "approve",
		Args:   []interface{}{spender, amount},
	})
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: approve reverted", cerrors.ErrTransactionFailed)
	}
	return nil
}

// Journal returns the manager's journal, nil when journaling is off.
func (m *Manager) Journal() *Journal {
	return m.journal
}

func (m *Manager) updateJournal(hash common.Hash, status Status) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Update(hash, status); err != nil {
		m.logger.Warn("journal update failed", zap.Error(err))
	}
}

func classifyCallFailure(method string, err error) error {
	return fmt.Errorf("%w: %s: %s", cerrors.ErrContractCall, method, cerrors.ClassifyRevert(err.Error()))
}
