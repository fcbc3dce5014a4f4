// Package wallet manages the connection session: signer material, required
// network verification, and the chain-switch flow.
package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"launchpad/internal/cerrors"
	"launchpad/internal/chain"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateWrongNetwork
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateWrongNetwork:
		return "wrong-network"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is a snapshot of the active connection. Exactly one session
// exists per Connector.
type Session struct {
	Address       common.Address
	ChainID       *big.Int
	NativeBalance *big.Int
	State         State
}

// Dialer opens a backend for a network's RPC URL. Used by the chain-switch
// flow to move to the endpoint registered for the required chain.
type Dialer func(ctx context.Context, rpcURL string) (chain.Backend, error)

// Connector is the single point of contact with the chain for session
// management. Constructed explicitly and injected, never a package global.
type Connector struct {
	required NetworkParams
	networks NetworkTable
	dial     Dialer
	logger   *zap.Logger

	mu      sync.Mutex
	backend chain.Backend
	signer  *Signer
	session Session
}

// NewConnector builds a connector. backend may be nil when no RPC endpoint
// is configured; signer may be nil for read-only use.
func NewConnector(backend chain.Backend, signer *Signer, required NetworkParams, networks NetworkTable, dial Dialer, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		required: required,
		networks: networks,
		dial:     dial,
		logger:   logger,
		backend:  backend,
		signer:   signer,
		session:  Session{State: StateDisconnected},
	}
}

// Connect establishes the session: verifies provider and signer presence,
// reads the chain id and balance, and attempts a chain switch when the
// connected chain differs from the required one.
func (c *Connector) Connect(ctx context.Context) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend == nil {
		return common.Address{}, fmt.Errorf("%w: no rpc endpoint configured", cerrors.ErrProviderMissing)
	}
	if c.signer == nil {
		return common.Address{}, fmt.Errorf("%w: no signer material configured", cerrors.ErrProviderMissing)
	}

	c.session.State = StateConnecting

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		c.session.State = StateDisconnected
		return common.Address{}, fmt.Errorf("read chain id: %w", err)
	}

	addr := c.signer.Address()
	c.session.Address = addr
	c.session.ChainID = chainID

	if chainID.Uint64() != c.required.ChainID {
		c.session.State = StateWrongNetwork
		c.logger.Warn("connected to wrong network",
			zap.Uint64("connected", chainID.Uint64()),
			zap.Uint64("required", c.required.ChainID))
		if err := c.switchChainLocked(ctx); err != nil {
			return addr, err
		}
	} else {
		c.session.State = StateConnected
	}

	if balance, err := c.backend.BalanceAt(ctx, addr); err == nil {
		c.session.NativeBalance = balance
	} else {
		// balance is display data, a failed read must not break connect
		c.logger.Warn("balance read failed", zap.Error(err))
	}

	c.logger.Info("wallet connected",
		zap.String("address", addr.Hex()),
		zap.Uint64("chain_id", c.session.ChainID.Uint64()))
	return addr, nil
}

// SwitchChain moves the session to the endpoint registered for the
// required chain. A required chain with no registered parameters yields
// an add-chain error carrying the explicit network params needed.
func (c *Connector) SwitchChain(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.switchChainLocked(ctx)
}

func (c *Connector) switchChainLocked(ctx context.Context) error {
	params, ok := c.networks.Lookup(c.required.ChainID)
	if !ok || params.RPCURL == "" {
		return fmt.Errorf("%w: chain %d needs network params (name, currency, rpc url, explorer url) added to the configuration, expected %s",
			cerrors.ErrUnknownNetwork, c.required.ChainID, c.required)
	}
	if c.dial == nil {
		return fmt.Errorf("%w: required chain is %d", cerrors.ErrWrongNetwork, c.required.ChainID)
	}

	backend, err := c.dial(ctx, params.RPCURL)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", cerrors.ErrWrongNetwork, params.Name, err)
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: verify %s: %v", cerrors.ErrWrongNetwork, params.Name, err)
	}
	if chainID.Uint64() != c.required.ChainID {
		return fmt.Errorf("%w: endpoint for %s reports chain %d", cerrors.ErrWrongNetwork, params.Name, chainID.Uint64())
	}

	c.backend = backend
	c.session.ChainID = chainID
	c.session.State = StateConnected
	c.logger.Info("switched network", zap.String("network", params.Name))
	return nil
}

// Refresh re-polls the chain id and balance, transitioning between
// Connected and WrongNetwork. This is the polling analog of provider
// chain-change events.
func (c *Connector) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State == StateDisconnected || c.backend == nil {
		return cerrors.ErrNotConnected
	}

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}
	c.session.ChainID = chainID
	if chainID.Uint64() != c.required.ChainID {
		c.session.State = StateWrongNetwork
	} else {
		c.session.State = StateConnected
	}

	if balance, err := c.backend.BalanceAt(ctx, c.session.Address); err == nil {
		c.session.NativeBalance = balance
	}
	return nil
}

// Disconnect clears the session locally. No on-chain effect.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = Session{State: StateDisconnected}
	c.logger.Info("wallet disconnected")
}

// Session returns a snapshot of the current session.
func (c *Connector) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.session
	if snap.ChainID != nil {
		snap.ChainID = new(big.Int).Set(snap.ChainID)
	}
	if snap.NativeBalance != nil {
		snap.NativeBalance = new(big.Int).Set(snap.NativeBalance)
	}
	return snap
}

// Backend returns the active backend, which may change after a chain
// switch. Nil when no endpoint is configured.
func (c *Connector) Backend() chain.Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend
}

// Signer returns the configured signer, or nil for read-only use.
func (c *Connector) Signer() *Signer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signer
}

// RequireConnected returns the session when a signer-backed session on the
// required network is established; mutating operations fail fast on it.
func (c *Connector) RequireConnected() (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.session.State {
	case StateConnected:
		if c.signer == nil {
			return Session{}, cerrors.ErrNotConnected
		}
		return c.session, nil
	case StateWrongNetwork:
		return Session{}, fmt.Errorf("%w: required chain is %d", cerrors.ErrWrongNetwork, c.required.ChainID)
	default:
		return Session{}, cerrors.ErrNotConnected
	}
}

// NativeBalance reads the native balance of an address.
func (c *Connector) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	c.mu.Lock()
	backend := c.backend
	c.mu.Unlock()

	if backend == nil {
		return nil, fmt.Errorf("%w: no rpc endpoint configured", cerrors.ErrProviderMissing)
	}
	return backend.BalanceAt(ctx, addr)
}
