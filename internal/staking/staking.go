// Package staking drives the staking contract and its staking token:
// stake/unstake with lock enforcement, reward claims, and the test-token
// faucet.
package staking

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"launchpad/internal/cerrors"
	"launchpad/internal/chain"
	"launchpad/internal/contracts"
	"launchpad/internal/registry"
	"launchpad/internal/txmgr"
	"launchpad/internal/wallet"
)

// faucetCap mirrors the on-chain per-request limit of 1000 whole tokens.
var faucetCap = new(big.Int).Mul(big.NewInt(1000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Service exposes the staking operations.
type Service struct {
	connector *wallet.Connector
	registry  *registry.Registry
	mgr       *txmgr.Manager
	logger    *zap.Logger
	staking   abi.ABI
	erc20     abi.ABI
	now       func() time.Time
}

// NewService builds the staking service.
func NewService(connector *wallet.Connector, reg *registry.Registry, mgr *txmgr.Manager, logger *zap.Logger) (*Service, error) {
	staking, err := contracts.StakingABI()
	if err != nil {
		return nil, fmt.Errorf("staking abi: %w", err)
	}
	erc20, err := contracts.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("erc20 abi: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		connector: connector,
		registry:  reg,
		mgr:       mgr,
		logger:    logger,
		staking:   staking,
		erc20:     erc20,
		now:       time.Now,
	}, nil
}

func (s *Service) backend() (chain.Backend, error) {
	backend := s.connector.Backend()
	if backend == nil {
		return nil, fmt.Errorf("%w: no rpc endpoint configured", cerrors.ErrProviderMissing)
	}
	return backend, nil
}

// Stake locks tokens in the staking contract. The contract pulls the
// amount, so the allowance is topped up and mined first.
func (s *Service) Stake(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: stake amount must be positive", cerrors.ErrInvalidAmount)
	}
	staking, err := s.registry.Require(registry.StakingContract)
	if err != nil {
		return nil, err
	}
	token, err := s.registry.Require(registry.StakingToken)
	if err != nil {
		return nil, err
	}

	if err := s.mgr.EnsureAllowance(ctx, token, staking, amount); err != nil {
		return nil, err
	}

	s.logger.Info("staking", zap.String("amount", amount.String()))
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     staking,
		ABI:    s.staking,
		Method: "stake",
		Args:   []interface{}{amount},
	})
}

// Unstake withdraws staked tokens. The lock period is enforced locally
// against the on-chain unlock time before anything is submitted.
func (s *Service) Unstake(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: unstake amount must be positive", cerrors.ErrInvalidAmount)
	}
	staking, err := s.registry.Require(registry.StakingContract)
	if err != nil {
		return nil, err
	}
	session, err := s.connector.RequireConnected()
	if err != nil {
		return nil, err
	}

	info, err := s.GetStakeInfo(ctx, session.Address)
	if err != nil {
		return nil, err
	}
	if info.StakedAmount.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: staked %s, requested %s", cerrors.ErrInvalidAmount, info.StakedAmount, amount)
	}
	if now := s.now().Unix(); info.UnlockTime.Cmp(big.NewInt(now)) > 0 {
		remaining := time.Duration(info.UnlockTime.Int64()-now) * time.Second
		return nil, fmt.Errorf("%w: %s until unlock", cerrors.ErrStakeLocked, remaining)
	}

	return s.mgr.Execute(ctx, txmgr.Call{
		To:     staking,
		ABI:    s.staking,
		Method: "unstake",
		Args:   []interface{}{amount},
	})
}

// ClaimRewards claims all pending staking rewards.
func (s *Service) ClaimRewards(ctx context.Context) (*types.Receipt, error) {
	staking, err := s.registry.Require(registry.StakingContract)
	if err != nil {
		return nil, err
	}
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     staking,
		ABI:    s.staking,
		Method: "claimRewards",
	})
}

// GetStakeInfo reads a user's full staking position.
func (s *Service) GetStakeInfo(ctx context.Context, user common.Address) (contracts.StakeInfo, error) {
	backend, err := s.backend()
	if err != nil {
		return contracts.StakeInfo{}, err
	}
	staking, err := s.registry.Require(registry.StakingContract)
	if err != nil {
		return contracts.StakeInfo{}, err
	}
	values, err := chain.Call(ctx, backend, staking, s.staking, "getUserStakeInfo", user)
	if err != nil {
		return contracts.StakeInfo{}, err
	}
	info, err := contracts.DecodeStakeInfo(values)
	if err != nil {
		return contracts.StakeInfo{}, cerrors.ReadError("getUserStakeInfo", err)
	}
	return info, nil
}

// PendingRewards reads a user's unclaimed reward balance.
func (s *Service) PendingRewards(ctx context.Context, user common.Address) (*big.Int, error) {
	backend, err := s.backend()
	if err != nil {
		return nil, err
	}
	staking, err := s.registry.Require(registry.StakingContract)
	if err != nil {
		return nil, err
	}
	return chain.CallBigInt(ctx, backend, staking, s.staking, "calculatePendingRewards", user)
}

// GetTierConfig reads the staking contract's parameters for one tier.
func (s *Service) GetTierConfig(ctx context.Context, tier uint8) (contracts.StakingTierConfig, error) {
	backend, err := s.backend()
	if err != nil {
		return contracts.StakingTierConfig{}, err
	}
	staking, err := s.registry.Require(registry.StakingContract)
	if err != nil {
		return contracts.StakingTierConfig{}, err
	}
	values, err := chain.Call(ctx, backend, staking, s.staking, "getTierConfig", tier)
	if err != nil {
		return contracts.StakingTierConfig{}, err
	}
	cfg, err := contracts.DecodeStakingTierConfig(values)
	if err != nil {
		return contracts.StakingTierConfig{}, cerrors.ReadError("getTierConfig", err)
	}
	return cfg, nil
}

// GetPlatformStats reads the aggregate staking counters.
func (s *Service) GetPlatformStats(ctx context.Context) (contracts.PlatformStats, error) {
	backend, err := s.backend()
	if err != nil {
		return contracts.PlatformStats{}, err
	}
	staking, err := s.registry.Require(registry.StakingContract)
	if err != nil {
		return contracts.PlatformStats{}, err
	}
	values, err := chain.Call(ctx, backend, staking, s.staking, "getPlatformStats")
	if err != nil {
		return contracts.PlatformStats{}, err
	}
	stats, err := contracts.DecodePlatformStats(values)
	if err != nil {
		return contracts.PlatformStats{}, cerrors.ReadError("getPlatformStats", err)
	}
	return stats, nil
}

// TokenBalance reads a user's staking token balance.
func (s *Service) TokenBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	backend, err := s.backend()
	if err != nil {
		return nil, err
	}
	token, err := s.registry.Require(registry.StakingToken)
	if err != nil {
		return nil, err
	}
	return chain.CallBigInt(ctx, backend, token, s.erc20, "balanceOf", user)
}

// Faucet mints test tokens to the session account, capped at 1000 whole
// tokens per request to match the contract.
func (s *Service) Faucet(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: faucet amount must be positive", cerrors.ErrInvalidAmount)
	}
	if amount.Cmp(faucetCap) > 0 {
		return nil, fmt.Errorf("%w: faucet caps at 1000 tokens per request", cerrors.ErrInvalidAmount)
	}
	token, err := s.registry.Require(registry.StakingToken)
	if err != nil {
		return nil, err
	}
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     token,
		ABI:    s.erc20,
		Method: "faucet",
		Args:   []interface{}{amount},
	})
}

// FundRewardPool tops up the reward pool. Operator use only.
func (s *Service) FundRewardPool(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", cerrors.ErrInvalidAmount)
	}
	staking, err := s.registry.Require(registry.StakingContract)
	if err != nil {
		return nil, err
	}
	token, err := s.registry.Require(registry.StakingToken)
	if err != nil {
		return nil, err
	}
	if err := s.mgr.EnsureAllowance(ctx, token, staking, amount); err != nil {
		return nil, err
	}
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     staking,
		ABI:    s.staking,
		Method: "fundRewardPool",
		Args:   []interface{}{amount},
	})
}
