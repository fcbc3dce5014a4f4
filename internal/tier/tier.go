// Package tier resolves a user's tier and tier parameters. Resolution
// walks an ordered fallback chain: the dedicated tier system contract,
// then the staking contract's tier view, then a builtin table, so tier
// display keeps working on deployments without the optional contracts.
package tier

import (
	"context"
	"fmt"
	"math/big"

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

// Source names where a tier resolution came from.
type Source string

const (
	SourceTierSystem Source = "tier-system"
	SourceStaking    Source = "staking"
	SourceBuiltin    Source = "builtin"
)

// Resolution is the resolved tier view plus its provenance.
type Resolution struct {
	Tier                 uint8
	StakedAmount         *big.Int
	AllocationMultiplier *big.Int
	EarlyAccessHours     *big.Int
	Source               Source
}

var wholeToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// builtinTier is one row of the fallback table.
type builtinTier struct {
	minStakeTokens int64
	multiplier     int64
	earlyHours     int64
}

// builtinTiers mirrors the deployed defaults; highest tier last. Row
// index is the tier number.
var builtinTiers = []builtinTier{
	{minStakeTokens: 0, multiplier: 100, earlyHours: 0},
	{minStakeTokens: 1_000, multiplier: 250, earlyHours: 1},
	{minStakeTokens: 5_000, multiplier: 500, earlyHours: 2},
	{minStakeTokens: 10_000, multiplier: 1000, earlyHours: 4},
}

// TierForStake maps a staked amount in wei onto the builtin table. The
// boundary is inclusive: staking exactly a tier's minimum earns the tier.
func TierForStake(staked *big.Int) uint8 {
	if staked == nil || staked.Sign() <= 0 {
		return 0
	}
	tier := uint8(0)
	for i, row := range builtinTiers {
		min := new(big.Int).Mul(big.NewInt(row.minStakeTokens), wholeToken)
		if staked.Cmp(min) >= 0 {
			tier = uint8(i)
		}
	}
	return tier
}

// BuiltinResolution resolves a stake against the builtin table only.
func BuiltinResolution(staked *big.Int) Resolution {
	t := TierForStake(staked)
	row := builtinTiers[t]
	if staked == nil {
		staked = new(big.Int)
	}
	return Resolution{
		Tier:                 t,
		StakedAmount:         new(big.Int).Set(staked),
		AllocationMultiplier: big.NewInt(row.multiplier),
		EarlyAccessHours:     big.NewInt(row.earlyHours),
		Source:               SourceBuiltin,
	}
}

// Service exposes tier resolution and the tier system's own staking.
type Service struct {
	connector *wallet.Connector
	registry  *registry.Registry
	mgr       *txmgr.Manager
	logger    *zap.Logger
	tierSys   abi.ABI
	staking   abi.ABI
	erc721    abi.ABI
}

// NewService builds the tier service.
func NewService(connector *wallet.Connector, reg *registry.Registry, mgr *txmgr.Manager, logger *zap.Logger) (*Service, error) {
	tierSys, err := contracts.TierSystemABI()
	if err != nil {
		return nil, fmt.Errorf("tier system abi: %w", err)
	}
	staking, err := contracts.StakingABI()
	if err != nil {
		return nil, fmt.Errorf("staking abi: %w", err)
	}
	erc721, err := contracts.ERC721ABI()
	if err != nil {
		return nil, fmt.Errorf("erc721 abi: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		connector: connector,
		registry:  reg,
		mgr:       mgr,
		logger:    logger,
		tierSys:   tierSys,
		staking:   staking,
		erc721:    erc721,
	}, nil
}

func (s *Service) backend() (chain.Backend, error) {
	backend := s.connector.Backend()
	if backend == nil {
		return nil, fmt.Errorf("%w: no rpc endpoint configured", cerrors.ErrProviderMissing)
	}
	return backend, nil
}

// Resolve walks the fallback chain for a user's tier. It only falls
// through when a provider is unavailable or fails, never on a valid
// zero-tier answer.
func (s *Service) Resolve(ctx context.Context, user common.Address) (Resolution, error) {
	backend, err := s.backend()
	if err != nil {
		return Resolution{}, err
	}

	if addr, ok := s.registry.Address(registry.TierSystem); ok {
		res, err := s.resolveTierSystem(ctx, backend, addr, user)
		if err == nil {
			return res, nil
		}
		s.logger.Warn("tier system lookup failed, falling back", zap.Error(err))
	}

	if addr, ok := s.registry.Address(registry.StakingContract); ok {
		res, err := s.resolveStaking(ctx, backend, addr, user)
		if err == nil {
			return res, nil
		}
		s.logger.Warn("staking tier lookup failed, falling back", zap.Error(err))
	}

	return BuiltinResolution(new(big.Int)), nil
}

func (s *Service) resolveTierSystem(ctx context.Context, backend chain.Backend, addr, user common.Address) (Resolution, error) {
	values, err := chain.Call(ctx, backend, addr, s.tierSys, "getUserTierInfo", user)
	if err != nil {
		return Resolution{}, err
	}
	info, err := contracts.DecodeTierInfo(values)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Tier:                 info.Tier,
		StakedAmount:         info.StakedAmount,
		AllocationMultiplier: info.AllocationMultiplier,
		EarlyAccessHours:     info.EarlyAccessHours,
		Source:               SourceTierSystem,
	}, nil
}

func (s *Service) resolveStaking(ctx context.Context, backend chain.Backend, addr, user common.Address) (Resolution, error) {
	values, err := chain.Call(ctx, backend, addr, s.staking, "getUserStakeInfo", user)
	if err != nil {
		return Resolution{}, err
	}
	info, err := contracts.DecodeStakeInfo(values)
	if err != nil {
		return Resolution{}, err
	}

	cfgValues, err := chain.Call(ctx, backend, addr, s.staking, "getTierConfig", info.Tier)
	if err != nil {
		// the position read succeeded; fill parameters from the table
		fallback := BuiltinResolution(info.StakedAmount)
		fallback.Tier = info.Tier
		fallback.Source = SourceStaking
		return fallback, nil
	}
	cfg, err := contracts.DecodeStakingTierConfig(cfgValues)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Tier:                 info.Tier,
		StakedAmount:         info.StakedAmount,
		AllocationMultiplier: cfg.AllocationMultiplier,
		EarlyAccessHours:     cfg.EarlyAccessHours,
		Source:               SourceStaking,
	}, nil
}

// GetTierConfig reads one tier's parameters from the tier system.
func (s *Service) GetTierConfig(ctx context.Context, tier uint8) (contracts.TierSystemConfig, error) {
	backend, err := s.backend()
	if err != nil {
		return contracts.TierSystemConfig{}, err
	}
	addr, err := s.registry.Require(registry.TierSystem)
	if err != nil {
		return contracts.TierSystemConfig{}, err
	}
	values, err := chain.Call(ctx, backend, addr, s.tierSys, "getTierConfig", tier)
	if err != nil {
		return contracts.TierSystemConfig{}, err
	}
	cfg, err := contracts.DecodeTierSystemConfig(values)
	if err != nil {
		return contracts.TierSystemConfig{}, cerrors.ReadError("getTierConfig", err)
	}
	return cfg, nil
}

// StakeTokens stakes through the tier system contract. The tier system
// pulls from the staking token, so the allowance is ensured first.
func (s *Service) StakeTokens(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: stake amount must be positive", cerrors.ErrInvalidAmount)
	}
	addr, err := s.registry.Require(registry.TierSystem)
	if err != nil {
		return nil, err
	}
	token, err := s.registry.Require(registry.StakingToken)
	if err != nil {
		return nil, err
	}
	if err := s.mgr.EnsureAllowance(ctx, token, addr, amount); err != nil {
		return nil, err
	}
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     addr,
		ABI:    s.tierSys,
		Method: "stakeTokens",
		Args:   []interface{}{amount},
	})
}

// UnstakeTokens withdraws from the tier system contract.
func (s *Service) UnstakeTokens(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: unstake amount must be positive", cerrors.ErrInvalidAmount)
	}
	addr, err := s.registry.Require(registry.TierSystem)
	if err != nil {
		return nil, err
	}
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     addr,
		ABI:    s.tierSys,
		Method: "unstakeTokens",
		Args:   []interface{}{amount},
	})
}

// NFTBalance reads how many tier NFTs a user holds.
func (s *Service) NFTBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	backend, err := s.backend()
	if err != nil {
		return nil, err
	}
	addr, err := s.registry.Require(registry.TierNFT)
	if err != nil {
		return nil, err
	}
	return chain.CallBigInt(ctx, backend, addr, s.erc721, "balanceOf", user)
}

// MintTierNFT mints a tier NFT to the session account.
func (s *Service) MintTierNFT(ctx context.Context) (*types.Receipt, error) {
	addr, err := s.registry.Require(registry.TierNFT)
	if err != nil {
		return nil, err
	}
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     addr,
		ABI:    s.erc721,
		Method: "publicMint",
	})
}
