// Package vesting reads vesting schedules and claims unlocked tokens.
package vesting

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

// Service exposes the vesting contract operations. Schedules are keyed
// by opaque bytes32 ids assigned at creation.
type Service struct {
	connector *wallet.Connector
	registry  *registry.Registry
	mgr       *txmgr.Manager
	logger    *zap.Logger
	vesting   abi.ABI
}

// NewService builds the vesting service.
func NewService(connector *wallet.Connector, reg *registry.Registry, mgr *txmgr.Manager, logger *zap.Logger) (*Service, error) {
	vesting, err := contracts.VestingABI()
	if err != nil {
		return nil, fmt.Errorf("vesting abi: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		connector: connector,
		registry:  reg,
		mgr:       mgr,
		logger:    logger,
		vesting:   vesting,
	}, nil
}

func (s *Service) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	backend := s.connector.Backend()
	if backend == nil {
		return nil, fmt.Errorf("%w: no rpc endpoint configured", cerrors.ErrProviderMissing)
	}
	addr, err := s.registry.Require(registry.Vesting)
	if err != nil {
		return nil, err
	}
	return chain.Call(ctx, backend, addr, s.vesting, method, args...)
}

// Schedule reads one vesting schedule.
func (s *Service) Schedule(ctx context.Context, scheduleID [32]byte) (contracts.VestingSchedule, error) {
	values, err := s.call(ctx, "getVestingSchedule", scheduleID)
	if err != nil {
		return contracts.VestingSchedule{}, err
	}
	sched, err := contracts.DecodeVestingSchedule(values)
	if err != nil {
		return contracts.VestingSchedule{}, cerrors.ReadError("getVestingSchedule", err)
	}
	return sched, nil
}

// UserSchedules lists the schedule ids benefiting a user.
func (s *Service) UserSchedules(ctx context.Context, user common.Address) ([][32]byte, error) {
	values, err := s.call(ctx, "getUserVestingSchedules", user)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, cerrors.ReadError("getUserVestingSchedules", fmt.Errorf("expected 1 value, got %d", len(values)))
	}
	ids, ok := values[0].([][32]byte)
	if !ok {
		return nil, cerrors.ReadError("getUserVestingSchedules", fmt.Errorf("unsupported type %T", values[0]))
	}
	return ids, nil
}

// ClaimableAmount reads how much of a schedule is claimable right now.
func (s *Service) ClaimableAmount(ctx context.Context, scheduleID [32]byte) (*big.Int, error) {
	values, err := s.call(ctx, "getClaimableAmount", scheduleID)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, cerrors.ReadError("getClaimableAmount", fmt.Errorf("expected 1 value, got %d", len(values)))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, cerrors.ReadError("getClaimableAmount", fmt.Errorf("unsupported type %T", values[0]))
	}
	return amount, nil
}

// NextUnlock reads the next unlock step of a schedule. A zero unlock time
// means the schedule is fully unlocked.
func (s *Service) NextUnlock(ctx context.Context, scheduleID [32]byte) (contracts.NextUnlock, error) {
	values, err := s.call(ctx, "getNextUnlock", scheduleID)
	if err != nil {
		return contracts.NextUnlock{}, err
	}
	unlock, err := contracts.DecodeNextUnlock(values)
	if err != nil {
		return contracts.NextUnlock{}, cerrors.ReadError("getNextUnlock", err)
	}
	return unlock, nil
}

// ClaimTokens claims everything currently claimable from a schedule. A
// schedule with nothing unlocked is rejected locally.
func (s *Service) ClaimTokens(ctx context.Context, scheduleID [32]byte) (*types.Receipt, error) {
	claimable, err := s.ClaimableAmount(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if claimable.Sign() <= 0 {
		return nil, fmt.Errorf("%w: nothing to claim yet", cerrors.ErrInvalidAmount)
	}

	addr, err := s.registry.Require(registry.Vesting)
	if err != nil {
		return nil, err
	}

	s.logger.Info("claiming vested tokens",
		zap.String("schedule", common.Hash(scheduleID).Hex()),
		zap.String("claimable", claimable.String()))

	return s.mgr.Execute(ctx, txmgr.Call{
		To:     addr,
		ABI:    s.vesting,
		Method: "claimTokens",
		Args:   []interface{}{scheduleID},
	})
}

// CreateSchedule sets up a new vesting schedule. The vesting contract
// pulls the total from the caller, so the allowance is ensured first.
func (s *Service) CreateSchedule(ctx context.Context, beneficiary common.Address, total, start, cliff, duration *big.Int, revocable bool, token common.Address) (*types.Receipt, error) {
	if total == nil || total.Sign() <= 0 {
		return nil, fmt.Errorf("%w: vesting total must be positive", cerrors.ErrInvalidAmount)
	}
	if cliff != nil && duration != nil && cliff.Cmp(duration) > 0 {
		return nil, fmt.Errorf("%w: cliff exceeds vesting duration", cerrors.ErrInvalidAmount)
	}
	addr, err := s.registry.Require(registry.Vesting)
	if err != nil {
		return nil, err
	}
	if err := s.mgr.EnsureAllowance(ctx, token, addr, total); err != nil {
		return nil, err
	}
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     addr,
		ABI:    s.vesting,
		Method: "createVestingSchedule",
		Args:   []interface{}{beneficiary, total, start, cliff, duration, revocable, token},
	})
}
