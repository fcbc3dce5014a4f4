package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SaleType enumerates the on-chain sale mechanisms.
type SaleType uint8

const (
	SaleTypeFixed SaleType = iota
	SaleTypeDutch
	SaleTypeLottery
)

func (t SaleType) String() string {
	switch t {
	case SaleTypeFixed:
		return "fixed"
	case SaleTypeDutch:
		return "dutch"
	case SaleTypeLottery:
		return "lottery"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// SaleStatus enumerates the on-chain sale lifecycle states.
type SaleStatus uint8

const (
	SaleUpcoming SaleStatus = iota
	SaleActive
	SaleEnded
	SaleCancelled
)

func (s SaleStatus) String() string {
	switch s {
	case SaleUpcoming:
		return "upcoming"
	case SaleActive:
		return "active"
	case SaleEnded:
		return "ended"
	case SaleCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// SaleInfo is the typed view of getSaleInfo's positional outputs.
type SaleInfo struct {
	Token            common.Address
	Creator          common.Address
	TokenPrice       *big.Int
	TotalSupply      *big.Int
	SoldAmount       *big.Int
	SoftCap          *big.Int
	HardCap          *big.Int
	StartTime        *big.Int
	EndTime          *big.Int
	SaleType         SaleType
	Status           SaleStatus
	ParticipantCount *big.Int
}

// DecodeSaleInfo converts the unpacked getSaleInfo values into a SaleInfo.
func DecodeSaleInfo(values []interface{}) (SaleInfo, error) {
	if len(values) != 12 {
		return SaleInfo{}, fmt.Errorf("getSaleInfo: expected 12 values, got %d", len(values))
	}

	var info SaleInfo
	var err error
	if info.Token, err = asAddress(values[0]); err != nil {
		return SaleInfo{}, fmt.Errorf("token: %w", err)
	}
	if info.Creator, err = asAddress(values[1]); err != nil {
		return SaleInfo{}, fmt.Errorf("creator: %w", err)
	}
	if info.TokenPrice, err = asBigInt(values[2]); err != nil {
		return SaleInfo{}, fmt.Errorf("tokenPrice: %w", err)
	}
	if info.TotalSupply, err = asBigInt(values[3]); err != nil {
		return SaleInfo{}, fmt.Errorf("totalSupply: %w", err)
	}
	if info.SoldAmount, err = asBigInt(values[4]); err != nil {
		return SaleInfo{}, fmt.Errorf("soldAmount: %w", err)
	}
	if info.SoftCap, err = asBigInt(values[5]); err != nil {
		return SaleInfo{}, fmt.Errorf("softCap: %w", err)
	}
	if info.HardCap, err = asBigInt(values[6]); err != nil {
		return SaleInfo{}, fmt.Errorf("hardCap: %w", err)
	}
	if info.StartTime, err = asBigInt(values[7]); err != nil {
		return SaleInfo{}, fmt.Errorf("startTime: %w", err)
	}
	if info.EndTime, err = asBigInt(values[8]); err != nil {
		return SaleInfo{}, fmt.Errorf("endTime: %w", err)
	}
	saleType, err := asUint8(values[9])
	if err != nil {
		return SaleInfo{}, fmt.Errorf("saleType: %w", err)
	}
	info.SaleType = SaleType(saleType)
	status, err := asUint8(values[10])
	if err != nil {
		return SaleInfo{}, fmt.Errorf("status: %w", err)
	}
	info.Status = SaleStatus(status)
	if info.ParticipantCount, err = asBigInt(values[11]); err != nil {
		return SaleInfo{}, fmt.Errorf("participantCount: %w", err)
	}
	return info, nil
}

// StakeInfo is the typed view of getUserStakeInfo.
type StakeInfo struct {
	StakedAmount        *big.Int
	StakedAt            *big.Int
	Tier                uint8
	PendingRewards      *big.Int
	TotalRewardsEarned  *big.Int
	TotalRewardsClaimed *big.Int
	UnlockTime          *big.Int
}

// DecodeStakeInfo converts the unpacked getUserStakeInfo values.
func DecodeStakeInfo(values []interface{}) (StakeInfo, error) {
	if len(values) != 7 {
		return StakeInfo{}, fmt.Errorf("getUserStakeInfo: expected 7 values, got %d", len(values))
	}

	var info StakeInfo
	var err error
	if info.StakedAmount, err = asBigInt(values[0]); err != nil {
		return StakeInfo{}, fmt.Errorf("stakedAmount: %w", err)
	}
	if info.StakedAt, err = asBigInt(values[1]); err != nil {
		return StakeInfo{}, fmt.Errorf("stakedAt: %w", err)
	}
	if info.Tier, err = asUint8(values[2]); err != nil {
		return StakeInfo{}, fmt.Errorf("tier: %w", err)
	}
	if info.PendingRewards, err = asBigInt(values[3]); err != nil {
		return StakeInfo{}, fmt.Errorf("pendingRewards: %w", err)
	}
	if info.TotalRewardsEarned, err = asBigInt(values[4]); err != nil {
		return StakeInfo{}, fmt.Errorf("totalRewardsEarned: %w", err)
	}
	if info.TotalRewardsClaimed, err = asBigInt(values[5]); err != nil {
		return StakeInfo{}, fmt.Errorf("totalRewardsClaimed: %w", err)
	}
	if info.UnlockTime, err = asBigInt(values[6]); err != nil {
		return StakeInfo{}, fmt.Errorf("unlockTime: %w", err)
	}
	return info, nil
}

// StakingTierConfig is the typed view of the staking contract's getTierConfig.
type StakingTierConfig struct {
	MinStakeAmount       *big.Int
	RewardRate           *big.Int
	LockPeriod           *big.Int
	AllocationMultiplier *big.Int
	EarlyAccessHours     *big.Int
}

// DecodeStakingTierConfig converts the unpacked getTierConfig values.
func DecodeStakingTierConfig(values []interface{}) (StakingTierConfig, error) {
	if len(values) != 5 {
		return StakingTierConfig{}, fmt.Errorf("getTierConfig: expected 5 values, got %d", len(values))
	}

	var cfg StakingTierConfig
	var err error
	if cfg.MinStakeAmount, err = asBigInt(values[0]); err != nil {
		return StakingTierConfig{}, fmt.Errorf("minStakeAmount: %w", err)
	}
	if cfg.RewardRate, err = asBigInt(values[1]); err != nil {
		return StakingTierConfig{}, fmt.Errorf("rewardRate: %w", err)
	}
	if cfg.LockPeriod, err = asBigInt(values[2]); err != nil {
		return StakingTierConfig{}, fmt.Errorf("lockPeriod: %w", err)
	}
	if cfg.AllocationMultiplier, err = asBigInt(values[3]); err != nil {
		return StakingTierConfig{}, fmt.Errorf("allocationMultiplier: %w", err)
	}
	if cfg.EarlyAccessHours, err = asBigInt(values[4]); err != nil {
		return StakingTierConfig{}, fmt.Errorf("earlyAccessHours: %w", err)
	}
	return cfg, nil
}

// TierInfo is the typed view of getUserTierInfo.
type TierInfo struct {
	Tier                 uint8
	StakedAmount         *big.Int
	AllocationMultiplier *big.Int
	EarlyAccessHours     *big.Int
	ParticipationCount   *big.Int
}

// DecodeTierInfo converts the unpacked getUserTierInfo values.
func DecodeTierInfo(values []interface{}) (TierInfo, error) {
	if len(values) != 5 {
		return TierInfo{}, fmt.Errorf("getUserTierInfo: expected 5 values, got %d", len(values))
	}

	var info TierInfo
	var err error
	if info.Tier, err = asUint8(values[0]); err != nil {
		return TierInfo{}, fmt.Errorf("tier: %w", err)
	}
	if info.StakedAmount, err = asBigInt(values[1]); err != nil {
		return TierInfo{}, fmt.Errorf("stakedAmount: %w", err)
	}
	if info.AllocationMultiplier, err = asBigInt(values[2]); err != nil {
		return TierInfo{}, fmt.Errorf("allocationMultiplier: %w", err)
	}
	if info.EarlyAccessHours, err = asBigInt(values[3]); err != nil {
		return TierInfo{}, fmt.Errorf("earlyAccessHours: %w", err)
	}
	if info.ParticipationCount, err = asBigInt(values[4]); err != nil {
		return TierInfo{}, fmt.Errorf("participationCount: %w", err)
	}
	return info, nil
}

// TierSystemConfig is the typed view of the tier system's getTierConfig.
type TierSystemConfig struct {
	MinStakeAmount       *big.Int
	AllocationMultiplier *big.Int
	EarlyAccessHours     *big.Int
	NFTRequired          bool
	MinParticipations    *big.Int
}

// DecodeTierSystemConfig converts the unpacked getTierConfig values.
func DecodeTierSystemConfig(values []interface{}) (TierSystemConfig, error) {
	if len(values) != 5 {
		return TierSystemConfig{}, fmt.Errorf("getTierConfig: expected 5 values, got %d", len(values))
	}

	var cfg TierSystemConfig
	var err error
	if cfg.MinStakeAmount, err = asBigInt(values[0]); err != nil {
		return TierSystemConfig{}, fmt.Errorf("minStakeAmount: %w", err)
	}
	if cfg.AllocationMultiplier, err = asBigInt(values[1]); err != nil {
		return TierSystemConfig{}, fmt.Errorf("allocationMultiplier: %w", err)
	}
	if cfg.EarlyAccessHours, err = asBigInt(values[2]); err != nil {
		return TierSystemConfig{}, fmt.Errorf("earlyAccessHours: %w", err)
	}
	nftRequired, ok := values[3].(bool)
	if !ok {
		return TierSystemConfig{}, fmt.Errorf("nftRequired: unsupported type %T", values[3])
	}
	cfg.NFTRequired = nftRequired
	if cfg.MinParticipations, err = asBigInt(values[4]); err != nil {
		return TierSystemConfig{}, fmt.Errorf("minParticipations: %w", err)
	}
	return cfg, nil
}

// PlatformStats is the typed view of getPlatformStats.
type PlatformStats struct {
	TotalStaked             *big.Int
	TotalRewardsDistributed *big.Int
	RewardPool              *big.Int
	TotalStakers            *big.Int
}

// DecodePlatformStats converts the unpacked getPlatformStats values.
func DecodePlatformStats(values []interface{}) (PlatformStats, error) {
	if len(values) != 4 {
		return PlatformStats{}, fmt.Errorf("getPlatformStats: expected 4 values, got %d", len(values))
	}

	var stats PlatformStats
	var err error
	if stats.TotalStaked, err = asBigInt(values[0]); err != nil {
		return PlatformStats{}, fmt.Errorf("totalStaked: %w", err)
	}
	if stats.TotalRewardsDistributed, err = asBigInt(values[1]); err != nil {
		return PlatformStats{}, fmt.Errorf("totalRewardsDistributed: %w", err)
	}
	if stats.RewardPool, err = asBigInt(values[2]); err != nil {
		return PlatformStats{}, fmt.Errorf("rewardPool: %w", err)
	}
	if stats.TotalStakers, err = asBigInt(values[3]); err != nil {
		return PlatformStats{}, fmt.Errorf("totalStakers: %w", err)
	}
	return stats, nil
}

// VestingSchedule is the typed view of getVestingSchedule.
type VestingSchedule struct {
	Beneficiary     common.Address
	TotalAmount     *big.Int
	ClaimedAmount   *big.Int
	StartTime       *big.Int
	CliffDuration   *big.Int
	VestingDuration *big.Int
	Revocable       bool
	Revoked         bool
	Token           common.Address
}

// DecodeVestingSchedule converts the unpacked getVestingSchedule values.
// The claimed <= total invariant is checked here so a misbehaving node
// surfaces as a decode error instead of a nonsense claimable amount.
func DecodeVestingSchedule(values []interface{}) (VestingSchedule, error) {
	if len(values) != 9 {
		return VestingSchedule{}, fmt.Errorf("getVestingSchedule: expected 9 values, got %d", len(values))
	}

	var sched VestingSchedule
	var err error
	if sched.Beneficiary, err = asAddress(values[0]); err != nil {
		return VestingSchedule{}, fmt.Errorf("beneficiary: %w", err)
	}
	if sched.TotalAmount, err = asBigInt(values[1]); err != nil {
		return VestingSchedule{}, fmt.Errorf("totalAmount: %w", err)
	}
	if sched.ClaimedAmount, err = asBigInt(values[2]); err != nil {
		return VestingSchedule{}, fmt.Errorf("claimedAmount: %w", err)
	}
	if sched.StartTime, err = asBigInt(values[3]); err != nil {
		return VestingSchedule{}, fmt.Errorf("startTime: %w", err)
	}
	if sched.CliffDuration, err = asBigInt(values[4]); err != nil {
		return VestingSchedule{}, fmt.Errorf("cliffDuration: %w", err)
	}
	if sched.VestingDuration, err = asBigInt(values[5]); err != nil {
		return VestingSchedule{}, fmt.Errorf("vestingDuration: %w", err)
	}
	revocable, ok := values[6].(bool)
	if !ok {
		return VestingSchedule{}, fmt.Errorf("revocable: unsupported type %T", values[6])
	}
	sched.Revocable = revocable
	revoked, ok := values[7].(bool)
	if !ok {
		return VestingSchedule{}, fmt.Errorf("revoked: unsupported type %T", values[7])
	}
	sched.Revoked = revoked
	if sched.Token, err = asAddress(values[8]); err != nil {
		return VestingSchedule{}, fmt.Errorf("token: %w", err)
	}

	if sched.ClaimedAmount.Cmp(sched.TotalAmount) > 0 {
		return VestingSchedule{}, fmt.Errorf("vesting schedule claimed %s exceeds total %s", sched.ClaimedAmount, sched.TotalAmount)
	}
	return sched, nil
}

// NextUnlock is the typed view of getNextUnlock.
type NextUnlock struct {
	Time   *big.Int
	Amount *big.Int
}

// DecodeNextUnlock converts the unpacked getNextUnlock values.
func DecodeNextUnlock(values []interface{}) (NextUnlock, error) {
	if len(values) != 2 {
		return NextUnlock{}, fmt.Errorf("getNextUnlock: expected 2 values, got %d", len(values))
	}

	var unlock NextUnlock
	var err error
	if unlock.Time, err = asBigInt(values[0]); err != nil {
		return NextUnlock{}, fmt.Errorf("unlockTime: %w", err)
	}
	if unlock.Amount, err = asBigInt(values[1]); err != nil {
		return NextUnlock{}, fmt.Errorf("unlockAmount: %w", err)
	}
	return unlock, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("value %s does not fit in uint8", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
