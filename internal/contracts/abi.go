// Package contracts holds the ABI surfaces of the launchpad contracts and
// typed decoders for their positional return values. Method signatures and
// argument order are fixed by the deployed contracts and must match exactly.
package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const factoryABIJSON = `[
  {"inputs": [
    {"internalType": "address", "name": "token", "type": "address"},
    {"internalType": "uint256", "name": "tokenPrice", "type": "uint256"},
    {"internalType": "uint256", "name": "totalSupply", "type": "uint256"},
    {"internalType": "uint256", "name": "softCap", "type": "uint256"},
    {"internalType": "uint256", "name": "hardCap", "type": "uint256"},
    {"internalType": "uint256", "name": "startTime", "type": "uint256"},
    {"internalType": "uint256", "name": "endTime", "type": "uint256"},
    {"internalType": "uint8", "name": "saleType", "type": "uint8"},
    {"internalType": "bool", "name": "whitelistEnabled", "type": "bool"},
    {"internalType": "bytes32", "name": "merkleRoot", "type": "bytes32"}
  ], "name": "createSale", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"internalType": "uint256", "name": "saleId", "type": "uint256"},
    {"internalType": "uint256", "name": "tokenAmount", "type": "uint256"}
  ], "name": "buyTokens", "outputs": [], "stateMutability": "payable", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "saleId", "type": "uint256"}], "name": "claimTokens", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "saleId", "type": "uint256"}], "name": "finalizeSale", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "saleId", "type": "uint256"}], "name": "getSaleInfo", "outputs": [
    {"internalType": "address", "name": "token", "type": "address"},
    {"internalType": "address", "name": "creator", "type": "address"},
    {"internalType": "uint256", "name": "tokenPrice", "type": "uint256"},
    {"internalType": "uint256", "name": "totalSupply", "type": "uint256"},
    {"internalType": "uint256", "name": "soldAmount", "type": "uint256"},
    {"internalType": "uint256", "name": "softCap", "type": "uint256"},
    {"internalType": "uint256", "name": "hardCap", "type": "uint256"},
    {"internalType": "uint256", "name": "startTime", "type": "uint256"},
    {"internalType": "uint256", "name": "endTime", "type": "uint256"},
    {"internalType": "uint8", "name": "saleType", "type": "uint8"},
    {"internalType": "uint8", "name": "status", "type": "uint8"},
    {"internalType": "uint256", "name": "participantCount", "type": "uint256"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [
    {"internalType": "uint256", "name": "saleId", "type": "uint256"},
    {"internalType": "address", "name": "user", "type": "address"}
  ], "name": "getUserContribution", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "getUserSales", "outputs": [{"internalType": "uint256[]", "name": "", "type": "uint256[]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "saleCounter", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const stakingABIJSON = `[
  {"inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "stake", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "unstake", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [], "name": "claimRewards", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "calculatePendingRewards", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "getUserStakeInfo", "outputs": [
    {"internalType": "uint256", "name": "stakedAmount", "type": "uint256"},
    {"internalType": "uint256", "name": "stakedAt", "type": "uint256"},
    {"internalType": "uint8", "name": "tier", "type": "uint8"},
    {"internalType": "uint256", "name": "pendingRewards", "type": "uint256"},
    {"internalType": "uint256", "name": "totalRewardsEarned", "type": "uint256"},
    {"internalType": "uint256", "name": "totalRewardsClaimed", "type": "uint256"},
    {"internalType": "uint256", "name": "unlockTime", "type": "uint256"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint8", "name": "tier", "type": "uint8"}], "name": "getTierConfig", "outputs": [
    {"internalType": "uint256", "name": "minStakeAmount", "type": "uint256"},
    {"internalType": "uint256", "name": "rewardRate", "type": "uint256"},
    {"internalType": "uint256", "name": "lockPeriod", "type": "uint256"},
    {"internalType": "uint256", "name": "allocationMultiplier", "type": "uint256"},
    {"internalType": "uint256", "name": "earlyAccessHours", "type": "uint256"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getPlatformStats", "outputs": [
    {"internalType": "uint256", "name": "totalStaked", "type": "uint256"},
    {"internalType": "uint256", "name": "totalRewardsDistributed", "type": "uint256"},
    {"internalType": "uint256", "name": "rewardPool", "type": "uint256"},
    {"internalType": "uint256", "name": "totalStakers", "type": "uint256"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalStaked", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "rewardPool", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "fundRewardPool", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

const tierSystemABIJSON = `[
  {"inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "stakeTokens", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "unstakeTokens", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "getUserTierInfo", "outputs": [
    {"internalType": "uint8", "name": "tier", "type": "uint8"},
    {"internalType": "uint256", "name": "stakedAmount", "type": "uint256"},
    {"internalType": "uint256", "name": "allocationMultiplier", "type": "uint256"},
    {"internalType": "uint256", "name": "earlyAccessHours", "type": "uint256"},
    {"internalType": "uint256", "name": "participationCount", "type": "uint256"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint8", "name": "tier", "type": "uint8"}], "name": "getTierConfig", "outputs": [
    {"internalType": "uint256", "name": "minStakeAmount", "type": "uint256"},
    {"internalType": "uint256", "name": "allocationMultiplier", "type": "uint256"},
    {"internalType": "uint256", "name": "earlyAccessHours", "type": "uint256"},
    {"internalType": "bool", "name": "nftRequired", "type": "bool"},
    {"internalType": "uint256", "name": "minParticipations", "type": "uint256"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "recordParticipation", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

const vestingABIJSON = `[
  {"inputs": [
    {"internalType": "address", "name": "beneficiary", "type": "address"},
    {"internalType": "uint256", "name": "totalAmount", "type": "uint256"},
    {"internalType": "uint256", "name": "startTime", "type": "uint256"},
    {"internalType": "uint256", "name": "cliffDuration", "type": "uint256"},
    {"internalType": "uint256", "name": "vestingDuration", "type": "uint256"},
    {"internalType": "bool", "name": "revocable", "type": "bool"},
    {"internalType": "address", "name": "token", "type": "address"}
  ], "name": "createVestingSchedule", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "bytes32", "name": "scheduleId", "type": "bytes32"}], "name": "claimTokens", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "bytes32", "name": "scheduleId", "type": "bytes32"}], "name": "getClaimableAmount", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "bytes32", "name": "scheduleId", "type": "bytes32"}], "name": "getNextUnlock", "outputs": [
    {"internalType": "uint256", "name": "unlockTime", "type": "uint256"},
    {"internalType": "uint256", "name": "unlockAmount", "type": "uint256"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "getUserVestingSchedules", "outputs": [{"internalType": "bytes32[]", "name": "", "type": "bytes32[]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "bytes32", "name": "scheduleId", "type": "bytes32"}], "name": "getVestingSchedule", "outputs": [
    {"internalType": "address", "name": "beneficiary", "type": "address"},
    {"internalType": "uint256", "name": "totalAmount", "type": "uint256"},
    {"internalType": "uint256", "name": "claimedAmount", "type": "uint256"},
    {"internalType": "uint256", "name": "startTime", "type": "uint256"},
    {"internalType": "uint256", "name": "cliffDuration", "type": "uint256"},
    {"internalType": "uint256", "name": "vestingDuration", "type": "uint256"},
    {"internalType": "bool", "name": "revocable", "type": "bool"},
    {"internalType": "bool", "name": "revoked", "type": "bool"},
    {"internalType": "address", "name": "token", "type": "address"}
  ], "stateMutability": "view", "type": "function"}
]`

const erc20ABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [
    {"internalType": "address", "name": "to", "type": "address"},
    {"internalType": "uint256", "name": "amount", "type": "uint256"}
  ], "name": "transfer", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"internalType": "address", "name": "from", "type": "address"},
    {"internalType": "address", "name": "to", "type": "address"},
    {"internalType": "uint256", "name": "amount", "type": "uint256"}
  ], "name": "transferFrom", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"internalType": "address", "name": "spender", "type": "address"},
    {"internalType": "uint256", "name": "amount", "type": "uint256"}
  ], "name": "approve", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"internalType": "address", "name": "owner", "type": "address"},
    {"internalType": "address", "name": "spender", "type": "address"}
  ], "name": "allowance", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"internalType": "string", "name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"internalType": "string", "name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "faucet", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

const erc721ABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "publicMint", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

var (
	factoryABI        abi.ABI
	factoryABIOnce    sync.Once
	factoryABIErr     error
	stakingABI        abi.ABI
	stakingABIOnce    sync.Once
	stakingABIErr     error
	tierSystemABI     abi.ABI
	tierSystemABIOnce sync.Once
	tierSystemABIErr  error
	vestingABI        abi.ABI
	vestingABIOnce    sync.Once
	vestingABIErr     error
	erc20ABI          abi.ABI
	erc20ABIOnce      sync.Once
	erc20ABIErr       error
	erc721ABI         abi.ABI
	erc721ABIOnce     sync.Once
	erc721ABIErr      error
)

// FactoryABI returns the parsed token-sale factory ABI.
func FactoryABI() (abi.ABI, error) {
	factoryABIOnce.Do(func() {
		factoryABI, factoryABIErr = abi.JSON(strings.NewReader(factoryABIJSON))
	})
	return factoryABI, factoryABIErr
}

// StakingABI returns the parsed staking contract ABI.
func StakingABI() (abi.ABI, error) {
	stakingABIOnce.Do(func() {
		stakingABI, stakingABIErr = abi.JSON(strings.NewReader(stakingABIJSON))
	})
	return stakingABI, stakingABIErr
}

// TierSystemABI returns the parsed tier system ABI.
func TierSystemABI() (abi.ABI, error) {
	tierSystemABIOnce.Do(func() {
		tierSystemABI, tierSystemABIErr = abi.JSON(strings.NewReader(tierSystemABIJSON))
	})
	return tierSystemABI, tierSystemABIErr
}

// VestingABI returns the parsed vesting contract ABI.
func VestingABI() (abi.ABI, error) {
	vestingABIOnce.Do(func() {
		vestingABI, vestingABIErr = abi.JSON(strings.NewReader(vestingABIJSON))
	})
	return vestingABI, vestingABIErr
}

// ERC20ABI returns the parsed fungible token ABI.
func ERC20ABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

// ERC721ABI returns the parsed non-fungible token ABI.
func ERC721ABI() (abi.ABI, error) {
	erc721ABIOnce.Do(func() {
		erc721ABI, erc721ABIErr = abi.JSON(strings.NewReader(erc721ABIJSON))
	})
	return erc721ABI, erc721ABIErr
}
