// Package types holds the records shared between the cache, the stores,
// and the HTTP API. Big integer amounts travel as decimal strings.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord is the cached, display-ready view of one sale. RaisedAmount
// is the native value collected so far (sold times price) and never
// exceeds the hard cap.
type SaleRecord struct {
	ID               uint64    `json:"id"`
	Token            string    `json:"token"`
	TokenName        string    `json:"token_name,omitempty"`
	TokenSymbol      string    `json:"token_symbol,omitempty"`
	Creator          string    `json:"creator"`
	TokenPrice       string    `json:"token_price"`
	TotalSupply      string    `json:"total_supply"`
	SoldAmount       string    `json:"sold_amount"`
	RaisedAmount     string    `json:"raised_amount"`
	SoftCap          string    `json:"soft_cap"`
	HardCap          string    `json:"hard_cap"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	SaleType         string    `json:"sale_type"`
	Status           string    `json:"status"`
	WhitelistEnabled bool      `json:"whitelist_enabled"`
	VestingEnabled   bool      `json:"vesting_enabled"`
	ParticipantCount uint64    `json:"participant_count"`
}

// Progress returns sold/supply as a percentage, zero when the supply is
// unknown or zero.
func (r SaleRecord) Progress() decimal.Decimal {
	supply, err := decimal.NewFromString(r.TotalSupply)
	if err != nil || supply.IsZero() {
		return decimal.Zero
	}
	sold, err := decimal.NewFromString(r.SoldAmount)
	if err != nil {
		return decimal.Zero
	}
	return sold.Div(supply).Mul(decimal.NewFromInt(100)).Round(2)
}

// Profile is a locally persisted user profile keyed by wallet address.
// Tier and StakedAmount are a cache of on-chain state, refreshed
// opportunistically; a failed refresh keeps the previous values.
type Profile struct {
	Address      string    `json:"address"`
	DisplayName  string    `json:"display_name,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Tier         uint8     `json:"tier"`
	StakedAmount string    `json:"staked_amount,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StakingSummary is the display view of a staking position.
type StakingSummary struct {
	Address        string `json:"address"`
	StakedAmount   string `json:"staked_amount"`
	PendingRewards string `json:"pending_rewards"`
	Tier           uint8  `json:"tier"`
	UnlockTime     int64  `json:"unlock_time"`
}

// TierSummary is the display view of a resolved tier.
type TierSummary struct {
	Address              string `json:"address"`
	Tier                 uint8  `json:"tier"`
	StakedAmount         string `json:"staked_amount"`
	AllocationMultiplier string `json:"allocation_multiplier"`
	EarlyAccessHours     string `json:"early_access_hours"`
	Source               string `json:"source"`
}

// VestingSummary is the display view of one vesting schedule.
type VestingSummary struct {
	ScheduleID  string `json:"schedule_id"`
	Beneficiary string `json:"beneficiary"`
	Token       string `json:"token"`
	Total       string `json:"total"`
	Claimed     string `json:"claimed"`
	Claimable   string `json:"claimable"`
	NextUnlock  int64  `json:"next_unlock,omitempty"`
	Revoked     bool   `json:"revoked"`
}
