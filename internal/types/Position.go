/*

This file contains the per-user position record tracked by the ledger: what a
user has supplied to and borrowed from the lending pools, what they have
staked, and the rewards accrued but not yet claimed.

*/

package types

import sdkmath "cosmossdk.io/math"

// UserPosition is the per-user settlement record. Amounts are fixed-point
// integers scaled by the asset's configured decimals and never go negative;
// mutation happens only through the ledger's setters.
type UserPosition struct {
	User             string                 `json:"user"`
	Supplied         map[string]sdkmath.Int `json:"supplied_assets"`  // asset address -> amount supplied
	Borrowed         map[string]sdkmath.Int `json:"borrowed_assets"`  // asset address -> amount borrowed
	Staked           map[string]sdkmath.Int `json:"staked_lp_tokens"` // bToken address -> amount staked
	RewardsEarned    sdkmath.Int            `json:"rewards_earned"`
	LastRewardUpdate int64                  `json:"last_reward_update"` // Unix seconds
}

// NewUserPosition returns the all-zero default created on first read.
func NewUserPosition(user string, now int64) *UserPosition {
	return &UserPosition{
		User:             user,
		Supplied:         make(map[string]sdkmath.Int),
		Borrowed:         make(map[string]sdkmath.Int),
		Staked:           make(map[string]sdkmath.Int),
		RewardsEarned:    sdkmath.ZeroInt(),
		LastRewardUpdate: now,
	}
}

// SuppliedAmount returns the supplied balance for asset, zero when absent.
func (p *UserPosition) SuppliedAmount(asset string) sdkmath.Int {
	if amount, ok := p.Supplied[asset]; ok {
		return amount
	}
	return sdkmath.ZeroInt()
}

// BorrowedAmount returns the borrowed balance for asset, zero when absent.
func (p *UserPosition) BorrowedAmount(asset string) sdkmath.Int {
	if amount, ok := p.Borrowed[asset]; ok {
		return amount
	}
	return sdkmath.ZeroInt()
}

// StakedAmount returns the staked balance for token, zero when absent.
func (p *UserPosition) StakedAmount(token string) sdkmath.Int {
	if amount, ok := p.Staked[token]; ok {
		return amount
	}
	return sdkmath.ZeroInt()
}
