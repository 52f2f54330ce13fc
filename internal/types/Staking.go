/*

This file contains the per-pool staking state. One StakingPool exists per
staked token type and is created lazily with the default emission rate.

*/

package types

import sdkmath "cosmossdk.io/math"

// DefaultRewardRatePerDay is the emission rate assigned to lazily created
// staking pools, in reward tokens per day.
const DefaultRewardRatePerDay = 1000

// StakingPool tracks the global staking state for one bToken.
// RewardPerTokenStored is cumulative and never decreases.
type StakingPool struct {
	Token                   string      `json:"token"`
	TotalStaked             sdkmath.Int `json:"total_staked"`
	RewardRatePerDay        sdkmath.Int `json:"reward_rate_per_day"`
	LastUpdateTime          int64       `json:"last_update_time"` // Unix seconds
	RewardPerTokenStored    sdkmath.Int `json:"reward_per_token_stored"`
	TotalRewardsDistributed sdkmath.Int `json:"total_rewards_distributed"`
}

// NewStakingPool returns the lazily created default pool for token.
func NewStakingPool(token string, now int64) *StakingPool {
	return &StakingPool{
		Token:                   token,
		TotalStaked:             sdkmath.ZeroInt(),
		RewardRatePerDay:        sdkmath.NewInt(DefaultRewardRatePerDay),
		LastUpdateTime:          now,
		RewardPerTokenStored:    sdkmath.ZeroInt(),
		TotalRewardsDistributed: sdkmath.ZeroInt(),
	}
}
