/*

This file contains the staking reward engine. Two accrual formulas coexist
here:

 1. A per-pool reward-per-token accumulator (RewardPerTokenStored) advanced
    whenever a pool is touched.
 2. A per-user flat-rate accrual (global base rate times the user's own
    staked amount) which is what claims actually pay out.

They are intentionally not reconciled: the accumulator is maintained but is
not the payout basis. Whether the pool accumulator should drive payouts is
an open product question; do not merge the two paths without that decision.

*/

package staking

import (
	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stellarhub/defihub/internal/external"
	"github.com/stellarhub/defihub/internal/ledger"
	"github.com/stellarhub/defihub/internal/logger"
	"github.com/stellarhub/defihub/internal/types"
	"github.com/stellarhub/defihub/internal/utils"
)

const (
	// SecondsPerDay converts daily emission rates to per-second accrual.
	SecondsPerDay = 86_400

	// baseRateScale expresses the global base rate per million staked tokens.
	baseRateScale = 1_000_000
)

// Engine advances staking pool state and settles per-user rewards.
type Engine struct {
	ledger *ledger.Ledger
	clock  external.Clock
	log    zerolog.Logger
}

// New wires a staking engine.
func New(led *ledger.Ledger, clock external.Clock) *Engine {
	return &Engine{ledger: led, clock: clock, log: logger.GetForComponent("staking_engine")}
}

// SettleUser accrues the user's flat-rate rewards up to now and stamps
// LastRewardUpdate. Must run before any stake or unstake touching this
// user and token, and before any claim.
func (e *Engine) SettleUser(user, token string) error {
	now := e.clock.Now().Unix()
	pos, err := e.ledger.Position(user, now)
	if err != nil {
		return err
	}

	elapsed := now - pos.LastRewardUpdate
	staked := pos.StakedAmount(token)
	if staked.IsPositive() && elapsed > 0 {
		baseRate, err := e.baseRate()
		if err != nil {
			return err
		}
		dailyRewards := staked.Mul(baseRate).QuoRaw(baseRateScale)
		earned := dailyRewards.MulRaw(elapsed).QuoRaw(SecondsPerDay)
		pos.RewardsEarned = pos.RewardsEarned.Add(earned)
		e.log.Debug().
			Str("user", user).
			Str("token", token).
			Int64("elapsed", elapsed).
			Str("earned", earned.String()).
			Msg("settled user rewards")
	}

	// The reward clock always advances, even when nothing accrued.
	pos.LastRewardUpdate = now
	return e.ledger.SavePosition(pos)
}

// UpdatePool accrues the pool's reward-per-token accumulator for the elapsed
// interval, then adjusts TotalStaked by the staked or unstaked amount.
// Unstaking saturates toward zero.
func (e *Engine) UpdatePool(token string, amount sdkmath.Int, isStake bool) error {
	now := e.clock.Now().Unix()
	pool, err := e.ledger.Pool(token, now)
	if err != nil {
		return err
	}

	if pool.TotalStaked.IsPositive() {
		elapsed := now - pool.LastUpdateTime
		if elapsed > 0 {
			increment := pool.RewardRatePerDay.MulRaw(elapsed).Quo(pool.TotalStaked)
			pool.RewardPerTokenStored = pool.RewardPerTokenStored.Add(increment)
		}
	}

	if isStake {
		pool.TotalStaked = pool.TotalStaked.Add(amount)
	} else {
		pool.TotalStaked = utils.SaturatingSub(pool.TotalStaked, amount)
	}
	pool.LastUpdateTime = now

	return e.ledger.SavePool(pool)
}

// Pool returns the staking pool snapshot for token, lazily defaulted.
func (e *Engine) Pool(token string) (*types.StakingPool, error) {
	return e.ledger.Pool(token, e.clock.Now().Unix())
}

// baseRate reads the global base rate, defaulting when the hub meta is not
// yet written.
func (e *Engine) baseRate() (sdkmath.Int, error) {
	meta, err := e.ledger.Meta()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if meta == nil || meta.RewardRate.IsNil() {
		return sdkmath.NewInt(types.DefaultRewardRatePerDay), nil
	}
	return meta.RewardRate, nil
}
