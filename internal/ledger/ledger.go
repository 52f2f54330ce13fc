/*

This file contains the position ledger: the only mutation path for user
positions, staking pools, reward reserves, emergency prices, and the hub's
singleton meta record. Positions and pools are created lazily with all-zero
defaults on first read. Subtraction saturates toward zero; balances never go
negative.

*/

package ledger

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stellarhub/defihub/internal/types"
	"github.com/stellarhub/defihub/internal/utils"
)

// Ledger wraps a Store with controlled mutators. All reads feeding a decision
// within one hub invocation see the same snapshot because invocations run
// serially against the store.
type Ledger struct {
	store Store
}

// New wires a ledger to its persistence substrate.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Position returns the user's position, lazily defaulting to an all-zero
// record stamped with now. The default is not persisted until first mutation.
func (l *Ledger) Position(user string, now int64) (*types.UserPosition, error) {
	pos, err := l.store.GetPosition(user)
	if err != nil {
		return nil, fmt.Errorf("load position for %s: %w", user, err)
	}
	if pos == nil {
		return types.NewUserPosition(user, now), nil
	}
	return pos, nil
}

// SavePosition persists a position mutated by one of the engines.
func (l *Ledger) SavePosition(pos *types.UserPosition) error {
	return l.store.PutPosition(pos)
}

// AddSupplied credits a supplied balance after a successful lending deposit.
func (l *Ledger) AddSupplied(user, asset string, amount sdkmath.Int, now int64) error {
	pos, err := l.Position(user, now)
	if err != nil {
		return err
	}
	pos.Supplied[asset] = pos.SuppliedAmount(asset).Add(amount)
	return l.SavePosition(pos)
}

// AddBorrowed credits a borrowed balance after a successful lending draw.
func (l *Ledger) AddBorrowed(user, asset string, amount sdkmath.Int, now int64) error {
	pos, err := l.Position(user, now)
	if err != nil {
		return err
	}
	pos.Borrowed[asset] = pos.BorrowedAmount(asset).Add(amount)
	return l.SavePosition(pos)
}

// AddStaked credits a staked balance.
func (l *Ledger) AddStaked(user, token string, amount sdkmath.Int, now int64) error {
	pos, err := l.Position(user, now)
	if err != nil {
		return err
	}
	pos.Staked[token] = pos.StakedAmount(token).Add(amount)
	return l.SavePosition(pos)
}

// SubStakedSaturating decreases a staked balance, flooring at zero and
// dropping the key entirely when the balance reaches zero. Unstaking more
// than is staked is a saturating decrease, not an error.
func (l *Ledger) SubStakedSaturating(user, token string, amount sdkmath.Int, now int64) error {
	pos, err := l.Position(user, now)
	if err != nil {
		return err
	}
	remaining := utils.SaturatingSub(pos.StakedAmount(token), amount)
	if remaining.IsZero() {
		delete(pos.Staked, token)
	} else {
		pos.Staked[token] = remaining
	}
	return l.SavePosition(pos)
}

// Pool returns the staking pool for token, lazily defaulting to a fresh pool
// with the default emission rate. The default is not persisted until saved.
func (l *Ledger) Pool(token string, now int64) (*types.StakingPool, error) {
	pool, err := l.store.GetStakingPool(token)
	if err != nil {
		return nil, fmt.Errorf("load staking pool for %s: %w", token, err)
	}
	if pool == nil {
		return types.NewStakingPool(token, now), nil
	}
	return pool, nil
}

// SavePool persists a staking pool.
func (l *Ledger) SavePool(pool *types.StakingPool) error {
	return l.store.PutStakingPool(pool)
}

// RewardReserve returns the fee reserve accumulated for token.
func (l *Ledger) RewardReserve(token string) (sdkmath.Int, error) {
	return l.store.GetRewardReserve(token)
}

// SetRewardReserve overwrites the fee reserve for token.
func (l *Ledger) SetRewardReserve(token string, amount sdkmath.Int) error {
	return l.store.PutRewardReserve(token, amount)
}

// AdminPrice returns the persisted emergency price for asset, nil if unset.
func (l *Ledger) AdminPrice(asset string) (*types.AdminPrice, error) {
	return l.store.GetAdminPrice(asset)
}

// SetAdminPrice persists an emergency price.
func (l *Ledger) SetAdminPrice(asset string, price *types.AdminPrice) error {
	return l.store.PutAdminPrice(asset, price)
}

// Meta returns the hub's singleton state, nil before initialization.
func (l *Ledger) Meta() (*types.HubMeta, error) {
	return l.store.GetMeta()
}

// SaveMeta persists the hub's singleton state.
func (l *Ledger) SaveMeta(meta *types.HubMeta) error {
	return l.store.PutMeta(meta)
}

// AssetConfigs returns the persisted registry contents, nil before
// initialization.
func (l *Ledger) AssetConfigs() ([]types.AssetConfig, error) {
	return l.store.GetAssetConfigs()
}

// SaveAssetConfigs persists the registry contents written at initialization.
func (l *Ledger) SaveAssetConfigs(configs []types.AssetConfig) error {
	return l.store.PutAssetConfigs(configs)
}
