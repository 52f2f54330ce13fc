/*

This file contains the in-memory Store used by tests and by DB-less
development runs. Values are deep-copied on the way in and out so callers
never share map references with the store.

*/

package ledger

import (
	sdkmath "cosmossdk.io/math"

	"github.com/stellarhub/defihub/internal/types"
)

// MemoryStore is a map-backed Store. It is not safe for concurrent use; the
// hub's execution model is serial per invocation.
type MemoryStore struct {
	positions map[string]*types.UserPosition
	pools     map[string]*types.StakingPool
	reserves  map[string]sdkmath.Int
	prices    map[string]*types.AdminPrice
	meta      *types.HubMeta
	assets    []types.AssetConfig
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		positions: make(map[string]*types.UserPosition),
		pools:     make(map[string]*types.StakingPool),
		reserves:  make(map[string]sdkmath.Int),
		prices:    make(map[string]*types.AdminPrice),
	}
}

func copyAmounts(in map[string]sdkmath.Int) map[string]sdkmath.Int {
	out := make(map[string]sdkmath.Int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyPosition(pos *types.UserPosition) *types.UserPosition {
	if pos == nil {
		return nil
	}
	clone := *pos
	clone.Supplied = copyAmounts(pos.Supplied)
	clone.Borrowed = copyAmounts(pos.Borrowed)
	clone.Staked = copyAmounts(pos.Staked)
	return &clone
}

func (m *MemoryStore) GetPosition(user string) (*types.UserPosition, error) {
	return copyPosition(m.positions[user]), nil
}

func (m *MemoryStore) PutPosition(pos *types.UserPosition) error {
	m.positions[pos.User] = copyPosition(pos)
	return nil
}

func (m *MemoryStore) GetStakingPool(token string) (*types.StakingPool, error) {
	if pool, ok := m.pools[token]; ok {
		clone := *pool
		return &clone, nil
	}
	return nil, nil
}

func (m *MemoryStore) PutStakingPool(pool *types.StakingPool) error {
	clone := *pool
	m.pools[pool.Token] = &clone
	return nil
}

func (m *MemoryStore) GetRewardReserve(token string) (sdkmath.Int, error) {
	if reserve, ok := m.reserves[token]; ok {
		return reserve, nil
	}
	return sdkmath.ZeroInt(), nil
}

func (m *MemoryStore) PutRewardReserve(token string, amount sdkmath.Int) error {
	m.reserves[token] = amount
	return nil
}

func (m *MemoryStore) GetAdminPrice(asset string) (*types.AdminPrice, error) {
	if price, ok := m.prices[asset]; ok {
		clone := *price
		return &clone, nil
	}
	return nil, nil
}

func (m *MemoryStore) PutAdminPrice(asset string, price *types.AdminPrice) error {
	clone := *price
	m.prices[asset] = &clone
	return nil
}

func (m *MemoryStore) GetMeta() (*types.HubMeta, error) {
	if m.meta == nil {
		return nil, nil
	}
	clone := *m.meta
	return &clone, nil
}

func (m *MemoryStore) PutMeta(meta *types.HubMeta) error {
	clone := *meta
	m.meta = &clone
	return nil
}

func (m *MemoryStore) GetAssetConfigs() ([]types.AssetConfig, error) {
	if m.assets == nil {
		return nil, nil
	}
	out := make([]types.AssetConfig, len(m.assets))
	copy(out, m.assets)
	return out, nil
}

func (m *MemoryStore) PutAssetConfigs(configs []types.AssetConfig) error {
	m.assets = make([]types.AssetConfig, len(configs))
	copy(m.assets, configs)
	return nil
}
