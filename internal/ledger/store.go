/*

This file contains the Store interface: the boundary to the persistent
key-value substrate. The hub core never talks to storage directly; it goes
through the ledger, which goes through this interface. Implementations:
the Postgres store in internal/state and the in-memory store in this package.

Get methods return (nil, nil) for absent records; lazy defaulting is the
ledger's job, not the store's.

*/

package ledger

import (
	sdkmath "cosmossdk.io/math"

	"github.com/stellarhub/defihub/internal/types"
)

// Store persists hub state. One hub invocation runs serially against a
// consistent snapshot; the host guarantees no concurrent mutation of the
// same stored state during an invocation.
type Store interface {
	GetPosition(user string) (*types.UserPosition, error)
	PutPosition(pos *types.UserPosition) error

	GetStakingPool(token string) (*types.StakingPool, error)
	PutStakingPool(pool *types.StakingPool) error

	// Reward reserves are per-token fee accumulators. Absent keys read as zero.
	GetRewardReserve(token string) (sdkmath.Int, error)
	PutRewardReserve(token string, amount sdkmath.Int) error

	GetAdminPrice(asset string) (*types.AdminPrice, error)
	PutAdminPrice(asset string, price *types.AdminPrice) error

	GetMeta() (*types.HubMeta, error)
	PutMeta(meta *types.HubMeta) error

	GetAssetConfigs() ([]types.AssetConfig, error)
	PutAssetConfigs(configs []types.AssetConfig) error
}
