/*

This file contains the asset registry: a small, bounded table of supported
asset configurations. The registry is populated once at initialization and is
read-only afterwards. Lookups are linear scans; the table is capped at ten
entries so this stays cheap and the iteration order stays deterministic for
valuation sums.

*/

package registry

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stellarhub/defihub/internal/types"
)

// MaxAssets bounds the registry size, matching the reference deployment.
const MaxAssets = 10

// Registry holds the supported asset configurations. The first registered
// asset is the reference asset used for DEX pricing and reward payouts.
type Registry struct {
	assets []types.AssetConfig
}

// New builds a registry from the given configs. IsCollateral is derived from
// the collateral factor; configs beyond MaxAssets are rejected.
func New(configs []types.AssetConfig) (*Registry, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("registry requires at least one asset config")
	}
	if len(configs) > MaxAssets {
		return nil, fmt.Errorf("registry supports at most %d assets, got %d", MaxAssets, len(configs))
	}
	assets := make([]types.AssetConfig, len(configs))
	for i, cfg := range configs {
		if cfg.Decimals > 18 {
			return nil, fmt.Errorf("asset %s: decimals %d out of range", cfg.Symbol, cfg.Decimals)
		}
		if cfg.CollateralFactorBps > 10000 {
			return nil, fmt.Errorf("asset %s: collateral factor %d exceeds 10000 bps", cfg.Symbol, cfg.CollateralFactorBps)
		}
		cfg.IsCollateral = cfg.CollateralFactorBps > 0
		assets[i] = cfg
	}
	return &Registry{assets: assets}, nil
}

// Lookup returns the config for the given asset address.
func (r *Registry) Lookup(asset string) (types.AssetConfig, error) {
	for _, cfg := range r.assets {
		if cfg.Address == asset {
			return cfg, nil
		}
	}
	return types.AssetConfig{}, types.ErrAssetNotSupported
}

// IsSupported reports whether the asset address is registered.
func (r *Registry) IsSupported(asset string) bool {
	_, err := r.Lookup(asset)
	return err == nil
}

// PricePrecision returns 10^decimals for the asset.
func (r *Registry) PricePrecision(asset string) (sdkmath.Int, error) {
	cfg, err := r.Lookup(asset)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return cfg.PricePrecision(), nil
}

// ReferenceAsset returns the config in slot zero. DEX quotes are priced
// against it and rewards are paid out of its reserve.
func (r *Registry) ReferenceAsset() types.AssetConfig {
	return r.assets[0]
}

// All returns the registered configs in registration order.
func (r *Registry) All() []types.AssetConfig {
	out := make([]types.AssetConfig, len(r.assets))
	copy(out, r.assets)
	return out
}
