/*

This file contains the configuration type for assets supported by the hub,
along with the blend pool handle resolved from the lending collaborator.

*/

package types

import sdkmath "cosmossdk.io/math"

// AssetConfig describes a single supported asset. Configs are registered once
// at initialization and never mutated afterwards.
type AssetConfig struct {
	Address             string `json:"address"`               // Contract address, or "native" for XLM
	Symbol              string `json:"symbol"`                // Display symbol, e.g. "USDC"
	Decimals            uint32 `json:"decimals"`              // 0-18
	CollateralFactorBps uint64 `json:"collateral_factor_bps"` // Basis points (8500 = 85%)
	IsCollateral        bool   `json:"is_collateral"`         // Derived: collateral factor > 0
	OracleSymbol        string `json:"oracle_symbol"`         // Symbol used by the external oracle
}

// PricePrecision returns 10^decimals for the asset.
func (a AssetConfig) PricePrecision() sdkmath.Int {
	precision := sdkmath.NewInt(1)
	ten := sdkmath.NewInt(10)
	for i := uint32(0); i < a.Decimals; i++ {
		precision = precision.Mul(ten)
	}
	return precision
}

// BlendPool is the handle for a lending pool resolved from the external
// lending service. It is rebuilt on every call; the lending service stays
// authoritative for pool existence.
type BlendPool struct {
	PoolID          string `json:"pool_id"`
	UnderlyingAsset string `json:"underlying_asset"`
	ReserveToken    string `json:"reserve_token"` // blended token (bToken)
}
