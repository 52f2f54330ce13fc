/*

This file contains the transient price observation types produced by the
price aggregator, the oracle's native quote shape, and the persisted
emergency price set by the admin.

*/

package types

import sdkmath "cosmossdk.io/math"

// PriceSourceKind identifies where a candidate price observation came from.
type PriceSourceKind string

const (
	PriceSourceOracle PriceSourceKind = "oracle"
	PriceSourceDex    PriceSourceKind = "dex"
	PriceSourceAdmin  PriceSourceKind = "admin"
	PriceSourceMock   PriceSourceKind = "mock"
)

// PriceSource is a single candidate observation. Produced fresh on every
// price query and never persisted.
type PriceSource struct {
	Kind       PriceSourceKind `json:"source_type"`
	Price      sdkmath.Int     `json:"price"`
	Timestamp  int64           `json:"timestamp"`
	Confidence uint32          `json:"confidence"` // 0-100, higher = more reliable
}

// OraclePrice is the raw value reported by the external oracle, in the
// oracle's native 8-decimal precision.
type OraclePrice struct {
	Price     sdkmath.Int `json:"price"`
	Timestamp int64       `json:"timestamp"`
	RoundID   uint64      `json:"round_id"`
}

// DexQuote is the result of simulating a trade through the AMM router.
type DexQuote struct {
	AmountOut sdkmath.Int `json:"amount_out"`
	Liquidity sdkmath.Int `json:"liquidity"`
}

// AdminPrice is the persisted emergency price for one asset. It is only
// considered while younger than the configured max age.
type AdminPrice struct {
	Price sdkmath.Int `json:"price"`
	SetAt int64       `json:"set_at"` // Unix seconds
}
