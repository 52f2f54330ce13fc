/*

This file contains the four candidate price sources consulted by the
aggregator. Each source is independently optional: any failure makes that
source absent and the aggregator proceeds with whatever remains.

*/

package pricing

import (
	sdkmath "cosmossdk.io/math"

	"github.com/stellarhub/defihub/internal/types"
	"github.com/stellarhub/defihub/internal/utils"
)

const (
	// ConfidenceOracle and friends rank sources when reconciling divergence.
	ConfidenceOracle = 90
	ConfidenceDex    = 85
	ConfidenceAdmin  = 70
	ConfidenceMock   = 50

	// OracleDecimals is the external oracle's native precision.
	OracleDecimals = 8

	// DefaultOracleMaxAge rejects oracle observations older than one hour.
	DefaultOracleMaxAge = 3600

	// AdminPriceMaxAge bounds emergency price validity at one day.
	AdminPriceMaxAge = 86400
)

// DEX quote parameters: a fixed notional test trade against the reference
// asset, accepted only when the quoted pool liquidity clears the minimum.
var (
	dexTestAmount   = sdkmath.NewInt(1_000_000)
	dexMinLiquidity = sdkmath.NewInt(10_000_000_000)
)

// mockPrices is the hardcoded fallback table in the oracle's 8-decimal
// precision, keyed by display symbol. Used only when no live source answers,
// for environments without real liquidity.
var mockPrices = map[string]int64{
	"USDC": 100_000_000,
	"USDT": 100_000_000,
	"XLM":  12_000_000,
	"BTC":  4_300_000_000_000,
	"ETH":  260_000_000_000,
	"AQUA": 5_000_000,
	"VELO": 8_000_000,
	"SHX":  15_000_000,
	"WXT":  3_000_000,
	"RIO":  25_000_000,
	"BLND": 45_000_000,
}

// oraclePrice queries the external oracle, rejects stale observations, and
// normalizes the oracle's 8-decimal value to the asset's configured decimals.
func (a *Aggregator) oraclePrice(cfg types.AssetConfig, now int64) (sdkmath.Int, bool) {
	if a.oracle == nil {
		return sdkmath.ZeroInt(), false
	}
	quote, err := a.oracle.GetValue(cfg.OracleSymbol)
	if err != nil {
		a.log.Debug().Err(err).Str("symbol", cfg.OracleSymbol).Msg("oracle source unavailable")
		return sdkmath.ZeroInt(), false
	}
	maxAge := a.oracleMaxAge()
	if now-quote.Timestamp > maxAge {
		a.log.Debug().
			Str("symbol", cfg.OracleSymbol).
			Int64("age", now-quote.Timestamp).
			Int64("max_age", maxAge).
			Msg("oracle observation stale, dropping source")
		return sdkmath.ZeroInt(), false
	}
	normalized, err := utils.RescaleDecimals(quote.Price, OracleDecimals, cfg.Decimals)
	if err != nil {
		a.log.Debug().Err(err).Str("symbol", cfg.OracleSymbol).Msg("oracle price rescale failed")
		return sdkmath.ZeroInt(), false
	}
	return normalized, true
}

// dexPrice derives a price from a simulated trade against the reference
// asset. The reference asset itself short-circuits to its base price. The
// reverse direction is tried when the forward quote lacks liquidity; its
// price inverts the quote around the test notional.
func (a *Aggregator) dexPrice(cfg types.AssetConfig) (sdkmath.Int, bool) {
	if a.amm == nil {
		return sdkmath.ZeroInt(), false
	}
	reference := a.registry.ReferenceAsset()
	if cfg.Address == reference.Address {
		return cfg.PricePrecision(), true
	}

	if quote, err := a.amm.Quote(dexTestAmount, cfg.Address, reference.Address); err == nil {
		if quote.Liquidity.GT(dexMinLiquidity) && quote.AmountOut.IsPositive() {
			return quote.AmountOut, true
		}
	} else {
		a.log.Debug().Err(err).Str("asset", cfg.Symbol).Msg("forward dex quote unavailable")
	}

	if quote, err := a.amm.Quote(dexTestAmount, reference.Address, cfg.Address); err == nil {
		if quote.Liquidity.GT(dexMinLiquidity) && quote.AmountOut.IsPositive() {
			inverse := dexTestAmount.Mul(dexTestAmount).Quo(quote.AmountOut)
			return inverse, true
		}
	} else {
		a.log.Debug().Err(err).Str("asset", cfg.Symbol).Msg("reverse dex quote unavailable")
	}

	return sdkmath.ZeroInt(), false
}

// adminPrice reads the persisted emergency price, valid for one day.
func (a *Aggregator) adminPrice(cfg types.AssetConfig, now int64) (sdkmath.Int, bool) {
	stored, err := a.ledger.AdminPrice(cfg.Address)
	if err != nil || stored == nil {
		return sdkmath.ZeroInt(), false
	}
	if now-stored.SetAt > AdminPriceMaxAge {
		return sdkmath.ZeroInt(), false
	}
	return stored.Price, true
}

// mockPrice looks up the fallback table and normalizes to asset decimals.
func (a *Aggregator) mockPrice(cfg types.AssetConfig) (sdkmath.Int, bool) {
	raw, ok := mockPrices[cfg.Symbol]
	if !ok {
		return sdkmath.ZeroInt(), false
	}
	normalized, err := utils.RescaleDecimals(sdkmath.NewInt(raw), OracleDecimals, cfg.Decimals)
	if err != nil {
		return sdkmath.ZeroInt(), false
	}
	return normalized, true
}
