/*

This file contains the health factor calculator. It values a user's
collateral-eligible supplied assets against their borrowed assets (plus an
optional hypothetical borrow) and returns the solvency ratio scaled by one
million. Borrowing is gated on the resulting ratio staying at or above 120%.

Assets whose price is currently unavailable are silently skipped from both
sums: a missing price neither counts as collateral nor as debt.

*/

package risk

import (
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/stellarhub/defihub/internal/ledger"
	"github.com/stellarhub/defihub/internal/pricing"
	"github.com/stellarhub/defihub/internal/registry"
)

const (
	// HealthPrecision scales the ratio to six decimals.
	HealthPrecision = 1_000_000

	// MinBorrowHealthFactor is the 120% floor a borrow must not cross.
	MinBorrowHealthFactor = 1_200_000

	basisPointsDivisor = 10_000
)

// MaxHealthFactor is the sentinel returned when the user has no debt,
// equivalent to the source's u128::MAX "infinite health".
var MaxHealthFactor = sdkmath.NewIntFromBigInt(new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1),
))

// Borrow describes a hypothetical additional borrow folded into the debt
// side of the calculation.
type Borrow struct {
	Asset  string
	Amount sdkmath.Int
}

// Calculator derives health factors from the registry, the price aggregator,
// and the position ledger. It is stateless per call.
type Calculator struct {
	registry *registry.Registry
	pricing  *pricing.Aggregator
	ledger   *ledger.Ledger
}

// New wires a calculator.
func New(reg *registry.Registry, agg *pricing.Aggregator, led *ledger.Ledger) *Calculator {
	return &Calculator{registry: reg, pricing: agg, ledger: led}
}

// HealthFactor returns totalCollateral * 1e6 / totalDebt, or MaxHealthFactor
// when the debt side is zero. The hypothetical borrow may be nil.
func (c *Calculator) HealthFactor(user string, hypothetical *Borrow, now int64) (sdkmath.Int, error) {
	pos, err := c.ledger.Position(user, now)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	totalCollateral := sdkmath.ZeroInt()
	for asset, amount := range pos.Supplied {
		price, err := c.pricing.PriceOf(asset)
		if err != nil {
			continue // unpriced assets drop out of the sum
		}
		cfg, err := c.registry.Lookup(asset)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		if !cfg.IsCollateral {
			continue
		}
		value := amount.Mul(price).
			Mul(sdkmath.NewIntFromUint64(cfg.CollateralFactorBps)).
			Quo(cfg.PricePrecision().MulRaw(basisPointsDivisor))
		totalCollateral = totalCollateral.Add(value)
	}

	totalDebt := sdkmath.ZeroInt()
	for asset, amount := range pos.Borrowed {
		value, ok, err := c.debtValue(asset, amount)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		if ok {
			totalDebt = totalDebt.Add(value)
		}
	}
	if hypothetical != nil {
		value, ok, err := c.debtValue(hypothetical.Asset, hypothetical.Amount)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		if ok {
			totalDebt = totalDebt.Add(value)
		}
	}

	if totalDebt.IsZero() {
		return MaxHealthFactor, nil
	}
	return totalCollateral.MulRaw(HealthPrecision).Quo(totalDebt), nil
}

// debtValue prices one borrowed amount; ok is false when the price is
// unavailable and the asset should be skipped.
func (c *Calculator) debtValue(asset string, amount sdkmath.Int) (sdkmath.Int, bool, error) {
	price, err := c.pricing.PriceOf(asset)
	if err != nil {
		return sdkmath.ZeroInt(), false, nil
	}
	precision, err := c.registry.PricePrecision(asset)
	if err != nil {
		return sdkmath.ZeroInt(), false, err
	}
	return amount.Mul(price).Quo(precision), true, nil
}
