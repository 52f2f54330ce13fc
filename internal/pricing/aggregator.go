/*

This file contains the price aggregator. It collects candidate observations
from up to four sources in fixed priority order (oracle, dex, admin, mock),
then reconciles them into one authoritative price:

  - no sources        -> ErrPriceUnavailable
  - one source        -> returned directly
  - oracle present    -> trusted outright (confidence >= 90)
  - two-plus sources  -> if the top two diverge more than 5%, the higher
    confidence wins alone; otherwise the confidence-weighted average of the
    two. Divergent sources are never averaged.

The aggregator is a pure read: it combines external reads and persisted
admin prices but writes nothing.

*/

package pricing

import (
	"sort"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stellarhub/defihub/internal/external"
	"github.com/stellarhub/defihub/internal/ledger"
	"github.com/stellarhub/defihub/internal/logger"
	"github.com/stellarhub/defihub/internal/registry"
	"github.com/stellarhub/defihub/internal/types"
)

// divergenceThresholdPct is the relative divergence, in whole percent, above
// which two sources are considered irreconcilable.
const divergenceThresholdPct = 5

// Aggregator combines the oracle, DEX, admin, and mock price signals.
type Aggregator struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
	oracle   external.OracleService
	amm      external.AMMRouter
	clock    external.Clock
	log      zerolog.Logger
}

// New wires an aggregator. Oracle and AMM may be nil; the corresponding
// sources are then simply absent.
func New(reg *registry.Registry, led *ledger.Ledger, oracle external.OracleService, amm external.AMMRouter, clock external.Clock) *Aggregator {
	return &Aggregator{
		registry: reg,
		ledger:   led,
		oracle:   oracle,
		amm:      amm,
		clock:    clock,
		log:      logger.GetForComponent("price_aggregator"),
	}
}

// PriceOf returns the authoritative price for the asset in the asset's own
// decimal precision, or ErrPriceUnavailable when every source is absent.
func (a *Aggregator) PriceOf(asset string) (sdkmath.Int, error) {
	sources, err := a.Sources(asset)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	price, ok := selectBestPrice(sources)
	if !ok {
		return sdkmath.ZeroInt(), types.ErrPriceUnavailable
	}
	return price, nil
}

// Sources returns every candidate observation currently available for the
// asset, in priority order. Used by PriceOf and exposed for inspection.
func (a *Aggregator) Sources(asset string) ([]types.PriceSource, error) {
	cfg, err := a.registry.Lookup(asset)
	if err != nil {
		return nil, err
	}
	now := a.clock.Now().Unix()
	var sources []types.PriceSource

	if price, ok := a.oraclePrice(cfg, now); ok {
		sources = append(sources, types.PriceSource{
			Kind: types.PriceSourceOracle, Price: price, Timestamp: now, Confidence: ConfidenceOracle,
		})
	}
	if price, ok := a.dexPrice(cfg); ok {
		sources = append(sources, types.PriceSource{
			Kind: types.PriceSourceDex, Price: price, Timestamp: now, Confidence: ConfidenceDex,
		})
	}
	if price, ok := a.adminPrice(cfg, now); ok {
		sources = append(sources, types.PriceSource{
			Kind: types.PriceSourceAdmin, Price: price, Timestamp: now, Confidence: ConfidenceAdmin,
		})
	}
	if price, ok := a.mockPrice(cfg); ok {
		sources = append(sources, types.PriceSource{
			Kind: types.PriceSourceMock, Price: price, Timestamp: now, Confidence: ConfidenceMock,
		})
	}
	return sources, nil
}

// oracleMaxAge reads the configured freshness window, falling back to the
// default when the hub meta is not yet written.
func (a *Aggregator) oracleMaxAge() int64 {
	meta, err := a.ledger.Meta()
	if err != nil || meta == nil || meta.OracleMaxAge <= 0 {
		return DefaultOracleMaxAge
	}
	return meta.OracleMaxAge
}

// selectBestPrice reconciles the collected sources into a single price.
func selectBestPrice(sources []types.PriceSource) (sdkmath.Int, bool) {
	if len(sources) == 0 {
		return sdkmath.ZeroInt(), false
	}
	if len(sources) == 1 {
		return sources[0].Price, true
	}

	ranked := make([]types.PriceSource, len(sources))
	copy(ranked, sources)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	best := ranked[0]
	if best.Confidence >= ConfidenceOracle {
		return best.Price, true
	}

	second := ranked[1]
	if divergencePct(best.Price, second.Price) > divergenceThresholdPct {
		// Too far apart to smooth over: the higher-confidence source wins.
		return best.Price, true
	}

	bestWeight := sdkmath.NewInt(int64(best.Confidence))
	secondWeight := sdkmath.NewInt(int64(second.Confidence))
	weighted := best.Price.Mul(bestWeight).
		Add(second.Price.Mul(secondWeight)).
		Quo(bestWeight.Add(secondWeight))
	return weighted, true
}

// divergencePct computes |p1-p2| / max(p1,p2) * 100 in integer math.
func divergencePct(p1, p2 sdkmath.Int) int64 {
	var diff, max sdkmath.Int
	if p1.GT(p2) {
		diff, max = p1.Sub(p2), p1
	} else {
		diff, max = p2.Sub(p1), p2
	}
	if max.IsZero() {
		return 0
	}
	return diff.MulRaw(100).Quo(max).Int64()
}
