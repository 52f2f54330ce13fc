package risk

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stellarhub/defihub/internal/ledger"
	"github.com/stellarhub/defihub/internal/pricing"
	"github.com/stellarhub/defihub/internal/registry"
	"github.com/stellarhub/defihub/internal/types"
)

const (
	usdcAddr = "GUSDC"
	xlmAddr  = "native"
	fooAddr  = "GFOO"

	testUser = "GUSER"
	testNow  = int64(1_700_000_000)
)

type fakeClock struct{ now int64 }

func (c fakeClock) Now() time.Time { return time.Unix(c.now, 0).UTC() }

// newCalculator wires a calculator over the mock price table only: USDC at
// 1.00, XLM at 0.12, FOO unpriced.
func newCalculator(t *testing.T) (*Calculator, *ledger.Ledger) {
	t.Helper()
	reg, err := registry.New([]types.AssetConfig{
		{Address: usdcAddr, Symbol: "USDC", Decimals: 6, CollateralFactorBps: 8500, OracleSymbol: "USDC"},
		{Address: xlmAddr, Symbol: "XLM", Decimals: 7, CollateralFactorBps: 7000, OracleSymbol: "XLM"},
		{Address: fooAddr, Symbol: "FOO", Decimals: 7, CollateralFactorBps: 5000, OracleSymbol: "FOO"},
	})
	require.NoError(t, err)
	led := ledger.New(ledger.NewMemoryStore())
	agg := pricing.New(reg, led, nil, nil, fakeClock{testNow})
	return New(reg, agg, led), led
}

func TestNoDebtReturnsMaxHealthFactor(t *testing.T) {
	calc, led := newCalculator(t)
	require.NoError(t, led.AddSupplied(testUser, usdcAddr, sdkmath.NewInt(1_000_000_000), testNow))

	hf, err := calc.HealthFactor(testUser, nil, testNow)
	require.NoError(t, err)
	require.Equal(t, MaxHealthFactor, hf)

	// A brand new user has no debt either.
	hf, err = calc.HealthFactor("GNEWUSER", nil, testNow)
	require.NoError(t, err)
	require.Equal(t, MaxHealthFactor, hf)
}

func TestHealthFactorWeighsCollateralFactor(t *testing.T) {
	calc, led := newCalculator(t)

	// 1000 USDC supplied at 85% collateral factor = 850 USD of collateral.
	// 500 USDC borrowed = 500 USD of debt. Ratio 1.70.
	require.NoError(t, led.AddSupplied(testUser, usdcAddr, sdkmath.NewInt(1_000_000_000), testNow))
	require.NoError(t, led.AddBorrowed(testUser, usdcAddr, sdkmath.NewInt(500_000_000), testNow))

	hf, err := calc.HealthFactor(testUser, nil, testNow)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_700_000), hf)
}

func TestHypotheticalBorrowCountsAsDebt(t *testing.T) {
	calc, led := newCalculator(t)
	require.NoError(t, led.AddSupplied(testUser, usdcAddr, sdkmath.NewInt(1_000_000_000), testNow))

	hypothetical := &Borrow{Asset: usdcAddr, Amount: sdkmath.NewInt(500_000_000)}
	hf, err := calc.HealthFactor(testUser, hypothetical, testNow)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_700_000), hf)
}

func TestBorrowBoundary(t *testing.T) {
	calc, led := newCalculator(t)
	require.NoError(t, led.AddSupplied(testUser, usdcAddr, sdkmath.NewInt(1_000_000_000), testNow))

	// Collateral is 850 USD; the largest borrow keeping the ratio at 120%
	// is 708.333333 USDC.
	minHF := sdkmath.NewInt(MinBorrowHealthFactor)

	atLimit := &Borrow{Asset: usdcAddr, Amount: sdkmath.NewInt(708_333_333)}
	hf, err := calc.HealthFactor(testUser, atLimit, testNow)
	require.NoError(t, err)
	require.True(t, hf.GTE(minHF), "hf %s should clear the floor", hf)

	overLimit := &Borrow{Asset: usdcAddr, Amount: sdkmath.NewInt(708_333_334)}
	hf, err = calc.HealthFactor(testUser, overLimit, testNow)
	require.NoError(t, err)
	require.True(t, hf.LT(minHF), "hf %s should miss the floor", hf)
}

func TestCrossAssetValuation(t *testing.T) {
	calc, led := newCalculator(t)

	// Values keep each asset's own decimal scale: 10,000 XLM at 0.12 USD
	// and 70% collateral factor is 8.4e9 in XLM's 7-decimal scale, and
	// 100 borrowed USDC is 1e8 in USDC's 6-decimal scale.
	require.NoError(t, led.AddSupplied(testUser, xlmAddr, sdkmath.NewInt(100_000_000_000), testNow))
	require.NoError(t, led.AddBorrowed(testUser, usdcAddr, sdkmath.NewInt(100_000_000), testNow))

	hf, err := calc.HealthFactor(testUser, nil, testNow)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(84_000_000), hf)
}

func TestUnpricedAssetsDropFromBothSides(t *testing.T) {
	calc, led := newCalculator(t)

	// FOO has no price source at all: supplied FOO adds no collateral and
	// borrowed FOO adds no debt.
	require.NoError(t, led.AddSupplied(testUser, fooAddr, sdkmath.NewInt(1_000_000_000), testNow))
	hf, err := calc.HealthFactor(testUser, nil, testNow)
	require.NoError(t, err)
	require.Equal(t, MaxHealthFactor, hf)

	require.NoError(t, led.AddBorrowed(testUser, fooAddr, sdkmath.NewInt(500_000_000), testNow))
	hf, err = calc.HealthFactor(testUser, nil, testNow)
	require.NoError(t, err)
	require.Equal(t, MaxHealthFactor, hf)
}
