package hub

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stellarhub/defihub/internal/external"
	"github.com/stellarhub/defihub/internal/ledger"
	"github.com/stellarhub/defihub/internal/registry"
	"github.com/stellarhub/defihub/internal/risk"
	"github.com/stellarhub/defihub/internal/types"
)

const (
	usdcAddr  = "GUSDC"
	xlmAddr   = "native"
	adminAddr = "GADMIN"
	userAddr  = "GUSER"
	hubAddr   = "GHUB"
)

type fakeClock struct{ now int64 }

func (c *fakeClock) Now() time.Time { return time.Unix(c.now, 0).UTC() }

type captureEmitter struct {
	events []types.Event
}

func (e *captureEmitter) Emit(event types.Event) error {
	e.events = append(e.events, event)
	return nil
}

func (e *captureEmitter) last() types.Event {
	return e.events[len(e.events)-1]
}

type fixture struct {
	hub     *Hub
	ledger  *ledger.Ledger
	sim     *external.SimulatedExchange
	clock   *fakeClock
	emitter *captureEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := registry.New([]types.AssetConfig{
		{Address: usdcAddr, Symbol: "USDC", Decimals: 6, CollateralFactorBps: 8500, OracleSymbol: "USDC"},
		{Address: xlmAddr, Symbol: "XLM", Decimals: 7, CollateralFactorBps: 7000, OracleSymbol: "XLM"},
	})
	require.NoError(t, err)

	led := ledger.New(ledger.NewMemoryStore())
	sim := external.NewSimulatedExchange(reg.All())
	sim.SetOraclePrice("USDC", sdkmath.NewInt(100_000_000))
	sim.SetOraclePrice("XLM", sdkmath.NewInt(12_000_000))

	// Deadline checks compare the injected clock against real wall time
	// inside the simulated AMM, so the fake clock starts at wall time.
	clk := &fakeClock{now: time.Now().Unix()}
	emitter := &captureEmitter{}

	h, err := New(Config{
		Registry: reg,
		Ledger:   led,
		Tokens:   sim,
		Lending:  sim,
		AMM:      sim,
		Oracle:   sim,
		Auth:     external.AllowAllAuthenticator{},
		Clock:    clk,
		Emitter:  emitter,
		Address:  hubAddr,
	})
	require.NoError(t, err)

	return &fixture{hub: h, ledger: led, sim: sim, clock: clk, emitter: emitter}
}

func newInitializedFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	require.NoError(t, f.hub.Initialize(adminAddr))
	return f
}

func TestInitializeRunsOnce(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.hub.Initialize(adminAddr))

	meta, err := f.ledger.Meta()
	require.NoError(t, err)
	require.True(t, meta.Initialized)
	require.Equal(t, adminAddr, meta.Admin)
	require.Equal(t, sdkmath.NewInt(types.DefaultRewardRatePerDay), meta.RewardRate)

	configs, err := f.ledger.AssetConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	require.Equal(t, types.EventInitialized, f.emitter.last().Type)

	require.ErrorIs(t, f.hub.Initialize(adminAddr), types.ErrAlreadyInitialized)
}

func TestOperationsRequireInitialize(t *testing.T) {
	f := newFixture(t)
	amount := sdkmath.NewInt(1000)

	_, err := f.hub.SwapTokens(userAddr, usdcAddr, xlmAddr, amount, sdkmath.ZeroInt(), f.clock.now+600)
	require.ErrorIs(t, err, types.ErrNotInitialized)

	_, err = f.hub.SupplyToBlend(userAddr, usdcAddr, amount)
	require.ErrorIs(t, err, types.ErrNotInitialized)

	require.ErrorIs(t, f.hub.BorrowFromBlend(userAddr, usdcAddr, amount), types.ErrNotInitialized)
	require.ErrorIs(t, f.hub.StakeBTokens(userAddr, "b-"+usdcAddr, amount), types.ErrNotInitialized)
}

func TestSwapTokens(t *testing.T) {
	f := newInitializedFixture(t)
	f.sim.Mint(usdcAddr, userAddr, sdkmath.NewInt(1_000_000))

	out, err := f.hub.SwapTokens(userAddr, usdcAddr, xlmAddr,
		sdkmath.NewInt(100_000), sdkmath.ZeroInt(), f.clock.now+600)
	require.NoError(t, err)

	// 0.5% fee leaves 99,500 to swap; at 1.00 vs 0.12 USD across 6 and 7
	// decimals that buys 8,291,666 stroops.
	require.Equal(t, sdkmath.NewInt(8_291_666), out)
	require.Equal(t, sdkmath.NewInt(8_291_666), f.sim.BalanceOf(xlmAddr, userAddr))
	require.Equal(t, sdkmath.NewInt(900_000), f.sim.BalanceOf(usdcAddr, userAddr))

	// The withheld fee lands in the input token's reward reserve.
	reserve, err := f.ledger.RewardReserve(usdcAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), reserve)

	event := f.emitter.last()
	require.Equal(t, types.EventSwap, event.Type)
	require.Equal(t, "500", event.Attributes["fee"])
}

func TestSwapValidation(t *testing.T) {
	f := newInitializedFixture(t)
	f.sim.Mint(usdcAddr, userAddr, sdkmath.NewInt(1_000_000))

	_, err := f.hub.SwapTokens(userAddr, usdcAddr, xlmAddr, sdkmath.ZeroInt(), sdkmath.ZeroInt(), f.clock.now+600)
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = f.hub.SwapTokens(userAddr, "GNOBODY", xlmAddr, sdkmath.NewInt(1000), sdkmath.ZeroInt(), f.clock.now+600)
	require.ErrorIs(t, err, types.ErrAssetNotSupported)

	_, err = f.hub.SwapTokens(userAddr, usdcAddr, xlmAddr, sdkmath.NewInt(1000), sdkmath.ZeroInt(), f.clock.now-10)
	require.ErrorIs(t, err, types.ErrDeadlineExpired)

	_, err = f.hub.SwapTokens("", usdcAddr, xlmAddr, sdkmath.NewInt(1000), sdkmath.ZeroInt(), f.clock.now+600)
	require.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestSupplyToBlend(t *testing.T) {
	f := newInitializedFixture(t)
	f.sim.Mint(usdcAddr, userAddr, sdkmath.NewInt(1_000_000_000))

	reserveToken, err := f.hub.SupplyToBlend(userAddr, usdcAddr, sdkmath.NewInt(1_000_000_000))
	require.NoError(t, err)
	require.Equal(t, "b-"+usdcAddr, reserveToken)

	pos, err := f.hub.GetUserPosition(userAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_000_000_000), pos.SuppliedAmount(usdcAddr))

	// bTokens minted 1:1 by the simulated pool end up with the user.
	require.Equal(t, sdkmath.NewInt(1_000_000_000), f.sim.BalanceOf(reserveToken, userAddr))
	require.Equal(t, types.EventSupply, f.emitter.last().Type)
}

func TestBorrowRequiresCollateral(t *testing.T) {
	f := newInitializedFixture(t)

	err := f.hub.BorrowFromBlend(userAddr, usdcAddr, sdkmath.NewInt(1_000_000))
	require.ErrorIs(t, err, types.ErrInsufficientCollateral)

	// A rejected borrow leaves no trace in the ledger.
	pos, err := f.hub.GetUserPosition(userAddr)
	require.NoError(t, err)
	require.Empty(t, pos.Borrowed)
	require.True(t, f.sim.BalanceOf(usdcAddr, userAddr).IsZero())
}

func TestBorrowWithinLimit(t *testing.T) {
	f := newInitializedFixture(t)
	f.sim.Mint(usdcAddr, userAddr, sdkmath.NewInt(1_000_000_000))
	_, err := f.hub.SupplyToBlend(userAddr, usdcAddr, sdkmath.NewInt(1_000_000_000))
	require.NoError(t, err)

	// 1000 USDC at 85% backs at most ~708.33 USDC of debt at the 120% floor.
	require.ErrorIs(t,
		f.hub.BorrowFromBlend(userAddr, usdcAddr, sdkmath.NewInt(800_000_000)),
		types.ErrInsufficientCollateral)

	require.NoError(t, f.hub.BorrowFromBlend(userAddr, usdcAddr, sdkmath.NewInt(500_000_000)))

	pos, err := f.hub.GetUserPosition(userAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500_000_000), pos.BorrowedAmount(usdcAddr))
	require.Equal(t, sdkmath.NewInt(500_000_000), f.sim.BalanceOf(usdcAddr, userAddr))

	hf, err := f.hub.CalculateHealthFactor(userAddr, nil)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_700_000), hf)

	hypothetical := &risk.Borrow{Asset: usdcAddr, Amount: sdkmath.NewInt(300_000_000)}
	hf, err = f.hub.CalculateHealthFactor(userAddr, hypothetical)
	require.NoError(t, err)
	require.True(t, hf.LT(sdkmath.NewInt(risk.MinBorrowHealthFactor)))
}

func TestStakeUnstakeAndClaim(t *testing.T) {
	f := newInitializedFixture(t)
	f.sim.Mint(usdcAddr, userAddr, sdkmath.NewInt(1_000_000_000))
	btoken, err := f.hub.SupplyToBlend(userAddr, usdcAddr, sdkmath.NewInt(1_000_000_000))
	require.NoError(t, err)

	require.NoError(t, f.hub.StakeBTokens(userAddr, btoken, sdkmath.NewInt(1_000_000_000)))

	pool, err := f.hub.GetStakingPool(btoken)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_000_000_000), pool.TotalStaked)

	// One day at the base rate of 1000 per million per day on 1e9 staked
	// accrues 1,000,000.
	f.clock.now += 86_400

	// Reserve is empty: the unstake returns the tokens but pays nothing,
	// and the accrued rewards survive for a later claim.
	paid, err := f.hub.UnstakeAndClaim(userAddr, btoken, sdkmath.NewInt(1_000_000_000))
	require.NoError(t, err)
	require.True(t, paid.IsZero())
	require.Equal(t, sdkmath.NewInt(1_000_000_000), f.sim.BalanceOf(btoken, userAddr))

	pos, err := f.hub.GetUserPosition(userAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_000_000), pos.RewardsEarned)
	require.True(t, pos.StakedAmount(btoken).IsZero())

	// Fund the reference-asset reserve and claim with a zero unstake. The
	// payout saturates at the reserve and the claim debits in full.
	require.NoError(t, f.ledger.SetRewardReserve(usdcAddr, sdkmath.NewInt(400_000)))
	paid, err = f.hub.UnstakeAndClaim(userAddr, btoken, sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(400_000), paid)
	require.Equal(t, sdkmath.NewInt(400_000), f.sim.BalanceOf(usdcAddr, userAddr))

	pos, err = f.hub.GetUserPosition(userAddr)
	require.NoError(t, err)
	require.True(t, pos.RewardsEarned.IsZero())
}

func TestUnstakeRejectsNegativeAmount(t *testing.T) {
	f := newInitializedFixture(t)

	_, err := f.hub.UnstakeAndClaim(userAddr, "b-"+usdcAddr, sdkmath.NewInt(-1))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestUpdateRewardRateAdminOnly(t *testing.T) {
	f := newInitializedFixture(t)

	require.ErrorIs(t,
		f.hub.UpdateRewardRate(userAddr, sdkmath.NewInt(2000)),
		types.ErrUnauthorized)

	require.NoError(t, f.hub.UpdateRewardRate(adminAddr, sdkmath.NewInt(2000)))
	meta, err := f.ledger.Meta()
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(2000), meta.RewardRate)
	require.Equal(t, types.EventRateUpdate, f.emitter.last().Type)

	require.ErrorIs(t,
		f.hub.UpdateRewardRate(adminAddr, sdkmath.NewInt(-5)),
		types.ErrInvalidAmount)
}

func TestSetEmergencyPrice(t *testing.T) {
	f := newInitializedFixture(t)

	require.ErrorIs(t,
		f.hub.SetEmergencyPrice(userAddr, xlmAddr, sdkmath.NewInt(1_500_000)),
		types.ErrUnauthorized)
	require.ErrorIs(t,
		f.hub.SetEmergencyPrice(adminAddr, "GNOBODY", sdkmath.NewInt(1_500_000)),
		types.ErrAssetNotSupported)
	require.ErrorIs(t,
		f.hub.SetEmergencyPrice(adminAddr, xlmAddr, sdkmath.ZeroInt()),
		types.ErrInvalidAmount)

	require.NoError(t, f.hub.SetEmergencyPrice(adminAddr, xlmAddr, sdkmath.NewInt(1_500_000)))

	sources, err := f.hub.GetPriceSources(xlmAddr)
	require.NoError(t, err)
	var foundAdmin bool
	for _, source := range sources {
		if source.Kind == types.PriceSourceAdmin {
			foundAdmin = true
			require.Equal(t, sdkmath.NewInt(1_500_000), source.Price)
		}
	}
	require.True(t, foundAdmin)
}

func TestGetters(t *testing.T) {
	f := newInitializedFixture(t)

	assets := f.hub.GetSupportedAssets()
	require.Len(t, assets, 2)
	require.Equal(t, "USDC", assets[0].Symbol)

	// The fresh oracle observation wins outright.
	price, err := f.hub.GetAssetPrice(usdcAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_000_000), price)

	price, err = f.hub.GetAssetPrice(xlmAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_200_000), price)

	_, err = f.hub.GetAssetPrice("GNOBODY")
	require.ErrorIs(t, err, types.ErrAssetNotSupported)
}
