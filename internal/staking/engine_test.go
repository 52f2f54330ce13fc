package staking

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stellarhub/defihub/internal/ledger"
	"github.com/stellarhub/defihub/internal/types"
)

const (
	testUser  = "GUSER"
	testToken = "b-usdc"
	testNow   = int64(1_700_000_000)
)

type fakeClock struct{ now int64 }

func (c *fakeClock) Now() time.Time { return time.Unix(c.now, 0).UTC() }

func newEngine() (*Engine, *ledger.Ledger, *fakeClock) {
	led := ledger.New(ledger.NewMemoryStore())
	clk := &fakeClock{now: testNow}
	return New(led, clk), led, clk
}

func TestSettleUserAccruesFlatRate(t *testing.T) {
	engine, led, clk := newEngine()

	// 1,000,000 tokens staked at the default base rate of 1000 per million
	// per day earns exactly 1000 per day.
	require.NoError(t, led.AddStaked(testUser, testToken, sdkmath.NewInt(1_000_000), testNow))

	clk.now = testNow + SecondsPerDay
	require.NoError(t, engine.SettleUser(testUser, testToken))

	pos, err := led.Position(testUser, clk.now)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), pos.RewardsEarned)
	require.Equal(t, clk.now, pos.LastRewardUpdate)
}

func TestSettleUserPartialDay(t *testing.T) {
	engine, led, clk := newEngine()
	require.NoError(t, led.AddStaked(testUser, testToken, sdkmath.NewInt(1_000_000), testNow))

	clk.now = testNow + SecondsPerDay/2
	require.NoError(t, engine.SettleUser(testUser, testToken))

	pos, err := led.Position(testUser, clk.now)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), pos.RewardsEarned)
}

func TestSettleUserZeroElapsedAdvancesClockOnly(t *testing.T) {
	engine, led, clk := newEngine()
	require.NoError(t, led.AddStaked(testUser, testToken, sdkmath.NewInt(1_000_000), testNow))

	require.NoError(t, engine.SettleUser(testUser, testToken))

	pos, err := led.Position(testUser, clk.now)
	require.NoError(t, err)
	require.True(t, pos.RewardsEarned.IsZero())
	require.Equal(t, testNow, pos.LastRewardUpdate)
}

func TestSettleUserNothingStaked(t *testing.T) {
	engine, led, clk := newEngine()

	clk.now = testNow + SecondsPerDay
	require.NoError(t, engine.SettleUser(testUser, testToken))

	pos, err := led.Position(testUser, clk.now)
	require.NoError(t, err)
	require.True(t, pos.RewardsEarned.IsZero())
	// The reward clock still advances so later stakes don't backdate.
	require.Equal(t, clk.now, pos.LastRewardUpdate)
}

func TestSettleUserUsesConfiguredBaseRate(t *testing.T) {
	engine, led, clk := newEngine()
	require.NoError(t, led.SaveMeta(&types.HubMeta{
		Admin:       "GADMIN",
		RewardRate:  sdkmath.NewInt(2000),
		Initialized: true,
	}))
	require.NoError(t, led.AddStaked(testUser, testToken, sdkmath.NewInt(1_000_000), testNow))

	clk.now = testNow + SecondsPerDay
	require.NoError(t, engine.SettleUser(testUser, testToken))

	pos, err := led.Position(testUser, clk.now)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(2000), pos.RewardsEarned)
}

func TestUpdatePoolAdjustsTotalStaked(t *testing.T) {
	engine, led, clk := newEngine()

	require.NoError(t, engine.UpdatePool(testToken, sdkmath.NewInt(500), true))
	pool, err := led.Pool(testToken, clk.now)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), pool.TotalStaked)

	require.NoError(t, engine.UpdatePool(testToken, sdkmath.NewInt(200), false))
	pool, err = led.Pool(testToken, clk.now)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(300), pool.TotalStaked)

	// Unstaking more than the pool holds saturates at zero.
	require.NoError(t, engine.UpdatePool(testToken, sdkmath.NewInt(9_999), false))
	pool, err = led.Pool(testToken, clk.now)
	require.NoError(t, err)
	require.True(t, pool.TotalStaked.IsZero())
}

func TestUpdatePoolAdvancesAccumulator(t *testing.T) {
	engine, led, clk := newEngine()

	require.NoError(t, engine.UpdatePool(testToken, sdkmath.NewInt(1000), true))

	// One day at the default emission of 1000/day over 1000 staked tokens
	// accrues rate*elapsed/staked = 86400 per token.
	clk.now = testNow + SecondsPerDay
	require.NoError(t, engine.UpdatePool(testToken, sdkmath.ZeroInt(), true))

	pool, err := led.Pool(testToken, clk.now)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(86_400), pool.RewardPerTokenStored)
	require.Equal(t, clk.now, pool.LastUpdateTime)
}

func TestUpdatePoolEmptyPoolAccruesNothing(t *testing.T) {
	engine, led, clk := newEngine()

	require.NoError(t, engine.UpdatePool(testToken, sdkmath.ZeroInt(), true))
	clk.now = testNow + SecondsPerDay
	require.NoError(t, engine.UpdatePool(testToken, sdkmath.ZeroInt(), true))

	pool, err := led.Pool(testToken, clk.now)
	require.NoError(t, err)
	require.True(t, pool.RewardPerTokenStored.IsZero())
}
