package ledger

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/stellarhub/defihub/internal/types"
)

const testUser = "GUSER"

func TestPositionLazyDefault(t *testing.T) {
	led := New(NewMemoryStore())

	pos, err := led.Position(testUser, 1000)
	require.NoError(t, err)
	require.Equal(t, testUser, pos.User)
	require.Equal(t, int64(1000), pos.LastRewardUpdate)
	require.True(t, pos.RewardsEarned.IsZero())
	require.Empty(t, pos.Supplied)

	// The default is not persisted: a later read gets a fresh stamp.
	pos2, err := led.Position(testUser, 2000)
	require.NoError(t, err)
	require.Equal(t, int64(2000), pos2.LastRewardUpdate)
}

func TestAddBalances(t *testing.T) {
	led := New(NewMemoryStore())

	require.NoError(t, led.AddSupplied(testUser, "usdc", sdkmath.NewInt(100), 1))
	require.NoError(t, led.AddSupplied(testUser, "usdc", sdkmath.NewInt(50), 2))
	require.NoError(t, led.AddBorrowed(testUser, "xlm", sdkmath.NewInt(30), 3))
	require.NoError(t, led.AddStaked(testUser, "b-usdc", sdkmath.NewInt(10), 4))

	pos, err := led.Position(testUser, 5)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(150), pos.SuppliedAmount("usdc"))
	require.Equal(t, sdkmath.NewInt(30), pos.BorrowedAmount("xlm"))
	require.Equal(t, sdkmath.NewInt(10), pos.StakedAmount("b-usdc"))
	require.Equal(t, sdkmath.ZeroInt(), pos.SuppliedAmount("xlm"))
}

func TestSubStakedSaturating(t *testing.T) {
	led := New(NewMemoryStore())
	require.NoError(t, led.AddStaked(testUser, "b-usdc", sdkmath.NewInt(100), 1))

	// Partial unstake keeps the key.
	require.NoError(t, led.SubStakedSaturating(testUser, "b-usdc", sdkmath.NewInt(40), 2))
	pos, err := led.Position(testUser, 3)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(60), pos.StakedAmount("b-usdc"))

	// Over-unstaking floors at zero and drops the key.
	require.NoError(t, led.SubStakedSaturating(testUser, "b-usdc", sdkmath.NewInt(1000), 4))
	pos, err = led.Position(testUser, 5)
	require.NoError(t, err)
	require.True(t, pos.StakedAmount("b-usdc").IsZero())
	require.NotContains(t, pos.Staked, "b-usdc")
}

func TestPoolLazyDefault(t *testing.T) {
	led := New(NewMemoryStore())

	pool, err := led.Pool("b-usdc", 77)
	require.NoError(t, err)
	require.Equal(t, "b-usdc", pool.Token)
	require.Equal(t, int64(77), pool.LastUpdateTime)
	require.Equal(t, sdkmath.NewInt(types.DefaultRewardRatePerDay), pool.RewardRatePerDay)
	require.True(t, pool.TotalStaked.IsZero())

	pool.TotalStaked = sdkmath.NewInt(500)
	require.NoError(t, led.SavePool(pool))

	reloaded, err := led.Pool("b-usdc", 99)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), reloaded.TotalStaked)
	require.Equal(t, int64(77), reloaded.LastUpdateTime)
}

func TestRewardReserveDefaultsToZero(t *testing.T) {
	led := New(NewMemoryStore())

	reserve, err := led.RewardReserve("usdc")
	require.NoError(t, err)
	require.True(t, reserve.IsZero())

	require.NoError(t, led.SetRewardReserve("usdc", sdkmath.NewInt(250)))
	reserve, err = led.RewardReserve("usdc")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(250), reserve)
}

func TestMetaAndAdminPriceRoundTrip(t *testing.T) {
	led := New(NewMemoryStore())

	meta, err := led.Meta()
	require.NoError(t, err)
	require.Nil(t, meta)

	require.NoError(t, led.SaveMeta(&types.HubMeta{
		Admin:       "GADMIN",
		RewardRate:  sdkmath.NewInt(1000),
		Initialized: true,
	}))
	meta, err = led.Meta()
	require.NoError(t, err)
	require.True(t, meta.Initialized)
	require.Equal(t, "GADMIN", meta.Admin)

	price, err := led.AdminPrice("usdc")
	require.NoError(t, err)
	require.Nil(t, price)

	require.NoError(t, led.SetAdminPrice("usdc", &types.AdminPrice{Price: sdkmath.NewInt(990_000), SetAt: 42}))
	price, err = led.AdminPrice("usdc")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(990_000), price.Price)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewMemoryStore()
	led := New(store)
	require.NoError(t, led.AddSupplied(testUser, "usdc", sdkmath.NewInt(100), 1))

	pos, err := led.Position(testUser, 2)
	require.NoError(t, err)
	pos.Supplied["usdc"] = sdkmath.NewInt(999_999)

	// Mutating the returned copy must not leak into the store.
	fresh, err := led.Position(testUser, 3)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), fresh.SuppliedAmount("usdc"))
}
