/*

This file contains the hub engine: the public operations that tie the
registry, price aggregator, ledger, staking engine, and reward distribution
together. Every mutating operation follows the same shape: authenticate the
caller first, validate inputs against the registry, invoke external
collaborators to move value, update the ledger, and emit an event.

Each operation runs to completion as one atomic unit; any collaborator or
store failure aborts the whole operation and the host rolls back prior
writes from the same invocation.

*/

package hub

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/stellarhub/defihub/internal/external"
	"github.com/stellarhub/defihub/internal/ledger"
	"github.com/stellarhub/defihub/internal/logger"
	"github.com/stellarhub/defihub/internal/pricing"
	"github.com/stellarhub/defihub/internal/registry"
	"github.com/stellarhub/defihub/internal/rewards"
	"github.com/stellarhub/defihub/internal/risk"
	"github.com/stellarhub/defihub/internal/staking"
	"github.com/stellarhub/defihub/internal/types"
)

// swapDeadlineSlack is the deadline, in seconds past now, forwarded to the
// AMM router for the actual swap leg.
const swapDeadlineSlack = 300

// Config carries the hub's injected dependencies.
type Config struct {
	Registry *registry.Registry
	Ledger   *ledger.Ledger
	Tokens   external.TokenService
	Lending  external.LendingService
	AMM      external.AMMRouter
	Oracle   external.OracleService
	Auth     external.Authenticator
	Clock    external.Clock
	Emitter  Emitter

	// Address is the hub's own custody address, the intermediate holder
	// for swap inputs and staked bTokens.
	Address string
}

// Hub exposes the settlement operations.
type Hub struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
	pricing  *pricing.Aggregator
	risk     *risk.Calculator
	staking  *staking.Engine
	rewards  *rewards.Engine
	tokens   external.TokenService
	lending  external.LendingService
	amm      external.AMMRouter
	auth     external.Authenticator
	clock    external.Clock
	emitter  Emitter
	address  string
	log      zerolog.Logger
}

// New assembles the hub and its component engines from the injected
// collaborators.
func New(cfg Config) (*Hub, error) {
	switch {
	case cfg.Registry == nil:
		return nil, fmt.Errorf("hub requires a registry")
	case cfg.Ledger == nil:
		return nil, fmt.Errorf("hub requires a ledger")
	case cfg.Tokens == nil:
		return nil, fmt.Errorf("hub requires a token service")
	case cfg.Lending == nil:
		return nil, fmt.Errorf("hub requires a lending service")
	case cfg.AMM == nil:
		return nil, fmt.Errorf("hub requires an AMM router")
	case cfg.Auth == nil:
		return nil, fmt.Errorf("hub requires an authenticator")
	case cfg.Clock == nil:
		return nil, fmt.Errorf("hub requires a clock")
	case cfg.Address == "":
		return nil, fmt.Errorf("hub requires a custody address")
	}

	emitter := cfg.Emitter
	if emitter == nil {
		emitter = NewLogEmitter()
	}

	aggregator := pricing.New(cfg.Registry, cfg.Ledger, cfg.Oracle, cfg.AMM, cfg.Clock)
	h := &Hub{
		registry: cfg.Registry,
		ledger:   cfg.Ledger,
		pricing:  aggregator,
		risk:     risk.New(cfg.Registry, aggregator, cfg.Ledger),
		staking:  staking.New(cfg.Ledger, cfg.Clock),
		rewards:  rewards.New(cfg.Ledger, cfg.Registry, cfg.Tokens, cfg.Clock),
		tokens:   cfg.Tokens,
		lending:  cfg.Lending,
		amm:      cfg.AMM,
		auth:     cfg.Auth,
		clock:    cfg.Clock,
		emitter:  emitter,
		address:  cfg.Address,
		log:      logger.GetForComponent("hub"),
	}
	return h, nil
}

// Initialize writes the hub's singleton state and persists the registry.
// It can run exactly once.
func (h *Hub) Initialize(admin string) error {
	if err := h.auth.RequireAuth(admin); err != nil {
		return err
	}
	meta, err := h.ledger.Meta()
	if err != nil {
		return err
	}
	if meta != nil && meta.Initialized {
		return types.ErrAlreadyInitialized
	}

	now := h.clock.Now().Unix()
	meta = &types.HubMeta{
		Admin:           admin,
		RewardRate:      sdkmath.NewInt(types.DefaultRewardRatePerDay),
		RewardStart:     now,
		OracleMaxAge:    pricing.DefaultOracleMaxAge,
		OraclePrecision: sdkmath.NewInt(100_000_000), // oracle reports 8 decimals
		Initialized:     true,
	}
	if err := h.ledger.SaveMeta(meta); err != nil {
		return err
	}
	if err := h.ledger.SaveAssetConfigs(h.registry.All()); err != nil {
		return err
	}

	h.log.Info().Str("admin", admin).Msg("hub initialized")
	return h.emitter.Emit(newEvent(types.EventInitialized, admin, now, map[string]string{
		"admin": admin,
	}))
}

// SwapTokens swaps amountIn of tokenA for tokenB through the AMM, withholding
// the protocol fee from the input before execution. Returns the output amount.
func (h *Hub) SwapTokens(user, tokenA, tokenB string, amountIn, minOut sdkmath.Int, deadline int64) (sdkmath.Int, error) {
	if err := h.auth.RequireAuth(user); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if _, err := h.requireInitialized(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return sdkmath.ZeroInt(), types.ErrInvalidAmount
	}
	if !h.registry.IsSupported(tokenA) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s", types.ErrAssetNotSupported, tokenA)
	}
	if !h.registry.IsSupported(tokenB) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s", types.ErrAssetNotSupported, tokenB)
	}
	now := h.clock.Now().Unix()
	if now > deadline {
		return sdkmath.ZeroInt(), types.ErrDeadlineExpired
	}

	fee := rewards.FeeAmount(amountIn)
	swapAmount := amountIn.Sub(fee)

	if err := h.tokens.TransferFrom(tokenA, user, h.address, amountIn); err != nil {
		return sdkmath.ZeroInt(), err
	}
	amountOut, err := h.amm.SwapExactIn(swapAmount, minOut, tokenA, tokenB, h.address, now+swapDeadlineSlack)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", types.ErrSwapFailed, err)
	}
	if err := h.rewards.AddFee(tokenA, fee); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := h.tokens.Transfer(tokenB, user, amountOut); err != nil {
		return sdkmath.ZeroInt(), err
	}

	err = h.emitter.Emit(newEvent(types.EventSwap, user, now, map[string]string{
		"token_a":    tokenA,
		"token_b":    tokenB,
		"amount_in":  amountIn.String(),
		"amount_out": amountOut.String(),
		"fee":        fee.String(),
	}))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return amountOut, nil
}

// SupplyToBlend deposits the asset into its lending pool, credits the user's
// supplied balance, and forwards the minted bTokens to the user. Returns the
// pool's reserve token address.
func (h *Hub) SupplyToBlend(user, asset string, amount sdkmath.Int) (string, error) {
	if err := h.auth.RequireAuth(user); err != nil {
		return "", err
	}
	if _, err := h.requireInitialized(); err != nil {
		return "", err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return "", types.ErrInvalidAmount
	}
	if !h.registry.IsSupported(asset) {
		return "", fmt.Errorf("%w: %s", types.ErrAssetNotSupported, asset)
	}

	pool, err := h.getOrCreateBlendPool(asset)
	if err != nil {
		return "", err
	}
	if err := h.tokens.TransferFrom(asset, user, h.address, amount); err != nil {
		return "", err
	}
	btokens, err := h.lending.Supply(pool.PoolID, asset, amount)
	if err != nil {
		return "", err
	}
	now := h.clock.Now().Unix()
	if err := h.ledger.AddSupplied(user, asset, amount, now); err != nil {
		return "", err
	}
	if err := h.tokens.Transfer(pool.ReserveToken, user, btokens); err != nil {
		return "", err
	}

	err = h.emitter.Emit(newEvent(types.EventSupply, user, now, map[string]string{
		"asset":   asset,
		"amount":  amount.String(),
		"btokens": btokens.String(),
	}))
	if err != nil {
		return "", err
	}
	return pool.ReserveToken, nil
}

// BorrowFromBlend draws the asset from its lending pool after checking that
// the borrow keeps the user's health factor at or above 120%. The check runs
// before the lending collaborator is invoked and before any ledger write.
func (h *Hub) BorrowFromBlend(user, asset string, amount sdkmath.Int) error {
	if err := h.auth.RequireAuth(user); err != nil {
		return err
	}
	if _, err := h.requireInitialized(); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount
	}
	if !h.registry.IsSupported(asset) {
		return fmt.Errorf("%w: %s", types.ErrAssetNotSupported, asset)
	}

	now := h.clock.Now().Unix()
	healthFactor, err := h.risk.HealthFactor(user, &risk.Borrow{Asset: asset, Amount: amount}, now)
	if err != nil {
		return err
	}
	if healthFactor.LT(sdkmath.NewInt(risk.MinBorrowHealthFactor)) {
		return fmt.Errorf("%w: health factor %s below %d", types.ErrInsufficientCollateral, healthFactor, risk.MinBorrowHealthFactor)
	}

	pool, err := h.getOrCreateBlendPool(asset)
	if err != nil {
		return err
	}
	if err := h.lending.Borrow(pool.PoolID, asset, amount); err != nil {
		return err
	}
	if err := h.ledger.AddBorrowed(user, asset, amount, now); err != nil {
		return err
	}
	if err := h.tokens.Transfer(asset, user, amount); err != nil {
		return err
	}

	return h.emitter.Emit(newEvent(types.EventBorrow, user, now, map[string]string{
		"asset":         asset,
		"amount":        amount.String(),
		"health_factor": healthFactor.String(),
	}))
}

// StakeBTokens locks bTokens with the hub to earn protocol fees. User
// rewards are settled before the stake changes.
func (h *Hub) StakeBTokens(user, btoken string, amount sdkmath.Int) error {
	if err := h.auth.RequireAuth(user); err != nil {
		return err
	}
	if _, err := h.requireInitialized(); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount
	}

	if err := h.tokens.TransferFrom(btoken, user, h.address, amount); err != nil {
		return err
	}
	if err := h.staking.SettleUser(user, btoken); err != nil {
		return err
	}
	now := h.clock.Now().Unix()
	if err := h.ledger.AddStaked(user, btoken, amount, now); err != nil {
		return err
	}
	if err := h.staking.UpdatePool(btoken, amount, true); err != nil {
		return err
	}

	return h.emitter.Emit(newEvent(types.EventStake, user, now, map[string]string{
		"btoken": btoken,
		"amount": amount.String(),
	}))
}

// UnstakeAndClaim releases staked bTokens and pays accrued rewards out of
// the reference-asset reserve. Returns the amount actually paid, which
// saturates at the reserve balance.
func (h *Hub) UnstakeAndClaim(user, btoken string, amount sdkmath.Int) (sdkmath.Int, error) {
	if err := h.auth.RequireAuth(user); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if _, err := h.requireInitialized(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if amount.IsNil() || amount.IsNegative() {
		return sdkmath.ZeroInt(), types.ErrInvalidAmount
	}

	if err := h.staking.SettleUser(user, btoken); err != nil {
		return sdkmath.ZeroInt(), err
	}
	now := h.clock.Now().Unix()
	pos, err := h.ledger.Position(user, now)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	claimable := pos.RewardsEarned

	if err := h.ledger.SubStakedSaturating(user, btoken, amount, now); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := h.staking.UpdatePool(btoken, amount, false); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if amount.IsPositive() {
		if err := h.tokens.Transfer(btoken, user, amount); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}

	paid := sdkmath.ZeroInt()
	if claimable.IsPositive() {
		paid, err = h.rewards.Distribute(user, claimable)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
	}

	err = h.emitter.Emit(newEvent(types.EventUnstake, user, now, map[string]string{
		"btoken":    btoken,
		"amount":    amount.String(),
		"claimable": claimable.String(),
		"paid":      paid.String(),
	}))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return paid, nil
}

// GetUserPosition returns the user's position snapshot, defaulting lazily.
func (h *Hub) GetUserPosition(user string) (*types.UserPosition, error) {
	return h.ledger.Position(user, h.clock.Now().Unix())
}

// CalculateHealthFactor returns the user's solvency ratio scaled by one
// million. The hypothetical borrow may be nil.
func (h *Hub) CalculateHealthFactor(user string, hypothetical *risk.Borrow) (sdkmath.Int, error) {
	return h.risk.HealthFactor(user, hypothetical, h.clock.Now().Unix())
}

// GetAssetPrice returns the aggregated price for the asset, failing with
// ErrPriceUnavailable when no source answers.
func (h *Hub) GetAssetPrice(asset string) (sdkmath.Int, error) {
	return h.pricing.PriceOf(asset)
}

// GetPriceSources returns every live candidate observation for the asset.
func (h *Hub) GetPriceSources(asset string) ([]types.PriceSource, error) {
	return h.pricing.Sources(asset)
}

// GetSupportedAssets returns the registered asset configs.
func (h *Hub) GetSupportedAssets() []types.AssetConfig {
	return h.registry.All()
}

// GetStakingPool returns the staking pool snapshot for the token.
func (h *Hub) GetStakingPool(btoken string) (*types.StakingPool, error) {
	return h.staking.Pool(btoken)
}

// UpdateRewardRate sets the global staking base rate. Admin only.
func (h *Hub) UpdateRewardRate(caller string, rate sdkmath.Int) error {
	if err := h.auth.RequireAuth(caller); err != nil {
		return err
	}
	meta, err := h.requireInitialized()
	if err != nil {
		return err
	}
	if caller != meta.Admin {
		return types.ErrUnauthorized
	}
	if rate.IsNil() || rate.IsNegative() {
		return types.ErrInvalidAmount
	}

	meta.RewardRate = rate
	if err := h.ledger.SaveMeta(meta); err != nil {
		return err
	}

	now := h.clock.Now().Unix()
	return h.emitter.Emit(newEvent(types.EventRateUpdate, caller, now, map[string]string{
		"rate": rate.String(),
	}))
}

// SetEmergencyPrice stores a manual price for the asset, valid for one day.
// Admin only.
func (h *Hub) SetEmergencyPrice(caller, asset string, price sdkmath.Int) error {
	if err := h.auth.RequireAuth(caller); err != nil {
		return err
	}
	meta, err := h.requireInitialized()
	if err != nil {
		return err
	}
	if caller != meta.Admin {
		return types.ErrUnauthorized
	}
	if !h.registry.IsSupported(asset) {
		return fmt.Errorf("%w: %s", types.ErrAssetNotSupported, asset)
	}
	if price.IsNil() || !price.IsPositive() {
		return types.ErrInvalidAmount
	}

	now := h.clock.Now().Unix()
	if err := h.ledger.SetAdminPrice(asset, &types.AdminPrice{Price: price, SetAt: now}); err != nil {
		return err
	}

	return h.emitter.Emit(newEvent(types.EventEmergencyPrice, caller, now, map[string]string{
		"asset": asset,
		"price": price.String(),
	}))
}

// requireInitialized loads the hub meta and fails when initialize has not run.
func (h *Hub) requireInitialized() (*types.HubMeta, error) {
	meta, err := h.ledger.Meta()
	if err != nil {
		return nil, err
	}
	if meta == nil || !meta.Initialized {
		return nil, types.ErrNotInitialized
	}
	return meta, nil
}

// getOrCreateBlendPool resolves the lending pool handle for the asset,
// creating the pool when the lending service does not know it yet.
func (h *Hub) getOrCreateBlendPool(asset string) (*types.BlendPool, error) {
	poolID, err := h.lending.GetPool(asset)
	if err != nil {
		if !errors.Is(err, types.ErrPoolNotFound) {
			return nil, err
		}
		poolID, err = h.lending.CreatePool(asset)
		if err != nil {
			return nil, err
		}
	}
	reserveToken, err := h.lending.GetReserveToken(poolID, asset)
	if err != nil {
		return nil, err
	}
	return &types.BlendPool{
		PoolID:          poolID,
		UnderlyingAsset: asset,
		ReserveToken:    reserveToken,
	}, nil
}
