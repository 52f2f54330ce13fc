/*

This file contains an in-process simulation of every external collaborator:
token balances, blend pools, AMM quotes, and the price oracle. cmd/hub wires
it in when no live network services are configured, so the full operation
surface can be exercised end to end on a laptop.

*/

package external

import (
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/stellarhub/defihub/internal/types"
)

// simulatedDexLiquidity is the liquidity reported for every simulated pair,
// deep enough to pass the aggregator's minimum-liquidity gate.
var simulatedDexLiquidity = sdkmath.NewInt(100_000_000_000)

// SimulatedExchange backs the token, lending, AMM, and oracle interfaces
// with in-memory state. Safe for concurrent use.
type SimulatedExchange struct {
	mu       sync.Mutex
	assets   map[string]types.AssetConfig // by address
	balances map[string]map[string]sdkmath.Int
	prices   map[string]sdkmath.Int // oracle symbol -> 8-decimal USD price
	pools    map[string]string      // asset address -> pool ID
}

// NewSimulatedExchange seeds the simulation with the given asset configs.
// Oracle prices start empty; call SetOraclePrice per asset.
func NewSimulatedExchange(assets []types.AssetConfig) *SimulatedExchange {
	byAddress := make(map[string]types.AssetConfig, len(assets))
	for _, cfg := range assets {
		byAddress[cfg.Address] = cfg
	}
	return &SimulatedExchange{
		assets:   byAddress,
		balances: make(map[string]map[string]sdkmath.Int),
		prices:   make(map[string]sdkmath.Int),
		pools:    make(map[string]string),
	}
}

// SetOraclePrice sets the simulated oracle observation for a symbol, in the
// oracle's 8-decimal precision.
func (s *SimulatedExchange) SetOraclePrice(symbol string, price sdkmath.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// Mint credits an account out of thin air. Simulation setup only.
func (s *SimulatedExchange) Mint(token, account string, amount sdkmath.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credit(token, account, amount)
}

// BalanceOf reads a simulated balance.
func (s *SimulatedExchange) BalanceOf(token, account string) sdkmath.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if holders, ok := s.balances[token]; ok {
		if bal, ok := holders[account]; ok {
			return bal
		}
	}
	return sdkmath.ZeroInt()
}

// TransferFrom implements TokenService.
func (s *SimulatedExchange) TransferFrom(token, from, to string, amount sdkmath.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(token, from, to, amount)
}

// Transfer implements TokenService. The sender is implicit: simulated hub
// custody holds whatever was pulled in or minted by pools.
func (s *SimulatedExchange) Transfer(token, to string, amount sdkmath.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credit(token, to, amount)
	return nil
}

// GetPool implements LendingService.
func (s *SimulatedExchange) GetPool(asset string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.pools[asset]
	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrPoolNotFound, asset)
	}
	return pool, nil
}

// CreatePool implements LendingService.
func (s *SimulatedExchange) CreatePool(asset string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool := "sim-pool-" + asset
	s.pools[asset] = pool
	return pool, nil
}

// GetReserveToken implements LendingService. The simulated bToken address is
// derived from the pool.
func (s *SimulatedExchange) GetReserveToken(pool, asset string) (string, error) {
	return "b-" + asset, nil
}

// Supply implements LendingService. The simulation mints bTokens 1:1.
func (s *SimulatedExchange) Supply(pool, asset string, amount sdkmath.Int) (sdkmath.Int, error) {
	return amount, nil
}

// Borrow implements LendingService. The simulated pool has unlimited depth;
// solvency is the caller's problem.
func (s *SimulatedExchange) Borrow(pool, asset string, amount sdkmath.Int) error {
	return nil
}

// SwapExactIn implements AMMRouter using the oracle price table.
func (s *SimulatedExchange) SwapExactIn(amountIn, minOut sdkmath.Int, tokenIn, tokenOut, recipient string, deadline int64) (sdkmath.Int, error) {
	if time.Now().Unix() > deadline {
		return sdkmath.ZeroInt(), fmt.Errorf("simulated swap deadline expired")
	}
	quote, err := s.Quote(amountIn, tokenIn, tokenOut)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !minOut.IsNil() && quote.AmountOut.LT(minOut) {
		return sdkmath.ZeroInt(), fmt.Errorf("simulated swap output %s below minimum %s", quote.AmountOut, minOut)
	}
	s.mu.Lock()
	s.credit(tokenOut, recipient, quote.AmountOut)
	s.mu.Unlock()
	return quote.AmountOut, nil
}

// Quote implements AMMRouter. Output is priced off the oracle table with no
// slippage: amountIn * priceIn * 10^decOut / (priceOut * 10^decIn).
func (s *SimulatedExchange) Quote(amountIn sdkmath.Int, tokenIn, tokenOut string) (types.DexQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfgIn, ok := s.assets[tokenIn]
	if !ok {
		return types.DexQuote{}, fmt.Errorf("simulated AMM has no pair for %s", tokenIn)
	}
	cfgOut, ok := s.assets[tokenOut]
	if !ok {
		return types.DexQuote{}, fmt.Errorf("simulated AMM has no pair for %s", tokenOut)
	}
	priceIn, ok := s.prices[cfgIn.OracleSymbol]
	if !ok || !priceIn.IsPositive() {
		return types.DexQuote{}, fmt.Errorf("simulated AMM has no price for %s", cfgIn.Symbol)
	}
	priceOut, ok := s.prices[cfgOut.OracleSymbol]
	if !ok || !priceOut.IsPositive() {
		return types.DexQuote{}, fmt.Errorf("simulated AMM has no price for %s", cfgOut.Symbol)
	}

	amountOut := amountIn.Mul(priceIn).Mul(cfgOut.PricePrecision()).
		Quo(priceOut.Mul(cfgIn.PricePrecision()))
	return types.DexQuote{AmountOut: amountOut, Liquidity: simulatedDexLiquidity}, nil
}

// GetValue implements OracleService. Observations are always fresh.
func (s *SimulatedExchange) GetValue(symbol string) (types.OraclePrice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.prices[symbol]
	if !ok {
		return types.OraclePrice{}, fmt.Errorf("simulated oracle has no feed for %s", symbol)
	}
	return types.OraclePrice{Price: price, Timestamp: time.Now().Unix()}, nil
}

// credit adds to a balance. Caller holds the lock.
func (s *SimulatedExchange) credit(token, account string, amount sdkmath.Int) {
	holders, ok := s.balances[token]
	if !ok {
		holders = make(map[string]sdkmath.Int)
		s.balances[token] = holders
	}
	bal, ok := holders[account]
	if !ok {
		bal = sdkmath.ZeroInt()
	}
	holders[account] = bal.Add(amount)
}

// move debits from and credits to, failing on insufficient balance. Caller
// holds the lock.
func (s *SimulatedExchange) move(token, from, to string, amount sdkmath.Int) error {
	holders := s.balances[token]
	bal, ok := holders[from]
	if !ok {
		bal = sdkmath.ZeroInt()
	}
	if bal.LT(amount) {
		return fmt.Errorf("insufficient simulated balance: %s has %s of %s, needs %s",
			from, bal, token, amount)
	}
	holders[from] = bal.Sub(amount)
	s.credit(token, to, amount)
	return nil
}

// AllowAllAuthenticator accepts every caller. Simulation and test use only;
// a live deployment substitutes signature verification here.
type AllowAllAuthenticator struct{}

func (AllowAllAuthenticator) RequireAuth(address string) error {
	if address == "" {
		return types.ErrUnauthorized
	}
	return nil
}
