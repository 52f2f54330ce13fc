/*

This file contains the typed interfaces for every external collaborator the
hub invokes. Each one is a Go interface injected into the hub, allowing
live, simulated, and test implementations.

All calls are synchronous. A returned error aborts the enclosing hub
operation; the host's transaction semantics roll back any stored mutations
made earlier in the same invocation.

*/

package external

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/stellarhub/defihub/internal/types"
)

// TokenService moves token balances between accounts. Both methods fail on
// insufficient balance or allowance.
type TokenService interface {
	// TransferFrom pulls amount of token from the user into to.
	TransferFrom(token, from, to string, amount sdkmath.Int) error

	// Transfer sends amount of token held by the hub to the recipient.
	Transfer(token, to string, amount sdkmath.Int) error
}

// LendingService is the external pool factory/service that custodies
// supplied and borrowed principal.
type LendingService interface {
	// GetPool resolves the pool for an asset. Returns types.ErrPoolNotFound
	// when no pool exists yet.
	GetPool(asset string) (string, error)

	// CreatePool creates a pool for the asset and returns its identifier.
	CreatePool(asset string) (string, error)

	// GetReserveToken returns the bToken address minted by the pool.
	GetReserveToken(pool, asset string) (string, error)

	// Supply deposits amount into the pool and returns the bTokens minted.
	Supply(pool, asset string, amount sdkmath.Int) (sdkmath.Int, error)

	// Borrow draws amount of the asset from the pool.
	Borrow(pool, asset string, amount sdkmath.Int) error
}

// AMMRouter is the external automated market maker used for swaps and for
// the DEX price signal.
type AMMRouter interface {
	// SwapExactIn swaps amountIn of tokenIn for at least minOut of tokenOut,
	// sending the output to recipient. Deadline is Unix seconds.
	SwapExactIn(amountIn, minOut sdkmath.Int, tokenIn, tokenOut, recipient string, deadline int64) (sdkmath.Int, error)

	// Quote simulates a swap and reports the output amount plus the pool
	// liquidity backing it.
	Quote(amountIn sdkmath.Int, tokenIn, tokenOut string) (types.DexQuote, error)
}

// OracleService provides the external price signal keyed by oracle symbol.
type OracleService interface {
	// GetValue returns the latest observation for the symbol in the oracle's
	// native 8-decimal precision, or an error when unavailable.
	GetValue(symbol string) (types.OraclePrice, error)
}

// Authenticator verifies caller identity. Every mutating hub operation calls
// RequireAuth before touching any stored state.
type Authenticator interface {
	RequireAuth(address string) error
}

// Clock supplies the invocation timestamp. All elapsed-time math compares
// this value against stored timestamps; nothing in the core sleeps or ticks.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation used by cmd/hub.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
