package types

import "errors"

// Error kinds shared across the hub. Validation failures abort the enclosing
// operation with no partial state change; price-source failures are absorbed
// by the aggregator and only surface as ErrPriceUnavailable when every source
// is absent. There is no retry anywhere in this core.
var (
	ErrOracleFailure          = errors.New("oracle failure")
	ErrInsufficientLiquidity  = errors.New("insufficient liquidity")
	ErrAssetNotSupported      = errors.New("asset not supported")
	ErrPriceStale             = errors.New("price stale")
	ErrPriceUnavailable       = errors.New("price unavailable")
	ErrPoolNotFound           = errors.New("pool not found")
	ErrInsufficientCollateral = errors.New("insufficient collateral")
	ErrSwapFailed             = errors.New("swap failed")
	ErrDeadlineExpired        = errors.New("transaction deadline expired")
	ErrUnauthorized           = errors.New("caller is not authorized")
	ErrAlreadyInitialized     = errors.New("hub already initialized")
	ErrNotInitialized         = errors.New("hub not initialized")
	ErrInvalidAmount          = errors.New("amount must be positive")
)
