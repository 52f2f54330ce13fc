/*
This file contains common utility functions for fixed-point integer math,
particularly for rescaling prices between decimal precisions. The execution
environment forbids floating point, so everything stays on sdkmath.Int.
*/

package utils

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
)

// Pow10 returns 10^decimals as an sdkmath.Int. Decimals must be 0-18.
func Pow10(decimals uint32) (sdkmath.Int, error) {
	if decimals > 18 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, decimals)
	}
	result := sdkmath.NewInt(1)
	ten := sdkmath.NewInt(10)
	for i := uint32(0); i < decimals; i++ {
		result = result.Mul(ten)
	}
	return result, nil
}

// RescaleDecimals converts an amount expressed with fromDecimals into the
// equivalent amount with toDecimals, truncating when scaling down.
func RescaleDecimals(amount sdkmath.Int, fromDecimals, toDecimals uint32) (sdkmath.Int, error) {
	if amount.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if amount.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if fromDecimals == toDecimals {
		return amount, nil
	}
	if fromDecimals > toDecimals {
		factor, err := Pow10(fromDecimals - toDecimals)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		return amount.Quo(factor), nil
	}
	factor, err := Pow10(toDecimals - fromDecimals)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return amount.Mul(factor), nil
}

// MinInt returns the smaller of a and b.
func MinInt(a, b sdkmath.Int) sdkmath.Int {
	if a.LT(b) {
		return a
	}
	return b
}

// SaturatingSub returns a-b, floored at zero. The ledger treats any
// subtraction that would go negative as a saturating decrease rather than
// an underflow.
func SaturatingSub(a, b sdkmath.Int) sdkmath.Int {
	if b.GTE(a) {
		return sdkmath.ZeroInt()
	}
	return a.Sub(b)
}
