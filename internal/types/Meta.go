/*

This file contains the hub's singleton state: the admin address, oracle
configuration, and the global staking reward base rate. All global mutable
state lives in this one explicit struct, guarded by an already-initialized
flag.

*/

package types

import sdkmath "cosmossdk.io/math"

// HubMeta is the one-row global state written by initialize and mutated only
// by admin operations.
type HubMeta struct {
	Admin           string      `json:"admin"`
	RewardRate      sdkmath.Int `json:"reward_rate"`      // base rate per million staked tokens per day
	RewardStart     int64       `json:"reward_start"`     // Unix seconds
	OracleMaxAge    int64       `json:"oracle_max_age"`   // seconds
	OraclePrecision sdkmath.Int `json:"oracle_precision"` // 10^8, the oracle's native scale
	Initialized     bool        `json:"initialized"`
}
