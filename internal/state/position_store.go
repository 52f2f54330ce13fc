/*

This file contains the PostgreSQL implementation of the ledger's Store
interface. Amounts travel as NUMERIC(40,0) strings and the per-asset balance
maps as JSONB; sdkmath.Int marshals to JSON strings, so the maps round-trip
without precision loss.

*/

package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stellarhub/defihub/internal/types"
)

// PostgresStore implements ledger.Store on the shared connection pool.
type PostgresStore struct{}

// NewPostgresStore returns a store bound to the global DB. InitDB and
// EnsureSchema must have run first.
func NewPostgresStore() (*PostgresStore, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return &PostgresStore{}, nil
}

func parseAmount(raw string) (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("invalid stored amount %q", raw)
	}
	return amount, nil
}

func unmarshalAmounts(raw []byte) (map[string]sdkmath.Int, error) {
	amounts := make(map[string]sdkmath.Int)
	if len(raw) == 0 {
		return amounts, nil
	}
	if err := json.Unmarshal(raw, &amounts); err != nil {
		return nil, fmt.Errorf("unmarshal amount map: %w", err)
	}
	return amounts, nil
}

func (s *PostgresStore) GetPosition(user string) (*types.UserPosition, error) {
	row := DB.QueryRow(`
		SELECT supplied_assets, borrowed_assets, staked_lp_tokens,
		       rewards_earned::TEXT, last_reward_update
		FROM user_positions WHERE user_address = $1`, user)

	var supplied, borrowed, staked []byte
	var rewards string
	var lastUpdate int64
	if err := row.Scan(&supplied, &borrowed, &staked, &rewards, &lastUpdate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query position: %w", err)
	}

	pos := &types.UserPosition{User: user, LastRewardUpdate: lastUpdate}
	var err error
	if pos.Supplied, err = unmarshalAmounts(supplied); err != nil {
		return nil, err
	}
	if pos.Borrowed, err = unmarshalAmounts(borrowed); err != nil {
		return nil, err
	}
	if pos.Staked, err = unmarshalAmounts(staked); err != nil {
		return nil, err
	}
	if pos.RewardsEarned, err = parseAmount(rewards); err != nil {
		return nil, err
	}
	return pos, nil
}

func (s *PostgresStore) PutPosition(pos *types.UserPosition) error {
	supplied, err := json.Marshal(pos.Supplied)
	if err != nil {
		return fmt.Errorf("marshal supplied assets: %w", err)
	}
	borrowed, err := json.Marshal(pos.Borrowed)
	if err != nil {
		return fmt.Errorf("marshal borrowed assets: %w", err)
	}
	staked, err := json.Marshal(pos.Staked)
	if err != nil {
		return fmt.Errorf("marshal staked tokens: %w", err)
	}

	_, err = DB.Exec(`
		INSERT INTO user_positions
			(user_address, supplied_assets, borrowed_assets, staked_lp_tokens,
			 rewards_earned, last_reward_update, updated_at)
		VALUES ($1, $2, $3, $4, $5::NUMERIC, $6, CURRENT_TIMESTAMP)
		ON CONFLICT (user_address) DO UPDATE SET
			supplied_assets = EXCLUDED.supplied_assets,
			borrowed_assets = EXCLUDED.borrowed_assets,
			staked_lp_tokens = EXCLUDED.staked_lp_tokens,
			rewards_earned = EXCLUDED.rewards_earned,
			last_reward_update = EXCLUDED.last_reward_update,
			updated_at = CURRENT_TIMESTAMP`,
		pos.User, supplied, borrowed, staked, pos.RewardsEarned.String(), pos.LastRewardUpdate)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetStakingPool(token string) (*types.StakingPool, error) {
	row := DB.QueryRow(`
		SELECT total_staked::TEXT, reward_rate_per_day::TEXT, last_update_time,
		       reward_per_token_stored::TEXT, total_rewards_distributed::TEXT
		FROM staking_pools WHERE token = $1`, token)

	var totalStaked, rate, perToken, distributed string
	var lastUpdate int64
	if err := row.Scan(&totalStaked, &rate, &lastUpdate, &perToken, &distributed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query staking pool: %w", err)
	}

	pool := &types.StakingPool{Token: token, LastUpdateTime: lastUpdate}
	var err error
	if pool.TotalStaked, err = parseAmount(totalStaked); err != nil {
		return nil, err
	}
	if pool.RewardRatePerDay, err = parseAmount(rate); err != nil {
		return nil, err
	}
	if pool.RewardPerTokenStored, err = parseAmount(perToken); err != nil {
		return nil, err
	}
	if pool.TotalRewardsDistributed, err = parseAmount(distributed); err != nil {
		return nil, err
	}
	return pool, nil
}

func (s *PostgresStore) PutStakingPool(pool *types.StakingPool) error {
	_, err := DB.Exec(`
		INSERT INTO staking_pools
			(token, total_staked, reward_rate_per_day, last_update_time,
			 reward_per_token_stored, total_rewards_distributed)
		VALUES ($1, $2::NUMERIC, $3::NUMERIC, $4, $5::NUMERIC, $6::NUMERIC)
		ON CONFLICT (token) DO UPDATE SET
			total_staked = EXCLUDED.total_staked,
			reward_rate_per_day = EXCLUDED.reward_rate_per_day,
			last_update_time = EXCLUDED.last_update_time,
			reward_per_token_stored = EXCLUDED.reward_per_token_stored,
			total_rewards_distributed = EXCLUDED.total_rewards_distributed`,
		pool.Token, pool.TotalStaked.String(), pool.RewardRatePerDay.String(),
		pool.LastUpdateTime, pool.RewardPerTokenStored.String(),
		pool.TotalRewardsDistributed.String())
	if err != nil {
		return fmt.Errorf("upsert staking pool: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRewardReserve(token string) (sdkmath.Int, error) {
	row := DB.QueryRow(`SELECT amount::TEXT FROM reward_reserves WHERE token = $1`, token)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sdkmath.ZeroInt(), nil
		}
		return sdkmath.ZeroInt(), fmt.Errorf("query reward reserve: %w", err)
	}
	return parseAmount(raw)
}

func (s *PostgresStore) PutRewardReserve(token string, amount sdkmath.Int) error {
	_, err := DB.Exec(`
		INSERT INTO reward_reserves (token, amount)
		VALUES ($1, $2::NUMERIC)
		ON CONFLICT (token) DO UPDATE SET amount = EXCLUDED.amount`,
		token, amount.String())
	if err != nil {
		return fmt.Errorf("upsert reward reserve: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAdminPrice(asset string) (*types.AdminPrice, error) {
	row := DB.QueryRow(`SELECT price::TEXT, set_at FROM admin_prices WHERE asset = $1`, asset)
	var raw string
	var setAt int64
	if err := row.Scan(&raw, &setAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query admin price: %w", err)
	}
	price, err := parseAmount(raw)
	if err != nil {
		return nil, err
	}
	return &types.AdminPrice{Price: price, SetAt: setAt}, nil
}

func (s *PostgresStore) PutAdminPrice(asset string, price *types.AdminPrice) error {
	_, err := DB.Exec(`
		INSERT INTO admin_prices (asset, price, set_at)
		VALUES ($1, $2::NUMERIC, $3)
		ON CONFLICT (asset) DO UPDATE SET
			price = EXCLUDED.price,
			set_at = EXCLUDED.set_at`,
		asset, price.Price.String(), price.SetAt)
	if err != nil {
		return fmt.Errorf("upsert admin price: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMeta() (*types.HubMeta, error) {
	row := DB.QueryRow(`
		SELECT admin_address, reward_rate::TEXT, reward_start,
		       oracle_max_age, oracle_precision::TEXT, initialized
		FROM hub_meta WHERE id = 1`)

	meta := &types.HubMeta{}
	var rate, precision string
	err := row.Scan(&meta.Admin, &rate, &meta.RewardStart, &meta.OracleMaxAge, &precision, &meta.Initialized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query hub meta: %w", err)
	}
	if meta.RewardRate, err = parseAmount(rate); err != nil {
		return nil, err
	}
	if meta.OraclePrecision, err = parseAmount(precision); err != nil {
		return nil, err
	}
	return meta, nil
}

func (s *PostgresStore) PutMeta(meta *types.HubMeta) error {
	_, err := DB.Exec(`
		INSERT INTO hub_meta
			(id, admin_address, reward_rate, reward_start, oracle_max_age,
			 oracle_precision, initialized)
		VALUES (1, $1, $2::NUMERIC, $3, $4, $5::NUMERIC, $6)
		ON CONFLICT (id) DO UPDATE SET
			admin_address = EXCLUDED.admin_address,
			reward_rate = EXCLUDED.reward_rate,
			reward_start = EXCLUDED.reward_start,
			oracle_max_age = EXCLUDED.oracle_max_age,
			oracle_precision = EXCLUDED.oracle_precision,
			initialized = EXCLUDED.initialized`,
		meta.Admin, meta.RewardRate.String(), meta.RewardStart,
		meta.OracleMaxAge, meta.OraclePrecision.String(), meta.Initialized)
	if err != nil {
		return fmt.Errorf("upsert hub meta: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAssetConfigs() ([]types.AssetConfig, error) {
	rows, err := DB.Query(`
		SELECT address, symbol, decimals, collateral_factor_bps, is_collateral, oracle_symbol
		FROM asset_configs ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("query asset configs: %w", err)
	}
	defer rows.Close()

	var configs []types.AssetConfig
	for rows.Next() {
		var cfg types.AssetConfig
		if err := rows.Scan(&cfg.Address, &cfg.Symbol, &cfg.Decimals,
			&cfg.CollateralFactorBps, &cfg.IsCollateral, &cfg.OracleSymbol); err != nil {
			return nil, fmt.Errorf("scan asset config: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset configs: %w", err)
	}
	return configs, nil
}

func (s *PostgresStore) PutAssetConfigs(configs []types.AssetConfig) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("begin asset config write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM asset_configs`); err != nil {
		return fmt.Errorf("clear asset configs: %w", err)
	}
	for slot, cfg := range configs {
		_, err := tx.Exec(`
			INSERT INTO asset_configs
				(slot, address, symbol, decimals, collateral_factor_bps, is_collateral, oracle_symbol)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			slot, cfg.Address, cfg.Symbol, cfg.Decimals,
			cfg.CollateralFactorBps, cfg.IsCollateral, cfg.OracleSymbol)
		if err != nil {
			return fmt.Errorf("insert asset config %s: %w", cfg.Symbol, err)
		}
	}
	return tx.Commit()
}
