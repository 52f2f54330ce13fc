// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS user_positions (
			user_address TEXT PRIMARY KEY,
			supplied_assets JSONB NOT NULL DEFAULT '{}',
			borrowed_assets JSONB NOT NULL DEFAULT '{}',
			staked_lp_tokens JSONB NOT NULL DEFAULT '{}',
			rewards_earned NUMERIC(40, 0) NOT NULL DEFAULT 0,
			last_reward_update BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS staking_pools (
			token TEXT PRIMARY KEY,
			total_staked NUMERIC(40, 0) NOT NULL DEFAULT 0,
			reward_rate_per_day NUMERIC(40, 0) NOT NULL,
			last_update_time BIGINT NOT NULL,
			reward_per_token_stored NUMERIC(40, 0) NOT NULL DEFAULT 0,
			total_rewards_distributed NUMERIC(40, 0) NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS reward_reserves (
			token TEXT PRIMARY KEY,
			amount NUMERIC(40, 0) NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS admin_prices (
			asset TEXT PRIMARY KEY,
			price NUMERIC(40, 0) NOT NULL,
			set_at BIGINT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS hub_meta (
			id INTEGER PRIMARY KEY DEFAULT 1,
			admin_address TEXT NOT NULL,
			reward_rate NUMERIC(40, 0) NOT NULL,
			reward_start BIGINT NOT NULL,
			oracle_max_age BIGINT NOT NULL,
			oracle_precision NUMERIC(40, 0) NOT NULL,
			initialized BOOLEAN NOT NULL DEFAULT FALSE,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		CREATE TABLE IF NOT EXISTS asset_configs (
			slot INTEGER PRIMARY KEY,
			address TEXT NOT NULL,
			symbol TEXT NOT NULL,
			decimals INTEGER NOT NULL,
			collateral_factor_bps BIGINT NOT NULL,
			is_collateral BOOLEAN NOT NULL,
			oracle_symbol TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_asset_configs_address ON asset_configs(address);

		CREATE TABLE IF NOT EXISTS hub_events (
			event_id UUID PRIMARY KEY,
			event_type TEXT NOT NULL,
			user_address TEXT NOT NULL,
			attributes JSONB,
			event_timestamp BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_hub_events_timestamp ON hub_events(event_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_hub_events_user ON hub_events(user_address);
		CREATE INDEX IF NOT EXISTS idx_hub_events_type ON hub_events(event_type);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
