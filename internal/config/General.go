package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// AdminAddress is the account allowed to run admin operations
	// (updateRewardRate, setEmergencyPrice).
	AdminAddress string

	// HubAddress is the hub's own custody address, the intermediate holder
	// for swap inputs and staked bTokens.
	HubAddress string

	// WebPort is the port for the health/read-only web server.
	WebPort string

	// StoreBackend selects the persistence substrate: "postgres" or "memory".
	StoreBackend string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	AdminAddress, err = getEnv("HUB_ADMIN_ADDRESS")
	if err != nil {
		return err
	}

	HubAddress, err = getEnv("HUB_CUSTODY_ADDRESS")
	if err != nil {
		return err
	}

	WebPort = getEnvWithDefault("WEB_PORT", "8080")
	StoreBackend = getEnvWithDefault("HUB_STORE_BACKEND", "postgres")

	log.Debug().
		Str("AdminAddress", AdminAddress).
		Str("StoreBackend", StoreBackend).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvWithDefault retrieves a string environment variable with a fallback.
func getEnvWithDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetEnvAsInt retrieves an environment variable as an int with a fallback.
func GetEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}
