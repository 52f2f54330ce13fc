package main

import (
	"errors"
	"os"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/stellarhub/defihub/internal/config"
	"github.com/stellarhub/defihub/internal/external"
	"github.com/stellarhub/defihub/internal/hub"
	"github.com/stellarhub/defihub/internal/ledger"
	"github.com/stellarhub/defihub/internal/logger"
	"github.com/stellarhub/defihub/internal/registry"
	"github.com/stellarhub/defihub/internal/state"
	"github.com/stellarhub/defihub/internal/types"
	"github.com/stellarhub/defihub/internal/web"
)

// simulatedOraclePrices seeds the in-process oracle, in 8-decimal USD.
var simulatedOraclePrices = map[string]int64{
	"USDC": 100_000_000,
	"USDT": 100_000_000,
	"XLM":  12_000_000,
	"BTC":  4_300_000_000_000,
	"ETH":  260_000_000_000,
	"AQUA": 5_000_000,
	"VELO": 8_000_000,
	"SHX":  15_000_000,
	"WXT":  3_000_000,
	"RIO":  25_000_000,
}

// main is the entry point for the settlement hub.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("DeFi Hub Settlement Core Starting...")

	// --- 2. Persistence Backend ---
	var store ledger.Store
	var emitter hub.Emitter
	usePostgres := config.StoreBackend == "postgres"

	if usePostgres {
		dbCfg := state.DBConfig{
			Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
			User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
			DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
		}
		if err := state.InitDB(dbCfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}

		pgStore, err := state.NewPostgresStore()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create postgres store")
		}
		eventStore, err := state.NewEventStore()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create event store")
		}
		store = pgStore
		emitter = hub.MultiEmitter{hub.NewLogEmitter(), eventStore}
	} else {
		log.Warn().Msg("Running with the in-memory store. All state is lost on shutdown.")
		store = ledger.NewMemoryStore()
		emitter = hub.NewLogEmitter()
	}

	// --- 3. Asset Registry and Ledger ---
	led := ledger.New(store)

	// A previously initialized hub rebuilds its registry from the persisted
	// configs; a fresh one starts from the default table.
	assetConfigs, err := led.AssetConfigs()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load persisted asset configs")
	}
	if len(assetConfigs) == 0 {
		assetConfigs = registry.DefaultAssets
	}
	reg, err := registry.New(assetConfigs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build asset registry")
	}

	// --- 4. External Collaborators (Simulated) ---
	// Live token/lending/AMM/oracle adapters plug in here; until they exist,
	// every deployment runs against the in-process simulation.
	sim := external.NewSimulatedExchange(reg.All())
	for symbol, price := range simulatedOraclePrices {
		sim.SetOraclePrice(symbol, sdkmath.NewInt(price))
	}

	// --- 5. Create Hub Instance with Dependency Injection ---
	log.Info().Msg("Creating hub instance with dependency injection...")

	hubConfig := hub.Config{
		Registry: reg,
		Ledger:   led,
		Tokens:   sim,
		Lending:  sim,
		AMM:      sim,
		Oracle:   sim,
		Auth:     external.AllowAllAuthenticator{},
		Clock:    external.SystemClock{},
		Emitter:  emitter,
		Address:  config.HubAddress,
	}

	hubInstance, err := hub.New(hubConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create hub instance")
	}

	if err := hubInstance.Initialize(config.AdminAddress); err != nil {
		if errors.Is(err, types.ErrAlreadyInitialized) {
			log.Info().Msg("Hub already initialized, resuming with stored state")
		} else {
			log.Fatal().Err(err).Msg("Failed to initialize hub")
		}
	}

	log.Info().Msg("Hub instance created successfully")

	// --- 6. Web Server ---
	webServer := web.NewWebServer(config.WebPort, hubInstance, usePostgres)
	log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting hub web server")
	if err := webServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Web server failed")
	}
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
