package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"raffler/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Raffle configuration
	EntryFee      string        // Entry fee per slot, base-10 in base units
	RoundDuration time.Duration // How long each round stays open
	FeeRecipient  string        // Account the operator fee share pays out to
	PrizePercent  uint64        // Winner's share of the pot, floor percent
	FeePercent    uint64        // Operator's share of the pot, floor percent

	// Prize tier cutoffs (band widths over a 0-99 percentile)
	CommonCutoff    uint64
	RareCutoff      uint64
	LegendaryCutoff uint64

	// Draw worker configuration
	DrawRetryInterval time.Duration // Re-check cadence for closeable rounds short of entrants
	FeeSweepInterval  time.Duration // How often recorded fees are swept to the recipient

	// Randomness configuration
	RandomSeed string // Optional hex-free seed for the deterministic provably-fair source

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Raffle defaults: 80/20 pot split, week-long rounds
		EntryFee:      getEnvWithDefault("ENTRY_FEE", "1000000"),
		RoundDuration: 7 * 24 * time.Hour,
		FeeRecipient:  os.Getenv("FEE_RECIPIENT"),
		PrizePercent:  80,
		FeePercent:    20,

		// Tier cutoffs: 70/25/5
		CommonCutoff:    70,
		RareCutoff:      25,
		LegendaryCutoff: 5,

		// Worker
		DrawRetryInterval: time.Minute,
		FeeSweepInterval:  24 * time.Hour,

		// Randomness
		RandomSeed: os.Getenv("RANDOM_SEED"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if duration := os.Getenv("ROUND_DURATION"); duration != "" {
		if parsed, err := time.ParseDuration(duration); err == nil {
			config.RoundDuration = parsed
		}
	}
	if retry := os.Getenv("DRAW_RETRY_INTERVAL"); retry != "" {
		if parsed, err := time.ParseDuration(retry); err == nil {
			config.DrawRetryInterval = parsed
		}
	}
	if sweep := os.Getenv("FEE_SWEEP_INTERVAL"); sweep != "" {
		if parsed, err := time.ParseDuration(sweep); err == nil {
			config.FeeSweepInterval = parsed
		}
	}
	if prize := os.Getenv("PRIZE_PERCENT"); prize != "" {
		if parsed, err := strconv.ParseUint(prize, 10, 64); err == nil {
			config.PrizePercent = parsed
		}
	}
	if fee := os.Getenv("FEE_PERCENT"); fee != "" {
		if parsed, err := strconv.ParseUint(fee, 10, 64); err == nil {
			config.FeePercent = parsed
		}
	}
	if common := os.Getenv("COMMON_CUTOFF"); common != "" {
		if parsed, err := strconv.ParseUint(common, 10, 64); err == nil {
			config.CommonCutoff = parsed
		}
	}
	if rare := os.Getenv("RARE_CUTOFF"); rare != "" {
		if parsed, err := strconv.ParseUint(rare, 10, 64); err == nil {
			config.RareCutoff = parsed
		}
	}
	if legendary := os.Getenv("LEGENDARY_CUTOFF"); legendary != "" {
		if parsed, err := strconv.ParseUint(legendary, 10, 64); err == nil {
			config.LegendaryCutoff = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.FeeRecipient == "" {
			return nil, fmt.Errorf("FEE_RECIPIENT is required")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:       "test",
		EntryFee:          "1000",
		RoundDuration:     time.Hour,
		FeeRecipient:      "operator-test",
		PrizePercent:      80,
		FeePercent:        20,
		CommonCutoff:      70,
		RareCutoff:        25,
		LegendaryCutoff:   5,
		DrawRetryInterval: time.Second,
		FeeSweepInterval:  time.Minute,
	}
}
