package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"fittrack/drawing-engine/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Ticket sales configuration
	MaxTicketsPerPurchase int

	// Eligibility configuration
	MinAccountAgeDays int // minimum account age before entering drawings

	// Fulfillment configuration
	ForfeitWindowDays int // days a winner has to respond after notification

	// Scheduler configuration
	SchedulerSpec        string // cron spec for the drawing tick
	DispatchBatchSize    int    // pending notifications dispatched per tick
	StaleExecutingMinute int    // minutes before an executing drawing is considered stale

	// Metrics configuration
	MetricsAddr string // listen address for the Prometheus endpoint

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
	return database.BuildConnectionURL(c.DatabaseURL, c.DatabaseName)
}

// ForfeitWindow returns the forfeiture window as a duration
func (c *Config) ForfeitWindow() time.Duration {
	return time.Duration(c.ForfeitWindowDays) * 24 * time.Hour
}

// MinAccountAge returns the minimum account age as a duration
func (c *Config) MinAccountAge() time.Duration {
	return time.Duration(c.MinAccountAgeDays) * 24 * time.Hour
}

// StaleExecutingCutoff returns how long a drawing may sit in executing before
// the scheduler treats the executor as crashed
func (c *Config) StaleExecutingCutoff() time.Duration {
	return time.Duration(c.StaleExecutingMinute) * time.Minute
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Sales defaults
		MaxTicketsPerPurchase: 50,

		// Eligibility defaults
		MinAccountAgeDays: 0,

		// Fulfillment defaults
		ForfeitWindowDays: 14,

		// Scheduler defaults: tick once a minute
		SchedulerSpec:        getEnvWithDefault("SCHEDULER_SPEC", "* * * * *"),
		DispatchBatchSize:    100,
		StaleExecutingMinute: 10,

		// Metrics
		MetricsAddr: getEnvWithDefault("METRICS_ADDR", ":9090"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if v := os.Getenv("MAX_TICKETS_PER_PURCHASE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.MaxTicketsPerPurchase = parsed
		}
	}
	if v := os.Getenv("MIN_ACCOUNT_AGE_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			config.MinAccountAgeDays = parsed
		}
	}
	if v := os.Getenv("FORFEIT_WINDOW_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.ForfeitWindowDays = parsed
		}
	}
	if v := os.Getenv("DISPATCH_BATCH_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.DispatchBatchSize = parsed
		}
	}
	if v := os.Getenv("STALE_EXECUTING_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.StaleExecutingMinute = parsed
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
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
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
		Environment:           "test",
		MaxTicketsPerPurchase: 50,
		ForfeitWindowDays:     14,
		SchedulerSpec:         "* * * * *",
		DispatchBatchSize:     100,
		StaleExecutingMinute:  10,
	}
}
