// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir    string // Base directory for all databases (always absolute)
	Port       int
	DevMode    bool
	LogLevel   string
	LogPretty  bool
	Simulation *SimulationConfig
	Lending    *LendingConfig
}

// SimulationConfig holds Monte Carlo engine defaults. Individual runs may
// override draws and seed per request.
type SimulationConfig struct {
	Draws   int   // Trajectories per run
	Workers int   // Concurrent projection workers (0 = one per CPU)
	Seed    int64 // Base RNG seed (0 = derive from current time)
}

// LendingConfig holds the default loan terms applied by the fund-return
// calculation when a request does not override them.
type LendingConfig struct {
	LoanPercentage     float64 // Fraction of first-month S&M spend advanced as the loan
	YearlyInterestRate float64 // Amortization interest rate, yearly compounding
	TargetIRR          float64 // Yearly IRR at which collections stop
	MaxYears           int     // Repayment horizon
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	// 1. Check DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:    absDataDir,
		Port:       getEnvAsInt("PORT", 8090),
		DevMode:    getEnvAsBool("DEV_MODE", false),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnvAsBool("LOG_PRETTY", false),
		Simulation: loadSimulationConfig(),
		Lending:    loadLendingConfig(),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that numeric configuration falls inside usable ranges
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Simulation.Draws < 1 {
		return fmt.Errorf("simulation draws must be at least 1, got %d", c.Simulation.Draws)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation workers cannot be negative, got %d", c.Simulation.Workers)
	}
	if c.Lending.LoanPercentage <= 0 || c.Lending.LoanPercentage > 1 {
		return fmt.Errorf("loan percentage must be in (0, 1], got %f", c.Lending.LoanPercentage)
	}
	if c.Lending.YearlyInterestRate < 0 {
		return fmt.Errorf("yearly interest rate cannot be negative, got %f", c.Lending.YearlyInterestRate)
	}
	if c.Lending.TargetIRR < 0 {
		return fmt.Errorf("target IRR cannot be negative, got %f", c.Lending.TargetIRR)
	}
	if c.Lending.MaxYears < 1 {
		return fmt.Errorf("max years must be at least 1, got %d", c.Lending.MaxYears)
	}
	return nil
}

// loadSimulationConfig loads Monte Carlo engine defaults
func loadSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Draws:   getEnvAsInt("SIM_DRAWS", 1000),
		Workers: getEnvAsInt("SIM_WORKERS", 0), // 0 = runtime.NumCPU() at run time
		Seed:    getEnvAsInt64("SIM_SEED", 0),  // 0 = time-derived seed per run
	}
}

// loadLendingConfig loads default loan terms
func loadLendingConfig() *LendingConfig {
	return &LendingConfig{
		LoanPercentage:     getEnvAsFloat("LOAN_PERCENTAGE", 0.80),
		YearlyInterestRate: getEnvAsFloat("YEARLY_INTEREST_RATE", 0.16),
		TargetIRR:          getEnvAsFloat("TARGET_IRR", 0.16),
		MaxYears:           getEnvAsInt("MAX_YEARS", 5),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
