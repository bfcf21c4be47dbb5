package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// HTTP server
	ServerPort int

	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// Providers
	Providers ProviderConfig

	// Ranking configuration
	Ranking RankingConfig

	// Cron spec for the scheduled ingest+rank pass; empty disables it
	IngestSchedule string
}

// ProviderConfig holds upstream data source configuration
type ProviderConfig struct {
	RatingsSource   string // mock, yfinance, fmp
	FMPAPIKey       string
	BenchmarkSymbol string
	PriceYears      int

	// Live quote stream (websocket)
	QuoteStreamEnabled bool
	QuoteStreamURL     string
}

// RankingConfig holds the scoring engine tunables.
//
// The thresholds are inclusive/exclusive exactly as the classifier documents
// them; changing a value here retunes the engine without touching the
// algorithm.
type RankingConfig struct {
	// Evaluation window
	HorizonDays        int // days after a rating before it is judged
	PriceToleranceDays int // search radius for the nearest trading day

	// Classification thresholds
	BullishThreshold float64 // buy/strong_buy accurate iff return > this
	BearishThreshold float64 // sell/strong_sell accurate iff return < -this
	HoldTolerance    float64 // hold accurate iff |return| <= this

	// Aggregation
	MinEvaluated      int // evaluated ratings required before scoring an analyst
	RecencyWindowDays int // ratings older than this are not "current"

	// Batch parallelism per pipeline phase
	Workers int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "stock_analyser"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "stock_analyser"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "stock_analyser"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		Providers: ProviderConfig{
			RatingsSource:   getEnvOrDefault("PROVIDER_RATINGS", "mock"),
			FMPAPIKey:       getEnvOrDefault("FMP_API_KEY", ""),
			BenchmarkSymbol: getEnvOrDefault("BENCHMARK_SYMBOL", "SPY"),
			PriceYears:      getEnvInt("PRICE_YEARS", 5),

			QuoteStreamEnabled: getEnvOrDefault("QUOTE_STREAM_ENABLED", "false") == "true",
			QuoteStreamURL:     getEnvOrDefault("QUOTE_STREAM_URL", ""),
		},

		Ranking: RankingConfig{
			HorizonDays:        getEnvInt("RANKING_HORIZON_DAYS", 90),
			PriceToleranceDays: getEnvInt("RANKING_PRICE_TOLERANCE_DAYS", 5),

			BullishThreshold: getEnvFloat("RANKING_BULLISH_THRESHOLD", 0.05),
			BearishThreshold: getEnvFloat("RANKING_BEARISH_THRESHOLD", 0.05),
			HoldTolerance:    getEnvFloat("RANKING_HOLD_TOLERANCE", 0.10),

			MinEvaluated:      getEnvInt("RANKING_MIN_EVALUATED", 1),
			RecencyWindowDays: getEnvInt("RANKING_RECENCY_WINDOW_DAYS", 180),

			Workers: getEnvInt("RANKING_WORKERS", 8),
		},

		IngestSchedule: getEnvOrDefault("INGEST_SCHEDULE", ""),
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
