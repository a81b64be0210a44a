package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	WebhookURL string

	// CIToUSDRate is the fixed conversion rate applied to CI$ prices.
	CIToUSDRate decimal.Decimal

	// Price floors in USD. Listings below the floor are excluded from the
	// batch, not treated as errors.
	ResidentialFloorUSD decimal.Decimal
	LandFloorUSD        decimal.Decimal

	// PageCap bounds pagination per base query.
	PageCap int

	FetchBatchSize int
	RateLimitMs    int
	MaxRetries     int

	// Per-source run timeouts, minutes.
	CirebaTimeoutMin    int
	EcayTradeTimeoutMin int

	// TTLs for cleanup, days.
	LogTTLDays     int
	ListingTTLDays int

	LogDir    string
	ChromeBin string
}

// DefaultCIToUSDRate is 1 CI$ in US$, the fixed marketplace rate.
const DefaultCIToUSDRate = "1.2195121951219512"

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "listings_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		WebhookURL: getEnv("WEBHOOK_URL", ""),

		CIToUSDRate:         getEnvDecimal("CI_TO_USD_RATE", DefaultCIToUSDRate),
		ResidentialFloorUSD: getEnvDecimal("RESIDENTIAL_FLOOR_USD", "100000"),
		LandFloorUSD:        getEnvDecimal("LAND_FLOOR_USD", "25000"),

		PageCap:        getEnvInt("PAGE_CAP", 25),
		FetchBatchSize: getEnvInt("FETCH_BATCH_SIZE", 4),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		CirebaTimeoutMin:    getEnvInt("CIREBA_TIMEOUT_MIN", 20),
		EcayTradeTimeoutMin: getEnvInt("ECAYTRADE_TIMEOUT_MIN", 15),

		LogTTLDays:     getEnvInt("LOG_TTL_DAYS", 3),
		ListingTTLDays: getEnvInt("LISTING_TTL_DAYS", 3),

		LogDir:    getEnv("LOG_DIR", "."),
		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	raw := getEnv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("[config] Invalid decimal for %s: %q, using %s", key, raw, fallback)
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}
