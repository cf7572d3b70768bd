package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Secrets (from .env)
	PrivateKey      string
	APIKey          string
	WebhookURL      string
	CORSAllowOrigin string

	// Vault
	OwnerAddress string
	ServiceName  string

	// Oracle
	EthereumAPIEndpoint string
	ChainID             int
	FeedSource          string // chainlink | coingecko | static
	FeedAddress         string
	FeedDecimals        int

	// Transfers
	GasLimit      int
	GasMultiplier float64

	// Paper mode
	PaperModeEnabled bool
	PaperInitialETH  float64
	PaperPriceUSD    float64

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// API
	APIPort int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		PrivateKey:      envStr("PRIVATE_KEY", ""),
		APIKey:          envStr("API_KEY", ""),
		WebhookURL:      envStr("WEBHOOK_URL", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Vault
		OwnerAddress: envStr("OWNER_ADDRESS", ""),
		ServiceName:  envStr("SERVICE_NAME", "FundVault"),

		// Oracle (defaults: mainnet ETH/USD Chainlink aggregator)
		EthereumAPIEndpoint: envStr("ETHEREUM_API_ENDPOINT", ""),
		ChainID:             envInt("CHAIN_ID", 1),
		FeedSource:          envStr("FEED_SOURCE", "chainlink"),
		FeedAddress:         envStr("FEED_ADDRESS", "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"),
		FeedDecimals:        envInt("FEED_DECIMALS", 8),

		// Transfers
		GasLimit:      envInt("GAS_LIMIT", 21000),
		GasMultiplier: envFloat("GAS_MULTIPLIER", 1.2),

		// Paper mode
		PaperModeEnabled: envBool("PAPER_MODE_ENABLED", true),
		PaperInitialETH:  envFloat("PAPER_INITIAL_ETH", 0),
		PaperPriceUSD:    envFloat("PAPER_PRICE_USD", 2000),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "fundvault"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// API
		APIPort: envInt("API_PORT", 3001),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.OwnerAddress == "" {
		errs = append(errs, "OWNER_ADDRESS is required")
	}
	switch c.FeedSource {
	case "chainlink", "coingecko", "static":
	default:
		errs = append(errs, fmt.Sprintf("FEED_SOURCE %q is not one of chainlink|coingecko|static", c.FeedSource))
	}
	if !c.PaperModeEnabled {
		if c.PrivateKey == "" {
			errs = append(errs, "PRIVATE_KEY is required for live withdrawals")
		}
		if c.EthereumAPIEndpoint == "" {
			errs = append(errs, "ETHEREUM_API_ENDPOINT is required for live mode")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Warnings lists non-fatal configuration gaps for the caller to log.
func (c *Config) Warnings() []string {
	var warns []string
	if c.PaperModeEnabled {
		warns = append(warns, "paper mode enabled — withdrawals are simulated, no real transactions execute")
	}
	if c.FeedSource == "chainlink" && c.EthereumAPIEndpoint == "" {
		warns = append(warns, fmt.Sprintf("ETHEREUM_API_ENDPOINT not set — falling back to a static price of %.2f USD/ETH", c.PaperPriceUSD))
	}
	if c.APIKey == "" {
		warns = append(warns, "API_KEY not set — REST API has no authentication")
	}
	if c.WebhookURL == "" {
		warns = append(warns, "WEBHOOK_URL not set — deposit/withdrawal notifications disabled")
	}
	return warns
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}
