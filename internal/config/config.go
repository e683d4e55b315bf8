// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Solana node configuration
	Solana SolanaConfig

	// Metadata source configuration
	Metadata MetadataConfig

	// Risk classifier configuration
	Risk RiskConfig

	// Scanner configuration
	Scanner ScannerConfig

	// Database configuration (optional; empty host disables the archive)
	Database DatabaseConfig

	// API server configuration
	API APIConfig

	// Logging configuration
	Log LogConfig
}

// SolanaConfig holds Solana node connection settings
type SolanaConfig struct {
	RPCURL         string        `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	WSURL          string        `envconfig:"SOLANA_WS_URL" default:"wss://api.mainnet-beta.solana.com"`
	RequestTimeout time.Duration `envconfig:"SOLANA_REQUEST_TIMEOUT" default:"30s"`
	MaxRetries     int           `envconfig:"SOLANA_MAX_RETRIES" default:"3"`
	RetryDelay     time.Duration `envconfig:"SOLANA_RETRY_DELAY" default:"1s"`
}

// MetadataConfig holds metadata source settings
type MetadataConfig struct {
	TokenListURL  string        `envconfig:"METADATA_TOKEN_LIST_URL" default:"https://tokens.jup.ag/tokens?tags=verified"`
	RegistryURL   string        `envconfig:"METADATA_REGISTRY_URL" default:"https://raw.githubusercontent.com/solana-labs/token-list/main/src/tokens/solana.tokenlist.json"`
	MarketDataURL string        `envconfig:"METADATA_MARKET_DATA_URL" default:"https://api.dexscreener.com/latest/dex/tokens"`
	SourceTimeout time.Duration `envconfig:"METADATA_SOURCE_TIMEOUT" default:"8s"`
}

// RiskConfig holds risk classifier settings
type RiskConfig struct {
	// ReferenceFile points at a YAML file merged over the built-in
	// denylist, keyword list and canonical mint table.
	ReferenceFile       string  `envconfig:"RISK_REFERENCE_FILE" default:""`
	SupplyOutlier       float64 `envconfig:"RISK_SUPPLY_OUTLIER" default:"1e15"`
	NonDivisibleBulk    float64 `envconfig:"RISK_NON_DIVISIBLE_BULK" default:"100"`
	DustPrice           float64 `envconfig:"RISK_DUST_PRICE" default:"1e-6"`
	MinLiquidityUSD     float64 `envconfig:"RISK_MIN_LIQUIDITY_USD" default:"1000"`
	MinVolume24hUSD     float64 `envconfig:"RISK_MIN_VOLUME_24H_USD" default:"100"`
	WashLiquidityRatio  float64 `envconfig:"RISK_WASH_LIQUIDITY_RATIO" default:"10"`
	DedupKeywordIssues  bool    `envconfig:"RISK_DEDUP_KEYWORD_ISSUES" default:"false"`
}

// ScannerConfig holds scan engine settings
type ScannerConfig struct {
	Concurrency int  `envconfig:"SCANNER_CONCURRENCY" default:"8"`
	FetchSupply bool `envconfig:"SCANNER_FETCH_SUPPLY" default:"true"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:""`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"scanner"`
	Password string `envconfig:"DB_PASSWORD" default:"scanner"`
	Name     string `envconfig:"DB_NAME" default:"wallet_scanner"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// APIConfig holds API server settings
type APIConfig struct {
	Host            string        `envconfig:"API_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"API_PORT" default:"8081"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPM    int           `envconfig:"API_RATE_LIMIT_RPM" default:"60"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Enabled reports whether a database host was configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}
