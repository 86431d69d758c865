// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Trade     TradeConfig     `mapstructure:"trade"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ChainConfig holds the RPC node and the single chain trades must run on.
type ChainConfig struct {
	RPCURL           string        `mapstructure:"rpc_url"`
	ChainID          uint64        `mapstructure:"chain_id"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	DecimalsCacheTTL time.Duration `mapstructure:"decimals_cache_ttl"`
}

// WalletConfig holds the wallet session endpoint and the trading account.
type WalletConfig struct {
	SessionURL        string        `mapstructure:"session_url"`
	Address           string        `mapstructure:"address"`
	SwitchSettleDelay time.Duration `mapstructure:"switch_settle_delay"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// AddressHex returns the wallet address as common.Address.
func (c *WalletConfig) AddressHex() common.Address {
	return common.HexToAddress(c.Address)
}

// ProviderConfig holds the trading provider API settings.
type ProviderConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// TradeConfig holds the trade engine constants and both retry budgets.
type TradeConfig struct {
	Slippage       float64 `mapstructure:"slippage"`
	GasReserveWei  string  `mapstructure:"gas_reserve_wei"`
	VestingLockWei string  `mapstructure:"vesting_lock_wei"`

	MaxAttempts               int           `mapstructure:"max_attempts"`
	BaseDelay                 time.Duration `mapstructure:"base_delay"`
	MaxJitter                 time.Duration `mapstructure:"max_jitter"`
	ProviderUnavailableFactor float64       `mapstructure:"provider_unavailable_factor"`
	QuoteMaxRetries           int           `mapstructure:"quote_max_retries"`
	QuoteCooldown             time.Duration `mapstructure:"quote_cooldown"`

	BalanceMaxAttempts int           `mapstructure:"balance_max_attempts"`
	BalanceBaseDelay   time.Duration `mapstructure:"balance_base_delay"`
}

// SlippageDecimal returns the default slippage as decimal.Decimal.
func (c *TradeConfig) SlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Slippage)
}

// GasReserve returns the gas reserve in wei.
func (c *TradeConfig) GasReserve() *big.Int {
	v, _ := new(big.Int).SetString(c.GasReserveWei, 10)
	return v
}

// VestingLock returns the creator vesting lock in the coin's smallest unit.
func (c *TradeConfig) VestingLock() *big.Int {
	v, _ := new(big.Int).SetString(c.VestingLockWei, 10)
	return v
}

// ServerConfig holds listener settings for serve mode.
type ServerConfig struct {
	APIPort        int           `mapstructure:"api_port"`
	HealthPort     int           `mapstructure:"health_port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("TRADER")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "TRADER_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "TRADER_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "TRADER_LOG_LEVEL", "LOG_LEVEL")

	// Chain
	v.BindEnv("chain.rpc_url", "TRADER_RPC_URL", "RPC_URL")
	v.BindEnv("chain.chain_id", "TRADER_CHAIN_ID", "CHAIN_ID")

	// Wallet
	v.BindEnv("wallet.session_url", "TRADER_WALLET_SESSION_URL", "WALLET_SESSION_URL")
	v.BindEnv("wallet.address", "TRADER_WALLET_ADDRESS", "WALLET_ADDRESS")

	// Provider
	v.BindEnv("provider.base_url", "TRADER_PROVIDER_URL", "TRADING_API_URL")
	v.BindEnv("provider.api_key", "TRADER_PROVIDER_API_KEY", "TRADING_API_KEY")

	// Trade
	v.BindEnv("trade.slippage", "TRADER_SLIPPAGE")
	v.BindEnv("trade.gas_reserve_wei", "TRADER_GAS_RESERVE_WEI")
	v.BindEnv("trade.max_attempts", "TRADER_MAX_ATTEMPTS")

	// Telemetry
	v.BindEnv("telemetry.enabled", "TRADER_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "TRADER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "TRADER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "TRADER_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "artcoin-trader")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Chain defaults (Base mainnet)
	v.SetDefault("chain.rpc_url", "https://mainnet.base.org")
	v.SetDefault("chain.chain_id", 8453)
	v.SetDefault("chain.read_timeout", "10s")
	v.SetDefault("chain.decimals_cache_ttl", "24h")

	// Wallet defaults
	v.SetDefault("wallet.switch_settle_delay", "1s")
	v.SetDefault("wallet.request_timeout", "60s")

	// Provider defaults
	v.SetDefault("provider.timeout", "30s")
	v.SetDefault("provider.requests_per_minute", 60)

	// Trade defaults
	v.SetDefault("trade.slippage", 0.05)
	v.SetDefault("trade.gas_reserve_wei", "50000000000000")                  // 0.00005 ETH
	v.SetDefault("trade.vesting_lock_wei", "10000000000000000000000000")     // 10M coins at 18 decimals
	v.SetDefault("trade.max_attempts", 3)
	v.SetDefault("trade.base_delay", "2s")
	v.SetDefault("trade.max_jitter", "1s")
	v.SetDefault("trade.provider_unavailable_factor", 2)
	v.SetDefault("trade.quote_max_retries", 2)
	v.SetDefault("trade.quote_cooldown", "5s")
	v.SetDefault("trade.balance_max_attempts", 3)
	v.SetDefault("trade.balance_base_delay", "500ms")

	// Server defaults
	v.SetDefault("server.api_port", 8080)
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.write_timeout", "5m")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "artcoin-trader")
	v.SetDefault("telemetry.trace_provider", "ZIPKIN_PROVIDER")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if c.Chain.ChainID == 0 {
		return fmt.Errorf("chain.chain_id is required")
	}
	if c.Wallet.Address != "" && !common.IsHexAddress(c.Wallet.Address) {
		return fmt.Errorf("invalid wallet.address: %s", c.Wallet.Address)
	}
	if c.Trade.Slippage < 0 || c.Trade.Slippage >= 1 {
		return fmt.Errorf("trade.slippage must be in [0, 1): %v", c.Trade.Slippage)
	}
	if v, ok := new(big.Int).SetString(c.Trade.GasReserveWei, 10); !ok || v.Sign() < 0 {
		return fmt.Errorf("invalid trade.gas_reserve_wei: %s", c.Trade.GasReserveWei)
	}
	if v, ok := new(big.Int).SetString(c.Trade.VestingLockWei, 10); !ok || v.Sign() < 0 {
		return fmt.Errorf("invalid trade.vesting_lock_wei: %s", c.Trade.VestingLockWei)
	}
	if c.Trade.MaxAttempts < 1 {
		return fmt.Errorf("trade.max_attempts must be at least 1")
	}
	if c.Trade.BalanceMaxAttempts < 1 {
		return fmt.Errorf("trade.balance_max_attempts must be at least 1")
	}
	return nil
}
