package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Network settings
	Network   string `mapstructure:"network" yaml:"network"`
	RPCUrl    string `mapstructure:"rpc_url" yaml:"rpc_url"`
	WSUrl     string `mapstructure:"ws_url" yaml:"ws_url"`
	RPCAPIKey string `mapstructure:"rpc_api_key" yaml:"rpc_api_key"`

	// Ledger settings
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`

	// Sniper settings
	Sniper SniperConfig `mapstructure:"sniper" yaml:"sniper"`

	// Liquidity monitoring settings
	Liquidity LiquidityConfig `mapstructure:"liquidity" yaml:"liquidity"`

	// Jupiter aggregator settings
	Jupiter JupiterConfig `mapstructure:"jupiter" yaml:"jupiter"`

	// Telegram notification settings
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Advanced settings
	Advanced AdvancedConfig `mapstructure:"advanced" yaml:"advanced"`
}

// SniperConfig is the decision-pipeline parameter set. A session or monitor
// takes an immutable copy at start; later edits only affect future sessions.
type SniperConfig struct {
	BuyAmountSOL           float64 `mapstructure:"buy_amount_sol" yaml:"buy_amount_sol"`
	SlippageBPS            int     `mapstructure:"slippage_bps" yaml:"slippage_bps"`
	MinLiquiditySOL        float64 `mapstructure:"min_liquidity_sol" yaml:"min_liquidity_sol"`
	MinSafetyScore         int     `mapstructure:"min_safety_score" yaml:"min_safety_score"`
	RequireMintRenounced   bool    `mapstructure:"require_mint_renounced" yaml:"require_mint_renounced"`
	RequireFreezeRenounced bool    `mapstructure:"require_freeze_renounced" yaml:"require_freeze_renounced"`
	MaxBuyTaxPercent       float64 `mapstructure:"max_buy_tax_percent" yaml:"max_buy_tax_percent"`
	FastMode               bool    `mapstructure:"fast_mode" yaml:"fast_mode"`
}

// LiquidityConfig contains poll-loop settings
type LiquidityConfig struct {
	CheckIntervalMs int `mapstructure:"check_interval_ms" yaml:"check_interval_ms"`
	MaxChecks       int `mapstructure:"max_checks" yaml:"max_checks"` // 0 = unbounded
}

// JupiterConfig contains swap aggregator endpoints
type JupiterConfig struct {
	QuoteURL string `mapstructure:"quote_url" yaml:"quote_url"`
	SwapURL  string `mapstructure:"swap_url" yaml:"swap_url"`
	PriceURL string `mapstructure:"price_url" yaml:"price_url"`
}

// TelegramConfig contains notification settings
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   string `mapstructure:"chat_id" yaml:"chat_id"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	LogToFile   bool   `mapstructure:"log_to_file" yaml:"log_to_file"`
	LogFilePath string `mapstructure:"log_file_path" yaml:"log_file_path"`
	TradeLogDir string `mapstructure:"trade_log_dir" yaml:"trade_log_dir"`
}

// AdvancedConfig contains advanced settings
type AdvancedConfig struct {
	MaxRetries        int `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelayMs      int `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`
	ConfirmTimeoutSec int `mapstructure:"confirm_timeout_sec" yaml:"confirm_timeout_sec"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("sniper")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("$HOME/.sniper-suite")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SNIPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, continue with defaults and env vars
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// bindEnvVariables manually binds environment variables that viper might miss
func bindEnvVariables() {
	viper.BindEnv("network", "SNIPER_NETWORK")
	viper.BindEnv("rpc_url", "SNIPER_RPC_URL")
	viper.BindEnv("ws_url", "SNIPER_WS_URL")
	viper.BindEnv("rpc_api_key", "SNIPER_RPC_API_KEY")
	viper.BindEnv("database_url", "SNIPER_DATABASE_URL")

	viper.BindEnv("sniper.buy_amount_sol", "SNIPER_SNIPER_BUY_AMOUNT_SOL")
	viper.BindEnv("sniper.slippage_bps", "SNIPER_SNIPER_SLIPPAGE_BPS")
	viper.BindEnv("sniper.min_liquidity_sol", "SNIPER_SNIPER_MIN_LIQUIDITY_SOL")
	viper.BindEnv("sniper.min_safety_score", "SNIPER_SNIPER_MIN_SAFETY_SCORE")
	viper.BindEnv("sniper.fast_mode", "SNIPER_SNIPER_FAST_MODE")

	viper.BindEnv("liquidity.check_interval_ms", "SNIPER_LIQUIDITY_CHECK_INTERVAL_MS")
	viper.BindEnv("liquidity.max_checks", "SNIPER_LIQUIDITY_MAX_CHECKS")

	viper.BindEnv("telegram.enabled", "SNIPER_TELEGRAM_ENABLED")
	viper.BindEnv("telegram.bot_token", "SNIPER_TELEGRAM_BOT_TOKEN")
	viper.BindEnv("telegram.chat_id", "SNIPER_TELEGRAM_CHAT_ID")

	viper.BindEnv("logging.level", "SNIPER_LOGGING_LEVEL")
	viper.BindEnv("logging.format", "SNIPER_LOGGING_FORMAT")
	viper.BindEnv("logging.log_to_file", "SNIPER_LOGGING_LOG_TO_FILE")
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("network", "mainnet")
	viper.SetDefault("rpc_url", "")
	viper.SetDefault("ws_url", "")
	viper.SetDefault("database_url", "")

	viper.SetDefault("sniper.buy_amount_sol", DefaultBuyAmountSOL)
	viper.SetDefault("sniper.slippage_bps", DefaultSlippageBPS)
	viper.SetDefault("sniper.min_liquidity_sol", 5.0)
	viper.SetDefault("sniper.min_safety_score", 70)
	viper.SetDefault("sniper.require_mint_renounced", true)
	viper.SetDefault("sniper.require_freeze_renounced", true)
	viper.SetDefault("sniper.max_buy_tax_percent", 10.0)
	viper.SetDefault("sniper.fast_mode", false)

	viper.SetDefault("liquidity.check_interval_ms", DefaultPollIntervalMs)
	viper.SetDefault("liquidity.max_checks", 0)

	viper.SetDefault("jupiter.quote_url", JupiterQuoteURL)
	viper.SetDefault("jupiter.swap_url", JupiterSwapURL)
	viper.SetDefault("jupiter.price_url", JupiterPriceURL)

	viper.SetDefault("telegram.enabled", false)
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.log_to_file", false)
	viper.SetDefault("logging.log_file_path", "logs/sniper.log")
	viper.SetDefault("logging.trade_log_dir", "trades")

	viper.SetDefault("advanced.max_retries", MaxRetries)
	viper.SetDefault("advanced.retry_delay_ms", RetryDelayMs)
	viper.SetDefault("advanced.confirm_timeout_sec", ConfirmTimeoutSec)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.RPCUrl == "" {
		config.RPCUrl = GetRPCEndpoint(config.Network)
	}
	if config.WSUrl == "" {
		config.WSUrl = GetWSEndpoint(config.Network)
	}

	if err := config.Sniper.Validate(); err != nil {
		return err
	}

	if config.Liquidity.CheckIntervalMs < 100 {
		return fmt.Errorf("liquidity.check_interval_ms must be at least 100")
	}
	if config.Liquidity.MaxChecks < 0 {
		return fmt.Errorf("liquidity.max_checks must be non-negative")
	}

	if config.Telegram.Enabled && (config.Telegram.BotToken == "" || config.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}

	// Create log directories if they don't exist
	if config.Logging.LogToFile {
		logDir := filepath.Dir(config.Logging.LogFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	if err := os.MkdirAll(config.Logging.TradeLogDir, 0755); err != nil {
		return fmt.Errorf("failed to create trade log directory %s: %w", config.Logging.TradeLogDir, err)
	}

	return nil
}

// Validate checks the sniper parameter set before it is snapshotted into a
// session or monitor.
func (c SniperConfig) Validate() error {
	if c.BuyAmountSOL < MinTradeAmountSOL {
		return fmt.Errorf("buy_amount_sol must be at least %f", MinTradeAmountSOL)
	}
	if c.BuyAmountSOL > MaxTradeAmountSOL {
		return fmt.Errorf("buy_amount_sol must not exceed %f", MaxTradeAmountSOL)
	}
	if c.SlippageBPS < 10 || c.SlippageBPS > 5000 {
		return fmt.Errorf("slippage_bps must be between 10 and 5000 (0.1%% to 50%%)")
	}
	if c.MinLiquiditySOL < 0 {
		return fmt.Errorf("min_liquidity_sol must be non-negative")
	}
	if c.MinSafetyScore < 0 || c.MinSafetyScore > 100 {
		return fmt.Errorf("min_safety_score must be between 0 and 100")
	}
	if c.MaxBuyTaxPercent < 0 || c.MaxBuyTaxPercent > 100 {
		return fmt.Errorf("max_buy_tax_percent must be between 0 and 100")
	}
	return nil
}

// CheckInterval returns the poll interval as a duration
func (c LiquidityConfig) CheckInterval() time.Duration {
	if c.CheckIntervalMs <= 0 {
		return DefaultPollIntervalMs * time.Millisecond
	}
	return time.Duration(c.CheckIntervalMs) * time.Millisecond
}

// RetryDelay returns the delay between trade submission retries
func (c AdvancedConfig) RetryDelay() time.Duration {
	if c.RetryDelayMs <= 0 {
		return RetryDelayMs * time.Millisecond
	}
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}
