package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, loads .env, applies environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known environment variables and overwrites the
// corresponding Config fields when a variable is set. The unprefixed
// PUMPPORTAL_API_KEY and WALLET_ADDRESS are read first so existing .env files
// keep working; RAZOR_* variables win over them.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.API.APIKey, "PUMPPORTAL_API_KEY")
	setStr(&cfg.Wallet.Address, "WALLET_ADDRESS")

	// ── API ──
	setStr(&cfg.API.BaseURL, "RAZOR_API_BASE_URL")
	setStr(&cfg.API.APIKey, "RAZOR_API_KEY")
	setStr(&cfg.API.UserAgent, "RAZOR_API_USER_AGENT")

	// ── Wallet ──
	setStr(&cfg.Wallet.Address, "RAZOR_WALLET_ADDRESS")

	// ── RPC ──
	setStringSlice(&cfg.RPC.Endpoints, "RAZOR_RPC_ENDPOINTS")
	setStr(&cfg.RPC.WSEndpoint, "RAZOR_RPC_WS_ENDPOINT")
	setDuration(&cfg.RPC.Timeout, "RAZOR_RPC_TIMEOUT")
	setInt(&cfg.RPC.MaxRetries, "RAZOR_RPC_MAX_RETRIES")
	setDuration(&cfg.RPC.RetryDelay, "RAZOR_RPC_RETRY_DELAY")
	setDuration(&cfg.RPC.MaxRetryDelay, "RAZOR_RPC_MAX_RETRY_DELAY")

	// ── Trade ──
	setDecimal(&cfg.Trade.BuyAmountSOL, "RAZOR_TRADE_BUY_AMOUNT_SOL")
	setDecimal(&cfg.Trade.SlippagePercent, "RAZOR_TRADE_SLIPPAGE_PERCENT")
	setDecimal(&cfg.Trade.PriorityFee, "RAZOR_TRADE_PRIORITY_FEE")
	setBool(&cfg.Trade.SkipPreflight, "RAZOR_TRADE_SKIP_PREFLIGHT")

	// ── Retry ──
	setInt(&cfg.Retry.MaxAttempts, "RAZOR_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.Retry.Delay, "RAZOR_RETRY_DELAY")
	setDuration(&cfg.Retry.RateLimitDelay, "RAZOR_RETRY_RATE_LIMIT_DELAY")
	setDuration(&cfg.Retry.Timeout, "RAZOR_RETRY_TIMEOUT")

	// ── Liquidation ──
	setDecimal(&cfg.Liquidation.PriorityFee, "RAZOR_LIQUIDATION_PRIORITY_FEE")
	setInt(&cfg.Liquidation.MaxAttempts, "RAZOR_LIQUIDATION_MAX_ATTEMPTS")
	setDuration(&cfg.Liquidation.Delay, "RAZOR_LIQUIDATION_DELAY")
	setDuration(&cfg.Liquidation.RateLimitDelay, "RAZOR_LIQUIDATION_RATE_LIMIT_DELAY")
	setDuration(&cfg.Liquidation.Timeout, "RAZOR_LIQUIDATION_TIMEOUT")
	setDuration(&cfg.Liquidation.PauseBetweenSells, "RAZOR_LIQUIDATION_PAUSE_BETWEEN_SELLS")
	setBool(&cfg.Liquidation.Confirm, "RAZOR_LIQUIDATION_CONFIRM")
	setDuration(&cfg.Liquidation.ConfirmTimeout, "RAZOR_LIQUIDATION_CONFIRM_TIMEOUT")

	// ── Session ──
	setDuration(&cfg.Session.Duration, "RAZOR_SESSION_DURATION")

	// ── Rotation ──
	setStringSlice(&cfg.Rotation.Keywords, "RAZOR_ROTATION_KEYWORDS")

	// ── Storage ──
	setStr(&cfg.Storage.PostgresDSN, "RAZOR_STORAGE_POSTGRES_DSN")
	setStr(&cfg.Storage.ClickhouseDSN, "RAZOR_STORAGE_CLICKHOUSE_DSN")
	setBool(&cfg.Storage.RunMigrations, "RAZOR_STORAGE_RUN_MIGRATIONS")

	// ── Metrics ──
	setStr(&cfg.Metrics.Addr, "RAZOR_METRICS_ADDR")

	// ── Report ──
	setStr(&cfg.Report.Dir, "RAZOR_REPORT_DIR")

	// ── Log ──
	setStr(&cfg.Log.Level, "RAZOR_LOG_LEVEL")
	setStr(&cfg.Log.Format, "RAZOR_LOG_FORMAT")
	setStr(&cfg.Log.Dir, "RAZOR_LOG_DIR")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present, non-empty and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDecimal(dst *decimal.Decimal, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			*dst = d
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
