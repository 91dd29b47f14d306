// Package config defines the configuration shared by the razor and
// liquidate tools and provides validation helpers.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-razor/internal/executor"
	"solana-razor/internal/solana"
	"solana-razor/internal/trade"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by environment variables.
type Config struct {
	API         APIConfig         `toml:"api"`
	Wallet      WalletConfig      `toml:"wallet"`
	RPC         RPCConfig         `toml:"rpc"`
	Trade       TradeConfig       `toml:"trade"`
	Retry       RetryConfig       `toml:"retry"`
	Liquidation LiquidationConfig `toml:"liquidation"`
	Session     SessionConfig     `toml:"session"`
	Rotation    RotationConfig    `toml:"rotation"`
	Storage     StorageConfig     `toml:"storage"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Report      ReportConfig      `toml:"report"`
	Log         LogConfig         `toml:"log"`
}

// APIConfig holds the trade API location and credentials.
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	UserAgent string `toml:"user_agent"`
}

// WalletConfig identifies the wallet the API trades for.
type WalletConfig struct {
	Address string `toml:"address"`
}

// RPCConfig lists the Solana RPC endpoints to rotate through and bounds the
// JSON-RPC calls made to them.
type RPCConfig struct {
	Endpoints  []string `toml:"endpoints"`
	WSEndpoint string   `toml:"ws_endpoint"`

	Timeout       duration `toml:"timeout"`
	MaxRetries    int      `toml:"max_retries"`
	RetryDelay    duration `toml:"retry_delay"`
	MaxRetryDelay duration `toml:"max_retry_delay"`
}

// TradeConfig holds the per-leg order parameters of a trade cycle.
type TradeConfig struct {
	BuyAmountSOL    decimal.Decimal `toml:"buy_amount_sol"`
	SlippagePercent decimal.Decimal `toml:"slippage_percent"`
	PriorityFee     decimal.Decimal `toml:"priority_fee"`
	SkipPreflight   bool            `toml:"skip_preflight"`
}

// RetryConfig bounds the attempts of one trade-cycle leg.
type RetryConfig struct {
	MaxAttempts    int      `toml:"max_attempts"`
	Delay          duration `toml:"delay"`
	RateLimitDelay duration `toml:"rate_limit_delay"`
	Timeout        duration `toml:"timeout"`
}

// LiquidationConfig holds the standalone sell parameters.
type LiquidationConfig struct {
	PriorityFee       decimal.Decimal `toml:"priority_fee"`
	MaxAttempts       int             `toml:"max_attempts"`
	Delay             duration        `toml:"delay"`
	RateLimitDelay    duration        `toml:"rate_limit_delay"`
	Timeout           duration        `toml:"timeout"`
	PauseBetweenSells duration        `toml:"pause_between_sells"`
	Confirm           bool            `toml:"confirm"`
	ConfirmTimeout    duration        `toml:"confirm_timeout"`
}

// SessionConfig bounds a trading session.
type SessionConfig struct {
	Duration duration `toml:"duration"`
}

// RotationConfig lists the failure-reason keywords that trigger an endpoint
// rotation. An empty list disables keyword rotation.
type RotationConfig struct {
	Keywords []string `toml:"keywords"`
}

// StorageConfig selects the trade journal backends. Empty DSNs keep the
// journal in memory.
type StorageConfig struct {
	PostgresDSN   string `toml:"postgres_dsn"`
	ClickhouseDSN string `toml:"clickhouse_dsn"`
	RunMigrations bool   `toml:"run_migrations"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// ReportConfig controls the end-of-session report. An empty Dir disables it.
type ReportConfig struct {
	Dir string `toml:"dir"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "100ms", "30m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so that BurntSushi/toml can
// parse duration strings like "100ms" or "30m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultEndpoints are the public mainnet RPC endpoints rotated through when
// none are configured.
var DefaultEndpoints = []string{
	"https://api.mainnet-beta.solana.com",
	"https://solana-api.projectserum.com",
	"https://rpc.ankr.com/solana",
	"https://solana-mainnet.g.alchemy.com/v2/demo",
	"https://mainnet.solana.blockdaemon.tech",
	"https://solana-mainnet.rpc.extrnode.com",
	"https://mainnet.helius-rpc.com",
}

// Defaults returns a Config populated with sensible default values.
func Defaults() Config {
	retry := executor.DefaultPolicy()
	liq := executor.LiquidationPolicy()

	return Config{
		API: APIConfig{
			BaseURL:   "https://pumpportal.fun/api",
			UserAgent: "RazorBot/1.0",
		},
		RPC: RPCConfig{
			Endpoints:     append([]string(nil), DefaultEndpoints...),
			Timeout:       duration{solana.DefaultTimeout},
			MaxRetries:    solana.DefaultMaxRetries,
			RetryDelay:    duration{solana.DefaultRetryDelay},
			MaxRetryDelay: duration{solana.DefaultMaxDelay},
		},
		Trade: TradeConfig{
			BuyAmountSOL:    decimal.RequireFromString("0.015"),
			SlippagePercent: decimal.NewFromInt(15),
			PriorityFee:     decimal.RequireFromString("0.001"),
			SkipPreflight:   true,
		},
		Retry: RetryConfig{
			MaxAttempts:    retry.MaxAttempts,
			Delay:          duration{retry.Delay},
			RateLimitDelay: duration{retry.RateLimitDelay},
			Timeout:        duration{retry.Timeout},
		},
		Liquidation: LiquidationConfig{
			PriorityFee:       decimal.RequireFromString("0.0005"),
			MaxAttempts:       liq.MaxAttempts,
			Delay:             duration{liq.Delay},
			RateLimitDelay:    duration{liq.RateLimitDelay},
			Timeout:           duration{liq.Timeout},
			PauseBetweenSells: duration{2 * time.Second},
			ConfirmTimeout:    duration{60 * time.Second},
		},
		Session: SessionConfig{
			Duration: duration{30 * time.Minute},
		},
		Rotation: RotationConfig{
			Keywords: append([]string(nil), executor.DefaultRotationKeywords...),
		},
		Storage: StorageConfig{
			RunMigrations: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Dir:    "logs",
		},
	}
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found. The API key is not checked
// here; each tool decides whether it needs one.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, "api: base_url must not be empty")
	}

	if c.Wallet.Address != "" {
		if err := trade.ValidateWallet(c.Wallet.Address); err != nil {
			errs = append(errs, "wallet: "+err.Error())
		}
	}

	if len(c.Endpoints()) == 0 {
		errs = append(errs, "rpc: at least one endpoint is required")
	}
	if c.RPC.Timeout.Duration <= 0 {
		errs = append(errs, "rpc: timeout must be > 0")
	}
	if c.RPC.MaxRetries < 0 {
		errs = append(errs, "rpc: max_retries must be >= 0")
	}
	if c.RPC.RetryDelay.Duration < 0 || c.RPC.MaxRetryDelay.Duration < c.RPC.RetryDelay.Duration {
		errs = append(errs, "rpc: retry_delay must be >= 0 and <= max_retry_delay")
	}
	if c.Liquidation.Confirm && c.RPC.WSEndpoint == "" {
		errs = append(errs, "rpc: ws_endpoint is required when liquidation.confirm is set")
	}

	if !c.Trade.BuyAmountSOL.IsPositive() {
		errs = append(errs, "trade: buy_amount_sol must be > 0")
	}
	if c.Trade.SlippagePercent.IsNegative() || c.Trade.SlippagePercent.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, fmt.Sprintf("trade: slippage_percent must be 0-100, got %s", c.Trade.SlippagePercent))
	}
	if c.Trade.PriorityFee.IsNegative() {
		errs = append(errs, "trade: priority_fee must be >= 0")
	}
	if c.Liquidation.PriorityFee.IsNegative() {
		errs = append(errs, "liquidation: priority_fee must be >= 0")
	}

	if err := c.RetryPolicy().Validate(); err != nil {
		errs = append(errs, "retry: "+flatten(err))
	}
	if err := c.LiquidationPolicy().Validate(); err != nil {
		errs = append(errs, "liquidation: "+flatten(err))
	}

	if c.Session.Duration.Duration <= 0 {
		errs = append(errs, "session: duration must be > 0")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log: unknown level %q (valid: debug, info, warn, error)", c.Log.Level))
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, fmt.Sprintf("log: unknown format %q (valid: text, json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

func flatten(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}

// Endpoints returns the configured RPC endpoints with blanks removed.
func (c *Config) Endpoints() []string {
	out := make([]string, 0, len(c.RPC.Endpoints))
	for _, e := range c.RPC.Endpoints {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// RPCClientOptions returns the JSON-RPC client bounds.
func (c *Config) RPCClientOptions() []solana.ClientOption {
	return []solana.ClientOption{
		solana.WithTimeout(c.RPC.Timeout.Duration),
		solana.WithMaxRetries(c.RPC.MaxRetries),
		solana.WithRetryDelay(c.RPC.RetryDelay.Duration),
		solana.WithMaxDelay(c.RPC.MaxRetryDelay.Duration),
	}
}

// TradeParams returns the order parameters for trade-cycle legs.
func (c *Config) TradeParams() trade.Params {
	return trade.Params{
		BuyAmountSOL:    c.Trade.BuyAmountSOL,
		SlippagePercent: c.Trade.SlippagePercent,
		PriorityFee:     c.Trade.PriorityFee,
		SkipPreflight:   c.Trade.SkipPreflight,
	}
}

// LiquidationParams returns the order parameters for standalone sells.
func (c *Config) LiquidationParams() trade.Params {
	p := c.TradeParams()
	p.PriorityFee = c.Liquidation.PriorityFee
	return p
}

// RetryPolicy returns the executor policy for trade-cycle legs.
func (c *Config) RetryPolicy() executor.Policy {
	return executor.Policy{
		MaxAttempts:    c.Retry.MaxAttempts,
		Delay:          c.Retry.Delay.Duration,
		RateLimitDelay: c.Retry.RateLimitDelay.Duration,
		Timeout:        c.Retry.Timeout.Duration,
	}
}

// LiquidationPolicy returns the executor policy for standalone sells.
func (c *Config) LiquidationPolicy() executor.Policy {
	return executor.Policy{
		MaxAttempts:    c.Liquidation.MaxAttempts,
		Delay:          c.Liquidation.Delay.Duration,
		RateLimitDelay: c.Liquidation.RateLimitDelay.Duration,
		Timeout:        c.Liquidation.Timeout.Duration,
	}
}

// SessionDuration returns the trading session length.
func (c *Config) SessionDuration() time.Duration {
	return c.Session.Duration.Duration
}

// SetSessionDuration overrides the session length, e.g. from a flag.
func (c *Config) SetSessionDuration(d time.Duration) {
	c.Session.Duration = duration{d}
}

// PauseBetweenSells returns the minimum spacing of liquidation sells.
func (c *Config) PauseBetweenSells() time.Duration {
	return c.Liquidation.PauseBetweenSells.Duration
}

// ConfirmTimeout returns how long a liquidation waits for a signature.
func (c *Config) ConfirmTimeout() time.Duration {
	return c.Liquidation.ConfirmTimeout.Duration
}
