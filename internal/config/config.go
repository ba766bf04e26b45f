// Package config defines the top-level configuration for dropmarket and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DROPMARKET_* environment variables.
type Config struct {
	Ledger   LedgerConfig   `toml:"ledger"`
	Relayer  RelayerConfig  `toml:"relayer"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Wallet   WalletConfig   `toml:"wallet"`
	Cache    CacheConfig    `toml:"cache"`
	Redis    RedisConfig    `toml:"redis"`
	Poller   PollerConfig   `toml:"poller"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// LedgerConfig selects the chain and contracts that state is read from.
type LedgerConfig struct {
	// RPCURL may be empty when the chain has a public default endpoint.
	RPCURL             string   `toml:"rpc_url"`
	ChainID            int64    `toml:"chain_id"`
	MarketplaceAddress string   `toml:"marketplace_address"`
	RequestTimeout     duration `toml:"request_timeout"`
	RPS                float64  `toml:"rps"`
	Burst              int      `toml:"burst"`
}

// RelayerConfig points at the service that forwards bids, buyouts and claims.
type RelayerConfig struct {
	URL     string   `toml:"url"`
	APIKey  string   `toml:"api_key"`
	Timeout duration `toml:"timeout"`
}

// SnapshotConfig points at the allowlist snapshot host.
type SnapshotConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// WalletConfig names the wallet the poller evaluates state for. No keys are
// held; signing happens behind the relayer.
type WalletConfig struct {
	Address string `toml:"address"`
}

// CacheConfig controls the read-through state cache.
type CacheConfig struct {
	Backend     string   `toml:"backend"`
	Size        int      `toml:"size"`
	TTL         duration `toml:"ttl"`
	ReadTimeout duration `toml:"read_timeout"`
	LockTTL     duration `toml:"lock_ttl"`
}

// RedisConfig holds Redis connection parameters, used when cache.backend is
// "redis".
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
}

// PollerConfig lists what the background poller refreshes.
type PollerConfig struct {
	Interval    duration `toml:"interval"`
	Listings    []string `toml:"listings"`
	Drops       []string `toml:"drops"`
	Quantity    int64    `toml:"quantity"`
	Concurrency int      `toml:"concurrency"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey protects write endpoints; empty disables authentication.
	APIKey         string  `toml:"api_key"`
	RateLimitRPS   float64 `toml:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst"`
}

// NotifyConfig holds operator alert channels for submission outcomes.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Operating modes.
const (
	ModeServe = "serve"
	ModePoll  = "poll"
	ModeOnce  = "once"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Ledger: LedgerConfig{
			ChainID:        137,
			RequestTimeout: duration{10 * time.Second},
			RPS:            10,
			Burst:          20,
		},
		Relayer: RelayerConfig{
			Timeout: duration{15 * time.Second},
		},
		Snapshot: SnapshotConfig{
			Timeout: duration{10 * time.Second},
		},
		Cache: CacheConfig{
			Backend:     BackendMemory,
			Size:        4096,
			TTL:         duration{30 * time.Second},
			ReadTimeout: duration{5 * time.Second},
			LockTTL:     duration{2 * time.Minute},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			KeyPrefix:  "dm",
		},
		Poller: PollerConfig{
			Interval:    duration{15 * time.Second},
			Quantity:    1,
			Concurrency: 4,
		},
		Server: ServerConfig{
			Enabled:        true,
			Port:           8000,
			CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Notify: NotifyConfig{
			Events: []string{"submission_failed"},
		},
		Mode:     ModeServe,
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	ModeServe: true,
	ModePoll:  true,
	ModeOnce:  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, poll, once)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Ledger
	if c.Ledger.ChainID <= 0 {
		errs = append(errs, "ledger: chain_id must be positive")
	}
	if c.Ledger.MarketplaceAddress != "" && !common.IsHexAddress(c.Ledger.MarketplaceAddress) {
		errs = append(errs, fmt.Sprintf("ledger: marketplace_address %q is not a hex address", c.Ledger.MarketplaceAddress))
	}
	if c.Ledger.RPS < 0 {
		errs = append(errs, "ledger: rps must be >= 0")
	}
	if c.Ledger.RPS > 0 && c.Ledger.Burst < 1 {
		errs = append(errs, "ledger: burst must be >= 1 when rps is set")
	}

	// Wallet is optional; without one every evaluation reports no_wallet.
	if c.Wallet.Address != "" && !common.IsHexAddress(c.Wallet.Address) {
		errs = append(errs, fmt.Sprintf("wallet: address %q is not a hex address", c.Wallet.Address))
	}

	// Cache
	switch strings.ToLower(c.Cache.Backend) {
	case BackendMemory:
		if c.Cache.Size < 1 {
			errs = append(errs, "cache: size must be >= 1")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}
	if c.Cache.TTL.Duration <= 0 {
		errs = append(errs, "cache: ttl must be > 0")
	}
	if c.Cache.ReadTimeout.Duration < 0 {
		errs = append(errs, "cache: read_timeout must be >= 0")
	}
	if c.Cache.LockTTL.Duration <= 0 {
		errs = append(errs, "cache: lock_ttl must be > 0")
	}

	// Poller
	if mode == ModePoll || mode == ModeOnce {
		if len(c.Poller.Listings) == 0 && len(c.Poller.Drops) == 0 {
			errs = append(errs, "poller: listings or drops must be set for mode "+mode)
		}
	}
	if mode == ModePoll && c.Poller.Interval.Duration <= 0 {
		errs = append(errs, "poller: interval must be > 0")
	}
	if c.Poller.Quantity < 1 {
		errs = append(errs, "poller: quantity must be >= 1")
	}
	if c.Poller.Concurrency < 1 {
		errs = append(errs, "poller: concurrency must be >= 1")
	}
	for _, d := range c.Poller.Drops {
		if !common.IsHexAddress(d) {
			errs = append(errs, fmt.Sprintf("poller: drop %q is not a hex address", d))
		}
	}

	// Server
	if mode == ModeServe && c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server: rate_limit_rps must be >= 0")
		}
	}

	// Notify: Telegram needs both halves.
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
