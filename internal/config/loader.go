package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DROPMARKET_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DROPMARKET_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Ledger ──
	setStr(&cfg.Ledger.RPCURL, "DROPMARKET_LEDGER_RPC_URL")
	setInt64(&cfg.Ledger.ChainID, "DROPMARKET_LEDGER_CHAIN_ID")
	setStr(&cfg.Ledger.MarketplaceAddress, "DROPMARKET_LEDGER_MARKETPLACE_ADDRESS")
	setDuration(&cfg.Ledger.RequestTimeout, "DROPMARKET_LEDGER_REQUEST_TIMEOUT")
	setFloat64(&cfg.Ledger.RPS, "DROPMARKET_LEDGER_RPS")
	setInt(&cfg.Ledger.Burst, "DROPMARKET_LEDGER_BURST")

	// ── Relayer ──
	setStr(&cfg.Relayer.URL, "DROPMARKET_RELAYER_URL")
	setStr(&cfg.Relayer.APIKey, "DROPMARKET_RELAYER_API_KEY")
	setDuration(&cfg.Relayer.Timeout, "DROPMARKET_RELAYER_TIMEOUT")

	// ── Snapshot ──
	setStr(&cfg.Snapshot.BaseURL, "DROPMARKET_SNAPSHOT_BASE_URL")
	setDuration(&cfg.Snapshot.Timeout, "DROPMARKET_SNAPSHOT_TIMEOUT")

	// ── Wallet ──
	setStr(&cfg.Wallet.Address, "DROPMARKET_WALLET_ADDRESS")

	// ── Cache ──
	setStr(&cfg.Cache.Backend, "DROPMARKET_CACHE_BACKEND")
	setInt(&cfg.Cache.Size, "DROPMARKET_CACHE_SIZE")
	setDuration(&cfg.Cache.TTL, "DROPMARKET_CACHE_TTL")
	setDuration(&cfg.Cache.ReadTimeout, "DROPMARKET_CACHE_READ_TIMEOUT")
	setDuration(&cfg.Cache.LockTTL, "DROPMARKET_CACHE_LOCK_TTL")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DROPMARKET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DROPMARKET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DROPMARKET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DROPMARKET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DROPMARKET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DROPMARKET_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "DROPMARKET_REDIS_KEY_PREFIX")

	// ── Poller ──
	setDuration(&cfg.Poller.Interval, "DROPMARKET_POLLER_INTERVAL")
	setStringSlice(&cfg.Poller.Listings, "DROPMARKET_POLLER_LISTINGS")
	setStringSlice(&cfg.Poller.Drops, "DROPMARKET_POLLER_DROPS")
	setInt64(&cfg.Poller.Quantity, "DROPMARKET_POLLER_QUANTITY")
	setInt(&cfg.Poller.Concurrency, "DROPMARKET_POLLER_CONCURRENCY")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "DROPMARKET_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "DROPMARKET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DROPMARKET_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "DROPMARKET_SERVER_API_KEY")
	setFloat64(&cfg.Server.RateLimitRPS, "DROPMARKET_SERVER_RATE_LIMIT_RPS")
	setInt(&cfg.Server.RateLimitBurst, "DROPMARKET_SERVER_RATE_LIMIT_BURST")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DROPMARKET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DROPMARKET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DROPMARKET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DROPMARKET_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "DROPMARKET_MODE")
	setStr(&cfg.LogLevel, "DROPMARKET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
