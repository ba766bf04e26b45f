package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/dropmarket/internal/cache/memory"
	"github.com/alanyoungcy/dropmarket/internal/cache/redis"
	"github.com/alanyoungcy/dropmarket/internal/config"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/alanyoungcy/dropmarket/internal/notify"
	"github.com/alanyoungcy/dropmarket/internal/platform/evm"
	"github.com/alanyoungcy/dropmarket/internal/platform/relayer"
	"github.com/alanyoungcy/dropmarket/internal/platform/snapshot"
	"github.com/alanyoungcy/dropmarket/internal/service"
)

// Dependencies bundles every domain-level dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Ledger and outbound clients
	Ledger    *evm.Client
	Submitter domain.Submitter
	Snapshots domain.SnapshotSource

	// Caches
	StateCache  domain.StateCache
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Services
	Listings *service.ListingService
	Drops    *service.DropService

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Ledger ---
	ledger, err := evm.Dial(ctx, cfg.Ledger.RPCURL, evm.Config{
		ChainID:            cfg.Ledger.ChainID,
		MarketplaceAddress: cfg.Ledger.MarketplaceAddress,
		RequestTimeout:     cfg.Ledger.RequestTimeout.Duration,
		RPS:                cfg.Ledger.RPS,
		Burst:              cfg.Ledger.Burst,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: ledger: %w", err)
	}
	closers = append(closers, ledger.Close)
	deps.Ledger = ledger

	// --- Relayer ---
	if cfg.Relayer.URL == "" {
		logger.WarnContext(ctx, "wire: relayer url not set; submissions will fail")
	}
	deps.Submitter = relayer.New(relayer.Config{
		BaseURL: cfg.Relayer.URL,
		APIKey:  cfg.Relayer.APIKey,
		Timeout: cfg.Relayer.Timeout.Duration,
	})

	// --- Allowlist snapshots (optional) ---
	if cfg.Snapshot.BaseURL != "" {
		deps.Snapshots = snapshot.New(snapshot.Config{
			BaseURL: cfg.Snapshot.BaseURL,
			Timeout: cfg.Snapshot.Timeout.Duration,
		})
	}

	// --- Cache, locks and bus ---
	switch strings.ToLower(cfg.Cache.Backend) {
	case config.BackendRedis:
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.StateCache = redis.NewStateCache(redisClient, cfg.Cache.TTL.Duration)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	default:
		deps.StateCache = memory.NewStateCache(cfg.Cache.Size, cfg.Cache.TTL.Duration)
		deps.LockManager = memory.NewLockManager()
		deps.SignalBus = memory.NewSignalBus()
	}

	// --- Services ---
	deps.Listings = service.NewListingService(
		deps.Ledger, deps.Submitter,
		deps.StateCache, deps.LockManager, deps.SignalBus,
		service.ListingOptions{
			ReadTimeout: cfg.Cache.ReadTimeout.Duration,
			LockTTL:     cfg.Cache.LockTTL.Duration,
		},
		logger.With(slog.String("component", "listing_service")),
	)
	deps.Drops = service.NewDropService(
		deps.Ledger, deps.Snapshots, deps.Submitter,
		deps.StateCache, deps.LockManager, deps.SignalBus,
		service.DropOptions{
			ReadTimeout: cfg.Cache.ReadTimeout.Duration,
			LockTTL:     cfg.Cache.LockTTL.Duration,
		},
		logger.With(slog.String("component", "drop_service")),
	)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender("", cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	logger.InfoContext(ctx, "wire: dependencies ready",
		slog.String("chain", ledger.Chain().Name),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.Bool("snapshots", deps.Snapshots != nil),
		slog.Int("notify_senders", len(senders)),
	)

	return deps, cleanup, nil
}
