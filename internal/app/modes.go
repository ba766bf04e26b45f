package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/dropmarket/internal/poller"
	"github.com/alanyoungcy/dropmarket/internal/server"
	"github.com/alanyoungcy/dropmarket/internal/server/handler"
	"github.com/alanyoungcy/dropmarket/internal/server/ws"
)

// ServeMode runs the HTTP API and WebSocket hub, plus the poller when any
// listings or drops are configured for it.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startNotifier(ctx, g, deps)

	if a.hasPollTargets() {
		p := a.newPoller(deps)
		g.Go(func() error {
			return p.RunLoop(ctx)
		})
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	} else {
		a.logger.WarnContext(ctx, "HTTP server disabled; serve mode only polls")
	}

	return g.Wait()
}

// PollMode refreshes the configured listings and drops on an interval and
// publishes the derived state on the signal bus without serving HTTP.
func (a *App) PollMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting poll mode",
		slog.Duration("interval", a.cfg.Poller.Interval.Duration),
		slog.Int("listings", len(a.cfg.Poller.Listings)),
		slog.Int("drops", len(a.cfg.Poller.Drops)),
	)

	g, ctx := errgroup.WithContext(ctx)
	a.startNotifier(ctx, g, deps)
	g.Go(func() error {
		return a.newPoller(deps).RunLoop(ctx)
	})
	return g.Wait()
}

// OnceMode refreshes every configured target a single time and returns.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting once mode")
	if err := a.newPoller(deps).Run(ctx); err != nil {
		return fmt.Errorf("once mode: %w", err)
	}
	return nil
}

// startNotifier forwards submission outcomes to operator channels when any
// are configured.
func (a *App) startNotifier(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Notifier == nil || !deps.Notifier.Enabled() {
		return
	}
	g.Go(func() error {
		return deps.Notifier.Run(ctx, deps.SignalBus)
	})
}

func (a *App) hasPollTargets() bool {
	return len(a.cfg.Poller.Listings) > 0 || len(a.cfg.Poller.Drops) > 0
}

func (a *App) newPoller(deps *Dependencies) *poller.Poller {
	return poller.New(deps.Listings, deps.Drops, poller.Config{
		Interval:    a.cfg.Poller.Interval.Duration,
		Listings:    a.cfg.Poller.Listings,
		Drops:       a.cfg.Poller.Drops,
		Quantity:    a.cfg.Poller.Quantity,
		Wallet:      a.cfg.Wallet.Address,
		Concurrency: a.cfg.Poller.Concurrency,
	}, a.logger)
}

// startHTTPServer adds the WebSocket hub and the HTTP server to g. The server
// is shut down gracefully when ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		ChainID:   a.cfg.Ledger.ChainID,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:           a.cfg.Server.Port,
		CORSOrigins:    a.cfg.Server.CORSOrigins,
		APIKey:         a.cfg.Server.APIKey,
		RateLimitRPS:   a.cfg.Server.RateLimitRPS,
		RateLimitBurst: a.cfg.Server.RateLimitBurst,
	}, server.Handlers{
		Health:   handler.NewHealthHandler(deps.Ledger, a.cfg.Mode, a.logger),
		Listings: handler.NewListingHandler(deps.Listings, a.logger),
		Drops:    handler.NewDropHandler(deps.Drops, a.logger),
	}, hub, a.logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)))
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
