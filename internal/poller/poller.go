// Package poller periodically re-reads watched listings and drops from the
// ledger so derived state is published without a client asking for it.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/metrics"
	"github.com/alanyoungcy/dropmarket/internal/service"
	"golang.org/x/sync/errgroup"
)

// ListingRefresher re-derives one listing and publishes the result.
type ListingRefresher interface {
	Refresh(ctx context.Context, id string, quantity int64, wallet string) (service.ListingView, error)
}

// DropRefresher re-evaluates one drop and publishes the result.
type DropRefresher interface {
	Refresh(ctx context.Context, contract, wallet string, quantity int64) (service.DropView, error)
}

// Config lists what to watch.
type Config struct {
	Interval    time.Duration
	Listings    []string
	Drops       []string
	Quantity    int64
	Wallet      string
	Concurrency int
}

// Poller refreshes every watched target once per interval.
type Poller struct {
	listings ListingRefresher
	drops    DropRefresher
	cfg      Config
	logger   *slog.Logger
}

// New creates a Poller.
func New(listings ListingRefresher, drops DropRefresher, cfg Config, logger *slog.Logger) *Poller {
	if cfg.Quantity <= 0 {
		cfg.Quantity = 1
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Poller{
		listings: listings,
		drops:    drops,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "poller")),
	}
}

// Run refreshes every target once. Individual failures are logged and
// counted; Run only fails when the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.PollCyclesTotal.Inc()
		metrics.PollCycleLatency.Observe(time.Since(start).Seconds())
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, id := range p.cfg.Listings {
		g.Go(func() error {
			view, err := p.listings.Refresh(gctx, id, p.cfg.Quantity, p.cfg.Wallet)
			if err != nil {
				p.fail(gctx, "listing", id, err)
				return nil
			}
			p.logger.DebugContext(gctx, "poller: listing refreshed",
				slog.String("listing_id", id),
				slog.String("status", string(view.Status)),
			)
			return nil
		})
	}
	for _, contract := range p.cfg.Drops {
		g.Go(func() error {
			view, err := p.drops.Refresh(gctx, contract, p.cfg.Wallet, p.cfg.Quantity)
			if err != nil {
				p.fail(gctx, "drop", contract, err)
				return nil
			}
			p.logger.DebugContext(gctx, "poller: drop refreshed",
				slog.String("contract", contract),
				slog.Bool("sold_out", view.Result.IsSoldOut),
			)
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("poller: cycle cancelled: %w", err)
	}
	return nil
}

func (p *Poller) fail(ctx context.Context, kind, target string, err error) {
	metrics.PollErrors.WithLabelValues(kind).Inc()
	p.logger.WarnContext(ctx, "poller: refresh failed",
		slog.String("kind", kind),
		slog.String("target", target),
		slog.String("error", err.Error()),
	)
}

// RunLoop runs a cycle immediately and then once per interval until ctx is
// cancelled.
func (p *Poller) RunLoop(ctx context.Context) error {
	p.logger.InfoContext(ctx, "poller: starting",
		slog.Int("listings", len(p.cfg.Listings)),
		slog.Int("drops", len(p.cfg.Drops)),
		slog.Duration("interval", p.cfg.Interval),
	)
	if err := p.Run(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller: stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := p.Run(ctx); err != nil {
				return err
			}
		}
	}
}
