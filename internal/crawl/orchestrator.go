// Package crawl runs full crawl cycles over the feed catalog.
package crawl

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/fetcher"
	"github.com/salewatch/salewatch/internal/logger"
	"github.com/salewatch/salewatch/internal/metrics"
	"github.com/salewatch/salewatch/internal/normalize"
	"github.com/salewatch/salewatch/internal/reconcile"
)

const (
	// RetentionWindow is how long an unrefreshed record survives before
	// the end-of-cycle prune removes it.
	RetentionWindow = 4 * 7 * 24 * time.Hour

	// pacingMin/pacingMax bound the randomized pause between feeds,
	// avoiding upstream rate limiting.
	pacingMin = 2 * time.Second
	pacingMax = 4 * time.Second
)

// Fetcher retrieves one listing page.
type Fetcher interface {
	FetchPage(ctx context.Context, feed domain.Feed, offset int) (*fetcher.Page, error)
}

// Reconciler applies one record against stored state.
type Reconciler interface {
	Reconcile(ctx context.Context, p domain.Product) (reconcile.Outcome, error)
}

// Notifier receives records marked changed by reconciliation.
type Notifier interface {
	Offer(ctx context.Context, p *domain.Product)
}

// Pruner removes records last written before a cutoff.
type Pruner interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Params holds the dependencies for an Orchestrator.
type Params struct {
	Feeds       []domain.Feed
	Fetcher     Fetcher
	Reconciler  Reconciler
	Notifier    Notifier
	Pruner      Pruner
	Logger      logger.Interface
	Metrics     *metrics.Metrics
	Concurrency int
}

// Orchestrator runs one crawl cycle at a time: feeds sequentially, pages
// of a feed concurrently under a semaphore bound, staleness pruning at
// cycle close.
type Orchestrator struct {
	feeds       []domain.Feed
	fetcher     Fetcher
	engine      Reconciler
	gate        Notifier
	pruner      Pruner
	log         logger.Interface
	metrics     *metrics.Metrics
	concurrency int

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration)
	jitter func(min, max time.Duration) time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithSleep overrides the pacing sleep function.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// WithJitter overrides the pacing interval source.
func WithJitter(jitter func(min, max time.Duration) time.Duration) Option {
	return func(o *Orchestrator) {
		o.jitter = jitter
	}
}

// NewOrchestrator creates a crawl orchestrator.
func NewOrchestrator(p Params, opts ...Option) *Orchestrator {
	concurrency := p.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	o := &Orchestrator{
		feeds:       p.Feeds,
		fetcher:     p.Fetcher,
		engine:      p.Reconciler,
		gate:        p.Notifier,
		pruner:      p.Pruner,
		log:         p.Logger,
		metrics:     p.Metrics,
		concurrency: concurrency,
		now:         time.Now,
		sleep:       sleepContext,
		jitter:      uniformDuration,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// RunCycle processes every feed and closes the cycle with staleness
// pruning. Feed failures skip the feed; the prune runs regardless.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	start := o.now()

	o.log.Info("crawl cycle started", "feeds", len(o.feeds))

	for _, feed := range o.feeds {
		if ctx.Err() != nil {
			break
		}

		o.crawlFeed(ctx, feed)
		o.sleep(ctx, o.jitter(pacingMin, pacingMax))
	}

	pruneErr := o.prune(ctx)

	o.metrics.CycleDuration.Observe(o.now().Sub(start).Seconds())
	o.log.Info("crawl cycle finished", "duration", o.now().Sub(start))

	if pruneErr != nil {
		return fmt.Errorf("cycle prune: %w", pruneErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// crawlFeed discovers the feed's item count, then fans out one task per
// page offset. A count discovery failure skips the whole feed for this
// cycle.
func (o *Orchestrator) crawlFeed(ctx context.Context, feed domain.Feed) {
	page, err := o.fetcher.FetchPage(ctx, feed, 0)
	if err != nil {
		o.metrics.PageErrors.WithLabelValues(feed.Name).Inc()
		o.log.Error("count discovery failed, skipping feed",
			"feed", feed.Name,
			"error", err,
		)
		return
	}

	total := page.Total
	o.log.Info("crawling feed", "feed", feed.Name, "total_items", total)

	// Offset 0 is refetched in the fan-out; discovery only reads the
	// count, matching the upstream pagination contract.
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for offset := 0; offset < total; offset += fetcher.PageSize {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			o.processPage(ctx, feed, offset)
		}(offset)
	}

	wg.Wait()
}

// processPage fetches one page and runs each item through normalize,
// reconcile, and the notifier gate. Failures here are isolated to this
// page or item; siblings keep running.
func (o *Orchestrator) processPage(ctx context.Context, feed domain.Feed, offset int) {
	page, err := o.fetcher.FetchPage(ctx, feed, offset)
	if err != nil {
		o.metrics.PageErrors.WithLabelValues(feed.Name).Inc()
		o.log.Warn("page fetch failed, no items for this page",
			"feed", feed.Name,
			"offset", offset,
			"error", err,
		)
		return
	}

	o.metrics.PagesFetched.WithLabelValues(feed.Name).Inc()

	now := o.now()
	for _, item := range page.Items {
		record := normalize.Product(item, now)

		outcome, reconcileErr := o.engine.Reconcile(ctx, record)
		if reconcileErr != nil {
			o.log.Error("reconcile failed",
				"feed", feed.Name,
				"product_id", record.ID,
				"error", reconcileErr,
			)
			continue
		}

		o.metrics.ProductsReconciled.WithLabelValues(outcome.Action.String()).Inc()

		if outcome.Changed() {
			o.gate.Offer(ctx, &outcome.Product)
		}
	}
}

// prune removes records not refreshed within the retention window.
func (o *Orchestrator) prune(ctx context.Context) error {
	cutoff := o.now().Add(-RetentionWindow)

	deleted, err := o.pruner.DeleteStale(ctx, cutoff)
	if err != nil {
		return err
	}

	o.metrics.ProductsPruned.Add(float64(deleted))
	o.log.Info("pruned stale products", "deleted", deleted, "cutoff", cutoff)

	return nil
}

// sleepContext sleeps cooperatively, returning early on cancellation.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// uniformDuration picks a duration uniformly in [min, max].
func uniformDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}
