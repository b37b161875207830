// Package notify qualifies reconciled records for notification and
// delivers them to a sink under outbound throttling.
package notify

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/logger"
	"github.com/salewatch/salewatch/internal/metrics"
)

const (
	// MinDiscountPercent is the qualification threshold for notification.
	MinDiscountPercent = 20

	// throttleEvery pauses delivery after every Nth sent notification,
	// respecting the sink's anti-flood policy.
	throttleEvery = 10

	// throttleMin/throttleMax bound the randomized throttle pause.
	throttleMin = 2 * time.Second
	throttleMax = 4 * time.Second
)

// Sink delivers one formatted notification. Delivery is best-effort;
// failures are logged by the gate and never retried.
type Sink interface {
	Send(ctx context.Context, mediaURL, text string) error
}

// Gate filters changed records and forwards qualifying ones to the sink.
// One Gate instance is scoped to one crawl cycle: the sent counter is
// cycle state, shared across all feeds of the cycle, and updated
// atomically so concurrently completing tasks keep the every-Nth rule
// correct.
type Gate struct {
	sink           Sink
	productBaseURL string
	log            logger.Interface
	metrics        *metrics.Metrics

	sent atomic.Int64

	sleep  func(ctx context.Context, d time.Duration)
	jitter func(min, max time.Duration) time.Duration
}

// Option configures a Gate.
type Option func(*Gate)

// WithSleep overrides the throttle sleep function.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(g *Gate) {
		g.sleep = sleep
	}
}

// WithJitter overrides the throttle interval source.
func WithJitter(jitter func(min, max time.Duration) time.Duration) Option {
	return func(g *Gate) {
		g.jitter = jitter
	}
}

// NewGate creates a notification gate for one crawl cycle.
func NewGate(
	sink Sink,
	productBaseURL string,
	log logger.Interface,
	m *metrics.Metrics,
	opts ...Option,
) *Gate {
	g := &Gate{
		sink:           sink,
		productBaseURL: productBaseURL,
		log:            log,
		metrics:        m,
		sleep:          sleepContext,
		jitter:         uniformDuration,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Offer receives a record the reconciliation engine marked changed.
// Records below the discount threshold are dropped. Sink failures are
// logged and do not abort the remaining crawl.
func (g *Gate) Offer(ctx context.Context, p *domain.Product) {
	if p.DiscountPercent < MinDiscountPercent {
		return
	}

	text := FormatMessage(p, g.productBaseURL)

	if err := g.sink.Send(ctx, p.PrimaryImage(), text); err != nil {
		g.metrics.NotificationErrors.Inc()
		g.log.Error("notification delivery failed",
			"product_id", p.ID,
			"error", err,
		)
		return
	}

	g.metrics.NotificationsSent.Inc()

	if n := g.sent.Add(1); n%throttleEvery == 0 {
		pause := g.jitter(throttleMin, throttleMax)
		g.log.Debug("throttling notifications",
			"sent", n,
			"pause", pause,
		)
		g.sleep(ctx, pause)
	}
}

// Sent returns the number of notifications delivered this cycle.
func (g *Gate) Sent() int64 {
	return g.sent.Load()
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
