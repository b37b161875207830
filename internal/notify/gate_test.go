package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/logger"
	"github.com/salewatch/salewatch/internal/metrics"
	"github.com/salewatch/salewatch/internal/notify"
)

// fakeSink records deliveries and optionally fails.
type fakeSink struct {
	mu    sync.Mutex
	sends []string
	err   error
}

func (s *fakeSink) Send(_ context.Context, mediaURL, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.sends = append(s.sends, mediaURL)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sends)
}

func qualifying(id int64, discount int) *domain.Product {
	return &domain.Product{
		ID:              id,
		Name:            "Boots",
		BrandName:       "Dr Martens",
		CurrentPrice:    80,
		PreviousPrice:   120,
		DiscountPercent: discount,
		Currency:        "GBP",
		Images:          []string{"images/primary.jpg"},
	}
}

func newGate(sink notify.Sink, pauses *[]time.Duration, opts ...notify.Option) *notify.Gate {
	base := []notify.Option{
		notify.WithSleep(func(_ context.Context, d time.Duration) {
			*pauses = append(*pauses, d)
		}),
	}
	return notify.NewGate(
		sink,
		"https://www.asos.com/",
		logger.NewNoOp(),
		metrics.New(prometheus.NewRegistry()),
		append(base, opts...)...,
	)
}

func TestGate_ThrottlesEveryTenth(t *testing.T) {
	sink := &fakeSink{}
	var pauses []time.Duration
	gate := newGate(sink, &pauses)

	for i := range 25 {
		gate.Offer(context.Background(), qualifying(int64(i+1), 30))
	}

	assert.Equal(t, 25, sink.count(), "every qualifying record reaches the sink")
	assert.Len(t, pauses, 2, "pauses after the 10th and 20th notification only")
	assert.EqualValues(t, 25, gate.Sent())
}

func TestGate_ThrottleIntervalWithinBounds(t *testing.T) {
	sink := &fakeSink{}
	var pauses []time.Duration
	gate := newGate(sink, &pauses)

	for i := range 10 {
		gate.Offer(context.Background(), qualifying(int64(i+1), 25))
	}

	if assert.Len(t, pauses, 1) {
		assert.GreaterOrEqual(t, pauses[0], 2*time.Second)
		assert.LessOrEqual(t, pauses[0], 4*time.Second)
	}
}

func TestGate_DropsBelowThreshold(t *testing.T) {
	sink := &fakeSink{}
	var pauses []time.Duration
	gate := newGate(sink, &pauses)

	gate.Offer(context.Background(), qualifying(1, 19))
	gate.Offer(context.Background(), qualifying(2, 0))

	assert.Zero(t, sink.count())
	assert.Zero(t, gate.Sent())

	gate.Offer(context.Background(), qualifying(3, 20))
	assert.Equal(t, 1, sink.count(), "threshold is inclusive at 20")
}

func TestGate_SinkFailureIsNonFatal(t *testing.T) {
	sink := &fakeSink{err: errors.New("flood wait")}
	var pauses []time.Duration
	gate := newGate(sink, &pauses)

	for i := range 12 {
		gate.Offer(context.Background(), qualifying(int64(i+1), 30))
	}

	assert.Zero(t, gate.Sent(), "failed deliveries do not advance the counter")
	assert.Empty(t, pauses)
}

func TestGate_CounterSharedAcrossGoroutines(t *testing.T) {
	sink := &fakeSink{}

	var mu sync.Mutex
	var pauses []time.Duration
	gate := notify.NewGate(
		sink,
		"https://www.asos.com/",
		logger.NewNoOp(),
		metrics.New(prometheus.NewRegistry()),
		notify.WithSleep(func(_ context.Context, d time.Duration) {
			mu.Lock()
			pauses = append(pauses, d)
			mu.Unlock()
		}),
	)

	var wg sync.WaitGroup
	for i := range 40 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			gate.Offer(context.Background(), qualifying(id, 50))
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 40, sink.count())
	assert.EqualValues(t, 40, gate.Sent())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, pauses, 4, "every 10th send pauses exactly once under concurrency")
}
