package simulator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type recordingSink struct {
	mu       sync.Mutex
	batches  [][]domain.ImpactEvent
	failures int // number of calls to fail before succeeding
	calls    int
}

func (s *recordingSink) PublishBatch(_ context.Context, events []domain.ImpactEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("broker unavailable")
	}
	s.batches = append(s.batches, append([]domain.ImpactEvent(nil), events...))
	return nil
}

func (s *recordingSink) published() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func (s *recordingSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eventWithSequence(seq uint64) domain.ImpactEvent {
	return domain.ImpactEvent{ID: "evt", Sequence: seq}
}

func runPublisher(t *testing.T, p *Publisher) (cancel func(), done <-chan struct{}) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		assert.NoError(t, p.Run(ctx))
	}()
	require.Eventually(t, func() bool { return p.CheckReadiness(ctx) == nil }, time.Second, 5*time.Millisecond)
	return cancelFn, ch
}

// --- tests ---

func TestPublisher_BatchesBySize(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(sink, 16, 3, time.Hour, discardLogger(), observability.NewMetricsForTesting())

	cancel, done := runPublisher(t, p)
	defer func() { cancel(); <-done }()

	for i := range 6 {
		require.True(t, p.Enqueue(eventWithSequence(uint64(i+1))))
	}

	require.Eventually(t, func() bool { return sink.published() == 6 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, sink.batchCount())
}

func TestPublisher_FlushesOnInterval(t *testing.T) {
	sink := &recordingSink{}
	metrics := observability.NewMetricsForTesting()
	p := NewPublisher(sink, 16, 50, 20*time.Millisecond, discardLogger(), metrics)

	cancel, done := runPublisher(t, p)
	defer func() { cancel(); <-done }()

	require.True(t, p.Enqueue(eventWithSequence(1)))

	require.Eventually(t, func() bool { return sink.published() == 1 }, time.Second, 5*time.Millisecond)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.EventsPublished), 0)
}

func TestPublisher_RetriesWithBackoff(t *testing.T) {
	sink := &recordingSink{failures: 2}
	metrics := observability.NewMetricsForTesting()
	p := NewPublisher(sink, 16, 1, time.Millisecond, discardLogger(), metrics)
	p.backoff = time.Millisecond

	cancel, done := runPublisher(t, p)
	defer func() { cancel(); <-done }()

	require.True(t, p.Enqueue(eventWithSequence(1)))

	require.Eventually(t, func() bool { return sink.published() == 1 }, time.Second, 5*time.Millisecond)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.PublishErrors), 0)
}

func TestPublisher_EnqueueDropsWhenFull(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := NewPublisher(&recordingSink{}, 1, 1, time.Millisecond, discardLogger(), metrics)

	assert.True(t, p.Enqueue(eventWithSequence(1)))
	assert.False(t, p.Enqueue(eventWithSequence(2)))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.EventsDropped), 0)
}

func TestPublisher_DrainsOnShutdown(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(sink, 16, 50, time.Hour, discardLogger(), observability.NewMetricsForTesting())

	cancel, done := runPublisher(t, p)
	require.True(t, p.Enqueue(eventWithSequence(1)))
	require.True(t, p.Enqueue(eventWithSequence(2)))

	cancel()
	<-done

	assert.Equal(t, 2, sink.published())
	require.Error(t, p.CheckReadiness(context.Background()))
}

func TestPublisher_NotReadyBeforeRun(t *testing.T) {
	p := NewPublisher(&recordingSink{}, 1, 1, time.Millisecond, discardLogger(), observability.NewMetricsForTesting())
	require.Error(t, p.CheckReadiness(context.Background()))
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, nextBackoff(200*time.Millisecond, 5*time.Second))
	assert.Equal(t, 5*time.Second, nextBackoff(4*time.Second, 5*time.Second))
}

func TestSleepWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepWithContext(ctx, time.Hour))
	assert.True(t, sleepWithContext(ctx, 0))
}
