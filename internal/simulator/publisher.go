package simulator

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	drainTimeout   = 5 * time.Second
)

// BatchSink writes impact events to the destination.
type BatchSink interface {
	PublishBatch(ctx context.Context, events []domain.ImpactEvent) error
}

// Publisher forwards impact events to a BatchSink from a bounded queue so
// strikes never wait on the sink.
type Publisher struct {
	sink          BatchSink
	queue         chan domain.ImpactEvent
	batchSize     int
	flushInterval time.Duration
	backoff       time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics
	running       atomic.Bool
}

// NewPublisher creates a Publisher with a queue of queueSize events.
func NewPublisher(sink BatchSink, queueSize, batchSize int, flushInterval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	return &Publisher{
		sink:          sink,
		queue:         make(chan domain.ImpactEvent, max(queueSize, 1)),
		batchSize:     max(batchSize, 1),
		flushInterval: flushInterval,
		backoff:       initialBackoff,
		logger:        logger,
		metrics:       metrics,
	}
}

// Enqueue offers an event without blocking. It reports false, and counts a
// drop, when the queue is full.
func (p *Publisher) Enqueue(event domain.ImpactEvent) bool {
	select {
	case p.queue <- event:
		return true
	default:
		p.metrics.EventsDropped.Inc()
		p.logger.Warn("publish queue full, dropping impact event", "id", event.ID, "sequence", event.Sequence)
		return false
	}
}

// CheckReadiness returns nil while Run is active.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("event publisher is not running")
	}
	return nil
}

// Run batches queued events until the context is cancelled, then makes one
// last attempt to write what is still queued.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("event publisher started", "batch_size", p.batchSize, "flush_interval", p.flushInterval)
	p.running.Store(true)
	p.metrics.PublisherRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PublisherRunning.Set(0)
	}()

	backoff := p.backoff
	for {
		batch, ok := p.collect(ctx)
		if !ok {
			p.drain(batch)
			p.logger.Info("event publisher stopping", "reason", ctx.Err())
			return nil
		}
		if !p.publishWithRetry(ctx, batch, &backoff) {
			p.drain(batch)
			p.logger.Info("event publisher stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// collect blocks for the first event, then gathers more until the batch is
// full or the flush interval elapses. Returns false if the context ended;
// the partial batch is returned either way.
func (p *Publisher) collect(ctx context.Context) ([]domain.ImpactEvent, bool) {
	var batch []domain.ImpactEvent
	select {
	case <-ctx.Done():
		return nil, false
	case e := <-p.queue:
		batch = append(make([]domain.ImpactEvent, 0, p.batchSize), e)
	}

	timer := time.NewTimer(p.flushInterval)
	defer timer.Stop()

	for len(batch) < p.batchSize {
		select {
		case <-ctx.Done():
			return batch, false
		case <-timer.C:
			return batch, true
		case e := <-p.queue:
			batch = append(batch, e)
		}
	}
	return batch, true
}

// publishWithRetry writes the batch, backing off between failures. Returns
// false if the context ended before the batch was written.
func (p *Publisher) publishWithRetry(ctx context.Context, batch []domain.ImpactEvent, backoff *time.Duration) bool {
	for {
		err := p.sink.PublishBatch(ctx, batch)
		if err == nil {
			p.metrics.EventsPublished.Add(float64(len(batch)))
			p.metrics.PublishBatchSize.Observe(float64(len(batch)))
			*backoff = p.backoff
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish batch failed", "error", err, "batch_size", len(batch), "retry_in", *backoff)
		if !sleepWithContext(ctx, *backoff) {
			return false
		}
		*backoff = nextBackoff(*backoff, maxBackoff)
	}
}

// drain writes the pending batch and anything left in the queue in one
// attempt bounded by drainTimeout. Unwritten events are counted as dropped.
func (p *Publisher) drain(pending []domain.ImpactEvent) {
loop:
	for {
		select {
		case e := <-p.queue:
			pending = append(pending, e)
		default:
			break loop
		}
	}
	if len(pending) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := p.sink.PublishBatch(ctx, pending); err != nil {
		p.metrics.EventsDropped.Add(float64(len(pending)))
		p.logger.Error("final publish failed, dropping events", "error", err, "count", len(pending))
		return
	}
	p.metrics.EventsPublished.Add(float64(len(pending)))
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
