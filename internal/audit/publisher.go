// Package audit ships a record of every answered request to a batch sink
// without ever delaying the spoken response.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/observability"
)

const (
	// queueFactor sizes the in-memory queue as a multiple of the batch size.
	queueFactor = 8

	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// finalFlushTimeout bounds the last write attempted after shutdown begins.
	finalFlushTimeout = 5 * time.Second
)

// BatchLoader writes dispatch records to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.DispatchRecord) error
}

// Publisher buffers dispatch records and flushes them in batches, either when
// a batch fills or when the flush interval elapses.
type Publisher struct {
	loader        BatchLoader
	queue         chan domain.DispatchRecord
	logger        *slog.Logger
	metrics       *observability.Metrics
	batchSize     int
	flushInterval time.Duration
}

// NewPublisher creates a Publisher. Call Run to start flushing.
func NewPublisher(loader BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, flushInterval time.Duration) *Publisher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Publisher{
		loader:        loader,
		queue:         make(chan domain.DispatchRecord, batchSize*queueFactor),
		logger:        logger,
		metrics:       metrics,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Record enqueues rec. It never blocks; when the queue is full the record is
// dropped and counted.
func (p *Publisher) Record(rec domain.DispatchRecord) {
	select {
	case p.queue <- rec:
	default:
		p.metrics.AuditDropped.Inc()
		p.logger.Warn("audit queue full, dropping record", "request_id", rec.RequestID)
	}
}

// Run flushes queued records until the context is cancelled, then makes one
// last attempt to write whatever is still buffered.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("audit publisher started", "batch_size", p.batchSize, "flush_interval", p.flushInterval)
	p.metrics.AuditRunning.Set(1)
	defer p.metrics.AuditRunning.Set(0)

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	batch := make([]domain.DispatchRecord, 0, p.batchSize)
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("audit publisher stopping", "reason", ctx.Err())
			p.finalFlush(ctx, batch)
			return nil
		case rec := <-p.queue:
			batch = append(batch, rec)
			if len(batch) < p.batchSize {
				continue
			}
		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
		}

		if !p.flush(ctx, batch, &backoff) {
			p.finalFlush(ctx, batch)
			return nil
		}
		batch = batch[:0]
	}
}

// flush writes batch, retrying with exponential backoff. Returns false if the
// context was cancelled before the write succeeded.
func (p *Publisher) flush(ctx context.Context, batch []domain.DispatchRecord, backoff *time.Duration) bool {
	for {
		err := p.loader.LoadBatch(ctx, batch)
		if err == nil {
			p.published(batch)
			*backoff = initialBackoff
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("audit batch failed", "error", err, "batch_size", len(batch))
		if !sleepWithContext(ctx, *backoff) {
			return false
		}
		*backoff = nextBackoff(*backoff, maxBackoff)
	}
}

// finalFlush drains the queue into batch and writes it once on a context
// detached from the cancelled one.
func (p *Publisher) finalFlush(ctx context.Context, batch []domain.DispatchRecord) {
drain:
	for {
		select {
		case rec := <-p.queue:
			batch = append(batch, rec)
		default:
			break drain
		}
	}
	if len(batch) == 0 {
		return
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
	defer cancel()
	if err := p.loader.LoadBatch(flushCtx, batch); err != nil {
		p.metrics.AuditDropped.Add(float64(len(batch)))
		p.logger.Error("final audit flush failed", "error", err, "batch_size", len(batch))
		return
	}
	p.published(batch)
}

func (p *Publisher) published(batch []domain.DispatchRecord) {
	p.metrics.AuditPublished.Add(float64(len(batch)))
	p.metrics.AuditBatchSize.Observe(float64(len(batch)))
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
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
