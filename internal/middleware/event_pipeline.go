package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AstroTransits/internal/domain/models"
	domrepo "AstroTransits/internal/domain/repository"
	"AstroTransits/pkg/logger"
)

// Recorder is the minimal downstream the pipeline needs.
type Recorder interface {
	Record(ctx context.Context, e *models.TransitEvent) error
}

// BatchRecorder is a Recorder that can also send several events in one call.
// The pipeline flushes its queue through RecordBatch on shutdown.
type BatchRecorder interface {
	Recorder
	RecordBatch(ctx context.Context, events []*models.TransitEvent) error
}

type queued struct {
	event    *models.TransitEvent
	attempts int
}

// EventPipeline decouples request handlers from the event backend.
// Submit never blocks; a background worker forwards events and retries a
// failed event a bounded number of times before dropping it.
type EventPipeline struct {
	rec         Recorder
	metrics     domrepo.Metrics
	log         *logger.Logger
	bufSize     int
	maxAttempts int
	timeout     time.Duration
	bufCh       chan queued
	stopCh      chan struct{}
	done        chan struct{}
	started     bool
	mu          sync.Mutex
	backoffMin  time.Duration
	backoffMax  time.Duration
	flushSize   int
}

type PipelineOption func(*EventPipeline)

// WithBufferSize sets the queue capacity.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithMaxAttempts sets how many times one event is tried.
func WithMaxAttempts(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the pause after a failed delivery.
func WithBackoff(min, max time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		if min > 0 && max >= min {
			p.backoffMin, p.backoffMax = min, max
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *logger.Logger) PipelineOption {
	return func(p *EventPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewEventPipeline creates a new pipeline.
func NewEventPipeline(rec Recorder, metrics domrepo.Metrics, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		rec:         rec,
		metrics:     metrics,
		log:         logger.Nop(),
		bufSize:     1000,
		maxAttempts: 3,
		timeout:     5 * time.Second,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
		backoffMin:  50 * time.Millisecond,
		backoffMax:  2 * time.Second,
		flushSize:   100,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan queued, p.bufSize)
	return p
}

// Start launches the delivery worker.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		backoff := p.backoffMin
		for {
			select {
			case <-p.stopCh:
				p.drain(ctx)
				return
			case <-ctx.Done():
				return
			case q := <-p.bufCh:
				if p.deliver(ctx, q) {
					backoff = p.backoffMin
					continue
				}
				select {
				case <-time.After(backoff):
				case <-p.stopCh:
					p.drain(ctx)
					return
				}
				if backoff < p.backoffMax {
					backoff *= 2
				}
			}
		}
	}()
}

// Stop stops the worker after a best-effort drain of queued events.
func (p *EventPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.done
}

// Submit queues e. It returns false when the queue is full or e is invalid.
func (p *EventPipeline) Submit(e *models.TransitEvent) bool {
	if err := validateEvent(e); err != nil {
		p.metrics.RecordError("pipeline_validate")
		p.log.Warn("transit event rejected", logger.Error(err))
		return false
	}
	select {
	case p.bufCh <- queued{event: e}:
		return true
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return false
	}
}

// Depth returns the number of queued events.
func (p *EventPipeline) Depth() int { return len(p.bufCh) }

func (p *EventPipeline) deliver(ctx context.Context, q queued) bool {
	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.rec.Record(dctx, q.event)
	cancel()
	if err == nil {
		p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
		return true
	}

	q.attempts++
	p.metrics.RecordError("pipeline_process")
	if q.attempts >= p.maxAttempts {
		p.metrics.RecordError("pipeline_drop")
		p.log.Error("transit event dropped",
			logger.String("id", q.event.ID),
			logger.Int("attempts", q.attempts),
			logger.Error(err))
		return false
	}
	select {
	case p.bufCh <- q:
	default:
		p.metrics.RecordError("pipeline_buffer_drop")
	}
	return false
}

// drain makes one delivery attempt for every event still queued, in batches
// of flushSize when the recorder supports it.
func (p *EventPipeline) drain(ctx context.Context) {
	if br, ok := p.rec.(BatchRecorder); ok {
		p.drainBatches(ctx, br)
		return
	}
	for {
		select {
		case q := <-p.bufCh:
			q.attempts = p.maxAttempts - 1
			p.deliver(ctx, q)
		default:
			return
		}
	}
}

func (p *EventPipeline) drainBatches(ctx context.Context, br BatchRecorder) {
	batch := make([]*models.TransitEvent, 0, p.flushSize)
	for {
		select {
		case q := <-p.bufCh:
			batch = append(batch, q.event)
			if len(batch) == p.flushSize {
				p.flush(ctx, br, batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				p.flush(ctx, br, batch)
			}
			return
		}
	}
}

func (p *EventPipeline) flush(ctx context.Context, br BatchRecorder, batch []*models.TransitEvent) {
	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, p.timeout)
	err := br.RecordBatch(dctx, batch)
	cancel()
	if err != nil {
		p.metrics.RecordError("pipeline_drop")
		p.log.Error("transit events dropped on flush",
			logger.Int("count", len(batch)),
			logger.Error(err))
		return
	}
	p.metrics.RecordLatency("pipeline_flush", time.Since(start).Seconds())
}

func validateEvent(e *models.TransitEvent) error {
	if e == nil {
		return fmt.Errorf("event nil")
	}
	if e.ID == "" {
		return fmt.Errorf("event id empty")
	}
	if e.Natal == "" {
		return fmt.Errorf("natal empty")
	}
	if e.MatchCount != len(e.Matches) && len(e.Matches) > 0 {
		return fmt.Errorf("match count %d does not match %d matches", e.MatchCount, len(e.Matches))
	}
	return nil
}
