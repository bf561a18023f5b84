package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	drepo "PriceGate/internal/domain/repository"
	"PriceGate/internal/service/ratelimit"
)

// Submitter is the minimal ingestion interface the pipeline needs.
type Submitter interface {
	SubmitUpdates(ctx context.Context, payloads [][]byte, fee uint64) error
}

// UpdatePipeline sits between the provider stream and the ingestor.
// It throttles the raw payload flow and buffers payloads when the ingestor
// path is temporarily failing, flushing them in the background.
type UpdatePipeline struct {
	sub     Submitter
	fee     func(n int) uint64
	metrics drepo.Metrics
	limiter *ratelimit.Limiter

	maxRPS  float64
	bufSize int
	bufCh   chan []byte
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*UpdatePipeline)

// WithMaxRPS sets the max streamed payloads per second.
func WithMaxRPS(n float64) PipelineOption {
	return func(p *UpdatePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *UpdatePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewUpdatePipeline creates a pipeline that pays the quoted fee for each
// streamed payload out of the service's own pocket.
func NewUpdatePipeline(sub Submitter, fee func(n int) uint64, metrics drepo.Metrics, opts ...PipelineOption) *UpdatePipeline {
	p := &UpdatePipeline{
		sub:     sub,
		fee:     fee,
		metrics: metrics,
		limiter: ratelimit.New(),
		maxRPS:  50,
		bufSize: 2000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan []byte, p.bufSize)
	return p
}

// Start launches background flushing of buffered payloads.
func (p *UpdatePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case b := <-p.bufCh:
				if b == nil {
					continue
				}
				if err := p.submit(ctx, b); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- b:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *UpdatePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process throttles and forwards one streamed payload, buffering on failure.
func (p *UpdatePipeline) Process(ctx context.Context, payload []byte) error {
	start := time.Now()
	if len(payload) == 0 {
		p.metrics.RecordError("pipeline_empty_payload")
		return fmt.Errorf("empty payload")
	}
	if !p.limiter.Allow("stream", p.maxRPS, p.maxRPS) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.submit(ctx, payload); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- payload:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func (p *UpdatePipeline) submit(ctx context.Context, payload []byte) error {
	return p.sub.SubmitUpdates(ctx, [][]byte{payload}, p.fee(1))
}
