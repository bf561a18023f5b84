package usecase

import (
	"context"

	drepo "PriceGate/internal/domain/repository"
	mid "PriceGate/internal/middleware"
	"PriceGate/internal/oracle"
)

// UpdateCollector drains raw payloads from the provider stream and feeds
// them through the ingestion pipeline. The service pays the provider's
// quoted fee for streamed payloads itself.
type UpdateCollector struct {
	stream   drepo.UpdateStream
	ingestor *oracle.Ingestor
	provider drepo.FeedProvider
	metrics  drepo.Metrics
	pipe     *mid.UpdatePipeline
}

// NewUpdateCollector creates a new UpdateCollector instance.
func NewUpdateCollector(stream drepo.UpdateStream, ing *oracle.Ingestor, provider drepo.FeedProvider, metrics drepo.Metrics, pipe *mid.UpdatePipeline) *UpdateCollector {
	return &UpdateCollector{stream: stream, ingestor: ing, provider: provider, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the provider stream is connected.
func (c *UpdateCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *UpdateCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	payloadCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, payloadCh, errCh)
	return nil
}

func (c *UpdateCollector) consume(ctx context.Context, payloadCh <-chan []byte, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case p := <-payloadCh:
			if len(p) == 0 {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, p)
			} else {
				_ = c.ingestor.SubmitUpdates(ctx, [][]byte{p}, c.provider.QuoteFee(1))
			}
		}
	}
}

func (c *UpdateCollector) Stop() error { return c.stream.Close() }

// Shutdown stops the pipeline and closes the stream.
func (c *UpdateCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
