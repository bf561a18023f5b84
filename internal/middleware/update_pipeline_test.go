package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingSubmitter struct {
	mu       sync.Mutex
	payloads [][]byte
	fees     []uint64
	err      error
}

func (s *recordingSubmitter) SubmitUpdates(_ context.Context, payloads [][]byte, fee uint64) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.payloads = append(s.payloads, payloads...)
	s.fees = append(s.fees, fee)
	s.mu.Unlock()
	return nil
}

func (s *recordingSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

type pipelineMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newPipelineMetrics() *pipelineMetrics {
	return &pipelineMetrics{errors: make(map[string]int)}
}

func (m *pipelineMetrics) RecordResolution(string, string) {}
func (m *pipelineMetrics) RecordFallback(string)           {}
func (m *pipelineMetrics) RecordUpdate(string)             {}
func (m *pipelineMetrics) RecordLastPrice(string, float64) {}
func (m *pipelineMetrics) RecordLatency(string, float64)   {}

func (m *pipelineMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *pipelineMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func quoteFee(n int) uint64 { return uint64(n) * 7 }

func TestPipelineForwardsPayload(t *testing.T) {
	sub := &recordingSubmitter{}
	p := NewUpdatePipeline(sub, quoteFee, newPipelineMetrics())

	if err := p.Process(context.Background(), []byte("payload")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if sub.count() != 1 {
		t.Fatalf("expected 1 forwarded payload, got %d", sub.count())
	}
	if sub.fees[0] != 7 {
		t.Fatalf("pipeline must pay the quoted fee, got %d", sub.fees[0])
	}
}

func TestPipelineRejectsEmptyPayload(t *testing.T) {
	sub := &recordingSubmitter{}
	p := NewUpdatePipeline(sub, quoteFee, newPipelineMetrics())

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("empty payload must be rejected")
	}
	if sub.count() != 0 {
		t.Fatalf("empty payload must not be forwarded")
	}
}

func TestPipelineBuffersOnFailure(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("downstream down")}
	m := newPipelineMetrics()
	p := NewUpdatePipeline(sub, quoteFee, m, WithBufferSize(4))

	if err := p.Process(context.Background(), []byte("payload")); err == nil {
		t.Fatalf("downstream failure must surface")
	}
	if m.errorCount("pipeline_process") != 1 {
		t.Fatalf("failure not recorded")
	}
	// The payload is buffered for the background flusher, not dropped.
	if len(p.bufCh) != 1 {
		t.Fatalf("expected 1 buffered payload, got %d", len(p.bufCh))
	}
}

func TestPipelineThrottles(t *testing.T) {
	sub := &recordingSubmitter{}
	m := newPipelineMetrics()
	p := NewUpdatePipeline(sub, quoteFee, m, WithMaxRPS(2))

	for i := 0; i < 10; i++ {
		if err := p.Process(context.Background(), []byte("payload")); err != nil {
			t.Fatalf("throttled payloads are dropped silently: %v", err)
		}
	}
	if sub.count() >= 10 {
		t.Fatalf("expected throttling to drop some payloads")
	}
	if m.errorCount("pipeline_throttle") == 0 {
		t.Fatalf("throttle drops not recorded")
	}
}

func TestPipelineStartStopIdempotent(t *testing.T) {
	p := NewUpdatePipeline(&recordingSubmitter{}, quoteFee, newPipelineMetrics())
	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx) // second start is a no-op
	p.Stop()
	p.Stop() // second stop is a no-op
}
