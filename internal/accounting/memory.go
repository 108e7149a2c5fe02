package accounting

import (
	"context"
	"sync"

	"github.com/langdock/gateway-core/internal/models"
)

// MemorySink is an in-memory Sink used by orchestration-core unit tests.
type MemorySink struct {
	mu      sync.Mutex
	entries []models.RequestLog
	failNext bool
}

// NewMemorySink constructs an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Save implements Sink.
func (m *MemorySink) Save(_ context.Context, entry models.RequestLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errSaveFailed
	}
	m.entries = append(m.entries, entry)
	return nil
}

// FailNextSave makes the next Save call return an error, to exercise the
// accounting-failure-must-not-mask-success invariant.
func (m *MemorySink) FailNextSave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

// Entries returns a copy of every saved RequestLog, in save order.
func (m *MemorySink) Entries() []models.RequestLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.RequestLog, len(m.entries))
	copy(out, m.entries)
	return out
}

var errSaveFailed = sinkError("accounting: simulated save failure")

type sinkError string

func (e sinkError) Error() string { return string(e) }

// MemoryTraceSink is an in-memory TraceSink used by orchestration-core
// unit tests.
type MemoryTraceSink struct {
	mu     sync.Mutex
	traces []models.AttemptTrace
}

// NewMemoryTraceSink constructs an empty MemoryTraceSink.
func NewMemoryTraceSink() *MemoryTraceSink {
	return &MemoryTraceSink{}
}

// SaveTrace implements TraceSink.
func (m *MemoryTraceSink) SaveTrace(_ context.Context, trace models.AttemptTrace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces = append(m.traces, trace)
	return nil
}

// Traces returns a copy of every saved AttemptTrace, in save order.
func (m *MemoryTraceSink) Traces() []models.AttemptTrace {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AttemptTrace, len(m.traces))
	copy(out, m.traces)
	return out
}
