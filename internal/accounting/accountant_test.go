package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/pricing"
	"github.com/langdock/gateway-core/internal/tokens"
)

func TestTrackComputesCostAndPersists(t *testing.T) {
	lookup := pricing.NewMemoryLookup()
	p, err := pricing.New("mock/default", 2.0, 4.0, 10000)
	require.NoError(t, err)
	lookup.Set(p)

	sink := NewMemorySink()
	acc := New(lookup, sink, nil)

	cost := acc.Track(context.Background(), "mock/default", tokens.Of(1_000_000), tokens.Of(500_000), "mock", 10*time.Millisecond, false)

	assert.Equal(t, 2.0+2.0, cost.Dollars())
	require.Len(t, sink.Entries(), 1)
	assert.Equal(t, "mock", sink.Entries()[0].ProviderName)
}

func TestTrackBillsZeroWhenPricingMissing(t *testing.T) {
	lookup := pricing.NewMemoryLookup()
	sink := NewMemorySink()
	acc := New(lookup, sink, nil)

	cost := acc.Track(context.Background(), "mock/unknown", tokens.Of(100), tokens.Of(100), "mock", time.Millisecond, false)
	assert.True(t, cost.IsZero())
}

func TestTrackBillsZeroWhenSaveFails(t *testing.T) {
	lookup := pricing.NewMemoryLookup()
	p, err := pricing.New("mock/default", 1.0, 1.0, 10000)
	require.NoError(t, err)
	lookup.Set(p)

	sink := NewMemorySink()
	sink.FailNextSave()
	acc := New(lookup, sink, nil)

	cost := acc.Track(context.Background(), "mock/default", tokens.Of(1_000_000), tokens.Of(0), "mock", time.Millisecond, false)
	assert.True(t, cost.IsZero())
	assert.Empty(t, sink.Entries())
}

func TestTrackAttemptPersistsTrace(t *testing.T) {
	traces := NewMemoryTraceSink()
	acc := New(pricing.NewMemoryLookup(), NewMemorySink(), traces)

	acc.TrackAttempt(context.Background(), models.AttemptTrace{
		RequestID:     "req-1",
		AttemptNumber: 1,
		Model:         "mock/default",
		Status:        "success",
	})

	require.Len(t, traces.Traces(), 1)
	assert.Equal(t, "req-1", traces.Traces()[0].RequestID)
}

func TestTrackAttemptIsNoopWithoutTraceSink(t *testing.T) {
	acc := New(pricing.NewMemoryLookup(), NewMemorySink(), nil)
	acc.TrackAttempt(context.Background(), models.AttemptTrace{RequestID: "req-1"})
}
