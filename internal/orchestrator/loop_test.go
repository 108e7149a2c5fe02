package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langdock/gateway-core/internal/accounting"
	"github.com/langdock/gateway-core/internal/fallback"
	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/pricing"
	"github.com/langdock/gateway-core/internal/problem"
	"github.com/langdock/gateway-core/internal/provider"
	"github.com/langdock/gateway-core/internal/provider/providertest"
	"github.com/langdock/gateway-core/internal/resilience"
)

func testChain(t *testing.T) *fallback.Chain {
	c, err := fallback.New("large", "balanced", "default")
	require.NoError(t, err)
	return c
}

func testPolicy() *resilience.Policy {
	return resilience.New(
		resilience.RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond, MaxJitter: 0},
		resilience.NewRegistry(resilience.BreakerConfig{FailureThreshold: 100, Cooldown: time.Minute}),
	)
}

func testAccountant(traces accounting.TraceSink) *accounting.Accountant {
	return accounting.New(pricing.NewMemoryLookup(), accounting.NewMemorySink(), traces)
}

func testRequest() *models.ChatRequest {
	return &models.ChatRequest{Messages: []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}}}
}

func TestExecuteSucceedsOnFirstModel(t *testing.T) {
	adapter := providertest.NewFakeAdapter().
		ScriptComplete("large", providertest.Response{Result: provider.CompletionResult{Content: "hello"}})

	loop := New(adapter, testPolicy(), testChain(t), testAccountant(nil), 3)
	outcome := loop.Execute(context.Background(), testRequest(), "large", "req-1")

	require.True(t, outcome.IsSuccess())
	s := outcome.SuccessValue()
	assert.Equal(t, "hello", s.Content)
	assert.Equal(t, 1, s.Attempts)
	assert.Equal(t, models.ModelID("large"), s.ModelUsed)
}

func TestExecuteFallsBackOnTransientFailure(t *testing.T) {
	adapter := providertest.NewFakeAdapter().
		ScriptComplete("large", providertest.Response{Err: provider.NewHTTPStatusError(503, errBoom)}).
		ScriptComplete("balanced", providertest.Response{Result: provider.CompletionResult{Content: "ok"}})

	loop := New(adapter, testPolicy(), testChain(t), testAccountant(nil), 3)
	outcome := loop.Execute(context.Background(), testRequest(), "large", "req-1")

	require.True(t, outcome.IsSuccess())
	assert.Equal(t, models.ModelID("balanced"), outcome.SuccessValue().ModelUsed)
	assert.Equal(t, 2, outcome.SuccessValue().Attempts)
}

func TestExecuteReturnsUpstreamTerminalOnNonTransientFailure(t *testing.T) {
	adapter := providertest.NewFakeAdapter().
		ScriptComplete("large", providertest.Response{Err: provider.NewHTTPStatusError(401, errBoom)})

	loop := New(adapter, testPolicy(), testChain(t), testAccountant(nil), 3)
	outcome := loop.Execute(context.Background(), testRequest(), "large", "req-1")

	require.False(t, outcome.IsSuccess())
	var perr *problem.Error
	require.ErrorAs(t, outcome.FailureValue().Cause, &perr)
	assert.Equal(t, problem.KindUpstreamTerminal, perr.Kind)
}

func TestExecuteReturnsAllProvidersFailedWhenChainExhausted(t *testing.T) {
	adapter := providertest.NewFakeAdapter().
		ScriptComplete("large", providertest.Response{Err: provider.NewHTTPStatusError(503, errBoom)}).
		ScriptComplete("balanced", providertest.Response{Err: provider.NewHTTPStatusError(503, errBoom)}).
		ScriptComplete("default", providertest.Response{Err: provider.NewHTTPStatusError(503, errBoom)})

	loop := New(adapter, testPolicy(), testChain(t), testAccountant(nil), 3)
	outcome := loop.Execute(context.Background(), testRequest(), "large", "req-1")

	require.False(t, outcome.IsSuccess())
	var perr *problem.Error
	require.ErrorAs(t, outcome.FailureValue().Cause, &perr)
	assert.Equal(t, problem.KindAllProvidersFailed, perr.Kind)
}

func TestExecuteReturnsClientCancelSentinel(t *testing.T) {
	adapter := providertest.NewFakeAdapter().
		ScriptComplete("large", providertest.Response{Err: provider.NewCancelError(errBoom)})

	loop := New(adapter, testPolicy(), testChain(t), testAccountant(nil), 3)
	outcome := loop.Execute(context.Background(), testRequest(), "large", "req-1")

	require.False(t, outcome.IsSuccess())
	assert.ErrorIs(t, outcome.FailureValue().Cause, ErrClientCancel)
}

func TestExecuteTreatsEmptyContentAsTransient(t *testing.T) {
	adapter := providertest.NewFakeAdapter().
		ScriptComplete("large", providertest.Response{Result: provider.CompletionResult{}}).
		ScriptComplete("balanced", providertest.Response{Result: provider.CompletionResult{Content: "ok"}})

	loop := New(adapter, testPolicy(), testChain(t), testAccountant(nil), 3)
	outcome := loop.Execute(context.Background(), testRequest(), "large", "req-1")

	require.True(t, outcome.IsSuccess())
	assert.Equal(t, models.ModelID("balanced"), outcome.SuccessValue().ModelUsed)
}

func TestExecuteRecordsAttemptTraces(t *testing.T) {
	adapter := providertest.NewFakeAdapter().
		ScriptComplete("large", providertest.Response{Err: provider.NewHTTPStatusError(503, errBoom)}).
		ScriptComplete("balanced", providertest.Response{Result: provider.CompletionResult{Content: "ok"}})

	traces := accounting.NewMemoryTraceSink()
	loop := New(adapter, testPolicy(), testChain(t), testAccountant(traces), 3)
	outcome := loop.Execute(context.Background(), testRequest(), "large", "req-42")
	require.True(t, outcome.IsSuccess())

	got := traces.Traces()
	require.Len(t, got, 2)
	assert.Equal(t, "req-42", got[0].RequestID)
	assert.Equal(t, 1, got[0].AttemptNumber)
	assert.Equal(t, "failed", got[0].Status)
	assert.Equal(t, models.ModelID("large"), got[0].Model)
	assert.Equal(t, 2, got[1].AttemptNumber)
	assert.Equal(t, "success", got[1].Status)
	assert.Equal(t, models.ModelID("balanced"), got[1].Model)
}

type errBoomType string

func (e errBoomType) Error() string { return string(e) }

var errBoom = errBoomType("boom")
