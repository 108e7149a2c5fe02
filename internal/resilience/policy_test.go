package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langdock/gateway-core/internal/provider"
)

func fastPolicy() *Policy {
	return New(RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxJitter: time.Millisecond},
		NewRegistry(BreakerConfig{FailureThreshold: 10, Cooldown: time.Minute}))
}

func TestExecuteSucceedsFirstTry(t *testing.T) {
	p := fastPolicy()
	calls := 0
	result, err := Execute(context.Background(), p, "openai", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	p := fastPolicy()
	calls := 0
	result, err := Execute(context.Background(), p, "openai", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", provider.NewHTTPStatusError(503, assertErr)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteStopsOnNonTransientFailure(t *testing.T) {
	p := fastPolicy()
	calls := 0
	_, err := Execute(context.Background(), p, "openai", func(context.Context) (string, error) {
		calls++
		return "", provider.NewHTTPStatusError(401, assertErr)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteExhaustsRetryBudget(t *testing.T) {
	p := fastPolicy()
	calls := 0
	_, err := Execute(context.Background(), p, "openai", func(context.Context) (string, error) {
		calls++
		return "", provider.NewHTTPStatusError(500, assertErr)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls) // MaxRetries=2 additional attempts beyond the first
}

func TestExecuteRespectsOpenCircuit(t *testing.T) {
	breakers := NewRegistry(BreakerConfig{FailureThreshold: 1, Cooldown: time.Hour})
	p := New(RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxJitter: time.Millisecond}, breakers)

	breakers.Get("openai").RecordFailure()

	calls := 0
	_, err := Execute(context.Background(), p, "openai", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 0, calls)
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

var assertErr = simpleError("simulated upstream failure")
