// Package resilience implements the ResiliencePolicy component (spec.md
// section 4.D): retry with backoff+jitter composed outside of a
// per-provider circuit breaker.
package resilience

import (
	"context"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/langdock/gateway-core/internal/provider"
)

// RetryConfig configures the retry layer.
type RetryConfig struct {
	MaxRetries int           // additional attempts beyond the first; default 2
	BaseDelay  time.Duration // default 500ms
	MaxJitter  time.Duration // default 250ms
}

// DefaultRetryConfig matches the defaults in spec.md section 4.D.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 2, BaseDelay: 500 * time.Millisecond, MaxJitter: 250 * time.Millisecond}
}

// Policy composes the retry layer (outer) with a per-provider Breaker
// registry (inner): "retry wraps breaker" means every retry attempt,
// including the first, must pass the breaker's Allow() check before the
// wrapped call runs. A retry that trips the breaker therefore sees
// ErrCircuitOpen on its next attempt instead of reaching the real call.
type Policy struct {
	retry    RetryConfig
	breakers *Registry
	rng      *rand.Rand
	// rand.Rand is not safe for concurrent use; every call to Execute
	// draws jitter from the shared source, so guard it with a mutex.
	rngMu sync.Mutex
}

// New constructs a Policy. breakers must be shared process-wide across
// every request handled by the gateway.
func New(retry RetryConfig, breakers *Registry) *Policy {
	return &Policy{
		retry:    retry,
		breakers: breakers,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *Policy) jitter() time.Duration {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	if p.retry.MaxJitter <= 0 {
		return 0
	}
	return time.Duration(p.rng.Int63n(int64(p.retry.MaxJitter)))
}

func (p *Policy) backoff(attempt int) time.Duration {
	// attempt k (1-indexed retry) sleeps base * 2^(k-1) + jitter.
	mult := int64(1) << uint(attempt-1)
	return p.retry.BaseDelay*time.Duration(mult) + p.jitter()
}

// Execute runs fn against providerName through the breaker, retrying on
// transient failures up to retry.MaxRetries additional times. fn is
// always invoked with the same model id; Execute never changes models,
// that is the AttemptLoop's concern.
func Execute[T any](ctx context.Context, p *Policy, providerName string, fn func(context.Context) (T, error)) (T, error) {
	breaker := p.breakers.Get(providerName)

	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.retry.MaxRetries+1; attempt++ {
		if attempt > 1 {
			d := p.backoff(attempt - 1)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(d):
			}
		}

		if err := breaker.Allow(); err != nil {
			lastErr = err
			log.WithFields(log.Fields{
				"provider": providerName,
				"attempt":  attempt,
				"event":    "circuit_open",
			}).Warn("resilience: call refused by open circuit")
			return zero, lastErr
		}

		result, err := fn(ctx)
		if err == nil {
			breaker.RecordSuccess()
			return result, nil
		}

		breaker.RecordFailure()
		lastErr = err

		if !provider.IsTransient(err) {
			return zero, err
		}

		if attempt > p.retry.MaxRetries {
			log.WithFields(log.Fields{
				"provider": providerName,
				"attempts": attempt,
				"error":    err.Error(),
				"event":    "retries_exhausted",
			}).Warn("resilience: retry budget exhausted")
			break
		}

		log.WithFields(log.Fields{
			"provider": providerName,
			"attempt":  attempt,
			"error":    err.Error(),
			"event":    "retrying",
		}).Warn("resilience: transient failure, retrying")
	}

	return zero, lastErr
}
