// Package accounting implements the Accountant component (spec.md
// section 4.F): pricing lookup, cost derivation, and RequestLog
// persistence after a successful attempt.
package accounting

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/money"
	"github.com/langdock/gateway-core/internal/pricing"
	"github.com/langdock/gateway-core/internal/tokens"
)

// Sink is the RequestLogSink contract: the core sees only this
// interface, never the persistence mechanism itself.
type Sink interface {
	Save(ctx context.Context, entry models.RequestLog) error
}

// TraceSink optionally persists per-attempt trace records. It is
// supplemental to spec.md's accounting model and failures here are
// swallowed the same way as the primary Sink.
type TraceSink interface {
	SaveTrace(ctx context.Context, trace models.AttemptTrace) error
}

// Accountant implements spec.md section 4.F.
type Accountant struct {
	pricing pricing.Lookup
	sink    Sink
	traces  TraceSink // optional; nil disables trace persistence
}

// New constructs an Accountant. traces may be nil.
func New(lookup pricing.Lookup, sink Sink, traces TraceSink) *Accountant {
	return &Accountant{pricing: lookup, sink: sink, traces: traces}
}

// Track implements the algorithm from spec.md section 4.F. Any failure
// in pricing lookup or persistence is logged and swallowed: a successful
// chat response must never be turned into a client-visible error by
// accounting, and the returned cost degrades to Zero on failure.
func (a *Accountant) Track(ctx context.Context, model models.ModelID, input, output tokens.Count, providerName string, responseTime time.Duration, wasFallback bool) money.Amount {
	cost := money.Zero

	p, found, err := a.pricing.Find(ctx, model)
	switch {
	case err != nil:
		log.WithFields(log.Fields{
			"model": model,
			"error": err.Error(),
			"event": "pricing_lookup_failed",
		}).Error("accounting: pricing lookup failed, billing zero")
	case found:
		cost = p.Cost(input, output)
	default:
		log.WithField("model", model).Debug("accounting: no pricing row, billing zero")
	}

	entry := models.NewRequestLog(model, input, output, cost, providerName, responseTime, wasFallback)

	if err := a.sink.Save(ctx, entry); err != nil {
		log.WithFields(log.Fields{
			"model":      model,
			"request_id": entry.ID,
			"error":      err.Error(),
			"event":      "log_persist_failed",
		}).Error("accounting: failed to persist request log")
		return money.Zero
	}

	return cost
}

// TrackAttempt persists a supplemental per-attempt trace, best-effort.
func (a *Accountant) TrackAttempt(ctx context.Context, trace models.AttemptTrace) {
	if a.traces == nil {
		return
	}
	if err := a.traces.SaveTrace(ctx, trace); err != nil {
		log.WithFields(log.Fields{
			"request_id": trace.RequestID,
			"error":      err.Error(),
			"event":      "trace_persist_failed",
		}).Warn("accounting: failed to persist attempt trace")
	}
}
