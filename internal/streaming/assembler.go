package streaming

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/langdock/gateway-core/internal/accounting"
	"github.com/langdock/gateway-core/internal/fallback"
	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/orchestrator"
	"github.com/langdock/gateway-core/internal/provider"
	"github.com/langdock/gateway-core/internal/resilience"
	"github.com/langdock/gateway-core/internal/routing"
	"github.com/langdock/gateway-core/internal/tokens"
)

// Assembler runs the streaming variant of the AttemptLoop. Each attempt
// calls the adapter's CompleteStream directly: streaming attempts are not
// retried by the resilience policy and are not counted by, or refused
// through, the circuit breakers.
type Assembler struct {
	router      *routing.Router
	adapter     provider.Adapter
	resilience  *resilience.Policy
	chain       *fallback.Chain
	accountant  *accounting.Accountant
	maxAttempts int
}

// New constructs an Assembler.
func New(router *routing.Router, adapter provider.Adapter, policy *resilience.Policy, chain *fallback.Chain, accountant *accounting.Accountant, maxAttempts int) *Assembler {
	if maxAttempts <= 0 {
		maxAttempts = orchestrator.MaxAttempts
	}
	return &Assembler{router: router, adapter: adapter, resilience: policy, chain: chain, accountant: accountant, maxAttempts: maxAttempts}
}

// RunStream validates routing synchronously (so a TokenLimitExceeded
// error can still be surfaced as an HTTP status before any bytes are
// written; a model missing from the fallback chain is only detected
// later, when a fallback is attempted, and ends the stream) and then returns a channel of Frame. The channel is
// closed when the stream ends; a clean end is always preceded by exactly
// one Complete frame, an abnormal end is not. requestID tags every
// per-attempt trace emitted along the way.
func (a *Assembler) RunStream(ctx context.Context, req *models.ChatRequest, requestID string) (<-chan Frame, error) {
	estimated := routing.EstimateTokens(req)
	initialModel, err := a.router.Select(estimated, req.Model)
	if err != nil {
		return nil, err
	}

	out := make(chan Frame)
	go a.run(ctx, req, initialModel, estimated, requestID, out)
	return out, nil
}

func (a *Assembler) run(ctx context.Context, req *models.ChatRequest, initialModel models.ModelID, estimatedInput tokens.Count, requestID string, out chan<- Frame) {
	defer close(out)

	start := time.Now()
	currentModel := initialModel
	var attempted []models.ModelID
	attemptsMade := 0
	outputTokensEst := 0
	emittedAny := false

	for {
		attempted = append(attempted, currentModel)
		attemptsMade++
		attemptStart := time.Now()
		outputForAttempt := 0

		fragCh, errCh := a.adapter.CompleteStream(ctx, req.Messages, currentModel, req.EffectiveTemperature(), req.EffectiveMaxTokens())

		var usage *provider.Usage
		for frag := range fragCh {
			if frag.Usage != nil {
				usage = frag.Usage
			}
			if frag.Content == "" {
				continue
			}
			select {
			case out <- Chunk(frag.Content):
			case <-ctx.Done():
				return // caller hung up: abandon silently, no accounting
			}
			outputTokensEst++
			outputForAttempt++
			emittedAny = true
		}

		var streamErr error
		select {
		case streamErr = <-errCh:
		case <-ctx.Done():
			return
		}
		attemptEnd := time.Now()

		attemptInputTokens := estimatedInput.Int()
		if usage != nil && usage.InputTokens > 0 {
			attemptInputTokens = usage.InputTokens
		}
		attemptOutputTokens := outputForAttempt
		if usage != nil && usage.OutputTokens > 0 {
			attemptOutputTokens = usage.OutputTokens
		}

		if streamErr == nil {
			a.trace(ctx, requestID, currentModel, attemptsMade, attemptStart, attemptEnd, "success", nil, attemptInputTokens, attemptOutputTokens)
			a.finish(ctx, currentModel, estimatedInput, outputTokensEst, attemptsMade, start, out)
			return
		}

		if provider.IsClientCancel(streamErr) {
			return
		}

		transient := provider.IsTransient(streamErr) || errors.Is(streamErr, resilience.ErrCircuitOpen)

		a.trace(ctx, requestID, currentModel, attemptsMade, attemptStart, attemptEnd, "failed", streamErr, attemptInputTokens, attemptOutputTokens)

		log.WithFields(log.Fields{
			"model":        currentModel,
			"attempt":      attemptsMade,
			"emitted_any":  emittedAny,
			"transient":    transient,
			"error":        streamErr.Error(),
		}).Warn("streaming: attempt failed")

		if emittedAny {
			// Partial content is already bound to this model in the
			// caller's eyes: no fallback mid-stream. Close without a
			// Complete frame; the client detects an incomplete stream.
			return
		}

		if transient && attemptsMade < a.maxAttempts {
			nextModel, chainErr := a.chain.Next(currentModel, attempted)
			if chainErr != nil {
				log.WithField("error", chainErr.Error()).Warn("streaming: no fallback model available before first chunk")
				return
			}
			currentModel = nextModel
			continue
		}

		// Terminal, and nothing was ever emitted: still no HTTP status
		// is available here because SSE headers are already committed
		// by the time this goroutine runs; close without Complete.
		return
	}
}

// trace records one streaming attempt as a supplemental AttemptTrace.
func (a *Assembler) trace(ctx context.Context, requestID string, model models.ModelID, attemptNumber int, started, ended time.Time, status string, streamErr error, inputTokens, outputTokens int) {
	t := models.AttemptTrace{
		RequestID:     requestID,
		AttemptNumber: attemptNumber,
		Model:         model,
		Provider:      model.Provider(),
		StartedAt:     started,
		EndedAt:       ended,
		Status:        status,
		LatencyMs:     ended.Sub(started).Milliseconds(),
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
	}
	if streamErr != nil {
		t.ErrorKind = provider.KindOf(streamErr)
		t.ErrorMessage = streamErr.Error()
	}
	a.accountant.TrackAttempt(ctx, t)
}

func (a *Assembler) finish(ctx context.Context, model models.ModelID, estimatedInput tokens.Count, outputTokensEst int, attemptsMade int, start time.Time, out chan<- Frame) {
	responseTime := time.Since(start)

	// Billing uses the router's input token estimate, not any
	// upstream-reported usage (see DESIGN.md Open Question 1 for the
	// output-side heuristic this mirrors).
	inputTokens := estimatedInput
	outputTokens := tokens.Of(outputTokensEst)

	cost := a.accountant.Track(ctx, model, inputTokens, outputTokens, model.Provider(), responseTime, attemptsMade > 1)

	responseMs := responseTime.Milliseconds()
	if responseMs <= 0 {
		responseMs = 1
	}
	avgTokensPerSec := float64(outputTokensEst) * 1000 / float64(responseMs)

	meta := CompleteMetadata{
		Model:              string(model),
		TotalTokens:        outputTokensEst,
		ResponseTimeMs:     responseTime.Milliseconds(),
		AvgTokensPerSecond: avgTokensPerSec,
		EstimatedCostUSD:   cost.Dollars(),
		Provider:           model.Provider(),
	}

	select {
	case out <- Complete(meta):
	case <-ctx.Done():
	}
}
