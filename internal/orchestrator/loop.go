package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/langdock/gateway-core/internal/accounting"
	"github.com/langdock/gateway-core/internal/fallback"
	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/problem"
	"github.com/langdock/gateway-core/internal/provider"
	"github.com/langdock/gateway-core/internal/resilience"
)

// MaxAttempts is the hard cap on model-level attempts per request,
// independent of the ResiliencePolicy's own per-model retry budget.
const MaxAttempts = 3

// ErrClientCancel is a sentinel failure cause meaning the caller hung up
// mid-attempt. It is not an error the transport layer surfaces: the
// gateway must recognize it via errors.Is and abandon the response
// entirely, per spec.md section 7.
var ErrClientCancel = errors.New("orchestrator: client cancelled")

// Loop drives the AttemptLoop protocol from spec.md section 4.B.
type Loop struct {
	adapter     provider.Adapter
	resilience  *resilience.Policy
	chain       *fallback.Chain
	accountant  *accounting.Accountant
	maxAttempts int
}

// New constructs a Loop. maxAttempts of 0 defaults to MaxAttempts.
// accountant may be nil, in which case per-attempt traces are skipped.
func New(adapter provider.Adapter, policy *resilience.Policy, chain *fallback.Chain, accountant *accounting.Accountant, maxAttempts int) *Loop {
	if maxAttempts <= 0 {
		maxAttempts = MaxAttempts
	}
	return &Loop{adapter: adapter, resilience: policy, chain: chain, accountant: accountant, maxAttempts: maxAttempts}
}

// Execute runs the attempt loop starting at initialModel. requestID tags
// every per-attempt trace emitted along the way; it does not otherwise
// affect routing or billing.
func (l *Loop) Execute(ctx context.Context, req *models.ChatRequest, initialModel models.ModelID, requestID string) Outcome {
	currentModel := initialModel
	var attempted []models.ModelID
	attemptsMade := 0

	for {
		attempted = append(attempted, currentModel)
		attemptsMade++
		attemptStart := time.Now()

		result, callErr := resilience.Execute(ctx, l.resilience, currentModel.Provider(), func(ctx context.Context) (provider.CompletionResult, error) {
			return l.adapter.Complete(ctx, req.Messages, currentModel, req.EffectiveTemperature(), req.EffectiveMaxTokens())
		})
		attemptEnd := time.Now()

		var transient bool
		var attemptErr error

		switch {
		case callErr == nil && result.Content != "":
			l.trace(ctx, requestID, currentModel, attemptsMade, attemptStart, attemptEnd, "success", nil, result.InputTokens, result.OutputTokens)
			return Success(SuccessOutcome{
				Content:      result.Content,
				InputTokens:  result.InputTokens,
				OutputTokens: result.OutputTokens,
				ModelUsed:    currentModel,
				Attempts:     attemptsMade,
			})
		case callErr == nil:
			// Success with an empty result list/content: treat as a
			// transient failure of this attempt (spec.md section 4.B
			// rule 4).
			transient = true
			attemptErr = fmt.Errorf("empty completion returned by %s", currentModel)
		default:
			if provider.IsClientCancel(callErr) {
				l.trace(ctx, requestID, currentModel, attemptsMade, attemptStart, attemptEnd, "failed", callErr, result.InputTokens, result.OutputTokens)
				return Failure(ErrClientCancel)
			}
			transient = provider.IsTransient(callErr) || errors.Is(callErr, resilience.ErrCircuitOpen)
			attemptErr = callErr
		}

		l.trace(ctx, requestID, currentModel, attemptsMade, attemptStart, attemptEnd, "failed", attemptErr, result.InputTokens, result.OutputTokens)

		log.WithFields(log.Fields{
			"model":     currentModel,
			"attempt":   attemptsMade,
			"transient": transient,
			"error":     attemptErr.Error(),
		}).Warn("orchestrator: attempt failed")

		if transient && attemptsMade < l.maxAttempts {
			nextModel, chainErr := l.chain.Next(currentModel, attempted)
			if chainErr != nil {
				return Failure(classifyChainError(chainErr))
			}
			currentModel = nextModel
			continue
		}

		if !transient {
			// A single non-transient upstream rejection aborts
			// immediately; this is UpstreamTerminal, not exhaustion.
			return Failure(problem.UpstreamTerminal(attemptErr))
		}

		// Transient, but the attempt budget is exhausted.
		return Failure(problem.AllProvidersFailed(modelStrings(attempted)))
	}
}

// trace records one AttemptLoop iteration as a supplemental AttemptTrace.
// A nil accountant (unit tests that don't care about traces) makes this
// a no-op.
func (l *Loop) trace(ctx context.Context, requestID string, model models.ModelID, attemptNumber int, started, ended time.Time, status string, callErr error, inputTokens, outputTokens int) {
	if l.accountant == nil {
		return
	}
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
	if callErr != nil {
		t.ErrorKind = provider.KindOf(callErr)
		t.ErrorMessage = callErr.Error()
	}
	l.accountant.TrackAttempt(ctx, t)
}

func classifyChainError(err error) error {
	var notInChain fallback.ErrNotInChain
	if errors.As(err, &notInChain) {
		return problem.ModelUnknown(string(notInChain.Model))
	}
	var exhausted fallback.ErrExhausted
	if errors.As(err, &exhausted) {
		return problem.AllProvidersFailed(modelStrings(exhausted.Attempted))
	}
	return problem.Internal(err)
}

func modelStrings(ids []models.ModelID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
