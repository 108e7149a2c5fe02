// Package orchestrator implements the AttemptLoop (spec.md section 4.B):
// it drives up to max_attempts over a fallback chain, deciding after
// each failure whether the error is transient and what model to try
// next.
package orchestrator

import (
	"fmt"

	"github.com/langdock/gateway-core/internal/models"
)

// Outcome is the sum type returned by AttemptLoop.Execute. Exactly one
// of the accessor predicates is true for any given Outcome.
type Outcome struct {
	success *SuccessOutcome
	failure *TerminalFailure
}

// SuccessOutcome carries the data of a successful attempt.
type SuccessOutcome struct {
	Content      string
	InputTokens  int
	OutputTokens int
	ModelUsed    models.ModelID
	Attempts     int
}

// TerminalFailure carries an unrecoverable failure. Cause is either a
// *problem.Error (AllProvidersFailed, ModelUnknown, UpstreamTerminal
// wrapping the adapter's error, or Internal) or ErrClientCancel, which
// the transport abandons without a response.
type TerminalFailure struct {
	Cause error
}

func (t TerminalFailure) Error() string { return fmt.Sprintf("attempt loop: %v", t.Cause) }

// Success constructs a successful Outcome.
func Success(s SuccessOutcome) Outcome { return Outcome{success: &s} }

// Failure constructs a terminal Outcome.
func Failure(cause error) Outcome { return Outcome{failure: &TerminalFailure{Cause: cause}} }

// IsSuccess reports whether the outcome succeeded.
func (o Outcome) IsSuccess() bool { return o.success != nil }

// SuccessValue returns the success payload; callers must check IsSuccess
// first.
func (o Outcome) SuccessValue() SuccessOutcome { return *o.success }

// FailureValue returns the failure payload; callers must check
// !IsSuccess first.
func (o Outcome) FailureValue() TerminalFailure { return *o.failure }
