// Package provider defines the ProviderAdapter contract (spec.md section
// 4.C): a single-attempt call against one upstream model, in both unary
// and streaming forms. Concrete implementations (e.g. httpadapter) are
// collaborators outside the orchestration core; this package only fixes
// the contract the core depends on.
package provider

import (
	"context"

	"github.com/langdock/gateway-core/internal/models"
)

// Usage carries token counts reported by the upstream provider. A nil
// *Usage (in StreamFragment) means the provider did not report usage for
// that fragment; CompletionResult.InputTokens/OutputTokens are always
// present (0 if unknown), with the core responsible for falling back to
// its own estimate when they are zero.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// CompletionResult is the outcome of a successful unary Complete call.
type CompletionResult struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// StreamFragment is one element of a CompleteStream sequence. Content is
// empty on the final fragment that only carries Usage, if the provider
// sends usage as a separate trailing event; providers that attach usage
// to the last content-bearing fragment set both.
type StreamFragment struct {
	Content string
	Usage   *Usage
}

// Adapter is the capability interface the AttemptLoop and
// StreamingAssembler depend on. Implementations must be safe for
// concurrent use by multiple in-flight requests.
type Adapter interface {
	// Complete performs one unary attempt against model. cancel (carried
	// by ctx) must be honored within a bounded delay.
	Complete(ctx context.Context, messages []models.ChatMessage, model models.ModelID, temperature float64, maxTokens int) (CompletionResult, error)

	// CompleteStream performs one streaming attempt against model.
	// Contract: the fragment channel is closed exactly once, when the
	// upstream stream ends (successfully or on error). After it closes,
	// the error channel yields exactly one value — nil for a clean end,
	// or the terminal/transient cause otherwise — and is then closed
	// itself. Callers must drain the fragment channel fully before
	// reading the error channel.
	CompleteStream(ctx context.Context, messages []models.ChatMessage, model models.ModelID, temperature float64, maxTokens int) (<-chan StreamFragment, <-chan error)
}
