// Package routing implements the Router component (spec.md section 4.A):
// it picks the initial model for a request from an estimated token count
// and an optional user-requested model.
package routing

import (
	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/problem"
	"github.com/langdock/gateway-core/internal/tokens"
)

// Constants from spec.md section 6.
const (
	StandardContextLimit = 10_000
	LargeContextLimit    = 200_000
)

// Config carries the three routing-target model ids. All three must be
// distinct, non-blank ids.
type Config struct {
	DefaultModel      models.ModelID
	LargeContextModel models.ModelID
	BalancedModel     models.ModelID
}

// Router selects the initial model for a request.
type Router struct {
	cfg Config
}

// New constructs a Router from routing config.
func New(cfg Config) *Router {
	return &Router{cfg: cfg}
}

// EstimateTokens applies the character-count heuristic across every
// message's content. It is deliberately crude (see tokens.EstimateText)
// and is used only for routing, never for billing.
func EstimateTokens(req *models.ChatRequest) tokens.Count {
	return tokens.EstimateMessages(req.MessageContents())
}

// Select implements the ordered rules from spec.md section 4.A.
func (r *Router) Select(estimated tokens.Count, userModel models.ModelID) (models.ModelID, error) {
	if estimated.Exceeds(LargeContextLimit) {
		return "", problem.TokenLimitExceeded(estimated.Int(), LargeContextLimit)
	}
	if !userModel.Empty() {
		return userModel, nil
	}
	if estimated.Exceeds(StandardContextLimit) {
		return r.cfg.LargeContextModel, nil
	}
	return r.cfg.DefaultModel, nil
}
