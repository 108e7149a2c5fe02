// Package fallback implements the FallbackChain pure function (spec.md
// section 4.E): given a failed model and the set already attempted,
// deterministically picks the next model to try.
package fallback

import (
	"fmt"

	"github.com/langdock/gateway-core/internal/models"
)

// Chain is a configured, ordered sequence of model ids. The ordering is
// configuration (spec.md section 9, Open Question 3); this deployment
// uses [LargeContextModel, BalancedModel, DefaultModel].
type Chain struct {
	models []models.ModelID
}

// New constructs a Chain from an ordered, non-empty list of model ids.
// Duplicate ids are rejected since they would make "already attempted"
// ambiguous.
func New(ordered ...models.ModelID) (*Chain, error) {
	if len(ordered) == 0 {
		return nil, fmt.Errorf("fallback: chain must be non-empty")
	}
	seen := make(map[models.ModelID]bool, len(ordered))
	for _, m := range ordered {
		if m.Empty() {
			return nil, fmt.Errorf("fallback: chain entries must be non-blank")
		}
		if seen[m] {
			return nil, fmt.Errorf("fallback: chain entries must be distinct, got duplicate %s", m)
		}
		seen[m] = true
	}
	cp := make([]models.ModelID, len(ordered))
	copy(cp, ordered)
	return &Chain{models: cp}, nil
}

// ErrNotInChain indicates the failed model has no entry in the chain.
type ErrNotInChain struct{ Model models.ModelID }

func (e ErrNotInChain) Error() string {
	return fmt.Sprintf("fallback: model %s is not present in the fallback chain", e.Model)
}

// ErrExhausted indicates every chain member has already been attempted.
type ErrExhausted struct{ Attempted []models.ModelID }

func (e ErrExhausted) Error() string {
	return fmt.Sprintf("fallback: all providers failed after attempting %v", e.Attempted)
}

// Next finds failedModel's index in the chain and scans circularly from
// index+1, returning the first entry not present in attempted. It never
// returns a model already in attempted; every successful call strictly
// extends the attempt set.
func (c *Chain) Next(failedModel models.ModelID, attempted []models.ModelID) (models.ModelID, error) {
	idx := -1
	for i, m := range c.models {
		if m == failedModel {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", ErrNotInChain{Model: failedModel}
	}

	attemptedSet := make(map[models.ModelID]bool, len(attempted))
	for _, m := range attempted {
		attemptedSet[m] = true
	}

	n := len(c.models)
	for step := 1; step <= n; step++ {
		candidate := c.models[(idx+step)%n]
		if !attemptedSet[candidate] {
			return candidate, nil
		}
	}
	return "", ErrExhausted{Attempted: attempted}
}

// Models returns a copy of the configured chain, in order.
func (c *Chain) Models() []models.ModelID {
	cp := make([]models.ModelID, len(c.models))
	copy(cp, c.models)
	return cp
}
