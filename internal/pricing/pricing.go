// Package pricing implements the Pricing value object and the
// PricingLookup contract the Accountant depends on.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/money"
	"github.com/langdock/gateway-core/internal/tokens"
)

// Pricing is a read-only per-model rate card. Both prices are expressed
// in USD per one million tokens.
type Pricing struct {
	ID                     uuid.UUID
	Model                  models.ModelID
	InputPricePerMillion   float64
	OutputPricePerMillion  float64
	MaxContext             int
	UpdatedAt              time.Time
}

// New validates and constructs a Pricing row.
func New(model models.ModelID, inputPerMillion, outputPerMillion float64, maxContext int) (Pricing, error) {
	if inputPerMillion < 0 || outputPerMillion < 0 {
		return Pricing{}, fmt.Errorf("pricing: prices must be non-negative for %s", model)
	}
	if maxContext <= 0 {
		return Pricing{}, fmt.Errorf("pricing: max_context must be positive for %s", model)
	}
	return Pricing{
		ID:                    uuid.New(),
		Model:                 model,
		InputPricePerMillion:  inputPerMillion,
		OutputPricePerMillion: outputPerMillion,
		MaxContext:            maxContext,
		UpdatedAt:             time.Now().UTC(),
	}, nil
}

// Cost computes the USD cost of the given input/output token counts at
// this rate card.
func (p Pricing) Cost(input, output tokens.Count) money.Amount {
	inputCost := (float64(input.Int()) / 1_000_000) * p.InputPricePerMillion
	outputCost := (float64(output.Int()) / 1_000_000) * p.OutputPricePerMillion
	return money.FromDollars(inputCost + outputCost)
}

// Lookup is the contract the Accountant uses to resolve pricing for a
// model. Implementations may be backed by a database, an in-memory map,
// or a TTL cache wrapping either.
type Lookup interface {
	// Find returns the Pricing row for model, or ok=false if none exists.
	// Absence is not an error: the Accountant treats it as "bill zero".
	Find(ctx context.Context, model models.ModelID) (p Pricing, ok bool, err error)
}
