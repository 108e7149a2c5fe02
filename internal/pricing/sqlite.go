package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/langdock/gateway-core/internal/models"
)

// SQLiteLookup resolves Pricing rows from the model_pricing table.
type SQLiteLookup struct {
	db *sql.DB
}

// NewSQLiteLookup wraps an already-opened, already-migrated database.
func NewSQLiteLookup(db *sql.DB) *SQLiteLookup {
	return &SQLiteLookup{db: db}
}

// Find implements Lookup.
func (s *SQLiteLookup) Find(ctx context.Context, model models.ModelID) (Pricing, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, model_name, provider_name, input_cost_per_1m_tokens,
		       output_cost_per_1m_tokens, max_context_tokens, updated_at
		FROM model_pricing WHERE model_name = ?`, string(model))

	var (
		id                              string
		modelName, providerName         string
		inputPrice, outputPrice         float64
		maxContext                      int
		updatedAt                       time.Time
	)
	err := row.Scan(&id, &modelName, &providerName, &inputPrice, &outputPrice, &maxContext, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Pricing{}, false, nil
	}
	if err != nil {
		return Pricing{}, false, fmt.Errorf("pricing: query %s: %w", model, err)
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		parsedID = uuid.New()
	}
	return Pricing{
		ID:                    parsedID,
		Model:                 models.ModelID(modelName),
		InputPricePerMillion:  inputPrice,
		OutputPricePerMillion: outputPrice,
		MaxContext:            maxContext,
		UpdatedAt:             updatedAt,
	}, true, nil
}

// Upsert inserts or replaces a pricing row, used at startup to load the
// seed pricing file.
func (s *SQLiteLookup) Upsert(ctx context.Context, p Pricing) error {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_pricing (id, model_name, provider_name, input_cost_per_1m_tokens,
			output_cost_per_1m_tokens, max_context_tokens, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(model_name) DO UPDATE SET
			provider_name = excluded.provider_name,
			input_cost_per_1m_tokens = excluded.input_cost_per_1m_tokens,
			output_cost_per_1m_tokens = excluded.output_cost_per_1m_tokens,
			max_context_tokens = excluded.max_context_tokens,
			updated_at = excluded.updated_at`,
		id.String(), string(p.Model), p.Model.Provider(), p.InputPricePerMillion,
		p.OutputPricePerMillion, p.MaxContext, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pricing: upsert %s: %w", p.Model, err)
	}
	return nil
}
