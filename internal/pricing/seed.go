package pricing

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/langdock/gateway-core/internal/models"
)

// seedFile mirrors configs/pricing.yaml.
type seedFile struct {
	Models []seedEntry `yaml:"models"`
}

type seedEntry struct {
	Model                 string  `yaml:"model"`
	InputPricePerMillion  float64 `yaml:"inputPricePerMillion"`
	OutputPricePerMillion float64 `yaml:"outputPricePerMillion"`
	MaxContext            int     `yaml:"maxContext"`
}

// Upserter is the subset of SQLiteLookup used by LoadSeed, so the seed
// loader can be exercised against any upsert-capable store.
type Upserter interface {
	Upsert(ctx context.Context, p Pricing) error
}

// LoadSeed reads a pricing.yaml file and upserts every entry into store.
// It is run once at startup; failures for individual rows are collected
// and returned together rather than aborting the whole seed.
func LoadSeed(ctx context.Context, path string, store Upserter) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pricing: read seed %s: %w", path, err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("pricing: parse seed %s: %w", path, err)
	}

	var errs []error
	for _, entry := range file.Models {
		p, err := New(models.ModelID(entry.Model), entry.InputPricePerMillion, entry.OutputPricePerMillion, entry.MaxContext)
		if err != nil {
			errs = append(errs, fmt.Errorf("pricing: seed row %s: %w", entry.Model, err))
			continue
		}
		if err := store.Upsert(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("pricing: upsert seed row %s: %w", entry.Model, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("pricing: %d seed row(s) failed: %v", len(errs), errs)
	}
	return nil
}
