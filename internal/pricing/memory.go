package pricing

import (
	"context"
	"sync"

	"github.com/langdock/gateway-core/internal/models"
)

// MemoryLookup is a simple in-memory Lookup, used by orchestration-core
// unit tests and by any deployment that seeds rates purely from config
// without a database.
type MemoryLookup struct {
	mu    sync.RWMutex
	rows  map[models.ModelID]Pricing
}

// NewMemoryLookup constructs an empty MemoryLookup.
func NewMemoryLookup() *MemoryLookup {
	return &MemoryLookup{rows: make(map[models.ModelID]Pricing)}
}

// Set installs or replaces the pricing row for a model.
func (m *MemoryLookup) Set(p Pricing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.Model] = p
}

// Find implements Lookup.
func (m *MemoryLookup) Find(_ context.Context, model models.ModelID) (Pricing, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.rows[model]
	return p, ok, nil
}
