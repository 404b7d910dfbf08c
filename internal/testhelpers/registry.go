package testhelpers

import (
	"sync"

	"crm-gateway/internal/connectors"
)

var _ connectors.AdapterProvider = (*AdapterRegistry)(nil)

// AdapterRegistry hands out adapters by account id
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[string]connectors.Adapter

	CapturedLookups []string
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: map[string]connectors.Adapter{},
	}
}

func (r *AdapterRegistry) Add(accountID string, adapter connectors.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[accountID] = adapter
}

func (r *AdapterRegistry) Remove(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, accountID)
}

func (r *AdapterRegistry) GetAdapter(id string) (connectors.Adapter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CapturedLookups = append(r.CapturedLookups, id)
	adapter, ok := r.adapters[id]
	return adapter, ok
}
